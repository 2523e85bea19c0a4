package restyutil

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

const redacted = "<REDACTED>"

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			value := v
			if strings.EqualFold(k, "Cookie") || strings.EqualFold(k, "Set-Cookie") {
				value = redacted
			}
			out.WriteString(fmt.Sprintf("%s: %s\n", k, value))
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatForm(form url.Values, redact []string) string {
	if len(form) == 0 {
		return "<NO FORM DATA>"
	}
	copied := url.Values{}
	for k, vals := range form {
		for _, v := range vals {
			if slices.Contains(redact, k) {
				v = redacted
			}
			copied.Add(k, v)
		}
	}
	return copied.Encode()
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: request form data
// 5: response status
// 6: response url
// 7: response headers in ("Key: Value" format)
// 8: response body
const messageInfoTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s %s

%s

%s`

func formatHttpMessage(res *resty.Response, redact []string) string {
	var requestHeaders http.Header
	if res.Request.RawRequest != nil {
		requestHeaders = res.Request.RawRequest.Header
	} else {
		requestHeaders = res.Request.Header
	}

	responseUrl := res.Request.URL
	if res.RawResponse != nil {
		redirected, err := res.RawResponse.Location()
		if err == nil {
			responseUrl = redirected.String()
		}
	}

	return fmt.Sprintf(
		messageInfoTemplate,

		res.Request.Method, res.Request.URL,
		formatHeaders(requestHeaders),
		formatForm(res.Request.FormData, redact),

		strconv.Itoa(res.StatusCode()), responseUrl,
		formatHeaders(res.Header()),
		res.String(),
	)
}
