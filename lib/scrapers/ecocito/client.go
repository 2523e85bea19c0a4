// Package ecocito talks to the Ecocito waste-collection portal. A Client is
// one authenticated conversation: Login, any number of fetches, Logout.
package ecocito

import (
	"context"
	"ecocito-bridge/lib/htmlutil"
	"ecocito-bridge/lib/restyutil"
	"ecocito-bridge/lib/telemetry"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	loginPath   = "/Usager/Profil/Connexion"
	logoutPath  = "/Usager/Profil/Deconnexion"
	listingPath = "/Usager/Collecte/GetCollecte"

	listingSort = `[{"selector":"DATE_DONNEE","desc":false}]`

	passwordField = "MotDePasse"
)

type sessionState int

const (
	unauthenticated sessionState = iota
	authenticated
	closed
)

type ClientOptions struct {
	// portal tenant, the client talks to https://<subdomain>.ecocito.com
	Subdomain string
	// overrides the url derived from Subdomain
	BaseUrl  string
	Username string
	Password string

	// per request timeout, defaults to 30s
	Timeout time.Duration
	// defaults to 2 requests per second
	RequestsPerSecond float64
	// when set, every request/response pair is written to it
	DumpOutput restyutil.InstrumentOutput
}

func (o ClientOptions) baseUrl() string {
	if o.BaseUrl != "" {
		return o.BaseUrl
	}
	return fmt.Sprintf("https://%s.ecocito.com", o.Subdomain)
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	username string
	password string
	state    sessionState
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" && opts.Subdomain == "" {
		return nil, fmt.Errorf("ecocito: a subdomain or base url is required")
	}

	baseUrl, err := url.Parse(opts.baseUrl())
	if err != nil {
		return nil, fmt.Errorf("ecocito: parse base url: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(timeout)

	// max burst of 1 keeps pagination from hammering the portal
	rateLimiter := rate.NewLimiter(rate.Limit(rps), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, "scrapers/ecocito/http")
	restyutil.DumpExchanges(httpClient, opts.DumpOutput, passwordField)

	return &Client{
		BaseUrl:  baseUrl,
		Http:     httpClient,
		username: opts.Username,
		password: opts.Password,
	}, nil
}

// Login posts the credentials, the session cookies are kept in the
// client's cookie jar.
func (c *Client) Login(ctx context.Context) error {
	if c.state == closed {
		return ErrSessionClosed
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"Identifiant":        c.username,
			passwordField:        c.password,
			"MaintenirConnexion": "false",
			"FranceConnectActif": "false",
		}).
		Post(loginPath)
	if err != nil {
		return fmt.Errorf("ecocito: login request: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return &ProtocolError{Op: "login", Status: res.StatusCode()}
	}

	doc, err := htmlutil.Parse(res.Body())
	if err != nil {
		return &ParseError{Op: "login", Err: err}
	}
	message, failed := htmlutil.FirstMessage(doc, "div.validation-summary-errors", "li")
	if failed {
		return &AuthenticationError{Message: message}
	}

	c.state = authenticated
	slog.DebugContext(ctx, "connected", "username", c.username)
	return nil
}

// Logout invalidates the session server-side, the client must not be
// used afterwards even if this fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.state == closed {
		return ErrSessionClosed
	}
	c.state = closed

	res, err := c.Http.R().
		SetContext(ctx).
		Get(logoutPath)
	if err != nil {
		return fmt.Errorf("ecocito: logout request: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return &ProtocolError{Op: "logout", Status: res.StatusCode()}
	}

	slog.DebugContext(ctx, "session closed")
	return nil
}

func formatStartDate(t time.Time) string {
	return t.Format("2006-01-02") + "T00:00:00.000Z"
}

func formatEndDate(t time.Time) string {
	return t.Format("2006-01-02") + "T23:59:59.999Z"
}

// FetchRecords requests one page of the collections recorded between the
// calendar dates of start and end (both inclusive), sorted by ascending
// date.
func (c *Client) FetchRecords(ctx context.Context, start, end time.Time, page Page) (Listing, error) {
	if c.state == closed {
		return Listing{}, ErrSessionClosed
	}

	slog.DebugContext(ctx, "fetching collections", "start", start, "end", end, "skip", page.Skip)

	skip, take := page.query()
	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"charger":   "true",
			"idMatiere": "-1",
			"sort":      listingSort,
			"skip":      skip,
			"take":      take,
			"dateDebut": formatStartDate(start),
			"dateFin":   formatEndDate(end),
		}).
		Get(listingPath)
	if err != nil {
		return Listing{}, fmt.Errorf("ecocito: fetch collections: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return Listing{}, &ProtocolError{Op: "fetch collections", Status: res.StatusCode()}
	}

	return decodeListing(res.Body())
}

func decodeListing(body []byte) (Listing, error) {
	if !json.Valid(body) {
		syntaxErr := json.Unmarshal(body, &struct{}{})

		doc, err := htmlutil.Parse(body)
		if err == nil {
			message, found := htmlutil.FirstMessage(doc, "div.error", "")
			if found {
				return Listing{}, &PortalError{Message: message}
			}
		}
		return Listing{}, &ParseError{Op: "fetch collections", Err: syntaxErr}
	}

	var listing Listing
	err := json.Unmarshal(body, &listing)
	if err != nil {
		return Listing{}, &ParseError{Op: "fetch collections", Err: err}
	}
	return listing, nil
}

// maxPages bounds FetchAllRecords in case the portal ignores `skip`.
const maxPages = 50

// FetchAllRecords follows the listing's pagination until a short page is
// returned or the portal's total count is reached.
func (c *Client) FetchAllRecords(ctx context.Context, start, end time.Time, pageSize int) ([]Levee, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []Levee
	for i := 0; i < maxPages; i++ {
		listing, err := c.FetchRecords(ctx, start, end, Page{
			Skip: i * pageSize,
			Take: pageSize,
		})
		if err != nil {
			return all, err
		}
		all = append(all, listing.Data...)

		if len(listing.Data) < pageSize {
			return all, nil
		}
		if listing.TotalCount >= 0 && len(all) >= listing.TotalCount {
			return all, nil
		}
	}

	slog.WarnContext(ctx, "stopped paginating collections", "pages", maxPages, "records", len(all))
	return all, nil
}
