package restyutil

import (
	"fmt"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

// DumpExchanges writes every request/response pair the client makes to
// `output`, form fields named in `redact` are masked. A nil output makes
// this a no-op.
func DumpExchanges(client *resty.Client, output InstrumentOutput, redact ...string) {
	if output == nil {
		return
	}

	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := atomic.AddUint64(&idcounter, 1)
		output.Write(
			fmt.Sprintf("%04d_%s.txt", id, res.Request.Method),
			formatHttpMessage(res, redact),
		)
		return nil
	})
}
