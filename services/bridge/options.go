package bridge

import (
	"context"
	"ecocito-bridge/lib/dedup"
	"ecocito-bridge/lib/scrapers/ecocito"
	"ecocito-bridge/lib/timezone"
	"fmt"
	"time"
)

const DefaultTopic = "ecocito/levee"

// Publisher is the message sink new records are forwarded to.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// RetryPolicy decides how long the loop sleeps between cycles.
type RetryPolicy struct {
	// delay after a successful cycle
	Interval time.Duration
	// delay after the first failed cycle, doubled for every further
	// consecutive failure
	FailureDelay time.Duration
	// upper bound of the failure delay, the delay never grows when it is
	// not above FailureDelay
	MaxFailureDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Interval:        time.Hour,
		FailureDelay:    time.Hour,
		MaxFailureDelay: time.Hour,
	}
}

// Delay returns the sleep that follows a cycle given the number of
// consecutive failures so far, 0 meaning the cycle succeeded.
func (p RetryPolicy) Delay(failures int) time.Duration {
	if failures <= 0 {
		return p.Interval
	}
	delay := p.FailureDelay
	for i := 1; i < failures && delay < p.MaxFailureDelay; i++ {
		delay *= 2
	}
	return max(min(delay, p.MaxFailureDelay), p.FailureDelay)
}

type Options struct {
	Portal    ecocito.ClientOptions
	Store     dedup.Store
	Publisher Publisher
	// defaults to the system clock in UTC
	Clock timezone.Clock

	Topic string
	// size of the fetch window in calendar months, defaults to 2
	LookbackMonths int
	PageSize       int
	// follow the listing's pagination instead of reading the first page
	Paginate bool
	// deadline of one whole cycle, 0 disables it
	CycleTimeout time.Duration
	Retry        RetryPolicy
}

func (o *Options) setDefaults() error {
	if o.Store == nil {
		return fmt.Errorf("bridge: a state store is required")
	}
	if o.Publisher == nil {
		return fmt.Errorf("bridge: a publisher is required")
	}
	if o.Clock == nil {
		o.Clock = timezone.NewSystemClock(time.UTC)
	}
	if o.Topic == "" {
		o.Topic = DefaultTopic
	}
	if o.LookbackMonths <= 0 {
		o.LookbackMonths = 2
	}
	if o.PageSize <= 0 {
		o.PageSize = ecocito.DefaultPageSize
	}
	if o.Retry == (RetryPolicy{}) {
		o.Retry = DefaultRetryPolicy()
	}
	if o.Retry.Interval <= 0 {
		o.Retry.Interval = time.Hour
	}
	if o.Retry.FailureDelay <= 0 {
		o.Retry.FailureDelay = o.Retry.Interval
	}
	if o.Retry.MaxFailureDelay < o.Retry.FailureDelay {
		o.Retry.MaxFailureDelay = o.Retry.FailureDelay
	}
	return nil
}
