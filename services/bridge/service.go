// Package bridge polls the Ecocito portal and republishes every
// collection record it has not seen before.
package bridge

import (
	"context"
	"ecocito-bridge/lib/mqttpub"
	"ecocito-bridge/lib/scrapers/ecocito"
	"ecocito-bridge/lib/timezone"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("services/bridge")
	meter  = otel.Meter("services/bridge")
)

type Service struct {
	opts Options

	cycles    metric.Int64Counter
	failures  metric.Int64Counter
	published metric.Int64Counter
}

func NewService(opts Options) (*Service, error) {
	err := opts.setDefaults()
	if err != nil {
		return nil, err
	}

	s := &Service{opts: opts}
	s.cycles, err = meter.Int64Counter("bridge_cycles_total")
	if err != nil {
		return nil, err
	}
	s.failures, err = meter.Int64Counter("bridge_cycle_failures_total")
	if err != nil {
		return nil, err
	}
	s.published, err = meter.Int64Counter("bridge_records_published_total")
	if err != nil {
		return nil, err
	}
	return s, nil
}

type CycleReport struct {
	Start time.Time
	End   time.Time

	Fetched   int
	Skipped   int
	Published int
}

// Cycle runs one poll: it logs in, fetches the look-back window, publishes
// every new record in portal order, then logs out. A record is added to
// the store only after it was published, a failed publish aborts the
// cycle and the record is retried by the next one.
func (s *Service) Cycle(ctx context.Context) (report CycleReport, err error) {
	ctx, span := tracer.Start(ctx, "Cycle")
	defer span.End()

	if s.opts.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CycleTimeout)
		defer cancel()
	}

	now := s.opts.Clock.Now()
	report.Start = timezone.MonthsBefore(now, s.opts.LookbackMonths)
	report.End = now

	defer func() {
		s.cycles.Add(ctx, 1)
		span.SetAttributes(
			attribute.Int("fetched", report.Fetched),
			attribute.Int("published", report.Published),
		)
		if err != nil {
			s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", classify(err))))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	err = ecocito.WithSession(ctx, s.opts.Portal, func(ctx context.Context, client *ecocito.Client) error {
		rows, err := s.fetch(ctx, client, report.Start, report.End)
		if err != nil {
			return err
		}
		report.Fetched = len(rows)

		for _, row := range rows {
			record, err := decodeRecord(row, s.opts.Clock.Location())
			if err != nil {
				slog.WarnContext(
					ctx, "skipping undecodable record",
					"tank", row.Tank,
					"chip", row.Chip,
					"date", row.Date,
					"weight", string(row.Weight),
					"err", err,
				)
				report.Skipped++
				continue
			}

			seen, err := s.opts.Store.Seen(ctx, record.entry())
			if err != nil {
				return fmt.Errorf("read state: %w", err)
			}
			if seen {
				continue
			}

			payload, err := record.payload()
			if err != nil {
				return err
			}
			err = s.opts.Publisher.Publish(ctx, s.opts.Topic, payload)
			if err != nil {
				return err
			}
			err = s.opts.Store.Record(ctx, record.entry())
			if err != nil {
				return fmt.Errorf("record state: %w", err)
			}
			s.published.Add(ctx, 1)
			report.Published++
			slog.InfoContext(ctx, "published new record", "time", record.Time, "tank", record.Tank, "chip", record.Chip, "weight", record.Weight)
		}
		return nil
	})
	return report, err
}

func (s *Service) fetch(ctx context.Context, client *ecocito.Client, start, end time.Time) ([]ecocito.Levee, error) {
	if s.opts.Paginate {
		return client.FetchAllRecords(ctx, start, end, s.opts.PageSize)
	}
	listing, err := client.FetchRecords(ctx, start, end, ecocito.Page{Take: s.opts.PageSize})
	if err != nil {
		return nil, err
	}
	return listing.Data, nil
}

// classify names the kind of a cycle failure for logs and metrics.
func classify(err error) string {
	var authErr *ecocito.AuthenticationError
	var protocolErr *ecocito.ProtocolError
	var portalErr *ecocito.PortalError
	var parseErr *ecocito.ParseError
	var publishErr *mqttpub.PublishError

	switch {
	case errors.As(err, &authErr):
		return "authentication"
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &portalErr):
		return "portal"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &publishErr):
		return "publish"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ecocito.ErrSessionClosed):
		return "session"
	}
	return "unknown"
}

// Run polls until ctx is cancelled. Every failure is logged and retried
// after the delay the retry policy gives, nothing stops the loop but ctx.
func (s *Service) Run(ctx context.Context) {
	slog.InfoContext(ctx, "bridge started", "topic", s.opts.Topic, "interval", s.opts.Retry.Interval)

	failures := 0
	for {
		report, err := s.Cycle(ctx)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "bridge stopped")
			return
		}

		if err != nil {
			failures++
			kind := classify(err)
			switch kind {
			case "authentication":
				slog.ErrorContext(ctx, "portal rejected the credentials", "err", err, "failures", failures)
			case "unknown":
				slog.ErrorContext(ctx, "cycle failed", "kind", kind, "err", err, "failures", failures)
			default:
				slog.WarnContext(ctx, "cycle failed", "kind", kind, "err", err, "failures", failures)
			}
		} else {
			failures = 0
			slog.InfoContext(
				ctx, "cycle done",
				"fetched", report.Fetched,
				"published", report.Published,
				"skipped", report.Skipped,
			)
		}

		delay := s.opts.Retry.Delay(failures)
		slog.DebugContext(ctx, "sleeping", "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.InfoContext(ctx, "bridge stopped")
			return
		case <-timer.C:
		}
	}
}
