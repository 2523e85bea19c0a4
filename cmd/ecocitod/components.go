package main

import (
	"context"
	"ecocito-bridge/lib/dedup"
	"ecocito-bridge/lib/mqttpub"
	"ecocito-bridge/lib/restyutil"
	"ecocito-bridge/lib/scrapers/ecocito"
	"ecocito-bridge/lib/timezone"
	"ecocito-bridge/services/bridge"
	"errors"
	"log/slog"
	"time"
)

func portalOptions(cfg Config) (ecocito.ClientOptions, error) {
	opts := ecocito.ClientOptions{
		Subdomain: cfg.Portal.Subdomain,
		BaseUrl:   cfg.Portal.BaseUrl,
		Username:  cfg.Portal.Username,
		Password:  cfg.Portal.Password,
		Timeout:   time.Duration(cfg.Portal.RequestTimeout),
	}
	if cfg.Portal.HttpDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.Portal.HttpDumpDir)
		if err != nil {
			return opts, err
		}
		opts.DumpOutput = output
		slog.Info("dumping http exchanges", "dir", cfg.Portal.HttpDumpDir)
	}
	return opts, nil
}

func openStore(cfg Config) (dedup.Store, error) {
	backend, err := dedup.ParseBackend(cfg.State.Backend)
	if err != nil {
		return nil, err
	}
	return dedup.Open(dedup.Options{
		Backend:   backend,
		Path:      cfg.State.File,
		Url:       cfg.State.Url,
		AuthToken: cfg.State.AuthToken,
	})
}

// bridgeComponents owns everything the bridge service holds open.
type bridgeComponents struct {
	service   *bridge.Service
	store     dedup.Store
	publisher *mqttpub.Publisher
}

func (c bridgeComponents) Close() error {
	var errs []error
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}
	if c.store != nil {
		errs = append(errs, c.store.Close())
	}
	return errors.Join(errs...)
}

func newBridge(ctx context.Context, cfg Config) (out bridgeComponents, err error) {
	defer func() {
		if err != nil {
			out.Close()
		}
	}()

	loc, err := timezone.Load(cfg.Timezone)
	if err != nil {
		return out, err
	}
	portal, err := portalOptions(cfg)
	if err != nil {
		return out, err
	}

	out.store, err = openStore(cfg)
	if err != nil {
		return out, err
	}
	out.publisher, err = mqttpub.Connect(ctx, mqttpub.Options{
		Broker:   cfg.Mqtt.Broker,
		Username: cfg.Mqtt.Username,
		Password: cfg.Mqtt.Password,
		ClientId: cfg.Mqtt.ClientId,
	})
	if err != nil {
		return out, err
	}

	out.service, err = bridge.NewService(bridge.Options{
		Portal:         portal,
		Store:          out.store,
		Publisher:      out.publisher,
		Clock:          timezone.NewSystemClock(loc),
		Topic:          cfg.Mqtt.Topic,
		LookbackMonths: cfg.Poll.LookbackMonths,
		PageSize:       cfg.Portal.PageSize,
		Paginate:       *cfg.Portal.Paginate,
		CycleTimeout:   time.Duration(cfg.Poll.CycleTimeout),
		Retry: bridge.RetryPolicy{
			Interval:        time.Duration(cfg.Poll.Interval),
			FailureDelay:    time.Duration(cfg.Poll.RetryDelay),
			MaxFailureDelay: time.Duration(cfg.Poll.RetryMaxDelay),
		},
	})
	return out, err
}
