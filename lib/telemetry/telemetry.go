// Package telemetry wires slog, OpenTelemetry exporters and HTTP client
// instrumentation.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (c OtlpConnConfig) enabled() bool {
	return c.GrpcEndpoint != "" || c.HttpEndpoint != ""
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

// Telemetry holds the providers created by Setup, either of them is nil
// when no exporter endpoint was configured for it.
type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// Shutdown flushes and stops the providers, it is safe on a zero value.
func (t Telemetry) Shutdown(ctx context.Context) error {
	var err error
	if t.TracerProvider != nil {
		err = errors.Join(err, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		err = errors.Join(err, t.MeterProvider.Shutdown(ctx))
	}
	return err
}

var (
	testSetupLock sync.Mutex
	testSetupDone = map[string]bool{}
)

// SetupForTesting installs debug logging once per test binary and
// service name, exporters are never started in tests.
func SetupForTesting(t testing.TB, serviceName string) func() {
	testSetupLock.Lock()
	defer testSetupLock.Unlock()
	if testSetupDone[serviceName] {
		return func() {}
	}
	testSetupDone[serviceName] = true

	InitSlog(slog.LevelDebug, FormatText)
	tel, err := Setup(context.Background(), serviceName, Config{})
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			t.Error(err)
		}
	}
}

// Setup installs the global tracer and meter providers, signals without
// a configured endpoint keep the default no-op providers.
func Setup(ctx context.Context, serviceName string, config Config) (tel Telemetry, err error) {
	traces := config.Otlp.Traces.enabled()
	metrics := config.Otlp.Metrics.enabled()
	if !traces && !metrics {
		slog.Debug("telemetry exporters disabled", "service", serviceName)
		return Telemetry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return Telemetry{}, err
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, tel.Shutdown(ctx))
			tel = Telemetry{}
		}
	}()

	if traces {
		tel.TracerProvider, err = newTraceProvider(ctx, r, config)
		if err != nil {
			return tel, err
		}
		otel.SetTracerProvider(tel.TracerProvider)
	}
	if metrics {
		tel.MeterProvider, err = newMetricProvider(ctx, r, config)
		if err != nil {
			return tel, err
		}
		otel.SetMeterProvider(tel.MeterProvider)
	}
	return tel, nil
}
