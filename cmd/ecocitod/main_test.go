package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestExecuteShutsDownTelemetryOnFailure(t *testing.T) {
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(configFile, []byte(fmt.Sprintf(`{
		telemetry: {otlp: {traces: {http_endpoint: %q}}},
	}`, collector.URL+"/v1/traces")), 0644))

	for _, name := range []string{"MQTT_BROKER", "ECOCITO_SUBDOMAIN", "ECOCITO_BASE_URL", "ECOCITO_USERNAME", "ECOCITO_PASSWORD"} {
		t.Setenv(name, "")
	}

	err := execute(context.Background(), []string{
		"once",
		"--config", configFile,
		"--env-file", filepath.Join(dir, "missing.env"),
	})
	require.ErrorContains(t, err, "is required")

	require.Nil(t, tel.TracerProvider)
	// the global provider was shut down, it no longer records spans
	_, span := otel.Tracer("test").Start(context.Background(), "after shutdown")
	defer span.End()
	require.False(t, span.IsRecording())
}
