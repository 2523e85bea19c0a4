package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

func lookupMap(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := env[name]
		return value, ok
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")

	cfg, err := LoadConfig(path, lookupMap(map[string]string{
		"MQTT_BROKER":       "mosquitto",
		"ECOCITO_SUBDOMAIN": "sictom",
		"ECOCITO_USERNAME":  "user",
		"ECOCITO_PASSWORD":  "secret",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.RequireBridge())

	require.Equal(t, "", cfg.Timezone)
	require.Equal(t, "/data/state.json", cfg.State.File)
	require.Equal(t, "json", cfg.State.Backend)
	require.Equal(t, "ecocito/levee", cfg.Mqtt.Topic)
	require.Equal(t, Duration(time.Second*30), cfg.Portal.RequestTimeout)
	require.Equal(t, 20, cfg.Portal.PageSize)
	require.True(t, *cfg.Portal.Paginate)
	require.Equal(t, Duration(time.Hour), cfg.Poll.Interval)
	require.Equal(t, Duration(time.Hour), cfg.Poll.RetryDelay)
	require.Equal(t, Duration(time.Hour), cfg.Poll.RetryMaxDelay)
	require.Equal(t, Duration(time.Minute*5), cfg.Poll.CycleTimeout)
	require.Equal(t, 2, cfg.Poll.LookbackMonths)
}

func TestLoadConfigRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")

	cfg, err := LoadConfig(path, lookupMap(map[string]string{}))
	require.NoError(t, err)

	err = cfg.RequireBridge()
	require.ErrorContains(t, err, "MQTT_BROKER is required")
	require.ErrorContains(t, err, "ECOCITO_SUBDOMAIN is required")
	require.ErrorContains(t, err, "ECOCITO_USERNAME is required")
	require.ErrorContains(t, err, "ECOCITO_PASSWORD is required")

	// a base url replaces the subdomain
	cfg.Portal.BaseUrl = "http://localhost:8080"
	cfg.Portal.Username = "user"
	cfg.Portal.Password = "secret"
	require.NoError(t, cfg.RequirePortal())
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	require.NoError(t, os.WriteFile(path, []byte(`{
		// shared settings
		timezone: "Europe/Paris",
		portal: {subdomain: "sictom", username: "file-user", paginate: false},
		mqtt: {broker: "file-broker", topic: "waste/levee"},
		poll: {interval: "30m"},
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		portal: {password: "local-secret"},
	}`), 0644))

	cfg, err := LoadConfig(path, lookupMap(map[string]string{
		"MQTT_BROKER":   "env-broker:1884",
		"RETRY_DELAY":   "5m",
		"STATE_BACKEND": "sqlite",
		"LOG_LEVEL":     "debug",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.RequireBridge())

	require.Equal(t, "Europe/Paris", cfg.Timezone)
	require.Equal(t, "sictom", cfg.Portal.Subdomain)
	require.Equal(t, "file-user", cfg.Portal.Username)
	require.Equal(t, "local-secret", cfg.Portal.Password)
	require.False(t, *cfg.Portal.Paginate)
	require.Equal(t, "env-broker:1884", cfg.Mqtt.Broker)
	require.Equal(t, "waste/levee", cfg.Mqtt.Topic)
	require.Equal(t, Duration(time.Minute*30), cfg.Poll.Interval)
	require.Equal(t, Duration(time.Minute*5), cfg.Poll.RetryDelay)
	require.Equal(t, Duration(time.Minute*5), cfg.Poll.RetryMaxDelay)
	require.Equal(t, "sqlite", cfg.State.Backend)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")

	cases := []map[string]string{
		{"POLL_INTERVAL": "hourly"},
		{"PAGE_SIZE": "twenty"},
		{"PAGINATE": "sometimes"},
		{"STATE_BACKEND": "redis"},
		{"LOG_LEVEL": "loud"},
		{"LOG_FORMAT": "xml"},
		{"RETRY_DELAY": "1h", "RETRY_MAX_DELAY": "1m"},
	}
	for _, env := range cases {
		_, err := LoadConfig(path, lookupMap(env))
		require.Error(t, err, env)
	}
}

func TestDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# portal
ECOCITO_SUBDOMAIN=sictom
ECOCITO_USERNAME=user
ECOCITO_PASSWORD="p@ss word"
MQTT_BROKER=tcp://broker:1883
PAGINATE=false
`), 0644))

	env, err := godotenv.Read(path)
	require.NoError(t, err)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json5"), lookupMap(env))
	require.NoError(t, err)
	require.NoError(t, cfg.RequireBridge())
	require.Equal(t, "p@ss word", cfg.Portal.Password)
	require.False(t, *cfg.Portal.Paginate)

	require.NoError(t, LoadDotenv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadConfigLibsql(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")

	_, err := LoadConfig(path, lookupMap(map[string]string{
		"STATE_BACKEND": "libsql",
	}))
	require.ErrorContains(t, err, "STATE_URL is required")

	cfg, err := LoadConfig(path, lookupMap(map[string]string{
		"STATE_BACKEND":    "libsql",
		"STATE_URL":        "libsql://state-acme.turso.io",
		"STATE_AUTH_TOKEN": "token",
	}))
	require.NoError(t, err)
	require.Equal(t, "libsql://state-acme.turso.io", cfg.State.Url)
	require.Equal(t, "token", cfg.State.AuthToken)
}
