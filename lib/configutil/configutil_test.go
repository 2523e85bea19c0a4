package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string            `json:"name"`
	Port    int               `json:"port"`
	Nested  testNested        `json:"nested"`
	Headers map[string]string `json:"headers"`
}

type testNested struct {
	Enabled bool   `json:"enabled"`
	Value   string `json:"value"`
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "config.local.json5", LocalPath("config.json5"))
	require.Equal(t, "/etc/bridge/config.local.json", LocalPath("/etc/bridge/config.json"))
	require.Equal(t, "config.local", LocalPath("config"))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](path)
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments and trailing commas are fine
		name: "base",
		port: 1883,
		nested: {value: "base"},
	}`), 0644))

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Port: 1883, Nested: testNested{Value: "base"}}, cfg)

	require.NoError(t, os.WriteFile(LocalPath(path), []byte(`{
		port: 1884,
		nested: {enabled: true},
		headers: {authorization: "token"},
	}`), 0644))

	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Name:    "base",
		Port:    1884,
		Nested:  testNested{Enabled: true, Value: "base"},
		Headers: map[string]string{"authorization": "token"},
	}, cfg)

	require.NoError(t, os.Remove(path))
	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, 1884, cfg.Port)
}

func TestReadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{name: `), 0644))

	_, err := ReadConfig[testConfig](path)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, path, parseErr.Path)
}
