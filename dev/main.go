package main

import (
	devenv "ecocito-bridge/dev/env"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
)

const localEnv = `# local settings for go run ./cmd/ecocitod --env-file dev/.state/bridge.env
ECOCITO_SUBDOMAIN=
ECOCITO_USERNAME=
ECOCITO_PASSWORD=
MQTT_BROKER=localhost:1883
STATE_FILE=<dev_state>/state.json
HTTP_DUMP_DIR=<dev_state>/http
POLL_INTERVAL=5m
LOG_LEVEL=debug
`

// writeOnce creates path with contents unless it already exists.
func writeOnce(path string, contents []byte) error {
	_, err := os.Stat(path)
	if err == nil {
		slog.Info("keeping existing file", "path", path)
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	err = os.WriteFile(path, contents, 0600)
	if err != nil {
		return err
	}
	slog.Info("created", "path", path)
	return nil
}

func create(recreate bool) error {
	dir, err := devenv.GetStateFilePath("")
	if err != nil {
		return errors.New("the dev environment must be created inside the repository")
	}

	if recreate {
		err = os.RemoveAll(dir)
		if err != nil {
			return err
		}
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return err
	}

	template, err := json.MarshalIndent(devenv.PortalTestConfig{
		Subdomain: "<subdomain>",
		Username:  "<username>",
		Password:  "<password>",
	}, "", "  ")
	if err != nil {
		return err
	}
	err = writeOnce(filepath.Join(dir, devenv.PortalTestConfigFile), template)
	if err != nil {
		return err
	}
	return writeOnce(filepath.Join(dir, "bridge.env"), []byte(localEnv))
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}
	slog.Info("dev environment ready, fill in the credentials to enable live tests")
}
