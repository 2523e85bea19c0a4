// Package devenv locates the dev/.state directory holding local
// credentials and scratch files used during development.
package devenv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	moduleName     = "ecocito-bridge"
	statePrefix    = "<dev_state>"
	stateSubfolder = "dev/.state"
)

var moduleDirective = regexp.MustCompile(`(?m)^module\s+(\S+)\s*$`)

func declaresModule(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	match := moduleDirective.FindSubmatch(mod)
	return match != nil && string(match[1]) == moduleName
}

// GetWorkspaceRoot walks up from the working directory to the directory
// whose go.mod declares this module.
func GetWorkspaceRoot() (string, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for {
		if declaresModule(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s go.mod above the working directory: %w", moduleName, os.ErrNotExist)
		}
		dir = parent
	}
}

func GetStateFilePath(name string) (string, error) {
	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, stateSubfolder, name), nil
}

func GetStateFile(name string) ([]byte, error) {
	path, err := GetStateFilePath(name)
	if err != nil {
		return nil, err
	}
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no file at %s (run `go run ./dev` first): %w", path, err)
	}
	return contents, err
}

// GetPortalTestConfig reads the live portal credentials of dev/.state.
func GetPortalTestConfig() (PortalTestConfig, error) {
	var config PortalTestConfig
	contents, err := GetStateFile(PortalTestConfigFile)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(contents, &config)
	if err != nil {
		return config, err
	}
	if config.Username == "" || strings.HasPrefix(config.Username, "<") {
		return config, fmt.Errorf("%s is still the template", PortalTestConfigFile)
	}
	return config, nil
}

// ResolvePath expands a leading "<dev_state>" segment into the dev/.state
// directory of the workspace, creating it. Other paths are returned as-is.
func ResolvePath(path string) (string, error) {
	rest, found := strings.CutPrefix(path, statePrefix)
	if !found {
		return path, nil
	}

	dir, err := GetStateFilePath("")
	if err != nil {
		return "", err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, rest), nil
}
