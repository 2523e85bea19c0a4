package restyutil

import (
	devenv "ecocito-bridge/dev/env"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

var dumpFileName = regexp.MustCompile(`^\d{4,}_[A-Z]+\.txt$`)

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates the dump directory and removes the dumps
// of a previous run from it, other files are left alone. The path may be
// prefixed with <dev_state>.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create dump directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("read dump directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !dumpFileName.MatchString(e.Name()) {
			continue
		}
		err = os.Remove(filepath.Join(dir, e.Name()))
		if err != nil {
			return FilesystemOutput{}, fmt.Errorf("clear dump directory: %w", err)
		}
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}
