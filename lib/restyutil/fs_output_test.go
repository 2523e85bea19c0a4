package restyutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutputKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0001_POST.txt", "0002_GET.txt", "state.json", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	output.Write("0001_GET.txt", "GET /")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"0001_GET.txt", "state.json", "notes.txt"}, names)
}

func TestFilesystemOutputCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps", "portal")

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	output.Write("0001_GET.txt", "GET /")

	contents, err := os.ReadFile(filepath.Join(dir, "0001_GET.txt"))
	require.NoError(t, err)
	require.Equal(t, "GET /", string(contents))
}
