package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
)

type fileState struct {
	KnownHashes []string `json:"known_hashes"`
}

// FileStore keeps the fingerprints in a JSON document. Every insertion
// rewrites the whole file through a temporary file and a rename so a
// crash never leaves a truncated document behind.
type FileStore struct {
	path string

	lock   sync.Mutex
	known  map[string]struct{}
	hashes []string
}

// OpenFile loads the state file at path, a missing file is an empty state.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{
		path:  path,
		known: map[string]struct{}{},
	}
	state, err := readStateFile(path)
	if os.IsNotExist(err) {
		slog.Debug("no state file yet", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	for _, h := range state.KnownHashes {
		if _, ok := s.known[h]; ok {
			continue
		}
		s.known[h] = struct{}{}
		s.hashes = append(s.hashes, h)
	}
	slog.Debug("loaded state file", "path", path, "known", len(s.hashes))
	return s, nil
}

func readStateFile(path string) (fileState, error) {
	var state fileState
	buff, err := os.ReadFile(path)
	if err != nil {
		return state, err
	}
	err = json.Unmarshal(buff, &state)
	if err != nil {
		return state, fmt.Errorf("decode state file %s: %w", path, err)
	}
	return state, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Seen(ctx context.Context, entry Entry) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.known[Fingerprint(entry)]
	return ok, nil
}

func (s *FileStore) Record(ctx context.Context, entry Entry) error {
	fp := Fingerprint(entry)

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.known[fp]; ok {
		return nil
	}

	s.known[fp] = struct{}{}
	s.hashes = append(s.hashes, fp)
	err := s.save()
	if err != nil {
		// forget it again so the record is retried on the next cycle
		delete(s.known, fp)
		s.hashes = s.hashes[:len(s.hashes)-1]
		return err
	}
	return nil
}

func (s *FileStore) Fingerprints(ctx context.Context) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string{}, s.hashes...), nil
}

func (s *FileStore) save() error {
	err := os.MkdirAll(filepath.Dir(s.path), 0755)
	if err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	state := fileState{KnownHashes: s.hashes}
	if state.KnownHashes == nil {
		state.KnownHashes = []string{}
	}
	buff, err := json.Marshal(state)
	if err != nil {
		return err
	}
	err = renameio.WriteFile(s.path, buff, 0644)
	if err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
