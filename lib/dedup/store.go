package dedup

import (
	"context"
	"fmt"
)

// Store remembers fingerprints. Checking and recording are separate so a
// caller records an entry only once it was delivered.
type Store interface {
	// Seen reports whether the entry's fingerprint is known.
	Seen(ctx context.Context, entry Entry) (bool, error)
	// Record durably adds the entry's fingerprint, recording a known
	// entry is a no-op.
	Record(ctx context.Context, entry Entry) error
	// Fingerprints lists every known fingerprint in insertion order.
	Fingerprints(ctx context.Context) ([]string, error)
	Close() error
}

type Backend string

const (
	BackendJson   Backend = "json"
	BackendSqlite Backend = "sqlite"
	BackendLibsql Backend = "libsql"
)

func ParseBackend(value string) (Backend, error) {
	switch Backend(value) {
	case "", BackendJson:
		return BackendJson, nil
	case BackendSqlite:
		return BackendSqlite, nil
	case BackendLibsql:
		return BackendLibsql, nil
	}
	return "", fmt.Errorf("unknown state backend %q (expected json, sqlite or libsql)", value)
}

type Options struct {
	Backend Backend
	// state file of the json and sqlite backends
	Path string
	// database url and token of the libsql backend
	Url       string
	AuthToken string
}

func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendJson:
		return OpenFile(opts.Path)
	case BackendSqlite:
		return OpenSQLite(opts.Path)
	case BackendLibsql:
		return OpenLibsql(opts.Url, opts.AuthToken)
	}
	return nil, fmt.Errorf("unknown state backend %q", opts.Backend)
}
