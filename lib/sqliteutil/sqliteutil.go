// Package sqliteutil opens local sqlite databases.
package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memory = ":memory:"

// pragmas applied to file databases, a single writer connection in WAL
// mode avoids SQLITE_BUSY under concurrent use
var filePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// OpenDB opens (creating it and its parent directory when needed) the
// sqlite database at path and applies schema, which must be idempotent.
func OpenDB(schema, path string) (*sql.DB, error) {
	db, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func open(path string) (*sql.DB, error) {
	if path != memory {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if path == memory {
		return db, nil
	}

	for _, pragma := range filePragmas {
		_, err = db.Exec(pragma)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
