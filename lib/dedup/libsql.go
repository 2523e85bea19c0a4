package dedup

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

func libsqlDSN(dbUrl, authToken string) (string, error) {
	if dbUrl == "" {
		return "", fmt.Errorf("a libsql database url was not specified")
	}
	parsed, err := url.Parse(dbUrl)
	if err != nil {
		return "", fmt.Errorf("parse libsql url: %w", err)
	}
	if authToken != "" {
		values := parsed.Query()
		values.Set("authToken", authToken)
		parsed.RawQuery = values.Encode()
	}
	return parsed.String(), nil
}

// OpenLibsql keeps the fingerprints in a remote libsql (sqld / Turso)
// database, for deployments without a persistent volume.
func OpenLibsql(dbUrl, authToken string) (*SQLiteStore, error) {
	dsn, err := libsqlDSN(dbUrl, authToken)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}
