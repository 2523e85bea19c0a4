package dedup

import (
	"context"
	"database/sql"
	"ecocito-bridge/lib/sqliteutil"
	"fmt"
	"log/slog"
	"time"
)

const schema = `
create table if not exists known_hashes (
	hash text primary key,
	seen_at integer not null
);
`

// SQLiteStore keeps the fingerprints in a sqlite table, for state that
// has outgrown rewriting a JSON document on every insertion.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqliteutil.OpenDB(schema, path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Seen(ctx context.Context, entry Entry) (bool, error) {
	var found int
	err := s.db.QueryRowContext(
		ctx,
		"select count(*) from known_hashes where hash = ?",
		Fingerprint(entry),
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("look up fingerprint: %w", err)
	}
	return found > 0, nil
}

func (s *SQLiteStore) Record(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(
		ctx,
		"insert or ignore into known_hashes (hash, seen_at) values (?, ?)",
		Fingerprint(entry), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record fingerprint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Fingerprints(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "select hash from known_hashes order by rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var hash string
		err := rows.Scan(&hash)
		if err != nil {
			return nil, err
		}
		out = append(out, hash)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Import copies the fingerprints of a JSON state file into the table and
// returns how many were not already present.
func (s *SQLiteStore) Import(ctx context.Context, jsonPath string) (int, error) {
	state, err := readStateFile(jsonPath)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "insert or ignore into known_hashes (hash, seen_at) values (?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	imported := 0
	for _, hash := range state.KnownHashes {
		res, err := stmt.ExecContext(ctx, hash, now)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		imported += int(affected)
	}

	err = tx.Commit()
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "imported state file", "path", jsonPath, "imported", imported, "total", len(state.KnownHashes))
	return imported, nil
}
