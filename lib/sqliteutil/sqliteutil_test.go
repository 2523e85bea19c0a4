package sqliteutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `create table if not exists item (
	name text primary key
);`

func TestOpenDBCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.db")

	db, err := OpenDB(testSchema, path)
	require.NoError(t, err)
	_, err = db.Exec("insert into item (name) values ('a')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// schema must be safe to apply again on reopen
	db, err = OpenDB(testSchema, path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("select count(*) from item").Scan(&count))
	require.Equal(t, 1, count)
}
