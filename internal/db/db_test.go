package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := `SELECT id FROM posts WHERE author_id = ? AND pub_date <= ? LIMIT ?`

	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t,
		`SELECT id FROM posts WHERE author_id = $1 AND pub_date <= $2 LIMIT $3`,
		Postgres.Rebind(q))
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{
		"":         SQLite,
		"sqlite":   SQLite,
		"SQLite3":  SQLite,
		"postgres": Postgres,
		"pgx":      Postgres,
	} {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("mysql")
	assert.Error(t, err)
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	in := time.Date(2024, 1, 2, 15, 4, 5, 999, loc)

	got := Timestamp(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Nanosecond())
	assert.True(t, got.Equal(in.Truncate(time.Second)))
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blog.db")
	conn, err := Open(SQLite, path)
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn, SQLite))
	// Migrations are idempotent.
	require.NoError(t, Migrate(ctx, conn, SQLite))

	for _, table := range []string{"users", "sessions", "categories", "locations", "posts", "comments"} {
		var name string
		err := conn.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var fk int
	require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "blog.db?_pragma=foreign_keys(1)&_time_format=sqlite", sqliteDSN("blog.db"))
	assert.Equal(t, "blog.db?_txlock=immediate&_pragma=foreign_keys(1)&_time_format=sqlite", sqliteDSN("blog.db?_txlock=immediate"))
	assert.Equal(t, "blog.db?_pragma=foreign_keys(0)&_time_format=sqlite", sqliteDSN("blog.db?_pragma=foreign_keys(0)"))
}

func TestForeignKeysOnWithQueryString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")
	conn, err := Open(SQLite, path+"?_txlock=immediate")
	require.NoError(t, err)
	defer conn.Close()

	var on int
	require.NoError(t, conn.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	assert.Equal(t, 1, on)
}
