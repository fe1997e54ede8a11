//go:build integration
// +build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"blogicum/internal/db"
	"blogicum/internal/models"
)

// newPostgresStore starts a PostgreSQL container and returns a migrated store.
func newPostgresStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("blogicum"),
		postgres.WithUsername("blogicum"),
		postgres.WithPassword("blogicum"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Open(db.Postgres, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, db.Postgres))

	s := New(conn, db.Postgres)
	s.SetClock(tickingClock())
	return s
}

func TestIntegration_PostgresVisibilityParity(t *testing.T) {
	checkVisibilityParity(t, newPostgresStore(t))
}

func TestIntegration_PostgresDuplicateAndSetNull(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	require.ErrorIs(t, s.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "x"}), ErrDuplicate)

	c := mustCategory(t, s, "travel", true)
	p := mustPost(t, s, models.Post{AuthorID: alice.ID, Category: c, IsPublished: true})
	require.NoError(t, s.DeleteCategory(ctx, c.ID))

	got, err := s.PostByID(ctx, p.ID)
	require.NoError(t, err)
	require.Nil(t, got.Category)
}
