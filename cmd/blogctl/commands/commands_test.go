package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogicum/internal/auth"
	"blogicum/internal/db"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

// blogctl runs one command line against dsn and returns what it printed.
func blogctl(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--driver", "sqlite", "--dsn", dsn}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func migrated(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "blogctl.db")
	out, err := blogctl(t, dsn, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date (sqlite)")
	return dsn
}

func openStore(t *testing.T, dsn string) *store.Store {
	t.Helper()
	conn, err := db.Open(db.SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return store.New(conn, db.SQLite)
}

func TestMigrateIsRepeatable(t *testing.T) {
	dsn := migrated(t)
	_, err := blogctl(t, dsn, "migrate")
	assert.NoError(t, err)
}

func TestCategoryLifecycle(t *testing.T) {
	dsn := migrated(t)

	out, err := blogctl(t, dsn, "category", "add", "--title", "Travel", "--slug", "travel", "--description", "Trips")
	require.NoError(t, err)
	assert.Contains(t, out, `created category "travel"`)
	assert.Contains(t, out, "published")

	_, err = blogctl(t, dsn, "category", "add", "--title", "Bad", "--slug", "no spaces", "--description", "x")
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	out, err = blogctl(t, dsn, "category", "unpublish", "travel")
	require.NoError(t, err)
	assert.Contains(t, out, `category "travel" is now hidden`)

	out, err = blogctl(t, dsn, "category", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "travel")
	assert.Contains(t, out, "hidden")

	c, err := openStore(t, dsn).CategoryBySlug(context.Background(), "travel")
	require.NoError(t, err)
	assert.False(t, c.IsPublished)

	_, err = blogctl(t, dsn, "category", "delete", "travel")
	require.NoError(t, err)
	_, err = blogctl(t, dsn, "category", "publish", "travel")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCategoryAddRequiresFlags(t *testing.T) {
	dsn := migrated(t)
	_, err := blogctl(t, dsn, "category", "add", "--title", "Travel")
	assert.Error(t, err)
}

func TestLocationLifecycle(t *testing.T) {
	dsn := migrated(t)

	out, err := blogctl(t, dsn, "location", "add", "Moscow", "--hidden")
	require.NoError(t, err)
	assert.Contains(t, out, `created location "Moscow" (id 1, hidden)`)

	out, err = blogctl(t, dsn, "location", "publish", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `location "Moscow" is now published`)

	out, err = blogctl(t, dsn, "location", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Moscow")

	_, err = blogctl(t, dsn, "location", "delete", "abc")
	assert.ErrorContains(t, err, "not a positive number")

	_, err = blogctl(t, dsn, "location", "delete", "1")
	require.NoError(t, err)
	out, err = blogctl(t, dsn, "location", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no locations")
}

func TestUserAdd(t *testing.T) {
	dsn := migrated(t)

	_, err := blogctl(t, dsn, "user", "add", "alice", "--password", "short")
	assert.ErrorContains(t, err, "at least 8 characters")

	out, err := blogctl(t, dsn, "user", "add", "alice", "--password", "correct horse", "--email", "alice@example.com", "--first-name", "Alice")
	require.NoError(t, err)
	assert.Contains(t, out, `created user "alice"`)

	_, err = blogctl(t, dsn, "user", "add", "alice", "--password", "correct horse")
	assert.ErrorIs(t, err, store.ErrDuplicate)

	u, err := openStore(t, dsn).UserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("correct horse", u.PasswordHash))

	out, err = blogctl(t, dsn, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "Alice")
}

func seedPosts(t *testing.T, dsn string) (*store.Store, []models.Post) {
	t.Helper()
	ctx := context.Background()
	s := openStore(t, dsn)
	u := &models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))
	c := &models.Category{Title: "Travel", Slug: "travel", Description: "Trips", IsPublished: true}
	require.NoError(t, s.CreateCategory(ctx, c))

	posts := []models.Post{
		{Title: "Visible", Text: "t", PubDate: time.Now().Add(-time.Hour), IsPublished: true, AuthorID: u.ID, Category: c},
		{Title: "Draft", Text: "t", PubDate: time.Now().Add(-time.Hour), IsPublished: false, AuthorID: u.ID, Category: c},
		{Title: "Later", Text: "t", PubDate: time.Now().Add(48 * time.Hour), IsPublished: true, AuthorID: u.ID, Category: c},
	}
	for i := range posts {
		require.NoError(t, s.CreatePost(ctx, &posts[i]))
	}
	return s, posts
}

func TestPostListShowsEveryStatus(t *testing.T) {
	dsn := migrated(t)
	seedPosts(t, dsn)

	out, err := blogctl(t, dsn, "post", "list")
	require.NoError(t, err)
	for _, want := range []string{"Visible", "Draft", "Later", "public", "hidden", "scheduled"} {
		assert.Contains(t, out, want)
	}

	out, err = blogctl(t, dsn, "post", "list", "--author", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "no posts")
}

func TestPostPublish(t *testing.T) {
	dsn := migrated(t)
	s, posts := seedPosts(t, dsn)
	draft := posts[1]

	_, err := blogctl(t, dsn, "post", "publish", "999")
	assert.ErrorIs(t, err, store.ErrNotFound)

	out, err := blogctl(t, dsn, "post", "publish", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "post 2 is now published")

	p, err := s.PostByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.True(t, p.IsPublished)
}

func TestModerationSources(t *testing.T) {
	dsn := migrated(t)
	s, posts := seedPosts(t, dsn)
	ctx := context.Background()

	src, err := moderationSource(s, "posts")
	require.NoError(t, err)
	rows, err := src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Later", rows[0].Label)

	require.NoError(t, src.Toggle(ctx, posts[0].ID, false))
	p, err := s.PostByID(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.False(t, p.IsPublished)

	row, err := src.Reload(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.False(t, row.Published)
	assert.Contains(t, row.Detail, "hidden")

	src, err = moderationSource(s, "categories")
	require.NoError(t, err)
	rows, err = src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/category/travel/", rows[0].Detail)

	src, err = moderationSource(s, "locations")
	require.NoError(t, err)
	rows, err = src.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = moderationSource(s, "comments")
	assert.Error(t, err)
}

func TestModerateRejectsUnknownKind(t *testing.T) {
	dsn := migrated(t)
	_, err := blogctl(t, dsn, "moderate", "comments")
	assert.Error(t, err)
}

func TestCategoryEdit(t *testing.T) {
	dsn := migrated(t)
	_, err := blogctl(t, dsn, "category", "add", "--title", "Food", "--slug", "food", "--description", "Meals")
	require.NoError(t, err)

	_, err = blogctl(t, dsn, "category", "edit", "food")
	assert.ErrorContains(t, err, "nothing to change")

	out, err := blogctl(t, dsn, "category", "edit", "food", "--slug", "meals", "--title", "Meals")
	require.NoError(t, err)
	assert.Contains(t, out, `updated category "meals"`)

	c, err := openStore(t, dsn).CategoryBySlug(context.Background(), "meals")
	require.NoError(t, err)
	assert.Equal(t, "Meals", c.Title)
	assert.Equal(t, "Meals", c.Description)
}

func TestCategoryEditKeepsSlugOfUsedCategory(t *testing.T) {
	dsn := migrated(t)
	s, _ := seedPosts(t, dsn)

	_, err := blogctl(t, dsn, "category", "edit", "travel", "--slug", "trips")
	assert.ErrorIs(t, err, store.ErrSlugInUse)

	_, err = blogctl(t, dsn, "category", "edit", "travel", "--description", "Trips abroad")
	require.NoError(t, err)

	c, err := s.CategoryBySlug(context.Background(), "travel")
	require.NoError(t, err)
	assert.Equal(t, "Trips abroad", c.Description)
}

func TestCategoryDeleteClearsPosts(t *testing.T) {
	dsn := migrated(t)
	s, posts := seedPosts(t, dsn)

	// A DSN with its own query string still gets foreign keys enforced.
	_, err := blogctl(t, dsn+"?_txlock=immediate", "category", "delete", "travel")
	require.NoError(t, err)

	var categoryID *int64
	require.NoError(t, s.DB().QueryRow(`SELECT category_id FROM posts WHERE id = ?`, posts[0].ID).Scan(&categoryID))
	assert.Nil(t, categoryID)
}

func TestPostListFilters(t *testing.T) {
	dsn := migrated(t)
	s, posts := seedPosts(t, dsn)
	ctx := context.Background()

	loc := &models.Location{Name: "Moscow", IsPublished: true}
	require.NoError(t, s.CreateLocation(ctx, loc))
	draft := posts[1]
	draft.Location = loc
	require.NoError(t, s.UpdatePost(ctx, draft))

	out, err := blogctl(t, dsn, "post", "list", "--location", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft")
	assert.NotContains(t, out, "Visible")

	out, err = blogctl(t, dsn, "post", "list", "--search", "LAT")
	require.NoError(t, err)
	assert.Contains(t, out, "Later")
	assert.NotContains(t, out, "Draft")
}
