package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"blogicum/internal/access"
	"blogicum/internal/db"
	"blogicum/internal/models"
)

// Scope selects which posts a listing may return.
type Scope int

const (
	// ScopePublic returns only posts anyone may see.
	ScopePublic Scope = iota
	// ScopeViewer also returns the viewer's own hidden posts.
	ScopeViewer
	// ScopeAll returns every post.
	ScopeAll
)

// DefaultPageSize is used when a query does not set one.
const DefaultPageSize = 10

type PostQuery struct {
	Scope          Scope
	Viewer         access.Viewer
	CategorySlug   string
	AuthorUsername string
	LocationID     int64
	// Search matches titles containing it, ignoring case.
	Search   string
	Now      time.Time
	Page     int
	PageSize int
}

// Page is one slice of a post listing.
type Page struct {
	Posts  []models.Post
	Number int
	Size   int
	Total  int
}

func (p Page) NumPages() int {
	if p.Total == 0 || p.Size <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.NumPages() }
func (p Page) Prev() int     { return p.Number - 1 }
func (p Page) Next() int     { return p.Number + 1 }

const postSelect = `SELECT p.id, p.title, p.text, p.pub_date, p.is_published, p.created_at, p.image,
	u.id, u.username, u.email, u.first_name, u.last_name, u.created_at,
	c.id, c.title, c.description, c.slug, c.is_published, c.created_at,
	l.id, l.name, l.is_published, l.created_at,
	(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id)`

const postFrom = ` FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN locations l ON l.id = p.location_id`

func scanPost(row scanner) (*models.Post, error) {
	var (
		p                          models.Post
		catID, locID               sql.NullInt64
		catTitle, catDesc, catSlug sql.NullString
		locName                    sql.NullString
		catPublished, locPublished sql.NullBool
		catCreated, locCreated     sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Title, &p.Text, &p.PubDate, &p.IsPublished, &p.CreatedAt, &p.Image,
		&p.Author.ID, &p.Author.Username, &p.Author.Email, &p.Author.FirstName, &p.Author.LastName, &p.Author.CreatedAt,
		&catID, &catTitle, &catDesc, &catSlug, &catPublished, &catCreated,
		&locID, &locName, &locPublished, &locCreated,
		&p.CommentCount)
	if err != nil {
		return nil, classify(err)
	}
	p.PubDate = p.PubDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.Author.CreatedAt = p.Author.CreatedAt.UTC()
	p.AuthorID = p.Author.ID
	p.Category = scanOptionalCategory(catID, catTitle, catDesc, catSlug, catPublished, catCreated)
	p.Location = scanOptionalLocation(locID, locName, locPublished, locCreated)
	return &p, nil
}

// publicClause is access.Public in SQL. A missing category reads as
// unpublished.
const publicClause = `(p.is_published AND COALESCE(c.is_published, FALSE) AND p.pub_date <= ?)`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func visibilityClause(q PostQuery) (string, []any) {
	now := db.Timestamp(q.Now)
	switch q.Scope {
	case ScopeAll:
		return "", nil
	case ScopeViewer:
		if q.Viewer.Authenticated() {
			return `(p.author_id = ? OR ` + publicClause + `)`, []any{q.Viewer.UserID, now}
		}
	}
	return publicClause, []any{now}
}

// ListPosts returns one page of posts, newest publication first.
// Asking for a page past the last one yields ErrNotFound.
func (s *Store) ListPosts(ctx context.Context, q PostQuery) (Page, error) {
	if q.Now.IsZero() {
		q.Now = s.now()
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}

	var (
		wheres []string
		args   []any
	)
	if clause, cargs := visibilityClause(q); clause != "" {
		wheres = append(wheres, clause)
		args = append(args, cargs...)
	}
	if q.CategorySlug != "" {
		wheres = append(wheres, `c.slug = ?`)
		args = append(args, q.CategorySlug)
	}
	if q.AuthorUsername != "" {
		wheres = append(wheres, `u.username = ?`)
		args = append(args, q.AuthorUsername)
	}
	if q.LocationID > 0 {
		wheres = append(wheres, `p.location_id = ?`)
		args = append(args, q.LocationID)
	}
	if q.Search != "" {
		wheres = append(wheres, `LOWER(p.title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(q.Search))+"%")
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	page := Page{Number: q.Page, Size: q.PageSize}
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*)`+postFrom+where), args...).Scan(&page.Total); err != nil {
		return Page{}, fmt.Errorf("count posts: %w", err)
	}
	if page.Number > page.NumPages() {
		return Page{}, ErrNotFound
	}

	query := postSelect + postFrom + where + ` ORDER BY p.pub_date DESC, p.id DESC LIMIT ? OFFSET ?`
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return Page{}, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return Page{}, err
		}
		page.Posts = append(page.Posts, *p)
	}
	return page, rows.Err()
}

// PostByID loads a post with its author, category, location and comment
// count. Visibility is the caller's decision.
func (s *Store) PostByID(ctx context.Context, id int64) (*models.Post, error) {
	return scanPost(s.db.QueryRowContext(ctx, s.q(postSelect+postFrom+` WHERE p.id = ?`), id))
}

func validatePost(p *models.Post) error {
	p.Title = strings.TrimSpace(p.Title)
	switch {
	case p.Title == "":
		return invalid("title", "this field is required")
	case utf8.RuneCountInString(p.Title) > models.MaxTitleLength:
		return invalid("title", fmt.Sprintf("at most %d characters", models.MaxTitleLength))
	case strings.TrimSpace(p.Text) == "":
		return invalid("text", "this field is required")
	case p.PubDate.IsZero():
		return invalid("pub_date", "this field is required")
	}
	return nil
}

func categoryID(c *models.Category) any {
	if c == nil {
		return nil
	}
	return c.ID
}

func locationID(l *models.Location) any {
	if l == nil {
		return nil
	}
	return l.ID
}

// CreatePost inserts p and fills in its ID and CreatedAt.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if p.AuthorID <= 0 {
		return invalid("author", "this field is required")
	}
	if err := validatePost(p); err != nil {
		return err
	}
	p.PubDate = db.Timestamp(p.PubDate)
	p.CreatedAt = s.stamp()
	id, err := s.insert(ctx,
		`INSERT INTO posts(title, text, pub_date, author_id, location_id, category_id, image, is_published, created_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		p.Title, p.Text, p.PubDate, p.AuthorID, locationID(p.Location), categoryID(p.Category), p.Image, p.IsPublished, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	p.ID = id
	return nil
}

// UpdatePost saves the editable fields of p. The author never changes.
func (s *Store) UpdatePost(ctx context.Context, p models.Post) error {
	if err := validatePost(&p); err != nil {
		return err
	}
	return s.execOne(ctx,
		`UPDATE posts SET title = ?, text = ?, pub_date = ?, location_id = ?, category_id = ?, image = ?, is_published = ?
		WHERE id = ?`,
		p.Title, p.Text, db.Timestamp(p.PubDate), locationID(p.Location), categoryID(p.Category), p.Image, p.IsPublished, p.ID)
}

func (s *Store) SetPostPublished(ctx context.Context, id int64, published bool) error {
	return s.execOne(ctx, `UPDATE posts SET is_published = ? WHERE id = ?`, published, id)
}

// DeletePost removes the post and its comments.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	return s.execOne(ctx, `DELETE FROM posts WHERE id = ?`, id)
}
