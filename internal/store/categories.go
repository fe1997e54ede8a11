package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"blogicum/internal/models"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

const categoryColumns = `id, title, description, slug, is_published, created_at`

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Slug, &c.IsPublished, &c.CreatedAt); err != nil {
		return nil, classify(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func validateCategory(c *models.Category) error {
	c.Title = strings.TrimSpace(c.Title)
	c.Slug = strings.TrimSpace(c.Slug)
	switch {
	case c.Title == "":
		return invalid("title", "this field is required")
	case utf8.RuneCountInString(c.Title) > models.MaxTitleLength:
		return invalid("title", fmt.Sprintf("at most %d characters", models.MaxTitleLength))
	case strings.TrimSpace(c.Description) == "":
		return invalid("description", "this field is required")
	case !slugPattern.MatchString(c.Slug):
		return invalid("slug", "latin letters, digits, hyphen and underscore only")
	}
	return nil
}

// CreateCategory inserts c and fills in its ID and CreatedAt.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if err := validateCategory(c); err != nil {
		return err
	}
	c.CreatedAt = s.stamp()
	id, err := s.insert(ctx,
		`INSERT INTO categories(title, description, slug, is_published, created_at) VALUES(?,?,?,?,?)`,
		c.Title, c.Description, c.Slug, c.IsPublished, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category %q: %w", c.Slug, err)
	}
	c.ID = id
	return nil
}

func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		s.q(`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`), slug))
}

func (s *Store) CategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		s.q(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`), id))
}

func (s *Store) ListCategories(ctx context.Context, publishedOnly bool) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if publishedOnly {
		query += ` WHERE is_published`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// UpdateCategory saves title, description, slug and the published flag.
// The slug cannot change while any post references the category.
func (s *Store) UpdateCategory(ctx context.Context, c models.Category) error {
	if err := validateCategory(&c); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, s.q(`SELECT slug FROM categories WHERE id = ?`), c.ID).Scan(&current)
	if err != nil {
		return classify(err)
	}
	if current != c.Slug {
		var refs int
		err = tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM posts WHERE category_id = ?`), c.ID).Scan(&refs)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrSlugInUse
		}
	}
	_, err = tx.ExecContext(ctx,
		s.q(`UPDATE categories SET title = ?, description = ?, slug = ?, is_published = ? WHERE id = ?`),
		c.Title, c.Description, c.Slug, c.IsPublished, c.ID)
	if err != nil {
		return classify(err)
	}
	return tx.Commit()
}

func (s *Store) SetCategoryPublished(ctx context.Context, id int64, published bool) error {
	return s.execOne(ctx, `UPDATE categories SET is_published = ? WHERE id = ?`, published, id)
}

// DeleteCategory removes the category; its posts stay, without a category.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.execOne(ctx, `DELETE FROM categories WHERE id = ?`, id)
}

func scanOptionalCategory(id sql.NullInt64, title, description, slug sql.NullString, published sql.NullBool, created sql.NullTime) *models.Category {
	if !id.Valid {
		return nil
	}
	return &models.Category{
		ID:          id.Int64,
		Title:       title.String,
		Description: description.String,
		Slug:        slug.String,
		IsPublished: published.Bool,
		CreatedAt:   nullTime(created),
	}
}
