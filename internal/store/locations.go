package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"blogicum/internal/models"
)

const locationColumns = `id, name, is_published, created_at`

func scanLocation(row scanner) (*models.Location, error) {
	var l models.Location
	if err := row.Scan(&l.ID, &l.Name, &l.IsPublished, &l.CreatedAt); err != nil {
		return nil, classify(err)
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}

// CreateLocation inserts l and fills in its ID and CreatedAt.
func (s *Store) CreateLocation(ctx context.Context, l *models.Location) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return invalid("name", "this field is required")
	}
	if utf8.RuneCountInString(l.Name) > models.MaxTitleLength {
		return invalid("name", fmt.Sprintf("at most %d characters", models.MaxTitleLength))
	}
	l.CreatedAt = s.stamp()
	id, err := s.insert(ctx,
		`INSERT INTO locations(name, is_published, created_at) VALUES(?,?,?)`,
		l.Name, l.IsPublished, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	l.ID = id
	return nil
}

func (s *Store) LocationByID(ctx context.Context, id int64) (*models.Location, error) {
	return scanLocation(s.db.QueryRowContext(ctx,
		s.q(`SELECT `+locationColumns+` FROM locations WHERE id = ?`), id))
}

func (s *Store) ListLocations(ctx context.Context, publishedOnly bool) ([]models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations`
	if publishedOnly {
		query += ` WHERE is_published`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var locs []models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locs = append(locs, *l)
	}
	return locs, rows.Err()
}

func (s *Store) SetLocationPublished(ctx context.Context, id int64, published bool) error {
	return s.execOne(ctx, `UPDATE locations SET is_published = ? WHERE id = ?`, published, id)
}

// DeleteLocation removes the location; its posts stay, without a location.
func (s *Store) DeleteLocation(ctx context.Context, id int64) error {
	return s.execOne(ctx, `DELETE FROM locations WHERE id = ?`, id)
}

func scanOptionalLocation(id sql.NullInt64, name sql.NullString, published sql.NullBool, created sql.NullTime) *models.Location {
	if !id.Valid {
		return nil
	}
	return &models.Location{
		ID:          id.Int64,
		Name:        name.String,
		IsPublished: published.Bool,
		CreatedAt:   nullTime(created),
	}
}
