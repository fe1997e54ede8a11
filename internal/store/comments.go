package store

import (
	"context"
	"fmt"
	"strings"

	"blogicum/internal/models"
)

const commentSelect = `SELECT cm.id, cm.post_id, cm.text, cm.created_at,
	u.id, u.username, u.email, u.first_name, u.last_name, u.created_at
	FROM comments cm JOIN users u ON u.id = cm.author_id`

func scanComment(row scanner) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Text, &c.CreatedAt,
		&c.Author.ID, &c.Author.Username, &c.Author.Email, &c.Author.FirstName, &c.Author.LastName, &c.Author.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.Author.CreatedAt = c.Author.CreatedAt.UTC()
	c.AuthorID = c.Author.ID
	return &c, nil
}

func validateCommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("text", "this field is required")
	}
	return nil
}

// CreateComment inserts c and fills in its ID and CreatedAt.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := validateCommentText(c.Text); err != nil {
		return err
	}
	if c.AuthorID <= 0 {
		return invalid("author", "this field is required")
	}
	c.CreatedAt = s.stamp()
	id, err := s.insert(ctx,
		`INSERT INTO comments(text, post_id, author_id, created_at) VALUES(?,?,?,?)`,
		c.Text, c.PostID, c.AuthorID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create comment on post %d: %w", c.PostID, err)
	}
	c.ID = id
	return nil
}

func (s *Store) CommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	return scanComment(s.db.QueryRowContext(ctx, s.q(commentSelect+` WHERE cm.id = ?`), id))
}

// ListComments returns the comments of a post, oldest first.
func (s *Store) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(commentSelect+` WHERE cm.post_id = ? ORDER BY cm.created_at, cm.id`), postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (s *Store) UpdateComment(ctx context.Context, id int64, text string) error {
	if err := validateCommentText(text); err != nil {
		return err
	}
	return s.execOne(ctx, `UPDATE comments SET text = ? WHERE id = ?`, text, id)
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	return s.execOne(ctx, `DELETE FROM comments WHERE id = ?`, id)
}
