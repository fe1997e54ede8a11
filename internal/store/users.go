package store

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"blogicum/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

const userColumns = `id, username, email, first_name, last_name, password_hash, created_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, classify(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// ValidateEmail accepts an empty address or a single bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "enter a valid email address")
	}
	return nil
}

func validateUser(u *models.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	switch {
	case u.Username == "":
		return invalid("username", "this field is required")
	case utf8.RuneCountInString(u.Username) > 150:
		return invalid("username", "at most 150 characters")
	case !usernamePattern.MatchString(u.Username):
		return invalid("username", "letters, digits and @/./+/-/_ only")
	case u.PasswordHash == "":
		return invalid("password", "this field is required")
	}
	return ValidateEmail(u.Email)
}

// CreateUser inserts u and fills in its ID and CreatedAt.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	u.CreatedAt = s.stamp()
	id, err := s.insert(ctx,
		`INSERT INTO users(username, email, first_name, last_name, password_hash, created_at) VALUES(?,?,?,?,?,?)`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	u.ID = id
	return nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id))
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE username = ?`), username))
}

// UpdateProfile changes the editable profile fields of a user.
func (s *Store) UpdateProfile(ctx context.Context, id int64, firstName, lastName, email string) error {
	firstName, lastName, email = strings.TrimSpace(firstName), strings.TrimSpace(lastName), strings.TrimSpace(email)
	if utf8.RuneCountInString(firstName) > 150 {
		return invalid("first_name", "at most 150 characters")
	}
	if utf8.RuneCountInString(lastName) > 150 {
		return invalid("last_name", "at most 150 characters")
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return s.execOne(ctx, `UPDATE users SET first_name = ?, last_name = ?, email = ? WHERE id = ?`,
		firstName, lastName, email, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
