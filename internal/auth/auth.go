package auth

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"

	"blogicum/internal/db"
)

const sessionCookie = "blogicum_session"

// Manager keeps login sessions in the sessions table.
type Manager struct {
	db      *sql.DB
	dialect db.Dialect
	maxAge  time.Duration
	now     func() time.Time
	// Secure marks the session cookie HTTPS-only.
	Secure bool
}

func NewManager(conn *sql.DB, d db.Dialect, maxAge time.Duration) *Manager {
	return &Manager{db: conn, dialect: d, maxAge: maxAge, now: time.Now}
}

// Create starts a session for the user, ending any earlier ones, and sets
// the session cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, userID int64) error {
	id := uuid.New().String()
	expires := db.Timestamp(m.now().Add(m.maxAge))

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, m.dialect.Rebind(`DELETE FROM sessions WHERE user_id = ?`), userID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, m.dialect.Rebind(`INSERT INTO sessions(id,user_id,expires_at) VALUES(?,?,?)`), id, userID, expires)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
	return nil
}

func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	c, _ := r.Cookie(sessionCookie)
	if c != nil && c.Value != "" {
		m.db.ExecContext(r.Context(), m.dialect.Rebind(`DELETE FROM sessions WHERE id = ?`), c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
}

// CurrentUserID returns the user of the request's session, if it is valid.
func (m *Manager) CurrentUserID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return 0, false
	}
	var uid int64
	var exp time.Time
	err = m.db.QueryRowContext(r.Context(),
		m.dialect.Rebind(`SELECT user_id, expires_at FROM sessions WHERE id = ?`), c.Value).Scan(&uid, &exp)
	if err != nil || m.now().After(exp) {
		return 0, false
	}
	return uid, true
}
