package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"blogicum/internal/access"
	"blogicum/internal/auth"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

type apiAuthor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type apiCategory struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type apiPost struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Text         string       `json:"text"`
	PubDate      time.Time    `json:"pub_date"`
	IsPublished  bool         `json:"is_published"`
	Author       apiAuthor    `json:"author"`
	Category     *apiCategory `json:"category"`
	Location     *string      `json:"location"`
	Image        string       `json:"image,omitempty"`
	CommentCount int          `json:"comment_count"`
	CanModify    bool         `json:"can_modify"`
}

type apiComment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Author    apiAuthor `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	CanModify bool      `json:"can_modify"`
}

type apiPage struct {
	Page     int       `json:"page"`
	NumPages int       `json:"num_pages"`
	Count    int       `json:"count"`
	Results  []apiPost `json:"results"`
}

func toAPIPost(p models.Post, v access.Viewer) apiPost {
	out := apiPost{
		ID:           p.ID,
		Title:        p.Title,
		Text:         p.Text,
		PubDate:      p.PubDate.UTC(),
		IsPublished:  p.IsPublished,
		Author:       apiAuthor{ID: p.Author.ID, Username: p.Author.Username},
		Image:        p.Image,
		CommentCount: p.CommentCount,
		CanModify:    access.CanModify(p, v),
	}
	if p.Category != nil {
		out.Category = &apiCategory{Slug: p.Category.Slug, Title: p.Category.Title}
	}
	if p.Location != nil && p.Location.IsPublished {
		out.Location = &p.Location.Name
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode: %v", err)
	}
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// apiFail maps a store error to a JSON error response.
func apiFail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeAPIError(w, http.StatusNotFound, "not found")
		return
	}
	log.Printf("[api] %s %s: %v", r.Method, r.URL.Path, err)
	writeAPIError(w, http.StatusInternalServerError, "internal error")
}

// bearer returns the viewer named by the Authorization header. No header
// means anonymous; a bad token is an error.
func (h *Handler) bearer(r *http.Request) (access.Viewer, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return access.Anonymous, nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return access.Anonymous, auth.ErrInvalidToken
	}
	claims, err := h.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return access.Anonymous, err
	}
	id, err := claims.UserID()
	if err != nil {
		return access.Anonymous, err
	}
	if _, err := h.store.UserByID(r.Context(), id); err != nil {
		return access.Anonymous, auth.ErrInvalidToken
	}
	return access.As(id), nil
}

func (h *Handler) APIToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	u, err := h.store.UserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		apiFail(w, r, err)
		return
	}
	if u == nil || !auth.CheckPassword(req.Password, u.PasswordHash) {
		writeAPIError(w, http.StatusUnauthorized, "wrong username or password")
		return
	}
	token, exp, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_at": exp.UTC()})
}

func (h *Handler) APIPosts(w http.ResponseWriter, r *http.Request) {
	v, err := h.bearer(r)
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	n, ok := pageNumber(r)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "invalid page")
		return
	}
	page, err := h.store.ListPosts(r.Context(), store.PostQuery{
		Scope:    store.ScopePublic,
		Now:      h.policy.Time(),
		Page:     n,
		PageSize: h.pageSize,
	})
	if err != nil {
		apiFail(w, r, err)
		return
	}
	out := apiPage{Page: page.Number, NumPages: page.NumPages(), Count: page.Total, Results: []apiPost{}}
	for _, p := range page.Posts {
		out.Results = append(out.Results, toAPIPost(p, v))
	}
	writeJSON(w, http.StatusOK, out)
}

// visiblePost loads the post of the URL if v may see it.
func (h *Handler) visiblePost(w http.ResponseWriter, r *http.Request) (*models.Post, access.Viewer, bool) {
	v, err := h.bearer(r)
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, "invalid token")
		return nil, v, false
	}
	id, ok := pathID(r, "post_id")
	if !ok {
		writeAPIError(w, http.StatusNotFound, "not found")
		return nil, v, false
	}
	post, err := h.store.PostByID(r.Context(), id)
	if err != nil {
		apiFail(w, r, err)
		return nil, v, false
	}
	if !h.policy.Visible(*post, v) {
		writeAPIError(w, http.StatusNotFound, "not found")
		return nil, v, false
	}
	return post, v, true
}

func (h *Handler) APIPost(w http.ResponseWriter, r *http.Request) {
	post, v, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toAPIPost(*post, v))
}

func (h *Handler) APIComments(w http.ResponseWriter, r *http.Request) {
	post, v, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	comments, err := h.store.ListComments(r.Context(), post.ID)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	out := make([]apiComment, 0, len(comments))
	for _, c := range comments {
		out = append(out, apiComment{
			ID:        c.ID,
			Text:      c.Text,
			Author:    apiAuthor{ID: c.Author.ID, Username: c.Author.Username},
			CreatedAt: c.CreatedAt.UTC(),
			CanModify: access.CanModify(c, v),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
