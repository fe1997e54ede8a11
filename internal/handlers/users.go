package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"blogicum/internal/auth"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

// Profile shows a user's posts. The owner also sees hidden and scheduled
// ones.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	n, ok := pageNumber(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	profile, err := h.store.UserByUsername(r.Context(), muxVar(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user := h.currentUser(r)
	viewer := viewerOf(user)
	page, err := h.store.ListPosts(r.Context(), store.PostQuery{
		Scope:          store.ScopeViewer,
		Viewer:         viewer,
		AuthorUsername: profile.Username,
		Now:            h.policy.Time(),
		Page:           n,
		PageSize:       h.pageSize,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "profile", map[string]any{
		"User":    user,
		"Profile": profile,
		"Page":    page,
		"IsOwner": viewer.Is(profile.ID),
	})
}

type profileForm struct {
	FirstName string
	LastName  string
	Email     string
	Errors    map[string]string
}

func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "user", map[string]any{
			"User": user,
			"Form": profileForm{FirstName: user.FirstName, LastName: user.LastName, Email: user.Email},
		})
		return
	}
	form := profileForm{
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
	}
	err := h.store.UpdateProfile(r.Context(), user.ID, form.FirstName, form.LastName, form.Email)
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		form.Errors = map[string]string{verr.Field: verr.Message}
		h.render(w, r, http.StatusBadRequest, "user", map[string]any{"User": user, "Form": form})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusSeeOther)
}

type registrationForm struct {
	Username string
	Email    string
	Errors   map[string]string
}

func (f *registrationForm) fail(field, msg string) {
	if f.Errors == nil {
		f.Errors = map[string]string{}
	}
	f.Errors[field] = msg
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "registration", map[string]any{"Form": registrationForm{}})
		return
	}

	form := registrationForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
	}
	pass := r.PostFormValue("password1")
	switch {
	case pass == "":
		form.fail("password1", "this field is required")
	case utf8.RuneCountInString(pass) < auth.MinPasswordLength:
		form.fail("password1", "at least 8 characters")
	case pass != r.PostFormValue("password2"):
		form.fail("password2", "the two password fields didn't match")
	}
	if form.Errors != nil {
		h.render(w, r, http.StatusBadRequest, "registration", map[string]any{"Form": form})
		return
	}

	hash, err := auth.HashPassword(pass)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u := &models.User{Username: form.Username, Email: form.Email, PasswordHash: hash}
	err = h.store.CreateUser(r.Context(), u)
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		form.fail(verr.Field, verr.Message)
	case errors.Is(err, store.ErrDuplicate):
		form.fail("username", "a user with that username already exists")
	case err != nil:
		h.fail(w, r, err)
		return
	}
	if form.Errors != nil {
		h.render(w, r, http.StatusBadRequest, "registration", map[string]any{"Form": form})
		return
	}
	http.Redirect(w, r, "/auth/login/?registered=1", http.StatusSeeOther)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "login", map[string]any{
			"Next":       r.URL.Query().Get("next"),
			"Registered": r.URL.Query().Get("registered") == "1",
		})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	pass := r.PostFormValue("password")
	next := r.PostFormValue("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}

	u, err := h.store.UserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, err)
		return
	}
	if u == nil || !auth.CheckPassword(pass, u.PasswordHash) {
		h.render(w, r, http.StatusBadRequest, "login", map[string]any{
			"User":     nil,
			"Next":     next,
			"Username": username,
			"Error":    "wrong username or password",
		})
		return
	}

	if err := h.sessions.Create(r.Context(), w, u.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
