package handlers

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"

	"blogicum/internal/access"
	"blogicum/internal/auth"
	"blogicum/internal/events"
	"blogicum/internal/media"
	"blogicum/internal/models"
	"blogicum/internal/store"
	"blogicum/web"
)

// Deps are the collaborators a Handler needs.
type Deps struct {
	Store    *store.Store
	Sessions *auth.Manager
	Tokens   *auth.Tokens
	Events   events.Publisher
	Media    media.Storage
	Policy   access.Policy
	PageSize int
	// CSRFKey signs the CSRF cookie and must be 32 bytes. A random key is
	// used when empty.
	CSRFKey       []byte
	SecureCookies bool
}

type Handler struct {
	store    *store.Store
	sessions *auth.Manager
	tokens   *auth.Tokens
	events   events.Publisher
	media    media.Storage
	policy   access.Policy
	pageSize int
	tmpl     map[string]*template.Template
	csrf     func(http.Handler) http.Handler
}

var pages = []string{
	"index", "detail", "create", "comment", "category", "profile", "user",
	"registration", "login", "about", "rules", "403", "404", "500",
}

// maxBody bounds every request body: the largest image plus the form fields.
const maxBody = maxUpload + 1<<20

func New(d Deps) (*Handler, error) {
	funcs := template.FuncMap{
		"date":      formatDate,
		"excerpt":   excerpt,
		"media":     func(p string) string { return "/media/" + p },
		"canModify": access.CanModify,
	}
	tmpl := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(web.FS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		tmpl[name] = t
	}

	h := &Handler{
		store:    d.Store,
		sessions: d.Sessions,
		tokens:   d.Tokens,
		events:   d.Events,
		media:    d.Media,
		policy:   d.Policy,
		pageSize: d.PageSize,
		tmpl:     tmpl,
	}
	if h.events == nil {
		h.events = events.Nop{}
	}
	if h.policy.Now == nil {
		h.policy = access.NewPolicy()
	}
	if h.pageSize <= 0 {
		h.pageSize = store.DefaultPageSize
	}

	key := d.CSRFKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("csrf key must be 32 bytes, got %d", len(key))
	}
	h.csrf = csrf.Protect(key,
		csrf.Secure(d.SecureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(h.Forbidden)),
	)
	return h, nil
}

// protect checks the CSRF token of every unsafe request to the site. The
// API authenticates with bearer tokens instead of cookies and is exempt.
func (h *Handler) protect(next http.Handler) http.Handler {
	checked := h.csrf(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}
		checked.ServeHTTP(w, r)
	})
}

// Router wires every route of the site and the API.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.StrictSlash(true)
	r.Use(LimitBody(maxBody), h.protect)

	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/posts/create/", h.RequireAuth(h.CreatePost)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/posts/{post_id:[0-9]+}/", h.PostDetail).Methods(http.MethodGet)
	r.HandleFunc("/posts/{post_id:[0-9]+}/edit/", h.RequireAuth(h.EditPost)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/posts/{post_id:[0-9]+}/delete/", h.RequireAuth(h.DeletePost)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/posts/{post_id:[0-9]+}/comment/", h.RequireAuth(h.AddComment)).Methods(http.MethodPost)
	r.HandleFunc("/posts/{post_id:[0-9]+}/edit_comment/{comment_id:[0-9]+}/", h.RequireAuth(h.EditComment)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/posts/{post_id:[0-9]+}/delete_comment/{comment_id:[0-9]+}/", h.RequireAuth(h.DeleteComment)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/category/{category_slug}/", h.CategoryPosts).Methods(http.MethodGet)
	r.HandleFunc("/profile/edit_profile/", h.RequireAuth(h.EditProfile)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/profile/{username}/", h.Profile).Methods(http.MethodGet)

	r.HandleFunc("/auth/registration/", h.Register).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/auth/login/", h.Login).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/auth/logout/", h.Logout).Methods(http.MethodPost)

	r.HandleFunc("/pages/about/", h.static("about")).Methods(http.MethodGet)
	r.HandleFunc("/pages/rules/", h.static("rules")).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/token", h.APIToken).Methods(http.MethodPost)
	api.HandleFunc("/posts", h.APIPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts/{post_id:[0-9]+}", h.APIPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{post_id:[0-9]+}/comments", h.APIComments).Methods(http.MethodGet)

	static, _ := fs.Sub(web.FS, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.PathPrefix("/media/").Handler(http.StripPrefix("/media/", http.FileServer(http.Dir(h.media.Root))))

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// RequireAuth passes the logged-in user to next, or sends anonymous
// visitors to the login page with a way back.
func (h *Handler) RequireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.currentUser(r)
		if user == nil {
			http.Redirect(w, r, "/auth/login/?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

func (h *Handler) currentUser(r *http.Request) *models.User {
	uid, ok := h.sessions.CurrentUserID(r)
	if !ok {
		return nil
	}
	u, err := h.store.UserByID(r.Context(), uid)
	if err != nil {
		return nil
	}
	return u
}

func viewerOf(u *models.User) access.Viewer {
	if u == nil {
		return access.Anonymous
	}
	return access.As(u.ID)
}

// render executes a page into a buffer first so a failing template never
// leaves a half-written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	t, ok := h.tmpl[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["User"]; !ok {
		data["User"] = h.currentUser(r)
	}
	data[csrf.TemplateTag] = csrf.TemplateField(r)
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("[render] %s: %v", name, err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) static(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, name, nil)
	}
}

// Forbidden answers a request that failed the CSRF check.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	log.Printf("[csrf] %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
	h.render(w, r, http.StatusForbidden, "403", nil)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "404", nil)
}

func (h *Handler) ServerError(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusInternalServerError, "500", map[string]any{"User": nil})
}

// fail maps a store error to the matching page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	log.Printf("[error] %s %s: %v", r.Method, r.URL.Path, err)
	h.ServerError(w, r)
}

func (h *Handler) emit(ctx context.Context, t events.Type, postID, commentID, authorID int64) {
	events.Emit(ctx, h.events, events.Event{
		Type:       t,
		PostID:     postID,
		CommentID:  commentID,
		AuthorID:   authorID,
		OccurredAt: h.policy.Time().UTC(),
	})
}

func muxVar(r *http.Request, name string) string { return mux.Vars(r)[name] }

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(muxVar(r, name), 10, 64)
	return id, err == nil && id > 0
}

// pageNumber reads ?page=. Absent means the first page; junk is not found.
func pageNumber(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("page")
	if v == "" {
		return 1, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil && n > 0
}

// safeNext keeps redirects after login on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2 January 2006, 15:04")
}

func excerpt(s string) string {
	const max = 300
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}
