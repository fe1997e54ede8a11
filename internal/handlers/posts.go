package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blogicum/internal/events"
	"blogicum/internal/media"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

const maxUpload = 10 << 20

// Accepted layouts of the pub_date field.
var pubDateLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"}

const pubDateInput = "2006-01-02T15:04"

type postForm struct {
	ID          int64
	Title       string
	Text        string
	PubDate     string
	CategoryID  int64
	LocationID  int64
	IsPublished bool
	Image       string
	Errors      map[string]string
}

func formFromPost(p *models.Post) postForm {
	f := postForm{
		ID:          p.ID,
		Title:       p.Title,
		Text:        p.Text,
		PubDate:     p.PubDate.UTC().Format(pubDateInput),
		IsPublished: p.IsPublished,
		Image:       p.Image,
	}
	if p.Category != nil {
		f.CategoryID = p.Category.ID
	}
	if p.Location != nil {
		f.LocationID = p.Location.ID
	}
	return f
}

func (f *postForm) fail(field, msg string) {
	if f.Errors == nil {
		f.Errors = map[string]string{}
	}
	if _, ok := f.Errors[field]; !ok {
		f.Errors[field] = msg
	}
}

// parsePostForm reads a post form, multipart or not, and answers the
// request itself when the body is unreadable.
func parsePostForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(maxUpload)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return true
	case errors.As(err, &tooLarge):
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
	default:
		http.Error(w, "Bad Request", http.StatusBadRequest)
	}
	return false
}

func parsePubDate(v string) (time.Time, bool) {
	for _, layout := range pubDateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Index lists public posts, newest first.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	n, ok := pageNumber(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	page, err := h.store.ListPosts(r.Context(), store.PostQuery{
		Scope:    store.ScopePublic,
		Now:      h.policy.Time(),
		Page:     n,
		PageSize: h.pageSize,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "index", map[string]any{"Page": page})
}

func (h *Handler) PostDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "post_id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	post, err := h.store.PostByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user := h.currentUser(r)
	viewer := viewerOf(user)
	if !h.policy.Visible(*post, viewer) {
		h.NotFound(w, r)
		return
	}
	comments, err := h.store.ListComments(r.Context(), post.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "detail", map[string]any{
		"User":      user,
		"Viewer":    viewer,
		"Post":      post,
		"Comments":  comments,
		"CanModify": h.policy.CanModify(post, viewer),
	})
}

func (h *Handler) renderPostForm(w http.ResponseWriter, r *http.Request, user *models.User, status int, form postForm, del bool) {
	cats, err := h.store.ListCategories(r.Context(), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	locs, err := h.store.ListLocations(r.Context(), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, status, "create", map[string]any{
		"User":       user,
		"Form":       form,
		"Categories": cats,
		"Locations":  locs,
		"Delete":     del,
	})
}

// bindPost fills p from the submitted form. Failures are collected in the
// returned form, which is also what gets rendered back.
func (h *Handler) bindPost(ctx context.Context, r *http.Request, p *models.Post) postForm {
	form := postForm{
		ID:          p.ID,
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Text:        r.PostFormValue("text"),
		PubDate:     strings.TrimSpace(r.PostFormValue("pub_date")),
		IsPublished: r.PostFormValue("is_published") != "",
		Image:       p.Image,
	}
	p.Title, p.Text, p.IsPublished = form.Title, form.Text, form.IsPublished

	if form.PubDate == "" {
		form.fail("pub_date", "this field is required")
	} else if t, ok := parsePubDate(form.PubDate); ok {
		p.PubDate = t
	} else {
		form.fail("pub_date", "enter a valid date and time")
	}

	p.Category = nil
	if v := r.PostFormValue("category"); v == "" {
		form.fail("category", "this field is required")
	} else if id, err := strconv.ParseInt(v, 10, 64); err != nil {
		form.fail("category", "select a valid choice")
	} else {
		form.CategoryID = id
		c, err := h.store.CategoryByID(ctx, id)
		if err != nil {
			form.fail("category", "select a valid choice")
		} else {
			p.Category = c
		}
	}

	p.Location = nil
	if v := r.PostFormValue("location"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			form.LocationID = id
			p.Location, err = h.store.LocationByID(ctx, id)
		}
		if err != nil {
			form.fail("location", "select a valid choice")
		}
	}

	if form.Title == "" {
		form.fail("title", "this field is required")
	} else if len([]rune(form.Title)) > models.MaxTitleLength {
		form.fail("title", "at most 256 characters")
	}
	if strings.TrimSpace(form.Text) == "" {
		form.fail("text", "this field is required")
	}
	return form
}

// saveImage stores an uploaded image. It returns "" when none was sent.
func (h *Handler) saveImage(r *http.Request, form *postForm) (string, bool) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", true
	}
	if err != nil {
		form.fail("image", "upload failed")
		return "", false
	}
	defer file.Close()
	rel, err := h.media.Save(header.Filename, file)
	if errors.Is(err, media.ErrUnsupported) {
		form.fail("image", "upload a valid image")
		return "", false
	}
	if err != nil {
		log.Printf("[media] save %s: %v", header.Filename, err)
		form.fail("image", "upload failed")
		return "", false
	}
	return rel, true
}

func (h *Handler) removeImage(rel string) {
	if err := h.media.Remove(rel); err != nil {
		log.Printf("[media] remove %s: %v", rel, err)
	}
}

// applyValidation moves a store validation error onto the form.
func applyValidation(form *postForm, err error) bool {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		form.fail(verr.Field, verr.Message)
		return true
	}
	return false
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method == http.MethodGet {
		h.renderPostForm(w, r, user, http.StatusOK, postForm{
			PubDate:     h.policy.Time().UTC().Format(pubDateInput),
			IsPublished: true,
		}, false)
		return
	}
	if !parsePostForm(w, r) {
		return
	}

	post := models.Post{AuthorID: user.ID}
	form := h.bindPost(r.Context(), r, &post)
	if form.Errors != nil {
		h.renderPostForm(w, r, user, http.StatusBadRequest, form, false)
		return
	}
	img, ok := h.saveImage(r, &form)
	if !ok {
		h.renderPostForm(w, r, user, http.StatusBadRequest, form, false)
		return
	}
	post.Image = img

	if err := h.store.CreatePost(r.Context(), &post); err != nil {
		h.removeImage(img)
		if applyValidation(&form, err) {
			h.renderPostForm(w, r, user, http.StatusBadRequest, form, false)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.emit(r.Context(), events.PostCreated, post.ID, 0, user.ID)
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusSeeOther)
}

// ownPost loads the post named in the URL and checks that user may change
// it. Anyone else is sent back to the post.
func (h *Handler) ownPost(w http.ResponseWriter, r *http.Request, user *models.User) (*models.Post, bool) {
	id, ok := pathID(r, "post_id")
	if !ok {
		h.NotFound(w, r)
		return nil, false
	}
	post, err := h.store.PostByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if !h.policy.CanModify(post, viewerOf(user)) {
		http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
		return nil, false
	}
	return post, true
}

func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request, user *models.User) {
	post, ok := h.ownPost(w, r, user)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		h.renderPostForm(w, r, user, http.StatusOK, formFromPost(post), false)
		return
	}
	if !parsePostForm(w, r) {
		return
	}

	updated := *post
	form := h.bindPost(r.Context(), r, &updated)
	if form.Errors != nil {
		h.renderPostForm(w, r, user, http.StatusBadRequest, form, false)
		return
	}
	img, ok := h.saveImage(r, &form)
	if !ok {
		h.renderPostForm(w, r, user, http.StatusBadRequest, form, false)
		return
	}
	switch {
	case img != "":
		updated.Image = img
	case r.PostFormValue("image_clear") != "":
		updated.Image = ""
	}

	if err := h.store.UpdatePost(r.Context(), updated); err != nil {
		if img != "" {
			h.removeImage(img)
		}
		if applyValidation(&form, err) {
			h.renderPostForm(w, r, user, http.StatusBadRequest, form, false)
			return
		}
		h.fail(w, r, err)
		return
	}
	if post.Image != "" && post.Image != updated.Image {
		h.removeImage(post.Image)
	}
	h.emit(r.Context(), events.PostUpdated, post.ID, 0, user.ID)
	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request, user *models.User) {
	post, ok := h.ownPost(w, r, user)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		h.renderPostForm(w, r, user, http.StatusOK, formFromPost(post), true)
		return
	}
	if err := h.store.DeletePost(r.Context(), post.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	if post.Image != "" {
		h.removeImage(post.Image)
	}
	h.emit(r.Context(), events.PostDeleted, post.ID, 0, user.ID)
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusSeeOther)
}

// CategoryPosts lists the public posts of a published category.
func (h *Handler) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	n, ok := pageNumber(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	cat, err := h.store.CategoryBySlug(r.Context(), muxVar(r, "category_slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !cat.IsPublished {
		h.NotFound(w, r)
		return
	}
	page, err := h.store.ListPosts(r.Context(), store.PostQuery{
		Scope:        store.ScopePublic,
		CategorySlug: cat.Slug,
		Now:          h.policy.Time(),
		Page:         n,
		PageSize:     h.pageSize,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "category", map[string]any{"Category": cat, "Page": page})
}

func postURL(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10) + "/"
}
