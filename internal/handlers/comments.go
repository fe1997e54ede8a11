package handlers

import (
	"errors"
	"net/http"
	"strings"

	"blogicum/internal/events"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

type commentForm struct {
	ID     int64
	Text   string
	Errors map[string]string
}

func (h *Handler) renderCommentForm(w http.ResponseWriter, r *http.Request, user *models.User, status int, postID int64, form commentForm, action string, del bool) {
	h.render(w, r, status, "comment", map[string]any{
		"User":   user,
		"PostID": postID,
		"Form":   form,
		"Action": action,
		"Delete": del,
	})
}

func commentError(err error) (map[string]string, bool) {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		return map[string]string{verr.Field: verr.Message}, true
	}
	return nil, false
}

// AddComment comments on a post the user is allowed to see.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request, user *models.User) {
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
	if !h.policy.Visible(*post, viewerOf(user)) {
		h.NotFound(w, r)
		return
	}

	c := models.Comment{PostID: post.ID, AuthorID: user.ID, Text: strings.TrimSpace(r.PostFormValue("text"))}
	if err := h.store.CreateComment(r.Context(), &c); err != nil {
		if fields, ok := commentError(err); ok {
			h.renderCommentForm(w, r, user, http.StatusBadRequest, post.ID,
				commentForm{Text: c.Text, Errors: fields}, r.URL.Path, false)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.emit(r.Context(), events.CommentCreated, post.ID, c.ID, user.ID)
	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

// ownComment loads the comment named in the URL. A comment that belongs to
// another post does not exist here; one owned by someone else sends the
// user back to the post.
func (h *Handler) ownComment(w http.ResponseWriter, r *http.Request, user *models.User) (*models.Comment, bool) {
	postID, ok := pathID(r, "post_id")
	if !ok {
		h.NotFound(w, r)
		return nil, false
	}
	commentID, ok := pathID(r, "comment_id")
	if !ok {
		h.NotFound(w, r)
		return nil, false
	}
	c, err := h.store.CommentByID(r.Context(), commentID)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if c.PostID != postID {
		h.NotFound(w, r)
		return nil, false
	}
	if !h.policy.CanModify(c, viewerOf(user)) {
		http.Redirect(w, r, postURL(postID), http.StatusSeeOther)
		return nil, false
	}
	return c, true
}

func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request, user *models.User) {
	c, ok := h.ownComment(w, r, user)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		h.renderCommentForm(w, r, user, http.StatusOK, c.PostID, commentForm{ID: c.ID, Text: c.Text}, r.URL.Path, false)
		return
	}
	text := strings.TrimSpace(r.PostFormValue("text"))
	if err := h.store.UpdateComment(r.Context(), c.ID, text); err != nil {
		if fields, ok := commentError(err); ok {
			h.renderCommentForm(w, r, user, http.StatusBadRequest, c.PostID,
				commentForm{ID: c.ID, Text: text, Errors: fields}, r.URL.Path, false)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.emit(r.Context(), events.CommentUpdated, c.PostID, c.ID, user.ID)
	http.Redirect(w, r, postURL(c.PostID), http.StatusSeeOther)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request, user *models.User) {
	c, ok := h.ownComment(w, r, user)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		h.renderCommentForm(w, r, user, http.StatusOK, c.PostID, commentForm{ID: c.ID, Text: c.Text}, r.URL.Path, true)
		return
	}
	if err := h.store.DeleteComment(r.Context(), c.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.emit(r.Context(), events.CommentDeleted, c.PostID, c.ID, user.ID)
	http.Redirect(w, r, postURL(c.PostID), http.StatusSeeOther)
}
