// Package access decides who may see and who may change blog content.
//
// Every function here is a pure predicate over the supplied record, viewer
// and time. Lookups, missing records and authentication are the caller's
// business.
package access

import (
	"time"

	"blogicum/internal/models"
)

// Viewer is the identity a request acts as. The zero value is anonymous.
type Viewer struct {
	UserID int64
}

// Anonymous is the viewer of a request without a valid session or token.
var Anonymous = Viewer{}

// As returns the viewer for an authenticated user id.
func As(userID int64) Viewer { return Viewer{UserID: userID} }

// Authenticated reports whether the viewer is a known user.
func (v Viewer) Authenticated() bool { return v.UserID > 0 }

// Is reports whether the viewer is the given user. Anonymous is nobody.
func (v Viewer) Is(userID int64) bool {
	return v.Authenticated() && v.UserID == userID
}

// Owned is content with an author: posts and comments.
type Owned interface {
	OwnerID() int64
}

// Public reports whether a post may be shown to someone other than its
// author: published, in a published category, and due.
func Public(p models.Post, now time.Time) bool {
	return p.IsPublished &&
		p.Category != nil && p.Category.IsPublished &&
		!p.PubDate.After(now)
}

// Status names the first condition keeping a post from the public, or
// "public".
func Status(p models.Post, now time.Time) string {
	switch {
	case !p.IsPublished:
		return "hidden"
	case p.Category == nil:
		return "no category"
	case !p.Category.IsPublished:
		return "category hidden"
	case p.PubDate.After(now):
		return "scheduled"
	}
	return "public"
}

// Visible reports whether the viewer may see the post at the given time.
// Authors always see their own posts.
func Visible(p models.Post, v Viewer, now time.Time) bool {
	if v.Is(p.AuthorID) {
		return true
	}
	return Public(p, now)
}

// CanModify reports whether the viewer may edit or delete the item.
func CanModify(item Owned, v Viewer) bool {
	return v.Is(item.OwnerID())
}

// Policy binds the predicates to a clock.
type Policy struct {
	Now func() time.Time
}

// NewPolicy returns a policy on the wall clock.
func NewPolicy() Policy { return Policy{Now: time.Now} }

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Visible evaluates Visible at the policy's current time.
func (p Policy) Visible(post models.Post, v Viewer) bool {
	return Visible(post, v, p.now())
}

// CanModify is CanModify; it does not depend on time.
func (p Policy) CanModify(item Owned, v Viewer) bool {
	return CanModify(item, v)
}

// Time returns the policy's current time.
func (p Policy) Time() time.Time { return p.now() }
