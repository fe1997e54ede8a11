package models

import "time"

// MaxTitleLength bounds titles and names of every entity.
const MaxTitleLength = 256

type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// FullName returns "First Last", falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

type Category struct {
	ID          int64
	Title       string
	Description string
	Slug        string
	IsPublished bool
	CreatedAt   time.Time
}

type Location struct {
	ID          int64
	Name        string
	IsPublished bool
	CreatedAt   time.Time
}

// Post is a publication. Category and Location are nil when unset or when
// the referenced row was deleted.
type Post struct {
	ID           int64
	Title        string
	Text         string
	PubDate      time.Time
	IsPublished  bool
	CreatedAt    time.Time
	Image        string
	AuthorID     int64
	Author       User
	Category     *Category
	Location     *Location
	CommentCount int
}

// OwnerID reports the author of the post.
func (p Post) OwnerID() int64 { return p.AuthorID }

type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Author    User
	Text      string
	CreatedAt time.Time
}

// OwnerID reports the author of the comment.
func (c Comment) OwnerID() int64 { return c.AuthorID }
