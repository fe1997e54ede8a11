package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"blogicum/internal/models"
)

const (
	alice int64 = 1
	bob   int64 = 2
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func publicPost() models.Post {
	return models.Post{
		ID:          10,
		AuthorID:    alice,
		IsPublished: true,
		PubDate:     now.Add(-24 * time.Hour),
		Category:    &models.Category{ID: 3, Slug: "travel", IsPublished: true},
	}
}

func TestVisible(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Post)
		viewer Viewer
		want   bool
	}{
		{"published post to stranger", func(*models.Post) {}, As(bob), true},
		{"published post to anonymous", func(*models.Post) {}, Anonymous, true},
		{"published post to author", func(*models.Post) {}, As(alice), true},
		{"unpublished post to stranger", func(p *models.Post) { p.IsPublished = false }, As(bob), false},
		{"unpublished post to anonymous", func(p *models.Post) { p.IsPublished = false }, Anonymous, false},
		{"unpublished post to author", func(p *models.Post) { p.IsPublished = false }, As(alice), true},
		{"hidden category to stranger", func(p *models.Post) { p.Category.IsPublished = false }, As(bob), false},
		{"hidden category to author", func(p *models.Post) { p.Category.IsPublished = false }, As(alice), true},
		{"no category to stranger", func(p *models.Post) { p.Category = nil }, As(bob), false},
		{"no category to anonymous", func(p *models.Post) { p.Category = nil }, Anonymous, false},
		{"no category to author", func(p *models.Post) { p.Category = nil }, As(alice), true},
		{"scheduled post to stranger", func(p *models.Post) { p.PubDate = now.Add(time.Hour) }, As(bob), false},
		{"scheduled post to author", func(p *models.Post) { p.PubDate = now.Add(time.Hour) }, As(alice), true},
		{"post due exactly now", func(p *models.Post) { p.PubDate = now }, As(bob), true},
		{"everything hidden to author", func(p *models.Post) {
			p.IsPublished = false
			p.Category = nil
			p.PubDate = now.Add(365 * 24 * time.Hour)
		}, As(alice), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := publicPost()
			tt.mutate(&p)
			assert.Equal(t, tt.want, Visible(p, tt.viewer, now))
		})
	}
}

func TestVisibleFlipsWhenScheduleIsReached(t *testing.T) {
	p := publicPost()
	p.PubDate = now.Add(time.Minute)

	assert.False(t, Visible(p, Anonymous, now))
	assert.False(t, Visible(p, Anonymous, now.Add(59*time.Second)))
	assert.True(t, Visible(p, Anonymous, now.Add(time.Minute)))
	assert.True(t, Visible(p, Anonymous, now.Add(time.Hour)))
}

func TestAnonymousNeverOwns(t *testing.T) {
	// A record with a zero author must not be claimed by the zero viewer.
	p := publicPost()
	p.AuthorID = 0
	p.IsPublished = false

	assert.False(t, Visible(p, Anonymous, now))
	assert.False(t, CanModify(p, Anonymous))
}

func TestCanModify(t *testing.T) {
	post := publicPost()
	comment := models.Comment{ID: 7, PostID: post.ID, AuthorID: bob}

	assert.True(t, CanModify(post, As(alice)))
	assert.False(t, CanModify(post, As(bob)))
	assert.False(t, CanModify(post, Anonymous))

	assert.True(t, CanModify(comment, As(bob)))
	assert.False(t, CanModify(comment, As(alice)))
	assert.False(t, CanModify(comment, Anonymous))
}

func TestCanModifyIgnoresVisibility(t *testing.T) {
	p := publicPost()
	p.IsPublished = false
	p.Category = nil

	assert.True(t, CanModify(p, As(alice)))
	assert.False(t, CanModify(p, As(bob)))
}

func TestScenarios(t *testing.T) {
	p := publicPost()

	t.Run("stranger reads but cannot edit", func(t *testing.T) {
		assert.True(t, Visible(p, As(bob), now))
		assert.False(t, CanModify(p, As(bob)))
	})
	t.Run("author reads and edits", func(t *testing.T) {
		assert.True(t, Visible(p, As(alice), now))
		assert.True(t, CanModify(p, As(alice)))
	})
	t.Run("tomorrow's post is hidden from anonymous", func(t *testing.T) {
		q := publicPost()
		q.PubDate = now.Add(24 * time.Hour)
		assert.False(t, Visible(q, Anonymous, now))
	})
	t.Run("draft is shown to its author", func(t *testing.T) {
		q := publicPost()
		q.IsPublished = false
		assert.True(t, Visible(q, As(alice), now))
	})
}

func TestPolicyUsesItsClock(t *testing.T) {
	p := publicPost()
	p.PubDate = now.Add(time.Hour)

	clock := now
	policy := Policy{Now: func() time.Time { return clock }}
	assert.False(t, policy.Visible(p, As(bob)))

	clock = now.Add(2 * time.Hour)
	assert.True(t, policy.Visible(p, As(bob)))
	assert.Equal(t, clock, policy.Time())
}

func TestViewer(t *testing.T) {
	assert.False(t, Anonymous.Authenticated())
	assert.True(t, As(alice).Authenticated())
	assert.True(t, As(alice).Is(alice))
	assert.False(t, As(alice).Is(bob))
	assert.False(t, Anonymous.Is(0))
}

func TestStatus(t *testing.T) {
	p := publicPost()
	assert.Equal(t, "public", Status(p, now))

	p.PubDate = now.Add(time.Hour)
	assert.Equal(t, "scheduled", Status(p, now))

	p.Category.IsPublished = false
	assert.Equal(t, "category hidden", Status(p, now))

	p.Category = nil
	assert.Equal(t, "no category", Status(p, now))

	p.IsPublished = false
	assert.Equal(t, "hidden", Status(p, now))
}
