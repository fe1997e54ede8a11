package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPayload(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e := Event{Type: CommentCreated, PostID: 3, CommentID: 9, AuthorID: 1, OccurredAt: at}
	assert.Equal(t, "blogicum.comment.created", e.Subject())

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"comment.created","post_id":3,"comment_id":9,"author_id":1,"occurred_at":"2024-01-02T03:04:05Z"}`, string(data))
}

type failing struct{ Nop }

func (failing) Publish(context.Context, Event) error { return errors.New("down") }

func TestEmit(t *testing.T) {
	r := &Recorder{}
	Emit(context.Background(), r, Event{Type: PostCreated, PostID: 1, AuthorID: 2})
	got := r.Events()
	require.Len(t, got, 1)
	assert.Equal(t, PostCreated, got[0].Type)
	assert.False(t, got[0].OccurredAt.IsZero())

	// failures are swallowed
	Emit(context.Background(), failing{}, Event{Type: PostDeleted})
	Emit(context.Background(), Nop{}, Event{Type: PostDeleted})
}

func TestNATSRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}
	p, err := ConnectNATS(url)
	require.NoError(t, err)
	defer p.Close()

	got := make(chan Event, 1)
	sub, err := p.Subscribe(func(e Event) { got <- e })
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, p.Flush())

	require.NoError(t, p.Publish(context.Background(), Event{Type: PostUpdated, PostID: 7, AuthorID: 1}))
	select {
	case e := <-got:
		assert.Equal(t, PostUpdated, e.Type)
		assert.Equal(t, int64(7), e.PostID)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}
