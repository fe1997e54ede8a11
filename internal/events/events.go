// Package events announces content changes to other services.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

type Type string

const (
	PostCreated    Type = "post.created"
	PostUpdated    Type = "post.updated"
	PostDeleted    Type = "post.deleted"
	CommentCreated Type = "comment.created"
	CommentUpdated Type = "comment.updated"
	CommentDeleted Type = "comment.deleted"
)

// SubjectPrefix is prepended to the event type to form the NATS subject.
const SubjectPrefix = "blogicum."

type Event struct {
	Type       Type      `json:"type"`
	PostID     int64     `json:"post_id"`
	CommentID  int64     `json:"comment_id,omitempty"`
	AuthorID   int64     `json:"author_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e Event) Subject() string { return SubjectPrefix + string(e.Type) }

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close()                               {}

// NATSPublisher sends events as JSON over a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

func ConnectNATS(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("blogicum"))
	if err != nil {
		return nil, err
	}
	log.Println("NATS connected successfully")
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.conn.Publish(e.Subject(), data)
}

// Subscribe delivers every blogicum event to handler.
func (p *NATSPublisher) Subscribe(handler func(Event)) (*nats.Subscription, error) {
	return p.conn.Subscribe(SubjectPrefix+">", func(msg *nats.Msg) {
		var e Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			log.Printf("events: bad payload on %s: %v", msg.Subject, err)
			return
		}
		handler(e)
	})
}

func (p *NATSPublisher) Flush() error { return p.conn.Flush() }

func (p *NATSPublisher) Close() { p.conn.Drain() }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() {}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Emit publishes e and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Printf("events: publish %s: %v", e.Type, err)
	}
}
