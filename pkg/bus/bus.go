package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subjects for interview session lifecycle events. One subject per
// transition; consumers attach durable JetStream consumers to the ones they
// care about.
const (
	SubjectSessionInvited   = "voxhire.sessions.invited"
	SubjectSessionStarted   = "voxhire.sessions.started"
	SubjectSessionCompleted = "voxhire.sessions.completed"
	SubjectSessionExpired   = "voxhire.sessions.expired"
)

// SessionEvent is the wire shape of a session lifecycle event. Transcript and
// Metrics are only populated on completion.
type SessionEvent struct {
	SessionID   uuid.UUID      `json:"session_id"`
	TemplateID  uuid.UUID      `json:"template_id"`
	CandidateID *uuid.UUID     `json:"candidate_id,omitempty"`
	Status      string         `json:"status"`
	At          time.Time      `json:"at"`
	Metrics     map[string]any `json:"metrics,omitempty"`
	Transcript  string         `json:"transcript,omitempty"`
}

// Bus carries session lifecycle events over NATS JetStream.
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New creates a Bus connected to the provided NATS endpoint.
func New(url string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &Bus{conn: nc, js: js}, nil
}

// Close shuts down the underlying NATS connection.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// PublishSession publishes a lifecycle event to the given subject.
func (b *Bus) PublishSession(ctx context.Context, subject string, evt SessionEvent) error {
	if b == nil {
		return errors.New("nil bus")
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	_, err = b.js.Publish(subject, data, nats.Context(ctx))
	return err
}

func decodeSessionEvent(data []byte) (SessionEvent, error) {
	var evt SessionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return SessionEvent{}, fmt.Errorf("decode session event: %w", err)
	}
	return evt, nil
}

type subscription struct {
	sub    *nats.Subscription
	mu     sync.Mutex
	closed bool
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sub.Drain()
}

// ConsumeSessions attaches a durable consumer on the given lifecycle subject
// and invokes fn once per decoded event. A handler error naks the message for
// redelivery; an undecodable payload is terminated, since redelivering it can
// never succeed.
func (b *Bus) ConsumeSessions(ctx context.Context, subject, durable string, fn func(ctx context.Context, evt SessionEvent) error) (io.Closer, error) {
	if b == nil {
		return nil, errors.New("nil bus")
	}
	if fn == nil {
		return nil, errors.New("nil handler")
	}

	handler := func(msg *nats.Msg) {
		evt, err := decodeSessionEvent(msg.Data)
		if err != nil {
			_ = msg.Term()
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		if err := fn(handlerCtx, evt); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}

	sub, err := b.js.Subscribe(subject, handler, nats.Durable(durable), nats.ManualAck(), nats.AckExplicit())
	if err != nil {
		return nil, err
	}

	s := &subscription{sub: sub}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	return s, nil
}
