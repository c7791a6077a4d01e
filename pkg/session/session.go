// Package session keeps live rendering sessions for the HTTP server.
//
// A [Session] owns one [engine.Engine], so frames posted to the same
// session share a leak accumulator, and an [EventLog] that records the
// engine's lifecycle events for clients that poll for them. Sessions
// expire after a sliding TTL.
//
//	store := session.NewMemoryStore(256)
//	sess, err := session.New(engine.Options{}, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	if err := store.Set(ctx, sess); err != nil {
//	    return err // ErrFull when at capacity
//	}
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/structview/pkg/engine"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrFull is returned when the store holds its maximum number of
	// live sessions.
	ErrFull = errors.New("session limit reached")
)

// DefaultTTL is the default idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// Session is one client's engine plus its event history.
type Session struct {
	ID        string         `json:"id"`
	Engine    *engine.Engine `json:"-"`
	Events    *EventLog      `json:"-"`
	CreatedAt time.Time      `json:"created_at"`

	mu        sync.Mutex
	ttl       time.Duration
	expiresAt time.Time
	frames    int
}

// New creates a session with a fresh engine. The session's event log is
// registered as an engine observer in addition to opts.Observers.
func New(opts engine.Options, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	events := NewEventLog(DefaultEventLogSize)
	opts.Observers = append(append([]engine.Observer(nil), opts.Observers...), events)

	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Engine:    eng,
		Events:    events,
		CreatedAt: now,
		ttl:       ttl,
		expiresAt: now.Add(ttl),
	}, nil
}

// IsExpired returns true if the session has been idle past its TTL.
func (s *Session) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().After(s.expiresAt)
}

// ExpiresAt returns the current expiry time.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Touch extends the session's lifetime by its TTL from now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.expiresAt = time.Now().Add(s.ttl)
	s.mu.Unlock()
}

// CountFrame records one successfully rendered frame.
func (s *Session) CountFrame() {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
}

// Frames returns the number of frames rendered in this session.
func (s *Session) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Store is the interface for session storage backends.
type Store interface {
	// Get returns a live session. Expired sessions report ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)

	// Len returns the number of stored sessions.
	Len() int
}
