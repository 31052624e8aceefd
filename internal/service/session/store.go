package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/z-apology/backend/internal/model/chat"
)

const (
	// MaxSessions is the number of live sessions kept before eviction kicks in.
	MaxSessions = 100
	// TTL is how long a session may sit idle before the next eviction pass drops it.
	TTL = 24 * time.Hour
)

var (
	ErrSessionIDRequired = errors.New("sessionId is required")
	ErrInvalidRole       = errors.New("invalid message role")
	ErrStoreClosed       = errors.New("session store closed")
)

// Store is a bounded in-memory map from session id to transcript.
//
// Eviction runs only on the insert path and only when an insert pushes the store over
// capacity: first every session idle for longer than the TTL is dropped, then, if still
// over, the least recently updated sessions go until the store is back at capacity.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	seq      uint64
	closed   bool

	capacity int
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// entry pairs a session with its insertion order, which breaks UpdatedAt ties during
// eviction.
type entry struct {
	session chat.Session
	seq     uint64
}

// Option customises a Store.
type Option func(*Store)

// WithCapacity overrides MaxSessions.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithTTL overrides TTL.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger for eviction events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		capacity: MaxSessions,
		ttl:      TTL,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("session")
	return s
}

// Close drops every session. Later writes fail with ErrStoreClosed and reads see an
// empty store.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = make(map[string]*entry)
}

// GetOrCreate returns the session for id, creating an empty one when absent.
func (s *Store) GetOrCreate(id string) (chat.Session, error) {
	if id == "" {
		return chat.Session{}, ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.getOrCreateLocked(id)
	if err != nil {
		return chat.Session{}, err
	}
	return e.session.Clone(), nil
}

// AddMessage appends msg to the session, creating it if needed, and bumps UpdatedAt.
func (s *Store) AddMessage(id string, msg chat.Message) (chat.Session, error) {
	return s.AddMessages(id, msg)
}

// AddMessages appends msgs in order under a single lock, so no other writer can
// interleave between them.
func (s *Store) AddMessages(id string, msgs ...chat.Message) (chat.Session, error) {
	if id == "" {
		return chat.Session{}, ErrSessionIDRequired
	}
	for _, msg := range msgs {
		if !msg.Role.Valid() {
			return chat.Session{}, ErrInvalidRole
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.getOrCreateLocked(id)
	if err != nil {
		return chat.Session{}, err
	}
	e.session.Messages = append(e.session.Messages, msgs...)
	s.touchLocked(e)
	return e.session.Clone(), nil
}

// GetMessages returns a copy of the transcript. Unknown ids yield an empty slice.
func (s *Store) GetMessages(id string) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return []chat.Message{}
	}
	out := make([]chat.Message, len(e.session.Messages))
	copy(out, e.session.Messages)
	return out
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, false
	}
	return e.session.Clone(), true
}

// Clear empties the transcript but keeps the session. Unknown ids are ignored.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		e.session.Messages = []chat.Message{}
		s.touchLocked(e)
	}
}

// Delete removes the session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// ListIDs returns the ids of all live sessions in no particular order.
func (s *Store) ListIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) getOrCreateLocked(id string) (*entry, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	if e, ok := s.sessions[id]; ok {
		return e, nil
	}

	now := s.now()
	s.seq++
	e := &entry{
		session: chat.Session{
			ID:        id,
			Messages:  make([]chat.Message, 0, 16),
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: s.seq,
	}
	s.sessions[id] = e

	if len(s.sessions) > s.capacity {
		s.evictLocked(now, id)
	}
	return e, nil
}

// touchLocked bumps UpdatedAt without ever moving it backwards.
func (s *Store) touchLocked(e *entry) {
	if now := s.now(); now.After(e.session.UpdatedAt) {
		e.session.UpdatedAt = now
	}
}

// evictLocked never removes keep, the session whose insertion triggered the pass.
func (s *Store) evictLocked(now time.Time, keep string) {
	expired := 0
	for id, e := range s.sessions {
		if id != keep && now.Sub(e.session.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
			expired++
		}
	}

	evicted := 0
	if overflow := len(s.sessions) - s.capacity; overflow > 0 {
		candidates := make([]*entry, 0, len(s.sessions)-1)
		for id, e := range s.sessions {
			if id != keep {
				candidates = append(candidates, e)
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if !a.session.UpdatedAt.Equal(b.session.UpdatedAt) {
				return a.session.UpdatedAt.Before(b.session.UpdatedAt)
			}
			return a.seq < b.seq
		})
		for _, e := range candidates[:overflow] {
			delete(s.sessions, e.session.ID)
			evicted++
		}
	}

	s.logger.Info("evicted sessions",
		zap.Int("expired", expired),
		zap.Int("oldest", evicted),
		zap.Int("remaining", len(s.sessions)))
}
