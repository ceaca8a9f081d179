// Package session keeps per-user state (conversation, response mode and
// report wizard) isolated between concurrent users.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/workflow"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Session is one user's state. Access it through Do so operations on the
// same session run one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	conversation domain.ConversationState
	mode         domain.ResponseMode
	engine       *workflow.Engine
	inWorkflow   bool
}

// State is the mutable view handed to Do callbacks.
type State struct {
	Conversation domain.ConversationState
	Mode         domain.ResponseMode
	Engine       *workflow.Engine
	InWorkflow   bool
}

// Do runs fn with the session locked. Changes fn makes to the State are
// kept when it returns.
func (s *Session) Do(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Conversation: s.conversation,
		Mode:         s.mode,
		Engine:       s.engine,
		InWorkflow:   s.inWorkflow,
	}
	err := fn(&st)
	s.conversation = st.Conversation
	s.mode = st.Mode
	s.inWorkflow = st.InWorkflow
	return err
}

// StartFresh clears the conversation and discards wizard progress.
func (s *Session) StartFresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversation = domain.ConversationState{}
	s.inWorkflow = false
	s.engine.Reset()
}

// EngineFactory builds the wizard engine for a new session.
type EngineFactory func() *workflow.Engine

// Manager stores sessions in an expiring in-memory cache. Each access
// extends the session's lifetime.
type Manager struct {
	cache     *cache.Cache
	ttl       time.Duration
	newEngine EngineFactory
	mode      domain.ResponseMode
	now       func() time.Time
}

// NewManager creates a Manager whose sessions expire after ttl of
// inactivity. A cleanup of zero disables the background purge.
func NewManager(ttl, cleanup time.Duration, newEngine EngineFactory) *Manager {
	return &Manager{
		cache:     cache.New(ttl, cleanup),
		ttl:       ttl,
		newEngine: newEngine,
		mode:      domain.ModeSimple,
		now:       time.Now,
	}
}

// SetDefaultMode sets the response mode later sessions start in.
func (m *Manager) SetDefaultMode(mode domain.ResponseMode) { m.mode = mode }

// Create starts a session in the default response mode.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: m.now().UTC(),
		mode:      m.mode,
		engine:    m.newEngine(),
	}
	m.cache.Set(s.ID, s, cache.DefaultExpiration)
	return s
}

// Get returns the session and refreshes its expiry. The cache is re-keyed
// with the session's own id, never with the caller's string, which may be
// backed by a reused request buffer.
func (m *Manager) Get(id string) (*Session, error) {
	x, found := m.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	s := x.(*Session)
	m.cache.Set(s.ID, s, cache.DefaultExpiration)
	return s, nil
}

// Delete drops a session. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	m.cache.Delete(id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.cache.ItemCount()
}

// TTL returns the idle lifetime of a session.
func (m *Manager) TTL() time.Duration { return m.ttl }
