package checkout

import (
	"sync"

	"github.com/go-faster/errors"
)

// ErrNoCheckout is returned when a session has no checkout in progress.
var ErrNoCheckout = errors.New("no checkout in progress")

// Manager holds the in-flight checkouts, one per session. Drafts are
// session-scoped and in-memory only: a full reload starts a fresh
// checkout.
type Manager struct {
	deps Deps

	mu     sync.Mutex
	active map[string]*Orchestrator
}

// NewManager creates a Manager.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, active: make(map[string]*Orchestrator)}
}

// Begin starts (or returns the existing) checkout for the session. A
// completed checkout is replaced with a fresh draft; until then it
// stays retrievable so a duplicate completion returns the same order.
func (m *Manager) Begin(sessionID string) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.active[sessionID]; ok && !o.Completed() {
		return o
	}
	o := New(sessionID, m.deps)
	m.active[sessionID] = o
	return o
}

// Get returns the session's in-flight checkout.
func (m *Manager) Get(sessionID string) (*Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.active[sessionID]
	if !ok {
		return nil, ErrNoCheckout
	}
	return o, nil
}

// Cancel discards the session's draft. Cancelling with nothing in
// flight is a no-op.
func (m *Manager) Cancel(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, sessionID)
}
