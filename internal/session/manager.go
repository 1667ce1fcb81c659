package session

import (
	"fmt"
	"sync"

	"github.com/cohortcli/cohort/internal/config"
)

// Manager owns the set of live sessions for one workspace, enforcing
// the configured maximum and routing every session's updates through a
// single callback.
type Manager struct {
	root     string
	cfg      config.Config
	onUpdate UpdateFunc

	mu       sync.Mutex
	sessions map[ID]*Session
	order    []ID
}

// NewManager returns an empty Manager rooted at root.
func NewManager(root string, cfg config.Config, onUpdate UpdateFunc) *Manager {
	return &Manager{
		root:     root,
		cfg:      cfg,
		onUpdate: onUpdate,
		sessions: make(map[ID]*Session),
	}
}

// ErrSessionLimit is returned by Create when MaxSessionsPerWorkspace
// would be exceeded.
var ErrSessionLimit = fmt.Errorf("session limit reached")

// Create starts a new session named name and returns it.
func (m *Manager) Create(name string, rows, cols uint16) (*Session, error) {
	m.mu.Lock()
	if len(m.sessions) >= m.cfg.MaxSessionsPerWorkspace {
		m.mu.Unlock()
		return nil, ErrSessionLimit
	}
	m.mu.Unlock()

	id := NewID()
	s, err := New(id, name, m.root, m.cfg, m.onUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.Start(rows, cols); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.order = append(m.order, id)
	m.mu.Unlock()
	return s, nil
}

// Get returns the session with the given id, if any.
func (m *Manager) Get(id ID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns sessions in creation order.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// CloseSession terminates and forgets the given session.
func (m *Manager) CloseSession(id ID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		for i, oid := range m.order {
			if oid == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// CloseAll terminates every session the manager owns.
func (m *Manager) CloseAll() {
	for _, s := range m.List() {
		m.CloseSession(s.ID)
	}
}
