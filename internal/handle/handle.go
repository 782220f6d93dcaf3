// Package handle is the practical, in-process substitute for the C ABI's
// opaque Handle described in spec.md §6: a uuid-keyed, reader-writer-locked
// wrapper around one loadorder.LoadOrder, used by cmd/loadorder-server to
// give HTTP clients exclusive-write/shared-read access to a session.
package handle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/loadorder"
)

// Handle wraps one LoadOrder with the reader-writer discipline spec.md §5
// requires: many concurrent reads, one exclusive writer, total ordering of
// operations within the handle.
type Handle struct {
	mu sync.RWMutex
	lo *loadorder.LoadOrder
}

// Manager owns the set of live handles, keyed by the uuid returned to the
// caller when the handle was created.
type Manager struct {
	mu      sync.Mutex
	handles map[uuid.UUID]*Handle
}

func NewManager() *Manager {
	return &Manager{handles: make(map[uuid.UUID]*Handle)}
}

// Create registers a new handle wrapping lo and returns its id.
func (m *Manager) Create(lo *loadorder.LoadOrder) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.handles[id] = &Handle{lo: lo}
	return id
}

// Destroy removes a handle. It is a no-op if id is unknown.
func (m *Manager) Destroy(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handles, id)
}

func (m *Manager) get(id uuid.UUID) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[id]
	if !ok {
		return nil, loadordererr.UnknownHandle()
	}
	return h, nil
}

// WithRead runs fn with a shared read lock held on the handle identified by
// id, allowing concurrent readers but excluding any writer.
func (m *Manager) WithRead(id uuid.UUID, fn func(*loadorder.LoadOrder) error) error {
	h, err := m.get(id)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.lo)
}

// WithWrite runs fn with an exclusive write lock held on the handle
// identified by id.
func (m *Manager) WithWrite(id uuid.UUID, fn func(*loadorder.LoadOrder) error) error {
	h, err := m.get(id)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.lo)
}

// State reports the lifecycle state of the handle, per spec.md §4.10.
func (m *Manager) State(id uuid.UUID) (loadorder.State, error) {
	h, err := m.get(id)
	if err != nil {
		return 0, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lo.State(), nil
}
