// Package locking provides named in-process locks so scheduled jobs
// and API-triggered runs of the same work never overlap.
package locking

import (
	"fmt"
	"sync"
)

// Manager hands out non-blocking named locks
type Manager struct {
	mu   sync.Mutex
	held map[string]bool
}

// New creates a new lock manager
func New() *Manager {
	return &Manager{held: make(map[string]bool)}
}

// Acquire takes the named lock, failing immediately if it is already
// held. Callers must Release with the same name.
func (m *Manager) Acquire(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held[name] {
		return fmt.Errorf("lock %q already held", name)
	}
	m.held[name] = true
	return nil
}

// Release frees the named lock. Releasing a lock that is not held is
// a no-op.
func (m *Manager) Release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, name)
}

// Held reports whether the named lock is currently held
func (m *Manager) Held(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[name]
}
