package vectorindex

import "sync"

// Manager hands the currently served index snapshot to readers and lets the
// builder swap in a new one atomically. Readers always observe either the
// fully-old or fully-new index, never an intermediate state; queries keep
// the snapshot they grabbed for their whole lifetime.
type Manager struct {
	mu      sync.RWMutex
	current *Index
}

// NewManager creates a Manager serving the given initial index.
// A nil initial index is replaced with an empty one so readers never
// need to nil-check.
func NewManager(initial *Index) *Manager {
	if initial == nil {
		initial = Empty()
	}
	return &Manager{current: initial}
}

// Current returns the currently served snapshot.
func (m *Manager) Current() *Index {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Swap replaces the served snapshot. In-flight queries continue against the
// snapshot they already hold.
func (m *Manager) Swap(ix *Index) {
	if ix == nil {
		ix = Empty()
	}
	m.mu.Lock()
	m.current = ix
	m.mu.Unlock()
}
