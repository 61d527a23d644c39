// Package mutex provides a per-key exclusive lock used to serialize
// access-ticket renewals per service name.
package mutex

import "sync"

// Keyed is a set of mutexes addressed by key. Entries are created on demand
// and kept for the lifetime of the Keyed; the intended key space (service
// names) is small and bounded.
type Keyed[K comparable] struct {
	table sync.Map // map[K]*sync.Mutex
}

func (m *Keyed[K]) Lock(key K) {
	v, _ := m.table.LoadOrStore(key, &sync.Mutex{})
	v.(*sync.Mutex).Lock()
}

func (m *Keyed[K]) Unlock(key K) {
	v, ok := m.table.Load(key)
	if !ok {
		panic("mutex: unlock of unknown key")
	}
	v.(*sync.Mutex).Unlock()
}
