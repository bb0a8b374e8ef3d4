// Package keylock provides mutual exclusion scoped to string keys.
//
// Entries are reference counted and dropped once no goroutine holds or waits
// for them, so the map stays proportional to the number of keys in use.
package keylock

import (
	"sort"
	"strings"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	key  string
	refs int
}

// Map hands out one mutex per key. The zero value is ready to use.
type Map struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New returns an empty Map.
func New() *Map {
	return &Map{locks: make(map[string]*entry)}
}

func (m *Map) acquire(key string) *entry {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*entry)
	}
	e, ok := m.locks[key]
	if !ok {
		// Callers may pass strings backed by reused buffers, such as request
		// parameters; the map must own its keys.
		e = &entry{key: strings.Clone(key)}
		m.locks[e.key] = e
	}
	e.refs++
	m.mu.Unlock()
	return e
}

func (m *Map) release(e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, e.key)
	}
	m.mu.Unlock()
}

// Lock blocks until key is held and returns the function that releases it.
func (m *Map) Lock(key string) (unlock func()) {
	e := m.acquire(key)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.release(e)
	}
}

// LockAll locks every distinct key in ascending order, so two callers with
// overlapping key sets can never deadlock. Locks are released in reverse order.
func (m *Map) LockAll(keys []string) (unlock func()) {
	sorted := SortedUnique(keys)
	unlocks := make([]func(), 0, len(sorted))
	for _, k := range sorted {
		unlocks = append(unlocks, m.Lock(k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// Len returns the number of keys currently held or waited on.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// SortedUnique returns the distinct keys in ascending order.
func SortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
