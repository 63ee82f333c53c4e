package ui

import (
	"sync"
	"time"
)

// Policy bounds a Registry. Zero values disable the bound.
type Policy struct {
	TTL        time.Duration
	MaxEntries int
}

type entry[H any] struct {
	handler H
	created time.Time
}

// Registry maps custom IDs to handlers. Entries expire after Policy.TTL and
// the oldest entry is evicted once Policy.MaxEntries is reached.
// Safe for concurrent use.
type Registry[H any] struct {
	mu      sync.Mutex
	entries map[string]entry[H]
	policy  Policy
	now     func() time.Time
}

func NewRegistry[H any](p Policy) *Registry[H] {
	return &Registry[H]{
		entries: make(map[string]entry[H]),
		policy:  p,
		now:     time.Now,
	}
}

// Add stores h under id, replacing any previous handler.
func (r *Registry[H]) Add(id string, h H) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists && r.policy.MaxEntries > 0 {
		for len(r.entries) >= r.policy.MaxEntries {
			r.evictOldest()
		}
	}
	r.entries[id] = entry[H]{handler: h, created: r.now()}
}

// Get returns the handler for id. Expired entries are removed and reported
// as missing.
func (r *Registry[H]) Get(id string) (H, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		var zero H
		return zero, false
	}
	if r.expired(e) {
		delete(r.entries, id)
		var zero H
		return zero, false
	}
	return e.handler, true
}

// Remove drops id and reports whether it was registered.
func (r *Registry[H]) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

func (r *Registry[H]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops every expired entry and returns how many were removed.
func (r *Registry[H]) Sweep() int {
	if r.policy.TTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

func (r *Registry[H]) expired(e entry[H]) bool {
	return r.policy.TTL > 0 && r.now().Sub(e.created) > r.policy.TTL
}

func (r *Registry[H]) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
		found    bool
	)
	for id, e := range r.entries {
		if !found || e.created.Before(oldest) {
			oldestID, oldest, found = id, e.created, true
		}
	}
	if found {
		delete(r.entries, oldestID)
	}
}
