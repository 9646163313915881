package exam

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrExamNotFound is returned for unknown exam ids and for ids owned by another session
var ErrExamNotFound = errors.New("exam not found")

type entry struct {
	controller *Controller
	owner      string
	lastSeen   time.Time
}

// Registry holds the live exam sessions of the portal server
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Add registers c for the browser session owner and returns its exam id
func (r *Registry) Add(owner string, c *Controller) string {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{controller: c, owner: owner, lastSeen: r.now()}
	return id
}

// Get returns the exam with id if it belongs to owner, and marks it as seen
func (r *Registry) Get(id, owner string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return nil, ErrExamNotFound
	}
	e.lastSeen = r.now()
	return e.controller, nil
}

// Remove closes and forgets the exam. It reports whether the id was known.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		e.controller.Close()
	}
	return ok
}

// Idle returns the ids of exams not seen for longer than maxIdle
func (r *Registry) Idle(maxIdle time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-maxIdle)
	var ids []string
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of live exams
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops every exam and empties the registry
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.controller.Close()
	}
}
