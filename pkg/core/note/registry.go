package note

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry is the ordered collection of sessions, newest-first, plus a single
// optional active reference tracked by id so it survives reordering and
// removal. All mutations go through the registry; concurrent pipelines see
// each mutation atomically with respect to the read that preceded it.
type Registry struct {
	mu       sync.Mutex
	sessions []*Session
	activeID string
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{now: time.Now}
}

// NewRegistryWithClock creates a registry with an injected clock for tests.
func NewRegistryWithClock(now func() time.Time) *Registry {
	return &Registry{now: now}
}

// Add prepends the session and makes it active.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append([]*Session{s}, r.sessions...)
	r.activeID = s.ID
}

// Remove deletes the session with the given id. If it was active, the active
// reference moves to the new first entry, or clears when the registry is
// empty. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, s := range r.sessions {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	r.sessions = append(r.sessions[:idx], r.sessions[idx+1:]...)

	if r.activeID == id {
		if len(r.sessions) > 0 {
			r.activeID = r.sessions[0].ID
		} else {
			r.activeID = ""
		}
	}
}

// SetActive points the active reference at id. No-op if the id is absent.
func (r *Registry) SetActive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			r.activeID = id
			return
		}
	}
}

// ActiveID returns the current active session id, or "" when none.
func (r *Registry) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// Find returns a copy of the session with the given id, or nil.
func (r *Registry) Find(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			return s.clone()
		}
	}
	return nil
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List returns copies of all sessions in registry order.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = s.clone()
	}
	return out
}

// Filter returns copies of the sessions matching pred, preserving registry
// order. The underlying order is not touched.
func (r *Registry) Filter(pred func(*Session) bool) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session
	for _, s := range r.sessions {
		if pred(s) {
			out = append(out, s.clone())
		}
	}
	return out
}

// Update applies patch to the session with the given id under the registry
// lock and unconditionally refreshes LastModifiedAt. A missing id is a no-op,
// never an error: callers treat absence as already-removed, which is the
// normal race when a user deletes a session while one of its async results is
// still in flight. The return value reports whether the patch was applied.
func (r *Registry) Update(id string, patch func(*Session)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			patch(s)
			s.LastModifiedAt = r.now()
			return true
		}
	}
	return false
}

// Search returns sessions whose display name, any snippet text, or formatted
// text contains the query case-insensitively. An empty query matches all.
// Results are ordered by LastModifiedAt descending, a recency sort distinct
// from the registry's own insertion order.
func (r *Registry) Search(query string) []*Session {
	q := strings.ToLower(strings.TrimSpace(query))

	out := r.Filter(func(s *Session) bool {
		if q == "" {
			return true
		}
		if strings.Contains(strings.ToLower(s.DisplayName), q) {
			return true
		}
		for _, sn := range s.Snippets {
			if strings.Contains(strings.ToLower(sn.Text), q) {
				return true
			}
		}
		return strings.Contains(strings.ToLower(s.FormattedText), q)
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastModifiedAt.After(out[j].LastModifiedAt)
	})
	return out
}
