package chat

import "strings"

// Selector tracks which session is active and remembers per-session view
// offsets. It is presentation-side state: the offsets are advisory and are
// never persisted, and a deleted session's offset is discarded with it.
// Selector is owned by the single UI actor and is not safe for concurrent
// use.
type Selector struct {
	store    *Store
	activeID string
	offsets  map[string]int
}

// NewSelector constructs selection state over one store.
func NewSelector(store *Store) *Selector {
	return &Selector{
		store:   store,
		offsets: make(map[string]int),
	}
}

// Active returns the active session id, or "" when no session is active.
func (s *Selector) Active() string {
	return s.activeID
}

// Select activates a session when it exists and reports whether the
// selection changed state. An unknown id leaves the selection unchanged.
func (s *Selector) Select(id string) bool {
	if _, err := s.store.GetSession(id); err != nil {
		return false
	}
	s.activeID = id
	return true
}

// OnDelete reconciles the selection after a session deletion: when the
// deleted session was active, the first remaining session by display order
// becomes active, or none when the store is empty.
func (s *Selector) OnDelete(deletedID string) {
	delete(s.offsets, deletedID)
	if s.activeID != deletedID {
		return
	}

	s.activeID = ""
	if summaries := s.store.ListSessions(); len(summaries) > 0 {
		s.activeID = summaries[0].ID
	}
}

// Restore applies a persisted active id, falling back to the first session
// by display order when the id no longer matches a loaded session.
func (s *Selector) Restore(activeID string) {
	if s.Select(strings.TrimSpace(activeID)) {
		return
	}
	s.activeID = ""
	if summaries := s.store.ListSessions(); len(summaries) > 0 {
		s.activeID = summaries[0].ID
	}
}

// SetViewOffset remembers a scroll position for one session.
func (s *Selector) SetViewOffset(id string, offset int) {
	if offset < 0 {
		offset = 0
	}
	s.offsets[id] = offset
}

// ViewOffset returns the remembered scroll position for one session.
func (s *Selector) ViewOffset(id string) int {
	return s.offsets[id]
}
