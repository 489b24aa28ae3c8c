package chat

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Committer receives the full store snapshot after every committed mutation.
// It is invoked while the mutation lock is held, so successive commits are
// delivered in mutation order.
type Committer interface {
	Commit(snapshot Snapshot)
}

// CommitterFunc adapts a function to the Committer interface.
type CommitterFunc func(snapshot Snapshot)

// Commit calls f.
func (f CommitterFunc) Commit(snapshot Snapshot) {
	f(snapshot)
}

// Store owns the canonical conversation state: an ordered collection of
// sessions keyed by id. Session ids are uuid-allocated and never reused;
// display order is insertion order.
type Store struct {
	mu        sync.Mutex
	order     []string
	byID      map[string]*Session
	nextChat  int
	committer Committer
}

// NewStore constructs an empty store.
func NewStore(committer Committer) *Store {
	return &Store{
		byID:      make(map[string]*Session),
		nextChat:  1,
		committer: committer,
	}
}

// Restore rebuilds a store from a persisted snapshot. Sessions with an
// empty or duplicate id are skipped rather than rejected, so a damaged
// snapshot degrades instead of failing startup.
func Restore(snapshot Snapshot, committer Committer) *Store {
	s := NewStore(committer)
	for _, session := range snapshot.Sessions {
		id := strings.TrimSpace(session.ID)
		if id == "" {
			continue
		}
		if _, exists := s.byID[id]; exists {
			continue
		}
		restored := session.Clone()
		restored.ID = id
		s.order = append(s.order, id)
		s.byID[id] = &restored
	}
	if snapshot.NextChat > 0 {
		s.nextChat = snapshot.NextChat
	}
	return s
}

// CreateSession allocates a fresh session with a generated "Chat N" name
// and returns a copy of it.
func (s *Store) CreateSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &Session{
		ID:   uuid.NewString(),
		Name: fmt.Sprintf("Chat %d", s.nextChat),
	}
	s.nextChat++
	s.order = append(s.order, session.ID)
	s.byID[session.ID] = session

	s.commitLocked()
	return session.Clone()
}

// DeleteSession removes one session. Deleting an unknown id is a no-op.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return
	}
	delete(s.byID, id)
	for index, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:index], s.order[index+1:]...)
			break
		}
	}

	s.commitLocked()
}

// RenameSession updates one session's display label. Renaming an unknown
// id or renaming to a blank label is a no-op.
func (s *Store) RenameSession(id, name string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.byID[id]
	if !exists || session.Name == trimmed {
		return
	}
	session.Name = trimmed

	s.commitLocked()
}

// AppendMessage adds one message to the end of a session log and returns
// the new message's index.
func (s *Store) AppendMessage(id string, message Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.byID[id]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	session.Messages = append(session.Messages, message)
	index := len(session.Messages) - 1

	s.commitLocked()
	return index, nil
}

// GetSession returns a copy of one session.
func (s *Store) GetSession(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.byID[id]
	if !exists {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session.Clone(), nil
}

// ListSessions returns summaries in display order.
func (s *Store) ListSessions() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		session := s.byID[id]
		summaries = append(summaries, Summary{
			ID:           session.ID,
			Name:         session.Name,
			MessageCount: len(session.Messages),
		})
	}
	return summaries
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Snapshot returns a deep copy of the whole store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	sessions := make([]Session, 0, len(s.order))
	for _, id := range s.order {
		sessions = append(sessions, s.byID[id].Clone())
	}
	return Snapshot{Sessions: sessions, NextChat: s.nextChat}
}

func (s *Store) commitLocked() {
	if s.committer == nil {
		return
	}
	s.committer.Commit(s.snapshotLocked())
}
