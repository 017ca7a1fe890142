package reconcile

import (
	"sync"

	"github.com/google/uuid"

	"github.com/insightdelivered/statement-import/internal/models"
)

// Session holds the outstanding possible-duplicate pairs of one import.
// Pairs live only as long as the UI session that triggered the import;
// nothing here is persisted. A pair dismissed by any action — including
// being one side of a different pair resolved first — leaves the session
// and is skipped by subsequent bulk operations.
type Session struct {
	ID        string
	AccountID int64

	mu    sync.Mutex
	pairs []models.PossibleDuplicate
	gone  map[pairKey]bool
}

type pairKey struct {
	incoming int64
	existing int64
}

// Outstanding returns the pairs not yet resolved or dismissed, in their
// original order.
func (s *Session) Outstanding() []models.PossibleDuplicate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PossibleDuplicate
	for _, p := range s.pairs {
		if !s.dismissedLocked(p) {
			out = append(out, p)
		}
	}
	return out
}

// Dismiss removes a pair from the session after it has been resolved. When
// the action deleted a transaction, every other pair touching that row is
// dismissed too, so bulk operations never double-process a side.
func (s *Session) Dismiss(pair models.PossibleDuplicate, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gone[keyOf(pair)] = true

	switch action {
	case ActionUndo:
		for _, p := range s.pairs {
			if p.Incoming.ID == pair.Incoming.ID {
				s.gone[keyOf(p)] = true
			}
		}
	case ActionRemoveExisting:
		for _, p := range s.pairs {
			if p.Existing.ID == pair.Existing.ID {
				s.gone[keyOf(p)] = true
			}
		}
	}
}

// Contains reports whether the pair is still outstanding in this session.
func (s *Session) Contains(pair models.PossibleDuplicate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pairs {
		if keyOf(p) == keyOf(pair) {
			return !s.dismissedLocked(p)
		}
	}
	return false
}

func (s *Session) dismissedLocked(p models.PossibleDuplicate) bool {
	return s.gone[keyOf(p)]
}

func keyOf(p models.PossibleDuplicate) pairKey {
	return pairKey{incoming: p.Incoming.ID, existing: p.Existing.ID}
}

// SessionStore is the in-memory registry of live import sessions, keyed by
// the session code handed back to the caller of an import.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty registry.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create registers a new session over the given pairs and returns it.
func (st *SessionStore) Create(accountID int64, pairs []models.PossibleDuplicate) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		pairs:     pairs,
		gone:      make(map[pairKey]bool),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks up a live session by ID.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Drop discards a session once the caller is done with it.
func (st *SessionStore) Drop(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}
