package reconcile

import (
	"testing"

	"github.com/insightdelivered/statement-import/internal/models"
)

func pairOf(incoming, existing int64) models.PossibleDuplicate {
	return models.PossibleDuplicate{
		Incoming: models.TransactionRef{ID: incoming},
		Existing: models.TransactionRef{ID: existing},
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	st := NewSessionStore()

	s := st.Create(1, []models.PossibleDuplicate{pairOf(10, 20)})
	if s.ID == "" {
		t.Fatal("session has no ID")
	}

	got, ok := st.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("Get(%q) did not return the created session", s.ID)
	}
	if _, ok := st.Get("no-such-session"); ok {
		t.Error("Get of unknown ID reported a session")
	}

	st.Drop(s.ID)
	if _, ok := st.Get(s.ID); ok {
		t.Error("dropped session still retrievable")
	}
}

func TestSessionDismiss(t *testing.T) {
	st := NewSessionStore()
	p1 := pairOf(10, 20)
	p2 := pairOf(11, 21)
	s := st.Create(1, []models.PossibleDuplicate{p1, p2})

	if got := s.Outstanding(); len(got) != 2 {
		t.Fatalf("Outstanding = %d, want 2", len(got))
	}

	s.Dismiss(p1, ActionKeepBoth)
	got := s.Outstanding()
	if len(got) != 1 || got[0].Incoming.ID != 11 {
		t.Errorf("after dismiss, Outstanding = %+v", got)
	}
	if s.Contains(p1) {
		t.Error("dismissed pair still reported as outstanding")
	}
	if !s.Contains(p2) {
		t.Error("untouched pair no longer outstanding")
	}
}

func TestSessionDismissCascadesOnDeletedSide(t *testing.T) {
	// One existing row paired against two incoming rows. Removing the
	// existing row resolves both pairs at once.
	p1 := pairOf(10, 20)
	p2 := pairOf(11, 20)
	p3 := pairOf(12, 21)
	s := NewSessionStore().Create(1, []models.PossibleDuplicate{p1, p2, p3})

	s.Dismiss(p1, ActionRemoveExisting)
	got := s.Outstanding()
	if len(got) != 1 || got[0].Incoming.ID != 12 {
		t.Errorf("expected only the unrelated pair to survive, got %+v", got)
	}
}

func TestSessionDismissUndoCascades(t *testing.T) {
	// One incoming row paired against two existing rows. Undoing the
	// import of that row resolves both pairs.
	p1 := pairOf(10, 20)
	p2 := pairOf(10, 21)
	p3 := pairOf(11, 22)
	s := NewSessionStore().Create(1, []models.PossibleDuplicate{p1, p2, p3})

	s.Dismiss(p2, ActionUndo)
	got := s.Outstanding()
	if len(got) != 1 || got[0].Incoming.ID != 11 {
		t.Errorf("expected only the unrelated pair to survive, got %+v", got)
	}
}

func TestSessionContainsUnknownPair(t *testing.T) {
	s := NewSessionStore().Create(1, []models.PossibleDuplicate{pairOf(10, 20)})
	if s.Contains(pairOf(99, 98)) {
		t.Error("Contains reported a pair the session never held")
	}
}
