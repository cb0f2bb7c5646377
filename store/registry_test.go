package store

import (
	"context"
	"testing"

	"github.com/coregx/subsetdfa/vertexset"
)

func TestInternStateAllocatesTransitionRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	nullable := func(int64) (bool, error) { return false, nil }
	matches := func(int64, int64) (bool, error) { return false, nil }
	if err := s.Load(ctx, []int64{1, 2}, []int64{10}, nil, nullable, matches); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.BuildClosure(ctx); err != nil {
		t.Fatalf("BuildClosure: %v", err)
	}

	id, err := s.FindOrCreateState(ctx, []int64{10})
	if err != nil {
		t.Fatalf("FindOrCreateState: %v", err)
	}

	var unresolved int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transition WHERE src_state = ? AND dst_state IS NULL`, id).Scan(&unresolved)
	if err != nil {
		t.Fatalf("count unresolved transitions: %v", err)
	}
	if unresolved != 2 {
		t.Errorf("unresolved transitions for new state = %d, want 2 (one per alphabet symbol)", unresolved)
	}
}

func TestFindOrCreateStateInterns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	nullable := func(int64) (bool, error) { return false, nil }
	matches := func(int64, int64) (bool, error) { return false, nil }
	if err := s.Load(ctx, nil, []int64{10}, nil, nullable, matches); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.BuildClosure(ctx); err != nil {
		t.Fatalf("BuildClosure: %v", err)
	}

	first, err := s.FindOrCreateState(ctx, []int64{10})
	if err != nil {
		t.Fatalf("FindOrCreateState (first): %v", err)
	}
	second, err := s.FindOrCreateState(ctx, []int64{10})
	if err != nil {
		t.Fatalf("FindOrCreateState (second): %v", err)
	}
	if first != second {
		t.Errorf("FindOrCreateState returned distinct IDs for the same vertex set: %d vs %d", first, second)
	}
}

func TestFindOrCreateStateRegistersUnknownVertices(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// No Load call at all: vertex 42 is unknown.
	id, err := s.FindOrCreateState(ctx, []int64{42})
	if err != nil {
		t.Fatalf("FindOrCreateState: %v", err)
	}
	vs, err := s.VerticesInState(ctx, id)
	if err != nil {
		t.Fatalf("VerticesInState: %v", err)
	}
	if got, want := vertexset.Encode(vs), "[42]"; got != want {
		t.Errorf("state vertex set = %s, want %s", got, want)
	}
}

func TestTwoDistinctVertexSetsNeverShareAnID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.FindOrCreateState(ctx, []int64{1})
	if err != nil {
		t.Fatalf("FindOrCreateState(1): %v", err)
	}
	b, err := s.FindOrCreateState(ctx, []int64{2})
	if err != nil {
		t.Fatalf("FindOrCreateState(2): %v", err)
	}
	if a == b {
		t.Errorf("distinct vertex sets {1} and {2} interned to the same state %d", a)
	}
}
