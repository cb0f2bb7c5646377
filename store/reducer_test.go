package store

import (
	"context"
	"testing"

	"github.com/coregx/subsetdfa/vertexset"
)

func TestCleanupDeadStatesCollapsesNonLiveStates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	nullable := func(int64) (bool, error) { return false, nil }
	matches := func(v, i int64) (bool, error) { return v == 10 && (i == 1 || i == 2), nil }
	edges := []Edge{{Src: 10, Dst: 11}, {Src: 10, Dst: 12}}
	if err := s.Load(ctx, []int64{1, 2}, []int64{10, 11, 12}, edges, nullable, matches); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.BuildClosure(ctx); err != nil {
		t.Fatalf("BuildClosure: %v", err)
	}
	start, err := s.FindOrCreateState(ctx, []int64{10})
	if err != nil {
		t.Fatalf("FindOrCreateState: %v", err)
	}
	for {
		n, err := s.ComputeSomeTransitions(ctx, 1000)
		if err != nil {
			t.Fatalf("ComputeSomeTransitions: %v", err)
		}
		if n == 0 {
			break
		}
	}

	accepts := func(vertices []int64) (bool, error) {
		return vertexset.Encode(vertices) == "[10]", nil
	}
	accepting, err := s.CleanupDeadStates(ctx, accepts)
	if err != nil {
		t.Fatalf("CleanupDeadStates: %v", err)
	}
	if len(accepting) != 1 || accepting[0] != start {
		t.Errorf("accepting = %v, want [%d]", accepting, start)
	}

	dead, err := s.DeadStateID(ctx)
	if err != nil {
		t.Fatalf("DeadStateID: %v", err)
	}
	var dstOne, dstTwo int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT dst_state FROM transition WHERE src_state = ? AND input = 1`, start).Scan(&dstOne); err != nil {
		t.Fatalf("query transition 1: %v", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT dst_state FROM transition WHERE src_state = ? AND input = 2`, start).Scan(&dstTwo); err != nil {
		t.Fatalf("query transition 2: %v", err)
	}
	if dstOne != dead || dstTwo != dead {
		t.Errorf("start's transitions = (%d, %d), want both to point at dead state %d", dstOne, dstTwo, dead)
	}

	var stateCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM state`).Scan(&stateCount); err != nil {
		t.Fatalf("count states: %v", err)
	}
	if stateCount != 2 {
		t.Errorf("states remaining after cleanup = %d, want 2 (start, dead)", stateCount)
	}
}

func TestCleanupDeadStatesIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	nullable := func(int64) (bool, error) { return false, nil }
	matches := func(v, i int64) (bool, error) { return v == 1 && i == 9, nil }
	if err := s.Load(ctx, []int64{9}, []int64{1, 2}, []Edge{{Src: 1, Dst: 2}}, nullable, matches); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.BuildClosure(ctx); err != nil {
		t.Fatalf("BuildClosure: %v", err)
	}
	if _, err := s.FindOrCreateState(ctx, []int64{1}); err != nil {
		t.Fatalf("FindOrCreateState: %v", err)
	}
	for {
		n, err := s.ComputeSomeTransitions(ctx, 1000)
		if err != nil {
			t.Fatalf("ComputeSomeTransitions: %v", err)
		}
		if n == 0 {
			break
		}
	}

	accepts := func(vertices []int64) (bool, error) { return true, nil }
	if _, err := s.CleanupDeadStates(ctx, accepts); err != nil {
		t.Fatalf("first CleanupDeadStates: %v", err)
	}
	var firstCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM state`).Scan(&firstCount); err != nil {
		t.Fatalf("count states: %v", err)
	}

	if _, err := s.CleanupDeadStates(ctx, accepts); err != nil {
		t.Fatalf("second CleanupDeadStates: %v", err)
	}
	var secondCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM state`).Scan(&secondCount); err != nil {
		t.Fatalf("count states: %v", err)
	}
	if firstCount != secondCount {
		t.Errorf("state count changed on repeated cleanup: %d vs %d", firstCount, secondCount)
	}
}
