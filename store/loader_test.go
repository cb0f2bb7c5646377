package store

import (
	"context"
	"testing"
)

func TestLoadPopulatesTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var nullableCalls, matchesCalls int
	nullable := func(v int64) (bool, error) {
		nullableCalls++
		return v == 1, nil
	}
	matches := func(v, i int64) (bool, error) {
		matchesCalls++
		return v == 2 && i == 9, nil
	}

	edges := []Edge{{Src: 1, Dst: 2}}
	if err := s.Load(ctx, []int64{9}, []int64{1, 2}, edges, nullable, matches); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if nullableCalls != 2 {
		t.Errorf("nullable called %d times, want 2 (once per vertex)", nullableCalls)
	}
	if matchesCalls != 2 {
		t.Errorf("matches called %d times, want 2 (2 vertices x 1 symbol)", matchesCalls)
	}

	var matchCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM match`).Scan(&matchCount); err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if matchCount != 1 {
		t.Errorf("match table has %d rows, want 1 (only (2,9) matches)", matchCount)
	}
}

func TestLoadIdempotentOnDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var nullableCalls int
	nullable := func(v int64) (bool, error) {
		nullableCalls++
		return false, nil
	}
	matches := func(v, i int64) (bool, error) { return false, nil }

	edges := []Edge{{Src: 1, Dst: 2}}
	if err := s.Load(ctx, []int64{9}, []int64{1, 2}, edges, nullable, matches); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	firstCalls := nullableCalls

	// Loading the same vertices/edges again must not re-invoke the oracle.
	if err := s.Load(ctx, []int64{9}, []int64{1, 2}, edges, nullable, matches); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if nullableCalls != firstCalls {
		t.Errorf("nullable invoked again on reload: %d calls, want %d", nullableCalls, firstCalls)
	}
}

func TestLoadRollsBackOnOracleError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	boom := errFixture{"boom"}
	nullable := func(v int64) (bool, error) { return false, nil }
	matches := func(v, i int64) (bool, error) { return false, boom }

	err := s.Load(ctx, []int64{9}, []int64{1}, nil, nullable, matches)
	if err == nil {
		t.Fatal("expected Load to fail when matches oracle errors")
	}

	var count int
	if scanErr := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vertex`).Scan(&count); scanErr != nil {
		t.Fatalf("count vertices: %v", scanErr)
	}
	if count != 0 {
		t.Errorf("vertex table has %d rows after rolled-back Load, want 0", count)
	}
}

type errFixture struct{ msg string }

func (e errFixture) Error() string { return e.msg }
