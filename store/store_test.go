package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDeadState(t *testing.T) {
	s := openTestStore(t)
	id, err := s.DeadStateID(context.Background())
	if err != nil {
		t.Fatalf("DeadStateID: %v", err)
	}
	vs, err := s.VerticesInState(context.Background(), id)
	if err != nil {
		t.Fatalf("VerticesInState: %v", err)
	}
	if len(vs) != 0 {
		t.Errorf("dead state vertex set = %v, want empty", vs)
	}
}

func TestDSN(t *testing.T) {
	s := openTestStore(t)
	if got := s.DSN(); got != ":memory:" {
		t.Errorf("DSN() = %q, want %q", got, ":memory:")
	}
}
