package store

import (
	"context"
	"database/sql"

	"github.com/coregx/subsetdfa/vertexset"
	"go.uber.org/zap"
)

// AcceptsFunc mirrors the root package's oracle signature; see the note on
// NullableFunc in loader.go for why it is declared again here.
type AcceptsFunc func(vertices []int64) (bool, error)

// CleanupDeadStates computes the accepting set A (every state whose vertex
// set satisfies accepts), collapses every state that cannot reach A into
// the single dead state, and deletes the now-unreachable states. It returns
// the accepting set's state IDs.
//
// The call is idempotent (SPEC_FULL.md §9, Open Question 2): a store
// already reduced to its live states, run again, recomputes the same A and
// deletes nothing further.
func (s *Store) CleanupDeadStates(ctx context.Context, accepts AcceptsFunc) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapStoreErr("begin cleanup", err)
	}
	defer tx.Rollback()

	deadID, err := s.deadStateIDTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	accepting, err := computeAccepting(ctx, tx, accepts)
	if err != nil {
		return nil, err
	}

	live, err := computeLive(ctx, tx, accepting, deadID)
	if err != nil {
		return nil, err
	}

	if err := redirectDeadTransitions(ctx, tx, live, deadID); err != nil {
		return nil, err
	}
	if err := deleteUnreachable(ctx, tx, live, deadID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapStoreErr("commit cleanup", err)
	}
	s.logger.Debug("dead states cleaned up",
		zap.Int("accepting", len(accepting)), zap.Int("live", len(live)))
	return accepting, nil
}

func (s *Store) deadStateIDTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM state WHERE vertex_str = '[]'`).Scan(&id)
	if err != nil {
		return 0, wrapStoreErr("lookup dead state", err)
	}
	return id, nil
}

// computeAccepting evaluates accepts once per state over the state's
// current vertex membership.
func computeAccepting(ctx context.Context, tx *sql.Tx, accepts AcceptsFunc) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, vertex_str FROM state ORDER BY id`)
	if err != nil {
		return nil, wrapStoreErr("query states", err)
	}
	defer rows.Close()

	type row struct {
		id  int64
		key string
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.key); err != nil {
			return nil, wrapStoreErr("scan state", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("iterate states", err)
	}

	var out []int64
	for _, r := range all {
		ok, err := accepts(vertexset.Decode(r.key))
		if err != nil {
			return nil, &StoreError{Op: "accepts oracle", Cause: err}
		}
		if ok {
			out = append(out, r.id)
		}
	}
	return out, nil
}

// computeLive returns every state ID that can reach an accepting state by
// some path of resolved transitions, plus the dead state itself (the dead
// state is always retained as the collapse target).
func computeLive(ctx context.Context, tx *sql.Tx, accepting []int64, deadID int64) (map[int64]bool, error) {
	live := make(map[int64]bool, len(accepting)+1)
	live[deadID] = true
	for _, id := range accepting {
		live[id] = true
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT src_state, dst_state FROM transition WHERE dst_state IS NOT NULL`)
	if err != nil {
		return nil, wrapStoreErr("query transitions for liveness", err)
	}
	type edge struct{ src, dst int64 }
	var edges []edge
	for rows.Next() {
		var e edge
		if err := rows.Scan(&e.src, &e.dst); err != nil {
			rows.Close()
			return nil, wrapStoreErr("scan transition edge", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, wrapStoreErr("iterate transition edges", err)
	}
	rows.Close()

	reverse := make(map[int64][]int64, len(edges))
	for _, e := range edges {
		reverse[e.dst] = append(reverse[e.dst], e.src)
	}

	queue := append([]int64(nil), accepting...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, pred := range reverse[cur] {
			if !live[pred] {
				live[pred] = true
				queue = append(queue, pred)
			}
		}
	}
	return live, nil
}

// redirectDeadTransitions points every transition whose destination is not
// live at the dead state, collapsing the DFA's non-productive tail into one
// sink (spec.md §4.6).
func redirectDeadTransitions(ctx context.Context, tx *sql.Tx, live map[int64]bool, deadID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT src_state, input, dst_state FROM transition WHERE dst_state IS NOT NULL`)
	if err != nil {
		return wrapStoreErr("query transitions to redirect", err)
	}
	type row struct {
		src, input, dst int64
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.src, &r.input, &r.dst); err != nil {
			rows.Close()
			return wrapStoreErr("scan transition to redirect", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return wrapStoreErr("iterate transitions to redirect", err)
	}
	rows.Close()

	for _, r := range all {
		if live[r.dst] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE transition SET dst_state = ? WHERE src_state = ? AND input = ?`,
			deadID, r.src, r.input); err != nil {
			return wrapStoreErr("redirect transition to dead state", err)
		}
	}
	return nil
}

// deleteUnreachable removes every state not in live (and not the dead
// state), along with its state_member and transition rows — manually, since
// the schema does not declare ON DELETE CASCADE and foreign_keys is on.
func deleteUnreachable(ctx context.Context, tx *sql.Tx, live map[int64]bool, deadID int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM state`)
	if err != nil {
		return wrapStoreErr("query states to delete", err)
	}
	var dead []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return wrapStoreErr("scan state to delete", err)
		}
		if !live[id] {
			dead = append(dead, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return wrapStoreErr("iterate states to delete", err)
	}
	rows.Close()

	for _, id := range dead {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transition WHERE src_state = ?`, id); err != nil {
			return wrapStoreErr("delete dead state's transitions", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM state_member WHERE state_id = ?`, id); err != nil {
			return wrapStoreErr("delete dead state's members", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM state WHERE id = ?`, id); err != nil {
			return wrapStoreErr("delete unreachable state", err)
		}
	}
	return nil
}
