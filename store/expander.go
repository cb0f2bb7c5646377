package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// targetRow is one (src_state, input) work item's computed target, as
// produced by the batched join in ComputeSomeTransitions step 2.
type targetRow struct {
	srcState int64
	input    int64
	key      string // canonical vertex-set key of the target, e.g. "[]" or "[2,3]"
	distance int64  // one greater than the source state's distance hint
}

// ComputeSomeTransitions picks up to limit unresolved (src_state, input)
// transitions, preferring sources with the smallest distance hint,
// computes their target vertex sets, interns any new states the targets
// name, and resolves the original transition rows. It returns the number of
// transitions resolved, or 0 once the DFA is total (spec.md §4.5).
//
// The whole call — pick, compute, intern, resolve — runs in one
// transaction: a partial failure leaves no transitions half-resolved.
func (s *Store) ComputeSomeTransitions(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapStoreErr("begin compute transitions", err)
	}
	defer tx.Rollback()

	if err := refreshWorkTable(ctx, tx, limit); err != nil {
		return 0, err
	}

	targets, err := computeTargets(ctx, tx)
	if err != nil {
		return 0, err
	}
	if len(targets) == 0 {
		if err := tx.Commit(); err != nil {
			return 0, wrapStoreErr("commit compute transitions (no work)", err)
		}
		return 0, nil
	}

	// Intern one state per distinct target key, using the minimum
	// distance observed for that key across this batch (spec.md §4.5
	// step 3).
	minDistance := make(map[string]int64, len(targets))
	for _, t := range targets {
		if d, ok := minDistance[t.key]; !ok || t.distance < d {
			minDistance[t.key] = t.distance
		}
	}
	stateForKey := make(map[string]int64, len(minDistance))
	for key, dist := range minDistance {
		id, err := s.internState(ctx, tx, key, dist)
		if err != nil {
			return 0, err
		}
		stateForKey[key] = id
	}

	for _, t := range targets {
		dst := stateForKey[t.key]
		if _, err := tx.ExecContext(ctx,
			`UPDATE transition SET dst_state = ? WHERE src_state = ? AND input = ?`,
			dst, t.srcState, t.input); err != nil {
			return 0, wrapStoreErr("resolve transition", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapStoreErr("commit compute transitions", err)
	}
	s.logger.Debug("computed transitions", zap.Int("resolved", len(targets)))
	return len(targets), nil
}

func refreshWorkTable(ctx context.Context, tx *sql.Tx, limit int) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TEMP TABLE IF NOT EXISTS work (
			src_state INTEGER NOT NULL,
			input     INTEGER NOT NULL,
			PRIMARY KEY (src_state, input)
		)`); err != nil {
		return wrapStoreErr("create work table", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM work`); err != nil {
		return wrapStoreErr("clear work table", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO work (src_state, input)
		SELECT t.src_state, t.input
		FROM transition t
		JOIN state s ON s.id = t.src_state
		WHERE t.dst_state IS NULL
		ORDER BY s.distance ASC
		LIMIT ?`, limit); err != nil {
		return wrapStoreErr("populate work table", err)
	}
	return nil
}

// computeTargets evaluates, for every row in the work table,
//
//	target(s, i) = UNION { closure(w) : v in vertices(s), (v, w) in E, matches(v, i) }
//
// in one batched query (spec.md §4.5 step 2), canonicalizing each group via
// the vertex_set_encode SQLite function.
func computeTargets(ctx context.Context, tx *sql.Tx) ([]targetRow, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT w.src_state, w.input,
		       vertex_set_encode(GROUP_CONCAT(t.reachable, ',')) AS target_key,
		       s.distance + 1 AS target_distance
		FROM work w
		JOIN state s ON s.id = w.src_state
		LEFT JOIN (
			SELECT sm.state_id AS state_id, m.input AS input, c.reachable AS reachable
			FROM state_member sm
			JOIN match m ON m.vertex = sm.vertex_id
			JOIN edge e ON e.src = sm.vertex_id
			JOIN closure c ON c.root = e.dst
		) t ON t.state_id = w.src_state AND t.input = w.input
		GROUP BY w.src_state, w.input, s.distance`)
	if err != nil {
		return nil, wrapStoreErr("compute targets", err)
	}
	defer rows.Close()

	var out []targetRow
	for rows.Next() {
		var t targetRow
		if err := rows.Scan(&t.srcState, &t.input, &t.key, &t.distance); err != nil {
			return nil, wrapStoreErr("scan target row", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("iterate target rows", err)
	}
	return out, nil
}
