package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// Edge is an ordered (src, dst) vertex pair as accepted by Load.
type Edge struct {
	Src, Dst int64
}

// NullableFunc and MatchesFunc mirror the root package's oracle signatures;
// store does not import the root package (it would create an import
// cycle), so these are declared again here as the narrowest interface this
// package needs.
type NullableFunc func(vertex int64) (bool, error)
type MatchesFunc func(vertex, input int64) (bool, error)

// Load ingests an alphabet, an explicit vertex list, and an edge list,
// invoking nullable for every newly-seen vertex and matches for every
// (vertex, input) pair, and is idempotent on duplicates (spec.md §4.2).
//
// The whole call is one transaction: if either oracle returns an error, or
// any insert fails, the transaction is rolled back and the store is left
// exactly as it was before Load was called.
func (s *Store) Load(
	ctx context.Context,
	alphabet []int64,
	vertices []int64,
	edges []Edge,
	nullable NullableFunc,
	matches MatchesFunc,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("begin load", err)
	}
	defer tx.Rollback()

	seen := make(map[int64]bool)

	if err := insertAlphabet(ctx, tx, alphabet); err != nil {
		return err
	}
	// States interned before these symbols were known (the dead state is
	// interned at Open) get their missing unresolved transition rows here.
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO transition (src_state, input, dst_state)
		 SELECT s.id, a.symbol, NULL FROM state s CROSS JOIN alphabet a`); err != nil {
		return wrapStoreErr("allocate transition rows", err)
	}

	for _, v := range vertices {
		if err := registerVertex(ctx, tx, v, nullable, seen); err != nil {
			return err
		}
	}

	for _, e := range edges {
		if err := registerVertex(ctx, tx, e.Src, nullable, seen); err != nil {
			return err
		}
		if err := registerVertex(ctx, tx, e.Dst, nullable, seen); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO edge(src, dst) VALUES (?, ?)`, e.Src, e.Dst); err != nil {
			return wrapStoreErr("insert edge", err)
		}
	}

	if err := populateMatches(ctx, tx, matches); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapStoreErr("commit load", err)
	}
	s.logger.Debug("load committed",
		zap.Int("alphabet", len(alphabet)),
		zap.Int("vertices", len(vertices)),
		zap.Int("edges", len(edges)))
	return nil
}

func insertAlphabet(ctx context.Context, tx *sql.Tx, alphabet []int64) error {
	for _, sym := range alphabet {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO alphabet(symbol) VALUES (?)`, sym); err != nil {
			return wrapStoreErr("insert alphabet symbol", err)
		}
	}
	return nil
}

// registerVertex inserts v (if not already known in this Load call or in
// the store) and calls nullable exactly once for it.
func registerVertex(ctx context.Context, tx *sql.Tx, v int64, nullable NullableFunc, seen map[int64]bool) error {
	if seen[v] {
		return nil
	}
	seen[v] = true

	var exists int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM vertex WHERE id = ?`, v).Scan(&exists)
	switch {
	case err == nil:
		return nil // already registered by a prior Load call
	case err != sql.ErrNoRows:
		return wrapStoreErr("lookup vertex", err)
	}

	isNullable, err := nullable(v)
	if err != nil {
		return &StoreError{Op: "nullable oracle", Cause: err}
	}
	flag := 0
	if isNullable {
		flag = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vertex(id, nullable) VALUES (?, ?)`, v, flag); err != nil {
		return wrapStoreErr("insert vertex", err)
	}
	return nil
}

// populateMatches fills match as {(v, i) : matches(v, i)} over the full
// cross-product of registered vertices and the alphabet, skipping pairs
// already present (idempotence).
func populateMatches(ctx context.Context, tx *sql.Tx, matches MatchesFunc) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT v.id, a.symbol
		FROM vertex v CROSS JOIN alphabet a
		LEFT JOIN match m ON m.vertex = v.id AND m.input = a.symbol
		WHERE m.vertex IS NULL`)
	if err != nil {
		return wrapStoreErr("query match candidates", err)
	}

	type pair struct{ v, i int64 }
	var pending []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.v, &p.i); err != nil {
			rows.Close()
			return wrapStoreErr("scan match candidate", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return wrapStoreErr("iterate match candidates", err)
	}
	rows.Close()

	for _, p := range pending {
		ok, err := matches(p.v, p.i)
		if err != nil {
			return &StoreError{Op: "matches oracle", Cause: err}
		}
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO match(vertex, input) VALUES (?, ?)`, p.v, p.i); err != nil {
			return wrapStoreErr("insert match", err)
		}
	}
	return nil
}
