package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/coregx/subsetdfa/vertexset"
)

// internState finds or creates the state row keyed by the canonical vertex
// key, returning its stable ID. On creation it also allocates one
// unresolved transition row per alphabet symbol (spec.md §4.4: "On creation
// of a new state, the registry inserts one unresolved transition row per
// alphabet symbol with that state as source"), so "list outstanding work" is
// always the trivial `WHERE dst_state IS NULL` query.
func (s *Store) internState(ctx context.Context, tx *sql.Tx, key string, distance int64) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM state WHERE vertex_str = ?`, key).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case err != sql.ErrNoRows:
		return 0, wrapStoreErr("lookup state", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO state(vertex_str, distance) VALUES (?, ?)`, key, distance)
	if err != nil {
		// Lost a race with a concurrent insert of the same key within this
		// same transaction is impossible (single connection, one active
		// tx); a UNIQUE violation here means a logic bug, so surface it.
		return 0, wrapStoreErr("insert state", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, wrapStoreErr("insert state: last insert id", err)
	}

	// The canonical key IS the sorted member list rendered as JSON, so it
	// doubles as the source of truth for populating state_member (the
	// table that lets the expander join "vertices of state s" in pure
	// SQL instead of decoding vertex_str per row).
	for _, v := range vertexset.Decode(key) {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO state_member(state_id, vertex_id) VALUES (?, ?)`, id, v); err != nil {
			return 0, wrapStoreErr("insert state member", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transition (src_state, input, dst_state)
		 SELECT ?, symbol, NULL FROM alphabet`, id); err != nil {
		return 0, wrapStoreErr("allocate transition rows", err)
	}
	return id, nil
}

// DeadStateID returns the ID of the state interned from the empty vertex
// set. It is allocated at Open time, so this never fails against a store
// this package opened.
func (s *Store) DeadStateID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM state WHERE vertex_str = '[]'`).Scan(&id)
	if err != nil {
		return 0, wrapStoreErr("dead state id", err)
	}
	return id, nil
}

// FindOrCreateState closes vertices under epsilon-closure (the union of
// closure(v) for each v in vertices), canonicalizes the result, and interns
// it as a state, returning its stable ID.
//
// Vertex IDs not already registered are treated as freshly-inserted,
// non-nullable, isolated vertices (SPEC_FULL.md §9, Open Question 3) before
// the closure lookup runs, so this call never rejects an unknown ID.
func (s *Store) FindOrCreateState(ctx context.Context, vertices []int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapStoreErr("begin find-or-create", err)
	}
	defer tx.Rollback()

	if err := s.registerUnknownVertices(ctx, tx, vertices); err != nil {
		return 0, err
	}

	closed, err := s.closureOf(ctx, tx, vertices)
	if err != nil {
		return 0, err
	}
	key := vertexset.Encode(closed)

	id, err := s.internState(ctx, tx, key, 0)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, wrapStoreErr("commit find-or-create", err)
	}
	return id, nil
}

// registerUnknownVertices inserts, as non-nullable isolated vertices, any
// entries of ids not already present in the vertex table.
func (s *Store) registerUnknownVertices(ctx context.Context, tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM vertex WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return wrapStoreErr("lookup known vertices", err)
	}
	known := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return wrapStoreErr("scan known vertex", err)
		}
		known[id] = true
	}
	if err := rows.Err(); err != nil {
		return wrapStoreErr("iterate known vertices", err)
	}
	rows.Close()

	for _, id := range ids {
		if known[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO vertex(id, nullable) VALUES (?, 0)`, id); err != nil {
			return wrapStoreErr("register unknown vertex", err)
		}
		// Isolated, non-nullable vertices are their own (empty beyond
		// themselves) closure; seed it so closureOf's lookup succeeds
		// without requiring a full BuildClosure pass.
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO closure(root, reachable) VALUES (?, ?)`, id, id); err != nil {
			return wrapStoreErr("seed closure for unknown vertex", err)
		}
		known[id] = true
	}
	return nil
}

// closureOf returns the sorted, deduplicated union of closure(v) for each v
// in vertices.
func (s *Store) closureOf(ctx context.Context, tx *sql.Tx, vertices []int64) ([]int64, error) {
	if len(vertices) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(vertices))
	args := make([]any, len(vertices))
	for i, v := range vertices {
		placeholders[i] = "?"
		args[i] = v
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT reachable FROM closure WHERE root IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, wrapStoreErr("query closure", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, wrapStoreErr("scan closure row", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("iterate closure rows", err)
	}
	return vertexset.Canonicalize(out), nil
}

// VerticesInState decodes the canonical key of stateID back into its sorted
// vertex ID list.
func (s *Store) VerticesInState(ctx context.Context, stateID int64) ([]int64, error) {
	var key string
	err := s.db.QueryRowContext(ctx, `SELECT vertex_str FROM state WHERE id = ?`, stateID).Scan(&key)
	if err != nil {
		return nil, wrapStoreErr("lookup state vertices", err)
	}
	return vertexset.Decode(key), nil
}

// StateVertexPair is one row yielded by StateVerticesIterator.
type StateVertexPair struct {
	StateID  int64
	Vertices []int64
}

// StateVerticesIterator returns every (state_id, vertex_list) pair present
// at the moment of the call, ascending by state_id, per spec.md §6. The
// snapshot is taken by executing the query against the current connection;
// subsequent inserts are not required to be observed (and are not, since
// the slice is materialized up front).
func (s *Store) StateVerticesIterator(ctx context.Context) ([]StateVertexPair, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vertex_str FROM state ORDER BY id ASC`)
	if err != nil {
		return nil, wrapStoreErr("query state vertices", err)
	}
	defer rows.Close()

	var out []StateVertexPair
	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, wrapStoreErr("scan state vertices row", err)
		}
		out = append(out, StateVertexPair{StateID: id, Vertices: vertexset.Decode(key)})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("iterate state vertices", err)
	}
	return out, nil
}
