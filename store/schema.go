package store

import "context"

// schema is the DDL applied by ensureSchema. Every statement is idempotent
// (IF NOT EXISTS) so Open can be called against an existing file.
const schema = `
CREATE TABLE IF NOT EXISTS alphabet (
    symbol INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS vertex (
    id       INTEGER PRIMARY KEY,
    nullable INTEGER NOT NULL CHECK (nullable IN (0, 1))
);

CREATE TABLE IF NOT EXISTS edge (
    src INTEGER NOT NULL REFERENCES vertex(id),
    dst INTEGER NOT NULL REFERENCES vertex(id),
    PRIMARY KEY (src, dst)
);
CREATE INDEX IF NOT EXISTS idx_edge_src ON edge(src);
CREATE INDEX IF NOT EXISTS idx_edge_dst ON edge(dst);

CREATE TABLE IF NOT EXISTS match (
    vertex INTEGER NOT NULL REFERENCES vertex(id),
    input  INTEGER NOT NULL REFERENCES alphabet(symbol),
    PRIMARY KEY (vertex, input)
);

CREATE TABLE IF NOT EXISTS closure (
    root      INTEGER NOT NULL REFERENCES vertex(id),
    reachable INTEGER NOT NULL REFERENCES vertex(id),
    PRIMARY KEY (root, reachable)
);
CREATE INDEX IF NOT EXISTS idx_closure_reachable ON closure(reachable);

CREATE TABLE IF NOT EXISTS state (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    vertex_str TEXT NOT NULL UNIQUE,
    distance   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_state_distance ON state(distance);

CREATE TABLE IF NOT EXISTS state_member (
    state_id  INTEGER NOT NULL REFERENCES state(id),
    vertex_id INTEGER NOT NULL REFERENCES vertex(id),
    PRIMARY KEY (state_id, vertex_id)
);
CREATE INDEX IF NOT EXISTS idx_state_member_vertex ON state_member(vertex_id);

CREATE TABLE IF NOT EXISTS transition (
    src_state INTEGER NOT NULL REFERENCES state(id),
    input     INTEGER NOT NULL REFERENCES alphabet(symbol),
    dst_state INTEGER REFERENCES state(id),
    PRIMARY KEY (src_state, input)
);
CREATE INDEX IF NOT EXISTS idx_transition_unresolved
    ON transition(src_state) WHERE dst_state IS NULL;
`

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return wrapStoreErr("create schema", err)
	}
	return nil
}

// ensureDeadState interns the empty vertex set as a state if it is not
// already present. spec.md §4.4: "This state is allocated at construction
// so it has a stable ID before any transition computation runs."
func (s *Store) ensureDeadState(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("begin dead-state tx", err)
	}
	defer tx.Rollback()

	if _, err := s.internState(ctx, tx, "[]", 0); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapStoreErr("commit dead-state tx", err)
	}
	return nil
}
