package store

import "context"

// closureRecursiveCTE computes C = {(v,v) : v} ∪ {(r,d) : (r,s) ∈ C,
// nullable(s), (s,d) ∈ E} as a single recursive query (spec.md §4.3).
const closureRecursiveCTE = `
WITH RECURSIVE c(root, reachable) AS (
    SELECT id, id FROM vertex
    UNION
    SELECT c.root, e.dst
    FROM c
    JOIN vertex v ON v.id = c.reachable AND v.nullable = 1
    JOIN edge e ON e.src = c.reachable
)
SELECT DISTINCT root, reachable FROM c
`

// BuildClosure (re)computes the transitive, reflexively-extended closure of
// "edges whose source is nullable" for every registered vertex. It is run
// once after Load; calling it again recomputes the same result from the
// current vertex/edge tables, so it is safe to call after later Load calls
// too (though the core's usage pattern only calls it once, per spec.md §2's
// data-flow description).
func (s *Store) BuildClosure(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("begin build closure", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM closure`); err != nil {
		return wrapStoreErr("clear closure", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO closure(root, reachable) `+closureRecursiveCTE); err != nil {
		return wrapStoreErr("build closure", err)
	}
	if err := tx.Commit(); err != nil {
		return wrapStoreErr("commit build closure", err)
	}
	return nil
}
