package store

import "context"

// Transition3 is one resolved (src, input, dst) transition, dead-state
// destinations included.
type Transition3 struct {
	Src, Input, Dst int64
}

// TransitionsAsTriples returns every resolved transition in the store.
// Unresolved rows (dst_state IS NULL) are excluded per spec.md §6.
func (s *Store) TransitionsAsTriples(ctx context.Context) ([]Transition3, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT src_state, input, dst_state FROM transition WHERE dst_state IS NOT NULL`)
	if err != nil {
		return nil, wrapStoreErr("query transition triples", err)
	}
	defer rows.Close()

	var out []Transition3
	for rows.Next() {
		var t Transition3
		if err := rows.Scan(&t.Src, &t.Input, &t.Dst); err != nil {
			return nil, wrapStoreErr("scan transition triple", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("iterate transition triples", err)
	}
	return out, nil
}

// Transition5 is one resolved DFA transition joined with the NFA edge (and
// the closure step) that witnesses it.
type Transition5 struct {
	SrcState, SrcVertex, Input, DstState, DstVertex int64
}

// TransitionsAsQuintuples returns the join of every resolved, non-dead
// transition with the (vertex, edge, closure) triples that produced its
// target, per spec.md §6. Each witness is reconstructed from state_member,
// match, edge, and closure exactly as ComputeSomeTransitions derived the
// transition in the first place, so a row here always explains one way the
// transition's target vertex arrived in the destination state.
func (s *Store) TransitionsAsQuintuples(ctx context.Context) ([]Transition5, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.src_state, sm.vertex_id, t.input, t.dst_state, c.reachable
		FROM transition t
		JOIN state_member sm ON sm.state_id = t.src_state
		JOIN match m ON m.vertex = sm.vertex_id AND m.input = t.input
		JOIN edge e ON e.src = sm.vertex_id
		JOIN closure c ON c.root = e.dst
		JOIN state_member dm ON dm.state_id = t.dst_state AND dm.vertex_id = c.reachable
		WHERE t.dst_state IS NOT NULL
		  AND t.dst_state != (SELECT id FROM state WHERE vertex_str = '[]')`)
	if err != nil {
		return nil, wrapStoreErr("query transition quintuples", err)
	}
	defer rows.Close()

	var out []Transition5
	for rows.Next() {
		var t Transition5
		if err := rows.Scan(&t.SrcState, &t.SrcVertex, &t.Input, &t.DstState, &t.DstVertex); err != nil {
			return nil, wrapStoreErr("scan transition quintuple", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("iterate transition quintuples", err)
	}
	return out, nil
}
