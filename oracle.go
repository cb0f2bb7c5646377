package subsetdfa

// NullableFunc reports whether the given NFA vertex matches the empty
// input. Called once per vertex, at load time, by NewBuilder. Must be
// pure: the store caches the result permanently (spec.md §3: "Nullability
// is computed once at load time ... and is immutable thereafter").
type NullableFunc func(vertex int64) (bool, error)

// MatchesFunc reports whether NFA vertex v matches input symbol i. Called
// once per (vertex, input) pair over the full cross-product, at load time.
// Must be pure.
type MatchesFunc func(vertex, input int64) (bool, error)

// AcceptsFunc reports whether a DFA state, given as its (already
// epsilon-closed, sorted) set of NFA vertices, is an accepting state. Called
// once per state during CleanupDeadStates.
type AcceptsFunc func(vertices []int64) (bool, error)

// oracles bundles the nullable and matches host callbacks a Builder invokes
// during Load; the accepts callback is passed to CleanupDeadStates directly.
//
// Design note (spec.md §9): these closures are owned by the Builder but
// invoked by the Store during query execution, which could set up a
// reference cycle (oracle captures Builder to reach the codec, Builder owns
// the Store that owns the oracle). We break the cycle by never having the
// oracle capture the Builder at all — vertexset.Encode is a free function,
// and oracles here are plain func values supplied per-call (Load,
// CleanupDeadStates), not stored on the Builder between calls. Nothing
// outlives the call that received it.
type oracles struct {
	nullable NullableFunc
	matches  MatchesFunc
}
