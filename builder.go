// Package subsetdfa converts an NFA, expressed as a vertex-labeled directed
// graph, into an equivalent DFA by incremental subset construction,
// materializing intermediate state in an external indexed store so the
// result never has to fit in memory at once.
package subsetdfa

import (
	"context"
	"fmt"

	"github.com/coregx/subsetdfa/store"
)

// Edge is an ordered (src, dst) pair of NFA vertex IDs.
type Edge struct {
	Src, Dst int64
}

// Builder is the subset-construction engine: one store handle, driven
// through Load, ComputeSomeTransitions, and (once acceptance is known)
// CleanupDeadStates.
//
// A Builder is not safe for concurrent use (spec.md §5: single-threaded
// cooperative, one logical builder owns the store).
type Builder struct {
	cfg     Config
	store   *store.Store
	cleaned bool
}

// NewBuilder opens the store named by cfg.StorageDSN, loads the given
// alphabet/vertices/edges via the nullable and matches oracles, and builds
// the epsilon-closure table. The returned Builder is immediately usable for
// FindOrCreateStateID and ComputeSomeTransitions.
func NewBuilder(
	ctx context.Context,
	cfg Config,
	alphabet []int64,
	vertices []int64,
	edges []Edge,
	nullable NullableFunc,
	matches MatchesFunc,
) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateIDs("input_alphabet", alphabet); err != nil {
		return nil, err
	}
	if err := validateIDs("input_vertices", vertices); err != nil {
		return nil, err
	}
	for _, e := range edges {
		if e.Src < 0 || e.Dst < 0 {
			return nil, &BuilderError{Kind: Validation, Message: fmt.Sprintf("edge (%d, %d) has a negative endpoint", e.Src, e.Dst)}
		}
	}

	st, err := store.Open(ctx, cfg.StorageDSN, cfg.logger())
	if err != nil {
		return nil, &BuilderError{Kind: StoreFailure, Message: "open store", Cause: err}
	}

	b := &Builder{cfg: cfg, store: st}

	storeEdges := make([]store.Edge, len(edges))
	for i, e := range edges {
		storeEdges[i] = store.Edge{Src: e.Src, Dst: e.Dst}
	}
	if err := st.Load(ctx, alphabet, vertices, storeEdges,
		store.NullableFunc(nullable), store.MatchesFunc(matches)); err != nil {
		st.Close()
		return nil, wrapLoadErr(err)
	}

	if err := st.BuildClosure(ctx); err != nil {
		st.Close()
		return nil, &BuilderError{Kind: StoreFailure, Message: "build closure", Cause: err}
	}

	return b, nil
}

// Close releases the underlying store handle (and any advisory file lock).
func (b *Builder) Close() error {
	if err := b.store.Close(); err != nil {
		return &BuilderError{Kind: StoreFailure, Message: "close store", Cause: err}
	}
	return nil
}

// FindOrCreateStateID closes vertices under epsilon-closure, canonicalizes
// the result, and returns its interned state ID, allocating one if this is
// the first time this vertex set has been seen.
func (b *Builder) FindOrCreateStateID(ctx context.Context, vertices []int64) (int64, error) {
	if err := validateIDs("vertex_list", vertices); err != nil {
		return 0, err
	}
	id, err := b.store.FindOrCreateState(ctx, vertices)
	if err != nil {
		return 0, &BuilderError{Kind: StoreFailure, Message: "find or create state", Cause: err}
	}
	return id, nil
}

// DeadStateID returns the ID of the state interned from the empty vertex
// set. Available immediately after NewBuilder returns.
func (b *Builder) DeadStateID(ctx context.Context) (int64, error) {
	id, err := b.store.DeadStateID(ctx)
	if err != nil {
		return 0, &BuilderError{Kind: StoreFailure, Message: "dead state id", Cause: err}
	}
	return id, nil
}

// ComputeSomeTransitions resolves up to limit unresolved (state, input)
// transitions, interning any newly-discovered states, and returns the count
// resolved. limit <= 0 is a no-op that returns 0. Zero is the fixpoint signal: call
// repeatedly until it returns 0 to materialize the whole DFA.
func (b *Builder) ComputeSomeTransitions(ctx context.Context, limit int) (int, error) {
	n, err := b.store.ComputeSomeTransitions(ctx, limit)
	if err != nil {
		return 0, &BuilderError{Kind: StoreFailure, Message: "compute some transitions", Cause: err}
	}
	return n, nil
}

// CompleteTransitions drives ComputeSomeTransitions to its fixpoint using
// cfg.BatchLimit as the batch size, a convenience for callers who do not
// need to pause/resume expansion across calls.
func (b *Builder) CompleteTransitions(ctx context.Context) error {
	limit := b.cfg.BatchLimit
	if limit <= 0 {
		limit = DefaultConfig().BatchLimit
	}
	for {
		n, err := b.ComputeSomeTransitions(ctx, limit)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// VerticesInState decodes stateID's canonical key back to its sorted vertex
// ID list.
func (b *Builder) VerticesInState(ctx context.Context, stateID int64) ([]int64, error) {
	vs, err := b.store.VerticesInState(ctx, stateID)
	if err != nil {
		return nil, &BuilderError{Kind: StoreFailure, Message: "vertices in state", Cause: err}
	}
	return vs, nil
}

// StateVertexPair is one (state_id, vertex_list) pair as yielded by
// StateVerticesIterator.
type StateVertexPair = store.StateVertexPair

// StateVerticesIterator returns every (state_id, vertex_list) pair present
// at the moment of the call, ascending by state_id.
func (b *Builder) StateVerticesIterator(ctx context.Context) ([]StateVertexPair, error) {
	pairs, err := b.store.StateVerticesIterator(ctx)
	if err != nil {
		return nil, &BuilderError{Kind: StoreFailure, Message: "state vertices iterator", Cause: err}
	}
	return pairs, nil
}

// Transition3 is one resolved (src, input, dst) transition.
type Transition3 = store.Transition3

// TransitionsAs3Tuples returns every resolved transition, dead-state
// destinations included.
func (b *Builder) TransitionsAs3Tuples(ctx context.Context) ([]Transition3, error) {
	ts, err := b.store.TransitionsAsTriples(ctx)
	if err != nil {
		return nil, &BuilderError{Kind: StoreFailure, Message: "transitions as 3-tuples", Cause: err}
	}
	return ts, nil
}

// Transition5 is one resolved DFA transition joined with the NFA edge that
// witnesses it.
type Transition5 = store.Transition5

// TransitionsAs5Tuples returns every resolved, non-dead transition joined
// with a witnessing (vertex, edge, closure) triple.
func (b *Builder) TransitionsAs5Tuples(ctx context.Context) ([]Transition5, error) {
	ts, err := b.store.TransitionsAsQuintuples(ctx)
	if err != nil {
		return nil, &BuilderError{Kind: StoreFailure, Message: "transitions as 5-tuples", Cause: err}
	}
	return ts, nil
}

// CleanupDeadStates collapses every state that cannot reach an accepting
// state into the dead state and deletes the now-unreachable states,
// returning the accepting state IDs. Calling it more than once on the same
// Builder is a UsageError (SPEC_FULL.md §9, Open Question 2: the operation
// itself is idempotent against the store, but repeated calls on one Builder
// are a caller-logic smell this package chooses to flag rather than ignore).
func (b *Builder) CleanupDeadStates(ctx context.Context, accepts AcceptsFunc) ([]int64, error) {
	if b.cleaned {
		return nil, &BuilderError{Kind: UsageError, Message: "cleanup_dead_states already called on this builder"}
	}
	ids, err := b.store.CleanupDeadStates(ctx, store.AcceptsFunc(accepts))
	if err != nil {
		if se, ok := err.(*store.StoreError); ok && se.Op == "accepts oracle" {
			return nil, &BuilderError{Kind: OracleFailure, Message: "accepts oracle", Cause: se.Cause}
		}
		return nil, &BuilderError{Kind: StoreFailure, Message: "cleanup dead states", Cause: err}
	}
	b.cleaned = true
	return ids, nil
}

// BackupToFile snapshots the entire store to path. version must be "v0";
// any other value is a VersionMismatch error.
func (b *Builder) BackupToFile(ctx context.Context, version, path string) error {
	if version != "v0" {
		return &BuilderError{Kind: VersionMismatch, Message: fmt.Sprintf("unsupported snapshot version %q", version)}
	}
	if err := b.store.BackupToFile(ctx, version, path); err != nil {
		return &BuilderError{Kind: StoreFailure, Message: "backup to file", Cause: err}
	}
	return nil
}

func validateIDs(field string, ids []int64) error {
	for _, id := range ids {
		if id < 0 {
			return &BuilderError{Kind: Validation, Message: fmt.Sprintf("%s contains a negative ID: %d", field, id)}
		}
	}
	return nil
}

// wrapLoadErr classifies a *store.StoreError raised during Load into an
// OracleFailure or StoreFailure BuilderError depending on which oracle (if
// any) raised it — only the caller of Load knows which underlying cause
// means what.
func wrapLoadErr(err error) error {
	if se, ok := err.(*store.StoreError); ok {
		switch se.Op {
		case "nullable oracle", "matches oracle":
			return &BuilderError{Kind: OracleFailure, Message: se.Op, Cause: se.Cause}
		}
	}
	return &BuilderError{Kind: StoreFailure, Message: "load", Cause: err}
}
