// Package vertexset implements the canonical encoding of a set of NFA
// vertex IDs used to intern DFA states.
//
// Two vertex sets are considered equal iff their canonical encodings are
// byte-identical: sorted ascending, deduplicated, rendered as a whitespace-free
// JSON integer array. The encoding doubles as the interning key for the
// state registry (store.Store.FindOrCreateState) and is reproduced inside
// SQLite as a scalar function so that set-oriented queries can canonicalize
// a `group_concat` aggregation without leaving the query planner.
package vertexset

import (
	"sort"
	"strconv"
	"strings"
)

// Encode canonicalizes a slice of vertex IDs: negative entries are dropped
// (they cannot name a registered vertex, spec.md's vertex IDs are
// non-negative), the remainder is sorted ascending, adjacent duplicates are
// removed, and the result is rendered as an ASCII JSON array with no
// whitespace, e.g. []int{3, 1, 1, 2} -> "[1,2,3]".
//
// Encode is a pure function: the same multiset always produces the same
// string, and it is the sole definition of vertex-set equality used by the
// store.
func Encode(ids []int64) string {
	sorted := Canonicalize(ids)
	return render(sorted)
}

// Canonicalize returns the sorted, deduplicated, non-negative subset of ids,
// or nil when that subset is empty (the same value Decode returns for "[]").
// It does not build a canonical string; callers that also need the key
// string use Encode.
func Canonicalize(ids []int64) []int64 {
	filtered := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id >= 0 {
			filtered = append(filtered, id)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i] < filtered[j] })

	out := filtered[:0]
	var prev int64 = -1
	first := true
	for _, id := range filtered {
		if first || id != prev {
			out = append(out, id)
			prev = id
			first = false
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func render(sorted []int64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte(']')
	return b.String()
}

// Decode parses a canonical key produced by Encode back into its sorted
// vertex ID slice. Decode(Encode(S)) == Canonicalize(S) for every finite set
// of vertex IDs (the round-trip law required by spec.md §8).
//
// Decode panics if key was not produced by Encode — it is an internal
// invariant of the store that vertex_str columns only ever hold canonical
// keys, so a malformed key indicates store corruption, not a validation
// error a caller should recover from.
func Decode(key string) []int64 {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(key, "["), "]")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			panic("vertexset: malformed canonical key: " + key)
		}
		out = append(out, id)
	}
	return out
}

// EncodeCSV canonicalizes a comma-separated list of vertex IDs as produced by
// SQLite's group_concat(vertex, ',') aggregate. It is registered inside the
// store as the scalar function vertex_set_encode so that
//
//	SELECT src_state, input, vertex_set_encode(group_concat(reachable, ','))
//	FROM ... GROUP BY src_state, input
//
// can canonicalize a target vertex set without a round trip through Go for
// every (src_state, input) pair. An empty or NULL input (no rows aggregated,
// i.e. the dead state) canonicalizes to "[]".
func EncodeCSV(csv string) string {
	if csv == "" {
		return "[]"
	}
	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			// A malformed fragment cannot arise from our own group_concat
			// output; treat it as absent rather than failing the aggregate.
			continue
		}
		ids = append(ids, id)
	}
	return Encode(ids)
}
