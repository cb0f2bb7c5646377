package store

import (
	"database/sql/driver"

	"modernc.org/sqlite"

	"github.com/coregx/subsetdfa/vertexset"
)

// vertexSetEncodeFn is registered as the SQLite scalar function
// vertex_set_encode so that a GROUP BY aggregation can canonicalize its
// group_concat(vertex, ',') output in-query (spec.md §4.1: "invocable
// inside the store ... so that vertex sets produced by SQL group_array-style
// aggregation can be canonicalized without leaving the query planner").
//
// It is registered once at package init via a global driver-level hook
// (modernc.org/sqlite's function registry is process-global, like
// mattn/go-sqlite3's), which is safe here because vertexset.EncodeCSV is a
// pure function with no Store or Builder state to capture — exactly the
// "free function, no builder context" escape from the cyclic-ownership
// problem spec.md §9 flags.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction(
		"vertex_set_encode",
		1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			var csv string
			if len(args) == 1 && args[0] != nil {
				csv, _ = args[0].(string)
			}
			return vertexset.EncodeCSV(csv), nil
		},
	)
}
