package subsetdfa

import "fmt"

// ErrorKind classifies BuilderError into the categories spec.md §7 defines.
type ErrorKind uint8

const (
	// Validation indicates malformed input to a constructor or operation:
	// non-integer or negative IDs, NULL inputs, malformed edges. No state
	// is mutated.
	Validation ErrorKind = iota

	// OracleFailure indicates a host callback (nullable/matches/accepts)
	// raised. The atomic call that invoked it aborts with no partial effects.
	OracleFailure

	// StoreFailure indicates the underlying SQLite store reported an
	// error. The call aborts atomically; the Builder remains usable.
	StoreFailure

	// VersionMismatch indicates BackupToFile was called with an unknown
	// schema-version tag. Fatal: the caller asked for a format this build
	// does not know how to produce.
	VersionMismatch

	// UsageError indicates a call sequence this Builder does not support,
	// e.g. a second CleanupDeadStates call on the same Builder.
	UsageError
)

// String returns a human-readable error-kind name.
func (k ErrorKind) String() string {
	switch k {
	case Validation:
		return "Validation"
	case OracleFailure:
		return "OracleFailure"
	case StoreFailure:
		return "StoreFailure"
	case VersionMismatch:
		return "VersionMismatch"
	case UsageError:
		return "UsageError"
	default:
		return fmt.Sprintf("UnknownErrorKind(%d)", k)
	}
}

// BuilderError is the error type returned by every Builder and store
// operation. Kind lets callers branch on the category (errors.Is against
// the sentinels below); Cause carries the underlying error, if any.
type BuilderError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *BuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any, for errors.Is/As.
func (e *BuilderError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is: two *BuilderError values
// match if their Kind matches, regardless of Message/Cause.
func (e *BuilderError) Is(target error) bool {
	t, ok := target.(*BuilderError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is comparisons against a specific kind.
var (
	// ErrValidation is matched by any Validation-kind BuilderError.
	ErrValidation = &BuilderError{Kind: Validation, Message: "validation error"}

	// ErrOracleFailure is matched by any OracleFailure-kind BuilderError.
	ErrOracleFailure = &BuilderError{Kind: OracleFailure, Message: "oracle failure"}

	// ErrStoreFailure is matched by any StoreFailure-kind BuilderError.
	ErrStoreFailure = &BuilderError{Kind: StoreFailure, Message: "store failure"}

	// ErrVersionMismatch is matched by any VersionMismatch-kind BuilderError.
	ErrVersionMismatch = &BuilderError{Kind: VersionMismatch, Message: "version mismatch"}

	// ErrUsage is matched by any UsageError-kind BuilderError.
	ErrUsage = &BuilderError{Kind: UsageError, Message: "usage error"}
)
