package subsetdfa

import "go.uber.org/zap"

// Config configures a Builder.
//
// Like the upstream determinizer this module was built from, Config is a
// plain value type with fluent With* setters and a Validate method run once
// at construction time (dfa/lazy's Config/DefaultConfig/Validate shape).
type Config struct {
	// StorageDSN names the backing SQLite store. Passed verbatim to
	// database/sql's sqlite driver. The default, ":memory:", is an
	// ephemeral in-process database — every other value is treated as a
	// file path and is advisory-locked for the lifetime of the Builder
	// (see store/lock_unix.go) so the "store handle is exclusive to one
	// builder" invariant (spec.md §5) is enforced rather than merely
	// documented.
	StorageDSN string

	// BatchLimit is the "limit" CompleteTransitions passes to each
	// ComputeSomeTransitions call; zero means the default of 1000. It has
	// no effect on ComputeSomeTransitions itself, which always takes an
	// explicit limit.
	//
	// Default: 1000 (spec.md §6's compute_some_transitions(limit=1000)).
	BatchLimit int

	// Logger receives Debug-level records for every Builder/store
	// operation. Defaults to zap.NewNop() — nothing is logged unless a
	// caller injects a real sink. This replaces the "global mutable
	// default" logging sink spec.md §9 flags as a design smell in the
	// original with an explicit, per-Builder handle.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with an ephemeral in-memory store, a 1000
// row batch limit, and a no-op logger.
func DefaultConfig() Config {
	return Config{
		StorageDSN: ":memory:",
		BatchLimit: 1000,
		Logger:     zap.NewNop(),
	}
}

// Validate reports whether c can be used to construct a Builder.
func (c *Config) Validate() error {
	if c.StorageDSN == "" {
		return &BuilderError{Kind: Validation, Message: "StorageDSN must not be empty"}
	}
	if c.BatchLimit < 0 {
		return &BuilderError{Kind: Validation, Message: "BatchLimit must be >= 0"}
	}
	return nil
}

// WithStorageDSN returns a copy of c with StorageDSN set.
func (c Config) WithStorageDSN(dsn string) Config {
	c.StorageDSN = dsn
	return c
}

// WithBatchLimit returns a copy of c with BatchLimit set.
func (c Config) WithBatchLimit(limit int) Config {
	c.BatchLimit = limit
	return c
}

// WithLogger returns a copy of c with Logger set. A nil logger is treated as
// zap.NewNop() by NewBuilder.
func (c Config) WithLogger(logger *zap.Logger) Config {
	c.Logger = logger
	return c
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
