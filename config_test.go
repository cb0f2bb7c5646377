package subsetdfa

import (
	"errors"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidateRejectsEmptyDSN(t *testing.T) {
	c := DefaultConfig().WithStorageDSN("")
	err := c.Validate()
	if err == nil {
		t.Fatal("expected Validate to reject an empty StorageDSN")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Validate() error = %v, want a Validation-kind error", err)
	}
}

func TestConfigValidateRejectsNegativeBatchLimit(t *testing.T) {
	c := DefaultConfig().WithBatchLimit(-1)
	if err := c.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Validate() error = %v, want a Validation-kind error", err)
	}
}

func TestConfigWithersReturnCopies(t *testing.T) {
	base := DefaultConfig()
	derived := base.WithStorageDSN("file:test.db").WithBatchLimit(42)

	if base.StorageDSN == derived.StorageDSN {
		t.Error("WithStorageDSN mutated the receiver instead of returning a copy")
	}
	if base.BatchLimit == derived.BatchLimit {
		t.Error("WithBatchLimit mutated the receiver instead of returning a copy")
	}
	if derived.StorageDSN != "file:test.db" || derived.BatchLimit != 42 {
		t.Errorf("derived config = %+v, want StorageDSN=file:test.db BatchLimit=42", derived)
	}
}

func TestConfigLoggerDefaultsWhenNil(t *testing.T) {
	c := DefaultConfig().WithLogger(nil)
	if c.logger() == nil {
		t.Error("logger() returned nil; want zap.NewNop() fallback")
	}
}
