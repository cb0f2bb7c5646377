package subsetdfa

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		name string
		kind ErrorKind
		want string
	}{
		{name: "Validation", kind: Validation, want: "Validation"},
		{name: "OracleFailure", kind: OracleFailure, want: "OracleFailure"},
		{name: "StoreFailure", kind: StoreFailure, want: "StoreFailure"},
		{name: "VersionMismatch", kind: VersionMismatch, want: "VersionMismatch"},
		{name: "UsageError", kind: UsageError, want: "UsageError"},
		{name: "unknown error kind 99", kind: ErrorKind(99), want: "UnknownErrorKind(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestBuilderErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *BuilderError
		want string
	}{
		{
			name: "without cause",
			err:  &BuilderError{Kind: Validation, Message: "bad input"},
			want: "bad input",
		},
		{
			name: "with cause",
			err:  &BuilderError{Kind: StoreFailure, Message: "open store", Cause: fmt.Errorf("disk full")},
			want: "open store: disk full",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuilderErrorIsMatchesByKindOnly(t *testing.T) {
	a := &BuilderError{Kind: Validation, Message: "first"}
	b := &BuilderError{Kind: Validation, Message: "second", Cause: fmt.Errorf("x")}
	if !errors.Is(a, b) {
		t.Error("two Validation BuilderErrors with different messages should match under errors.Is")
	}

	c := &BuilderError{Kind: StoreFailure, Message: "first"}
	if errors.Is(a, c) {
		t.Error("BuilderErrors with different Kinds should not match under errors.Is")
	}

	if errors.Is(a, ErrValidation) == false {
		t.Error("a Validation BuilderError should match the ErrValidation sentinel")
	}
	if errors.Is(a, ErrStoreFailure) {
		t.Error("a Validation BuilderError should not match the ErrStoreFailure sentinel")
	}
}

func TestBuilderErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := &BuilderError{Kind: OracleFailure, Message: "oracle raised", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through BuilderError to its Cause")
	}
}
