package errs

import (
	"database/sql"
	"errors"
	"testing"
)

func TestDatabaseKeepsCause(t *testing.T) {
	err := Database("get entry", sql.ErrConnDone)
	if !errors.Is(err, ErrDatabase) {
		t.Fatalf("expected ErrDatabase in chain: %v", err)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected cause in chain: %v", err)
	}
}

func TestDatabaseNil(t *testing.T) {
	if Database("noop", nil) != nil {
		t.Fatal("nil error should stay nil")
	}
}

func TestDatabasePassesThroughKinds(t *testing.T) {
	nf := NotFound("entry", "abc")
	if got := Database("get entry", nf); got != nf {
		t.Fatalf("not-found should pass through unchanged, got %v", got)
	}
	if errors.Is(Database("get entry", nf), ErrDatabase) {
		t.Fatal("not-found must not be reported as a database error")
	}
}

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"not found", NotFound("category", "x"), ErrNotFound},
		{"validation", Validation("title is required"), ErrValidation},
		{"unavailable", Unavailable("openai", errors.New("timeout")), ErrServiceUnavailable},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.kind) {
			t.Fatalf("%s: expected kind %v, got %v", tt.name, tt.kind, tt.err)
		}
	}
}

func TestValidationMessage(t *testing.T) {
	err := Validation("window %q is not supported", "decade")
	want := `validation failed: window "decade" is not supported`
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
