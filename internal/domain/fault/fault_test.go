package fault

import (
	"errors"
	"fmt"
	"testing"
)

var errSample = New(PreconditionFailed, "sample", "sample failure")

func TestWithfKeepsIdentity(t *testing.T) {
	derived := errSample.Withf("student %s missing %s", "s1", "Maths")
	if !errors.Is(derived, errSample) {
		t.Fatal("expected derived error to match its sentinel")
	}
	if derived.Message != "student s1 missing Maths" {
		t.Fatalf("unexpected message %q", derived.Message)
	}
	if errSample.Message != "sample failure" {
		t.Fatal("sentinel must not be mutated")
	}
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", errSample)
	if KindOf(wrapped) != PreconditionFailed {
		t.Fatalf("expected precondition kind, got %s", KindOf(wrapped))
	}
	if KindOf(errors.New("boom")) != Internal {
		t.Fatal("expected internal kind for plain errors")
	}
}

func TestAsWrapsPlainErrors(t *testing.T) {
	cause := errors.New("db down")
	fe := As(cause)
	if fe.Kind != Internal || !errors.Is(fe, cause) {
		t.Fatalf("expected internal error wrapping cause, got %+v", fe)
	}
}

func TestInvalidCopiesFields(t *testing.T) {
	fields := map[string]string{"amount": "must be positive"}
	err := Invalid(fields)
	fields["amount"] = "changed"
	if err.Fields["amount"] != "must be positive" {
		t.Fatal("expected fields to be copied")
	}
}
