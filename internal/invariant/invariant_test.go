package invariant_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aledsdavies/lowgen/internal/invariant"
)

func TestPreconditionPass(t *testing.T) {
	invariant.Precondition(true, "this should pass")
	invariant.Precondition(1 == 1, "math works")
}

func TestPreconditionFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for false precondition")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "PRECONDITION VIOLATION") {
			t.Errorf("expected PRECONDITION VIOLATION, got: %s", msg)
		}
		if !strings.Contains(msg, "grammar must not be empty") {
			t.Errorf("expected custom message, got: %s", msg)
		}
	}()

	invariant.Precondition(false, "grammar must not be empty")
}

func TestInvariantFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for false invariant")
		}
		if !strings.Contains(fmt.Sprintf("%v", r), "INVARIANT VIOLATION") {
			t.Errorf("expected INVARIANT VIOLATION, got: %v", r)
		}
	}()

	invariant.Invariant(1 > 2, "node count must not shrink")
}

func TestNotNilFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for nil value")
		}
	}()

	invariant.NotNil(nil, "grammar")
}

func TestInRange(t *testing.T) {
	invariant.InRange(5, 0, 10, "index")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for out-of-range value")
		}
	}()
	invariant.InRange(11, 0, 10, "index")
}

func TestPositive(t *testing.T) {
	invariant.Positive(1, "count")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-positive value")
		}
	}()
	invariant.Positive(0, "count")
}

func TestExpectNoError(t *testing.T) {
	invariant.ExpectNoError(nil, "build")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-nil error")
		}
	}()
	invariant.ExpectNoError(fmt.Errorf("boom"), "build")
}
