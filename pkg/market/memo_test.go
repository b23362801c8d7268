package market

import (
	"testing"
	"time"
)

func TestNewMemoDeterministicForSameInputs(test *testing.T) {
	test.Parallel()
	caller := mustIdentity(test, "caller-principal")
	at := time.Unix(1_700_000_000, 123)
	first := NewMemo("L1", caller, at)
	second := NewMemo("L1", caller, at)
	if first != second {
		test.Fatalf("expected identical memos, got %d and %d", first, second)
	}
}

func TestNewMemoVariesPerInput(test *testing.T) {
	test.Parallel()
	caller := mustIdentity(test, "caller-principal")
	at := time.Unix(1_700_000_000, 123)
	base := NewMemo("L1", caller, at)

	if NewMemo("L2", caller, at) == base {
		test.Fatalf("expected subject to affect memo")
	}
	if NewMemo("L1", mustIdentity(test, "other-principal"), at) == base {
		test.Fatalf("expected caller to affect memo")
	}
	if NewMemo("L1", caller, at.Add(time.Nanosecond)) == base {
		test.Fatalf("expected time to affect memo")
	}
}
