package market

import "testing"

func TestAddressForIdentityIsStable(test *testing.T) {
	test.Parallel()
	identity := mustIdentity(test, "some-principal")
	first := AddressForIdentity(identity)
	second := AddressForIdentity(identity)
	if first != second {
		test.Fatalf("expected stable address derivation, got %s and %s", first, second)
	}
	// sha224 hex encoding
	if len(first) != 56 {
		test.Fatalf("expected 56-char address, got %d", len(first))
	}
}

func TestSameAddressComparesByFingerprint(test *testing.T) {
	test.Parallel()
	left := AddressForIdentity(mustIdentity(test, "left-principal"))
	right := AddressForIdentity(mustIdentity(test, "right-principal"))
	if !SameAddress(left, AddressForIdentity(mustIdentity(test, "left-principal"))) {
		test.Fatalf("expected equal addresses to match")
	}
	if SameAddress(left, right) {
		test.Fatalf("expected distinct addresses to differ")
	}
}
