package market

import (
	"crypto/sha256"
	"encoding/hex"
)

// AccountAddress is the hex-encoded ledger address derived from an identity.
type AccountAddress string

const addressDomainSeparator = "\x0aaccount-id"

// AddressForIdentity derives the ledger account address owned by an identity.
func AddressForIdentity(identity Identity) AccountAddress {
	sum := sha256.Sum224([]byte(addressDomainSeparator + identity.String()))
	return AccountAddress(hex.EncodeToString(sum[:]))
}

// SameAddress compares two addresses by content hash. The underlying address
// encoding is not guaranteed to provide direct equality semantics, so every
// address comparison in this package goes through this fingerprint.
func SameAddress(left AccountAddress, right AccountAddress) bool {
	return addressFingerprint(left) == addressFingerprint(right)
}

func addressFingerprint(address AccountAddress) [sha256.Size]byte {
	return sha256.Sum256([]byte(address))
}
