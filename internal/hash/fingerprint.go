package hash

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes the xxHash64 of the given bytes.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// FingerprintHex returns Fingerprint as a zero-padded 16 digit lowercase hex string.
func FingerprintHex(data []byte) string {
	return fmt.Sprintf("%016x", Fingerprint(data))
}
