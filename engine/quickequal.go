package engine

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// QuickEqual reports whether a and b are byte-identical, checking a
// cheap 64-bit fingerprint before falling back to a full compare. The
// generator calls this once per old/new payload pair it is deciding
// between REFRESH and PATCH/NEW for, after the CRC32, compressed size
// and method have already matched (SPEC_FULL.md §12).
func QuickEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if xxhash.Sum64(a) != xxhash.Sum64(b) {
		return false
	}
	return bytes.Equal(a, b)
}
