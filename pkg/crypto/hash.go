// pkg/crypto/hash.go
package crypto

import (
	sha256 "github.com/minio/sha256-simd"
)

// HashLength is the digest size of Hash.
const HashLength = sha256.Size

// Hash returns the SHA-256 digest of the concatenation of data.
func Hash(data ...[]byte) [HashLength]byte {
	if len(data) == 1 {
		return sha256.Sum256(data[0])
	}
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [HashLength]byte
	h.Sum(out[:0])
	return out
}

// XOR returns a^b. Both inputs must have the same length.
func XOR(a, b []byte) []byte {
	if len(a) != len(b) {
		panic("crypto: XOR of unequal lengths")
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
