//go:build !portablecrypto

package cryptox

import "crypto/sha256"

// Sum256 computes a SHA-256 digest using the platform crypto library.
// Build with -tags portablecrypto to use the portable implementation
// instead (for targets without hardware/stdlib crypto support).
func Sum256(data []byte) [DigestSize]byte {
	return sha256.Sum256(data)
}
