//go:build portablecrypto

package cryptox

// Sum256 computes a SHA-256 digest using the portable FIPS 180-4
// implementation. Selected by the portablecrypto build tag.
func Sum256(data []byte) [DigestSize]byte {
	return PortableSum256(data)
}
