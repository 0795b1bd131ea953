package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// FIPS 180-4 / RFC 6234 test vectors.
func TestPortableSum256_KnownVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:  "abc",
			input: "abc",
			want:  "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			name:  "two blocks",
			input: "abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq",
			want:  "248d6a61d20638b8e5c026930c3e6039a33ce45964ff2167f6ecedd419db06c1",
		},
		{
			name:  "448 bits of a",
			input: strings.Repeat("a", 56),
			want:  "b35439a4ac6f0948b6d6f9e3c6af0f5f590ce20f1bde7090ef7970686ec6738a",
		},
		{
			name:  "million a",
			input: strings.Repeat("a", 1000000),
			want:  "cdc76e5c9914fb9281a1c7e284d73e67f1809a48a497200e046d39ccc7112cd0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			digest := PortableSum256([]byte(tc.input))
			require.Equal(t, tc.want, hex.EncodeToString(digest[:]))
		})
	}
}

// The padding rule changes shape around the 55/56/64-byte boundaries
// (where the length word no longer fits in the final block). Compare the
// portable implementation against the platform library at every length
// across several blocks.
func TestPortableSum256_PaddingBoundaries(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	buf := make([]byte, 257)
	_, err := rng.Read(buf)
	require.NoError(t, err)

	for n := 0; n <= len(buf); n++ {
		want := sha256.Sum256(buf[:n])
		got := PortableSum256(buf[:n])
		require.Equal(t, want, got, "digest mismatch at input length %d", n)
	}
}

func TestPortableSum256_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := []byte("patient/Patient.read launch openid")
	snapshot := append([]byte(nil), input...)

	_ = PortableSum256(input)
	require.Equal(t, snapshot, input)
}

func TestSum256_MatchesPortable(t *testing.T) {
	t.Parallel()

	// Whichever backend the build selected, both must agree.
	for _, input := range []string{"", "abc", "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"} {
		require.Equal(t, PortableSum256([]byte(input)), Sum256([]byte(input)))
	}
}
