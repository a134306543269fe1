package digest

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	tests := map[string]bool{
		"SHA-256":     true,
		"sha256":      true,
		"SHA_256":     true,
		"sha3-512":    true,
		"BLAKE2b_256": true,
		"CRC32":       false,
		"":            false,
	}

	for name, want := range tests {
		assert.Equal(t, want, Supported(name), "algo %q", name)
	}
}

func TestNew(t *testing.T) {
	newHash, err := New("sha-256")
	require.NoError(t, err)

	h := newHash()
	h.Write([]byte("hello"))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hex.EncodeToString(h.Sum(nil)))

	_, err = New("CRC32")
	assert.EqualError(t, err, `unsupported hash algorithm "CRC32"`)
}
