// Package digest maps configurable algorithm names to hash constructors
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const Default = "SHA-256"

var algos = map[string]func() hash.Hash{
	"MD5":        md5.New,
	"SHA1":       sha1.New,
	"SHA224":     sha256.New224,
	"SHA256":     sha256.New,
	"SHA384":     sha512.New384,
	"SHA512":     sha512.New,
	"SHA3256":    sha3.New256,
	"SHA3512":    sha3.New512,
	"BLAKE2B256": mustBlake(blake2b.New256),
	"BLAKE2B512": mustBlake(blake2b.New512),
}

// unkeyed blake2b constructors can't fail
func mustBlake(f func([]byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, _ := f(nil)
		return h
	}
}

var nameReplacer = strings.NewReplacer("-", "", "_", "", " ", "")

func canonical(name string) string {
	return strings.ToUpper(nameReplacer.Replace(name))
}

// Supported reports whether name is a known algorithm. Names are matched
// loosely, "SHA-256", "sha256" and "SHA_256" are the same algorithm.
func Supported(name string) bool {
	_, ok := algos[canonical(name)]
	return ok
}

// New returns the constructor for name.
func New(name string) (func() hash.Hash, error) {
	newHash, ok := algos[canonical(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm %q", name)
	}

	return newHash, nil
}
