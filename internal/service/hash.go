package service

import (
	"bitwise74/file-catalog/pkg/apperr"
	"bitwise74/file-catalog/pkg/digest"
	"encoding/hex"
	"hash"
	"io"

	"go.uber.org/zap"
)

const (
	DefaultHashAlgo = digest.Default
	hashChunkSize   = 8192
)

// DigestCalculator hashes streams with a configurable algorithm. Names are
// matched loosely, "SHA-256", "sha256" and "SHA_256" are the same algorithm.
type DigestCalculator struct {
	algo    string
	newHash func() hash.Hash
}

func NewDigestCalculator(algo string) (*DigestCalculator, error) {
	if algo == "" {
		algo = DefaultHashAlgo
	}

	newHash, err := digest.New(algo)
	if err != nil {
		return nil, err
	}

	return &DigestCalculator{algo: algo, newHash: newHash}, nil
}

func (d *DigestCalculator) Algo() string {
	return d.algo
}

// CalculateHash reads r to the end in fixed size chunks and returns the hex
// encoded digest. r is closed in every case.
func (d *DigestCalculator) CalculateHash(r io.ReadCloser) (string, error) {
	defer r.Close()

	h := d.newHash()
	buf := make([]byte, hashChunkSize)

	// The file is never held in memory as a whole
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", apperr.Wrap(apperr.KindIO, "hash", "could not calculate hash for file", err)
		}
	}

	sum := hex.EncodeToString(h.Sum(nil))
	zap.L().Debug("Calculated hash", zap.String("algo", d.algo), zap.String("hash", sum))

	return sum, nil
}
