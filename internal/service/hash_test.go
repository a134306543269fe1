package service

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"bitwise74/file-catalog/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingReader struct {
	io.Reader
	closed bool
}

func (t *trackingReader) Close() error {
	t.closed = true
	return nil
}

type failingReader struct{ closed bool }

func (f *failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
func (f *failingReader) Close() error {
	f.closed = true
	return nil
}

func TestCalculateHash(t *testing.T) {
	tests := []struct {
		algo string
		in   string
		want string
	}{
		{"SHA-256", "hello", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		{"sha256", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"MD5", "hello", "5d41402abc4b2a76b9719d911017c592"},
	}

	for _, tt := range tests {
		t.Run(tt.algo, func(t *testing.T) {
			d, err := NewDigestCalculator(tt.algo)
			require.NoError(t, err)

			r := &trackingReader{Reader: strings.NewReader(tt.in)}

			sum, err := d.CalculateHash(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sum)
			assert.True(t, r.closed)
		})
	}
}

func TestCalculateHashIsDeterministicAcrossChunks(t *testing.T) {
	d, err := NewDigestCalculator("")
	require.NoError(t, err)
	assert.Equal(t, DefaultHashAlgo, d.Algo())

	data := bytes.Repeat([]byte("0123456789"), 3*hashChunkSize)

	a, err := d.CalculateHash(io.NopCloser(bytes.NewReader(data)))
	require.NoError(t, err)

	// One byte at a time must give the same digest
	b, err := d.CalculateHash(io.NopCloser(&oneByteReader{data: data}))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

type oneByteReader struct {
	data []byte
}

func (o *oneByteReader) Read(p []byte) (int, error) {
	if len(o.data) == 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	p[0] = o.data[0]
	o.data = o.data[1:]
	return 1, nil
}

func TestCalculateHashReadError(t *testing.T) {
	d, err := NewDigestCalculator("SHA-256")
	require.NoError(t, err)

	r := &failingReader{}

	sum, err := d.CalculateHash(r)
	assert.Empty(t, sum)
	assert.True(t, apperr.Is(err, apperr.KindIO))
	assert.True(t, r.closed)
}

func TestNewDigestCalculatorUnknown(t *testing.T) {
	_, err := NewDigestCalculator("CRC32")
	assert.Error(t, err)

	d, err := NewDigestCalculator("sha3-512")
	require.NoError(t, err)
	assert.Equal(t, "sha3-512", d.Algo())
}
