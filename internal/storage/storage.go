// Package storage contains the blob stores file contents can be kept in
package storage

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const blobIDSize = 24

// Alphanumeric only so ids are safe as file names and object keys
const blobIDCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newBlobID() (string, error) {
	return gonanoid.Generate(blobIDCharset, blobIDSize)
}
