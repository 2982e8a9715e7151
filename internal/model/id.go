package model

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 16-character hex identifier from a cryptographically
// secure source.
func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
