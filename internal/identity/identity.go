// Package identity computes content-addressed identifiers.
//
// An entity's identity is the sha256 of its raw bytes, hex encoded. Emails
// and attachments use it as their primary key, so ingesting byte-identical
// content from any source collapses to a single row.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptyInput is returned for zero-length input, which indicates a caller
// bug (the decoder always supplies raw bytes), not a data condition.
var ErrEmptyInput = errors.New("identity: empty input")

// Hash returns the hex sha256 of data.
func Hash(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
