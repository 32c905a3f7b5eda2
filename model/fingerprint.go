package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Fingerprint returns a stable digest of m. Two models with equal
// fingerprints are identical, including annotation values and order of
// declarations.
func Fingerprint(m *Model) (string, error) {
	if m == nil {
		m = &Model{}
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("model: fingerprint: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// Identical reports whether a and b have the same fingerprint. Encoding
// failures report false.
func Identical(a, b *Model) bool {
	fa, err := Fingerprint(a)
	if err != nil {
		return false
	}
	fb, err := Fingerprint(b)
	return err == nil && fa == fb
}
