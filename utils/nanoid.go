// Package utils provides utility functions for the application.
package utils

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// NanoIDAlphabet is the character set for generated public identifiers.
var NanoIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NanoIDLength is the generated identifier length. The schema caps nano_id at
// ten characters, so this is also the maximum.
const NanoIDLength = 10

// NewNanoID returns a fresh public identifier for a counter or gauge.
func NewNanoID() (string, error) {
	id, err := nanoid.Generate(NanoIDAlphabet, NanoIDLength)
	if err != nil {
		return "", fmt.Errorf("nanoid: %w", err)
	}
	return id, nil
}

// ValidNanoID reports whether a caller-supplied identifier fits the schema:
// non-empty printable ASCII, at most NanoIDLength characters.
func ValidNanoID(id string) bool {
	if len(id) == 0 || len(id) > NanoIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= 0x20 || id[i] >= 0x7f {
			return false
		}
	}
	return true
}
