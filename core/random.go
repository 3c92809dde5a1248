package core

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ErrEntropy occurs when the system entropy source fails. There is no
// fallback source: callers must treat this as fatal for the session.
var ErrEntropy = errors.New("entropy source unavailable")

// RandomIV returns n cryptographically random bytes.
func RandomIV(n int) ([]byte, error) {
	if n < 0 {
		panic("core: negative IV length")
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return b, nil
}

// RandomIVForMethod returns a random IV (stream methods) or salt (AEAD
// methods) of the length the method requires.
func RandomIVForMethod(method string) ([]byte, error) {
	ci, err := Lookup(method)
	if err != nil {
		return nil, err
	}
	n := ci.IVLen
	if ci.Family == FamilyAEAD {
		n = ci.SaltLen
	}
	return RandomIV(n)
}
