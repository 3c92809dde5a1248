package stream

import (
	"crypto/cipher"
	"errors"
)

var errClosed = errors.New("stream: session closed")

// scrubber is implemented by keystream states that can zero their key
// material.
type scrubber interface{ scrub() }

// Session applies one direction of a keystream to a byte sequence. Splitting
// the input across Update calls never changes the output: the keystream
// position carries over. Callers serialize Update; a Session is never shared
// between sessions or directions.
type Session struct {
	stream cipher.Stream
	iv     []byte
}

// NewSession binds an already-directed cipher.Stream to its IV. Pick the
// direction with Cipher.Encrypter or Cipher.Decrypter.
func NewSession(s cipher.Stream, iv []byte) *Session {
	ivc := make([]byte, len(iv))
	copy(ivc, iv)
	return &Session{stream: s, iv: ivc}
}

// Update transforms the next fragment and returns the result. Output length
// always equals input length.
func (s *Session) Update(p []byte) ([]byte, error) {
	if s.stream == nil {
		return nil, errClosed
	}
	out := make([]byte, len(p))
	s.stream.XORKeyStream(out, p)
	return out, nil
}

// IV returns the session IV.
func (s *Session) IV() []byte { return s.iv }

// Close scrubs whatever keystream state the engine exposes and refuses
// further use.
func (s *Session) Close() error {
	if z, ok := s.stream.(scrubber); ok {
		z.scrub()
	}
	s.stream = nil
	return nil
}
