package aead

import (
	"crypto/cipher"
	"errors"
)

// payloadSizeMask is the maximum size of payload in bytes.
const payloadSizeMask = 0x3FFF // 16*1024 - 1

// ErrAuthFailed means a record failed tag verification: the stream was
// tampered with, corrupted, or keyed differently. The session is unusable
// afterwards.
var ErrAuthFailed = errors.New("aead: message authentication failed")

// ErrNonceExhausted means the nonce counter wrapped around. The session
// refuses to reuse a nonce and is unusable afterwards.
var ErrNonceExhausted = errors.New("aead: nonce space exhausted")

var errClosed = errors.New("aead: session closed")

// Session applies one direction of the record protocol incrementally. The
// encrypt direction turns plaintext fragments into sealed records. The
// decrypt direction accepts arbitrarily fragmented ciphertext and emits
// payload bytes as records complete; input may be split at any byte
// boundary without changing the output. Callers serialize Update. Errors
// are sticky: a failed session refuses all further work.
type Session struct {
	aead    cipher.AEAD
	salt    []byte
	nonce   []byte
	encrypt bool
	failed  error

	// decrypt record state
	in     []byte // buffered ciphertext not yet forming a full record
	gotLen bool   // length record opened, payload record pending
	size   int    // payload size from the opened length record
}

// NewEncryptSession derives the encrypt side of a session from salt.
func NewEncryptSession(c Cipher, salt []byte) (*Session, error) {
	return newSession(c, salt, true)
}

// NewDecryptSession derives the decrypt side of a session from salt.
func NewDecryptSession(c Cipher, salt []byte) (*Session, error) {
	return newSession(c, salt, false)
}

func newSession(c Cipher, salt []byte, encrypt bool) (*Session, error) {
	if len(salt) != c.SaltSize() {
		return nil, SaltSizeError(c.SaltSize())
	}
	var (
		a   cipher.AEAD
		err error
	)
	if encrypt {
		a, err = c.Encrypter(salt)
	} else {
		a, err = c.Decrypter(salt)
	}
	if err != nil {
		return nil, err
	}
	sc := make([]byte, len(salt))
	copy(sc, salt)
	return &Session{
		aead:    a,
		salt:    sc,
		nonce:   make([]byte, a.NonceSize()),
		encrypt: encrypt,
	}, nil
}

// Update processes the next fragment. For the encrypt direction p is
// plaintext and the records it seals are returned in full. For the decrypt
// direction p is ciphertext and whatever payload it completes is returned,
// possibly nothing. Empty input produces empty output and consumes no nonce.
func (s *Session) Update(p []byte) ([]byte, error) {
	if s.failed != nil {
		return nil, s.failed
	}
	if s.encrypt {
		return s.seal(nil, p)
	}
	return s.open(nil, p)
}

// Salt returns the session salt.
func (s *Session) Salt() []byte { return s.salt }

// Close scrubs the buffered record data and refuses further use. A session
// that already failed keeps its original error.
func (s *Session) Close() error {
	for i := range s.in {
		s.in[i] = 0
	}
	s.in = nil
	s.aead = nil
	if s.failed == nil {
		s.failed = errClosed
	}
	return nil
}

// Overhead returns the per-record tag size.
func (s *Session) Overhead() int { return s.aead.Overhead() }

// seal splits p into records of at most payloadSizeMask bytes and appends
// the sealed form of each to dst.
func (s *Session) seal(dst, p []byte) ([]byte, error) {
	overhead := s.aead.Overhead()
	for len(p) > 0 {
		n := len(p)
		if n > payloadSizeMask {
			n = payloadSizeMask
		}

		head, rec := sliceForAppend(dst, 2+overhead+n+overhead)

		lenRec := rec[:2+overhead]
		lenRec[0], lenRec[1] = byte(n>>8), byte(n) // big-endian payload size
		if err := s.sealRecord(lenRec, lenRec[:2]); err != nil {
			return nil, err
		}

		payloadRec := rec[2+overhead:]
		copy(payloadRec, p[:n])
		if err := s.sealRecord(payloadRec, payloadRec[:n]); err != nil {
			return nil, err
		}

		dst = head
		p = p[n:]
	}
	return dst, nil
}

// sealRecord seals plaintext in place into rec under the current nonce and
// advances the nonce. rec and plaintext share storage.
func (s *Session) sealRecord(rec, plaintext []byte) error {
	if s.failed != nil {
		return s.failed
	}
	s.aead.Seal(rec[:0], s.nonce, plaintext, nil)
	if increment(s.nonce) {
		s.failed = ErrNonceExhausted
	}
	return nil
}

// open buffers p and appends the payload of every completed record to dst.
// Payload opened before a nonce wrap is still returned; the sticky error
// surfaces on the next call.
func (s *Session) open(dst, p []byte) ([]byte, error) {
	if len(p) > 0 {
		s.in = append(s.in, p...)
	}
	overhead := s.aead.Overhead()
	for s.failed == nil {
		if !s.gotLen {
			need := 2 + overhead
			if len(s.in) < need {
				break
			}
			var lb [2]byte
			_, err := s.aead.Open(lb[:0], s.nonce, s.in[:need], nil)
			if increment(s.nonce) {
				s.failed = ErrNonceExhausted
			}
			if err != nil {
				s.failed = ErrAuthFailed
				return nil, s.failed
			}
			s.size = (int(lb[0])<<8 | int(lb[1])) & payloadSizeMask
			s.in = s.in[need:]
			s.gotLen = true
		} else {
			need := s.size + overhead
			if len(s.in) < need {
				break
			}
			var err error
			dst, err = s.aead.Open(dst, s.nonce, s.in[:need], nil)
			if increment(s.nonce) {
				s.failed = ErrNonceExhausted
			}
			if err != nil {
				s.failed = ErrAuthFailed
				return nil, s.failed
			}
			s.in = s.in[need:]
			s.gotLen = false
		}
	}
	if len(s.in) == 0 {
		s.in = nil
	}
	return dst, nil
}

// increment treats b as a little-endian unsigned integer and adds one.
// It reports whether the counter wrapped around to zero.
func increment(b []byte) bool {
	for i := range b {
		b[i]++
		if b[i] != 0 {
			return false
		}
	}
	return true
}

// sliceForAppend extends b by n bytes and returns both the extended slice
// and the appended portion.
func sliceForAppend(b []byte, n int) (head, tail []byte) {
	if total := len(b) + n; cap(b) >= total {
		head = b[:total]
	} else {
		head = make([]byte, total)
		copy(head, b)
	}
	tail = head[len(b):]
	return
}
