package core

import (
	"net"
	"strconv"

	"github.com/umbra-proxy/go-umbra/aead"
	"github.com/umbra-proxy/go-umbra/stream"
)

// Direction tells a cipher whether it encrypts or decrypts.
type Direction int

const (
	Encrypt Direction = iota
	Decrypt
)

func (d Direction) String() string {
	if d == Decrypt {
		return "decrypt"
	}
	return "encrypt"
}

// IVSizeError means the IV or salt length does not match the method.
type IVSizeError int

func (e IVSizeError) Error() string {
	return "iv size error: need " + strconv.Itoa(int(e)) + " bytes"
}

// Cipher transforms one direction of one session incrementally. Construct a
// fresh one per session and per direction; never reuse across sessions.
// Callers serialize Update.
type Cipher interface {
	// Update transforms the next fragment and returns whatever output it
	// completes. Stream methods return exactly len(p) bytes. AEAD methods
	// buffer partial records, so output may be shorter or longer than p.
	Update(p []byte) ([]byte, error)
	// IV returns the session IV (stream methods) or salt (AEAD methods).
	IV() []byte
	// Close scrubs session state. The Cipher must not be used afterwards.
	Close() error
}

// New creates a Cipher for one direction of one session.
//
// key must be exactly KeyLen bytes for the method; derive it from a password
// with Kdf. For Encrypt a nil iv generates a fresh random one, retrievable
// with IV. For Decrypt iv must be the IV or salt received from the peer.
func New(method string, key, iv []byte, dir Direction) (Cipher, error) {
	ci, err := Lookup(method)
	if err != nil {
		return nil, err
	}

	if ci.Family == FamilyAEAD {
		if len(key) != ci.KeyLen {
			return nil, aead.KeySizeError(ci.KeyLen)
		}
		ciph, err := ci.newAEAD(key)
		if err != nil {
			return nil, err
		}
		if iv == nil && dir == Encrypt {
			if iv, err = RandomIV(ci.SaltLen); err != nil {
				return nil, err
			}
		}
		if len(iv) != ci.SaltLen {
			return nil, IVSizeError(ci.SaltLen)
		}
		var ss *aead.Session
		if dir == Encrypt {
			ss, err = aead.NewEncryptSession(ciph, iv)
		} else {
			ss, err = aead.NewDecryptSession(ciph, iv)
		}
		if err != nil {
			return nil, err
		}
		return aeadSession{ss}, nil
	}

	if len(key) != ci.KeyLen {
		return nil, stream.KeySizeError(ci.KeyLen)
	}
	ciph, err := ci.newStream(key)
	if err != nil {
		return nil, err
	}
	if iv == nil && dir == Encrypt {
		if iv, err = RandomIV(ci.IVLen); err != nil {
			return nil, err
		}
	}
	if len(iv) != ci.IVLen {
		return nil, IVSizeError(ci.IVLen)
	}
	if dir == Encrypt {
		return stream.NewSession(ciph.Encrypter(iv), iv), nil
	}
	return stream.NewSession(ciph.Decrypter(iv), iv), nil
}

// NewWithPassword derives the master key from password before creating the
// cipher.
func NewWithPassword(method, password string, iv []byte, dir Direction) (Cipher, error) {
	ci, err := Lookup(method)
	if err != nil {
		return nil, err
	}
	return New(method, Kdf(password, ci.KeyLen), iv, dir)
}

// aeadSession renames Salt to IV so both families satisfy Cipher.
type aeadSession struct{ *aead.Session }

func (s aeadSession) IV() []byte { return s.Salt() }

// ConnCipher wraps network connections with a method's protection. One
// ConnCipher may wrap any number of connections; per-session state lives in
// the wrappers.
type ConnCipher interface {
	StreamConn(net.Conn) net.Conn
	PacketConn(net.PacketConn) net.PacketConn
}

// PickCipher returns a ConnCipher of the given method. Derives key from
// password if the given key is empty.
func PickCipher(method string, key []byte, password string) (ConnCipher, error) {
	ci, err := Lookup(method)
	if err != nil {
		return nil, err
	}

	if len(key) == 0 {
		key = Kdf(password, ci.KeyLen)
	}

	if ci.Family == FamilyAEAD {
		if len(key) != ci.KeyLen {
			return nil, aead.KeySizeError(ci.KeyLen)
		}
		ciph, err := ci.newAEAD(key)
		if err != nil {
			return nil, err
		}
		return aeadConnCipher{ciph}, nil
	}

	if len(key) != ci.KeyLen {
		return nil, stream.KeySizeError(ci.KeyLen)
	}
	ciph, err := ci.newStream(key)
	if err != nil {
		return nil, err
	}
	return streamConnCipher{ciph}, nil
}

type aeadConnCipher struct{ aead.Cipher }

func (c aeadConnCipher) StreamConn(conn net.Conn) net.Conn { return aead.NewConn(conn, c.Cipher) }
func (c aeadConnCipher) PacketConn(conn net.PacketConn) net.PacketConn {
	return aead.NewPacketConn(conn, c.Cipher)
}

type streamConnCipher struct{ stream.Cipher }

func (c streamConnCipher) StreamConn(conn net.Conn) net.Conn { return stream.NewConn(conn, c.Cipher) }
func (c streamConnCipher) PacketConn(conn net.PacketConn) net.PacketConn {
	return stream.NewPacketConn(conn, c.Cipher)
}
