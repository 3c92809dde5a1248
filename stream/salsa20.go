package stream

import (
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/salsa20/salsa"
)

// salsaStream adapts the one-shot salsa20 core to cipher.Stream by tracking
// the absolute keystream position. Calls need not be block-aligned: input is
// padded out to the containing block boundary before each core call.
type salsaStream struct {
	key     [32]byte
	nonce   [8]byte
	counter uint64 // keystream bytes consumed so far
}

func (s *salsaStream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("stream: output smaller than input")
	}
	pad := int(s.counter % 64)
	n := pad + len(src)
	var buf []byte
	if cap(dst) >= n {
		buf = dst[:n]
	} else {
		buf = make([]byte, n)
	}
	copy(buf[pad:], src)

	var subNonce [16]byte
	copy(subNonce[:], s.nonce[:])
	binary.LittleEndian.PutUint64(subNonce[8:], s.counter/64)

	salsa.XORKeyStream(buf, buf, &subNonce, &s.key)
	copy(dst, buf[pad:])
	s.counter += uint64(len(src))
}

func (s *salsaStream) scrub() {
	s.key = [32]byte{}
	s.nonce = [8]byte{}
}

type salsa20key [32]byte

func (k *salsa20key) IVSize() int { return 8 }
func (k *salsa20key) Encrypter(iv []byte) cipher.Stream {
	s := &salsaStream{key: *k}
	copy(s.nonce[:], iv)
	return s
}
func (k *salsa20key) Decrypter(iv []byte) cipher.Stream { return k.Encrypter(iv) }

// Salsa20 creates the salsa20 cipher with an 8-byte nonce.
func Salsa20(key []byte) (Cipher, error) {
	if len(key) != 32 {
		return nil, KeySizeError(32)
	}
	k := new(salsa20key)
	copy(k[:], key)
	return k, nil
}
