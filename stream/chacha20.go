package stream

import (
	"crypto/cipher"
	"encoding/binary"
	"math/bits"
)

// ChaCha20 implemented from scratch: 20 rounds of the quarter-round
// function over a 16-word state, emitting 64-byte keystream blocks.
// The legacy variant takes an 8-byte nonce with a 64-bit block counter,
// the IETF variant a 12-byte nonce with a 32-bit counter.

const (
	chachaKeySize    = 32
	chachaNonceSize  = 8
	chachaINonceSize = 12
	chachaBlockSize  = 64
)

type chachaStream struct {
	input [16]uint32
	block [chachaBlockSize]byte
	used  int
	ietf  bool
}

func newChaCha(key, nonce []byte) *chachaStream {
	c := &chachaStream{used: chachaBlockSize}
	c.input[0] = 0x61707865
	c.input[1] = 0x3320646e
	c.input[2] = 0x79622d32
	c.input[3] = 0x6b206574
	for i := 0; i < 8; i++ {
		c.input[4+i] = binary.LittleEndian.Uint32(key[4*i:])
	}
	switch len(nonce) {
	case chachaNonceSize: // counter in words 12-13, nonce in 14-15
		c.input[14] = binary.LittleEndian.Uint32(nonce[0:])
		c.input[15] = binary.LittleEndian.Uint32(nonce[4:])
	case chachaINonceSize: // counter in word 12, nonce in 13-15
		c.ietf = true
		c.input[13] = binary.LittleEndian.Uint32(nonce[0:])
		c.input[14] = binary.LittleEndian.Uint32(nonce[4:])
		c.input[15] = binary.LittleEndian.Uint32(nonce[8:])
	default:
		panic("stream: bad chacha20 nonce length")
	}
	return c
}

func quarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	a += b
	d = bits.RotateLeft32(d^a, 16)
	c += d
	b = bits.RotateLeft32(b^c, 12)
	a += b
	d = bits.RotateLeft32(d^a, 8)
	c += d
	b = bits.RotateLeft32(b^c, 7)
	return a, b, c, d
}

// refill runs the block function on the current counter and advances it.
func (c *chachaStream) refill() {
	x := c.input
	for i := 0; i < 10; i++ {
		x[0], x[4], x[8], x[12] = quarterRound(x[0], x[4], x[8], x[12])
		x[1], x[5], x[9], x[13] = quarterRound(x[1], x[5], x[9], x[13])
		x[2], x[6], x[10], x[14] = quarterRound(x[2], x[6], x[10], x[14])
		x[3], x[7], x[11], x[15] = quarterRound(x[3], x[7], x[11], x[15])

		x[0], x[5], x[10], x[15] = quarterRound(x[0], x[5], x[10], x[15])
		x[1], x[6], x[11], x[12] = quarterRound(x[1], x[6], x[11], x[12])
		x[2], x[7], x[8], x[13] = quarterRound(x[2], x[7], x[8], x[13])
		x[3], x[4], x[9], x[14] = quarterRound(x[3], x[4], x[9], x[14])
	}
	for i, v := range x {
		binary.LittleEndian.PutUint32(c.block[4*i:], v+c.input[i])
	}
	c.used = 0

	c.input[12]++
	if c.input[12] == 0 {
		if c.ietf {
			panic("stream: chacha20 counter overflow")
		}
		c.input[13]++
	}
}

func (c *chachaStream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("stream: output smaller than input")
	}
	for len(src) > 0 {
		if c.used == chachaBlockSize {
			c.refill()
		}
		ks := c.block[c.used:]
		if len(ks) > len(src) {
			ks = ks[:len(src)]
		}
		for i, b := range ks {
			dst[i] = src[i] ^ b
		}
		c.used += len(ks)
		src = src[len(ks):]
		dst = dst[len(ks):]
	}
}

func (c *chachaStream) scrub() {
	c.input = [16]uint32{}
	c.block = [chachaBlockSize]byte{}
	c.used = chachaBlockSize
}

type chacha20key []byte

func (k chacha20key) IVSize() int                       { return chachaNonceSize }
func (k chacha20key) Encrypter(iv []byte) cipher.Stream { return newChaCha(k, iv) }
func (k chacha20key) Decrypter(iv []byte) cipher.Stream { return k.Encrypter(iv) }

// ChaCha20 creates the legacy chacha20 cipher with an 8-byte nonce.
func ChaCha20(key []byte) (Cipher, error) {
	if len(key) != chachaKeySize {
		return nil, KeySizeError(chachaKeySize)
	}
	return chacha20key(key), nil
}

type chacha20ietfkey []byte

func (k chacha20ietfkey) IVSize() int                       { return chachaINonceSize }
func (k chacha20ietfkey) Encrypter(iv []byte) cipher.Stream { return newChaCha(k, iv) }
func (k chacha20ietfkey) Decrypter(iv []byte) cipher.Stream { return k.Encrypter(iv) }

// ChaCha20IETF creates the chacha20-ietf cipher with a 12-byte nonce.
func ChaCha20IETF(key []byte) (Cipher, error) {
	if len(key) != chachaKeySize {
		return nil, KeySizeError(chachaKeySize)
	}
	return chacha20ietfkey(key), nil
}
