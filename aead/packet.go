package aead

import (
	"crypto/rand"
	"errors"
	"io"
	"net"
)

// ErrShortPacket means that the packet is too short for a valid encrypted packet.
var ErrShortPacket = errors.New("aead: short packet")

var zeroNonce [128]byte

// Pack encrypts plaintext under a fresh salt-derived subkey with an all-zero
// nonce and returns a slice of dst containing salt || ciphertext || tag.
// Ensure len(dst) >= ciph.SaltSize() + len(plaintext) + tag size.
func Pack(dst, plaintext []byte, ciph Cipher) ([]byte, error) {
	saltSize := ciph.SaltSize()
	if len(dst) < saltSize {
		return nil, io.ErrShortBuffer
	}
	salt := dst[:saltSize]
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	aead, err := ciph.Encrypter(salt)
	if err != nil {
		return nil, err
	}
	if len(dst) < saltSize+len(plaintext)+aead.Overhead() {
		return nil, io.ErrShortBuffer
	}

	b := aead.Seal(dst[saltSize:saltSize], zeroNonce[:aead.NonceSize()], plaintext, nil)
	return dst[:saltSize+len(b)], nil
}

// Unpack decrypts pkt, a packet produced by Pack, and returns a slice of dst
// containing the payload. Ensure len(dst) >= len(pkt) - ciph.SaltSize() -
// tag size.
func Unpack(dst, pkt []byte, ciph Cipher) ([]byte, error) {
	saltSize := ciph.SaltSize()
	if len(pkt) < saltSize {
		return nil, ErrShortPacket
	}
	salt := pkt[:saltSize]

	aead, err := ciph.Decrypter(salt)
	if err != nil {
		return nil, err
	}
	if len(pkt) < saltSize+aead.Overhead() {
		return nil, ErrShortPacket
	}
	if len(dst) < len(pkt)-saltSize-aead.Overhead() {
		return nil, io.ErrShortBuffer
	}

	b, err := aead.Open(dst[:0], zeroNonce[:aead.NonceSize()], pkt[saltSize:], nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return b, nil
}

// packetConn encrypts a net.PacketConn, one independent salt per packet.
type packetConn struct {
	net.PacketConn
	Cipher
}

// NewPacketConn wraps a net.PacketConn with AEAD protection.
func NewPacketConn(c net.PacketConn, ciph Cipher) net.PacketConn {
	return &packetConn{PacketConn: c, Cipher: ciph}
}

// WriteTo encrypts b and writes to addr using the embedded PacketConn.
func (c *packetConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	buf := make([]byte, c.SaltSize()+len(b)+maxTagSize)
	buf, err := Pack(buf, b, c.Cipher)
	if err != nil {
		return 0, err
	}
	_, err = c.PacketConn.WriteTo(buf, addr)
	return len(b), err
}

// ReadFrom reads from the embedded PacketConn and decrypts into b.
func (c *packetConn) ReadFrom(b []byte) (int, net.Addr, error) {
	n, addr, err := c.PacketConn.ReadFrom(b)
	if err != nil {
		return n, addr, err
	}
	bb, err := Unpack(b[c.SaltSize():], b[:n], c.Cipher)
	if err != nil {
		return n, addr, err
	}
	copy(b, bb)
	return len(bb), addr, err
}

// maxTagSize covers every supported AEAD.
const maxTagSize = 16
