/*
Package stream implements the classic pre-AEAD protocol: a per-session IV
followed by the payload XORed with (or CFB-chained through) the method's
keystream. It offers no integrity protection; use the aead package unless
compatibility with old peers is required.
*/
package stream

import "crypto/cipher"

// Cipher generates a pair of stream ciphers for encryption and decryption.
type Cipher interface {
	IVSize() int
	Encrypter(iv []byte) cipher.Stream
	Decrypter(iv []byte) cipher.Stream
}
