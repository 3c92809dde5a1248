package stream

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"strconv"

	"github.com/aead/camellia"
	"github.com/aead/serpent"
	"github.com/dgryski/go-idea"
	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
)

// KeySizeError means the key length does not meet the requirement of the cipher.
type KeySizeError int

func (e KeySizeError) Error() string {
	return "key size error: need " + strconv.Itoa(int(e)) + " bytes"
}

// CTR mode
type ctrStream struct{ cipher.Block }

func (b *ctrStream) IVSize() int                       { return b.BlockSize() }
func (b *ctrStream) Encrypter(iv []byte) cipher.Stream { return cipher.NewCTR(b, iv) }
func (b *ctrStream) Decrypter(iv []byte) cipher.Stream { return b.Encrypter(iv) }

// AESCTR creates an AES cipher in CTR mode. The key length selects
// AES-128/192/256.
func AESCTR(key []byte) (Cipher, error) {
	blk, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &ctrStream{blk}, nil
}

// CFB mode
type cfbStream struct{ cipher.Block }

func (b *cfbStream) IVSize() int                       { return b.BlockSize() }
func (b *cfbStream) Encrypter(iv []byte) cipher.Stream { return cipher.NewCFBEncrypter(b, iv) }
func (b *cfbStream) Decrypter(iv []byte) cipher.Stream { return cipher.NewCFBDecrypter(b, iv) }

// AESCFB creates an AES cipher in CFB mode. The key length selects
// AES-128/192/256.
func AESCFB(key []byte) (Cipher, error) {
	blk, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cfbStream{blk}, nil
}

// BlowfishCFB creates the bf-cfb cipher with an 8-byte IV.
func BlowfishCFB(key []byte) (Cipher, error) {
	blk, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cfbStream{blk}, nil
}

// CamelliaCFB creates a Camellia cipher in CFB mode. The key length selects
// Camellia-128/192/256.
func CamelliaCFB(key []byte) (Cipher, error) {
	blk, err := camellia.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cfbStream{blk}, nil
}

// Cast5CFB creates the cast5-cfb cipher with a 16-byte key and an 8-byte IV.
func Cast5CFB(key []byte) (Cipher, error) {
	blk, err := cast5.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cfbStream{blk}, nil
}

// DESCFB creates the des-cfb cipher with an 8-byte key and an 8-byte IV.
func DESCFB(key []byte) (Cipher, error) {
	blk, err := des.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cfbStream{blk}, nil
}

// IDEACFB creates the idea-cfb cipher with a 16-byte key and an 8-byte IV.
func IDEACFB(key []byte) (Cipher, error) {
	blk, err := idea.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cfbStream{blk}, nil
}

// SerpentCFB creates the serpent-256-cfb cipher with a 32-byte key and a
// 16-byte IV.
func SerpentCFB(key []byte) (Cipher, error) {
	blk, err := serpent.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cfbStream{blk}, nil
}
