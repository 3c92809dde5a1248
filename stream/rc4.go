package stream

import (
	"crypto/cipher"
	"crypto/md5"
)

// rc4Stream is RC4 implemented from scratch: the 256-byte permutation plus
// the two swap indices, stepped one keystream byte at a time. Index
// arithmetic wraps through uint8.
type rc4Stream struct {
	s    [256]byte
	i, j uint8
}

func newRC4(key []byte) *rc4Stream {
	r := new(rc4Stream)
	for i := range r.s {
		r.s[i] = byte(i)
	}
	var j uint8
	for i := 0; i < 256; i++ {
		j += r.s[i] + key[i%len(key)]
		r.s[i], r.s[j] = r.s[j], r.s[i]
	}
	return r
}

func (r *rc4Stream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("stream: output smaller than input")
	}
	i, j := r.i, r.j
	for k, v := range src {
		i++
		j += r.s[i]
		r.s[i], r.s[j] = r.s[j], r.s[i]
		dst[k] = v ^ r.s[r.s[i]+r.s[j]]
	}
	r.i, r.j = i, j
}

func (r *rc4Stream) scrub() {
	r.s = [256]byte{}
	r.i, r.j = 0, 0
}

// rc4-md5 keys the RC4 state per session with MD5(key || iv), so the
// keystream differs for every IV even though RC4 itself takes no IV.
type rc4md5key []byte

func (k rc4md5key) IVSize() int { return 16 }
func (k rc4md5key) Encrypter(iv []byte) cipher.Stream {
	h := md5.New()
	h.Write(k)
	h.Write(iv)
	return newRC4(h.Sum(nil))
}
func (k rc4md5key) Decrypter(iv []byte) cipher.Stream { return k.Encrypter(iv) }

// RC4MD5 creates the rc4-md5 cipher with a 16-byte key.
func RC4MD5(key []byte) (Cipher, error) {
	if len(key) != 16 {
		return nil, KeySizeError(16)
	}
	return rc4md5key(key), nil
}
