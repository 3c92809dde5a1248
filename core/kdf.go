package core

import "crypto/md5"

// Kdf is the key-derivation function from the original protocol: an MD5
// digest chain over the password (EVP_BytesToKey with MD5 and no salt),
// truncated to keyLen. It is deterministic and deliberately cheap; changing
// it would break every deployed peer.
func Kdf(password string, keyLen int) []byte {
	if keyLen <= 0 {
		panic("core: invalid key length")
	}
	var b, prev []byte
	h := md5.New()
	for len(b) < keyLen {
		h.Write(prev)
		h.Write([]byte(password))
		b = h.Sum(b)
		prev = b[len(b)-h.Size():]
		h.Reset()
	}
	return b[:keyLen]
}

// Md5Sum returns the MD5 digest of d.
func Md5Sum(d []byte) []byte {
	h := md5.Sum(d)
	return h[:]
}
