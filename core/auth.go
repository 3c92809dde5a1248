package core

import (
	"crypto/hmac"
	"crypto/sha1"
)

// AuthLen is the length of a one-time-auth tag.
const AuthLen = 10

// HmacSha1 computes the one-time-auth tag for msg: HMAC-SHA1 truncated to
// AuthLen bytes. The construction is frozen for compatibility with deployed
// peers; do not extend it.
func HmacSha1(key, msg []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(msg)
	return mac.Sum(nil)[:AuthLen]
}

// VerifyHmacSha1 reports whether tag matches msg, in constant time.
func VerifyHmacSha1(key, msg, tag []byte) bool {
	return hmac.Equal(HmacSha1(key, msg), tag)
}
