package core

import (
	"errors"
	"sort"
	"strings"

	"github.com/umbra-proxy/go-umbra/aead"
	"github.com/umbra-proxy/go-umbra/stream"
)

// ErrCipherNotSupported occurs when a cipher is not supported (likely because of security concerns).
var ErrCipherNotSupported = errors.New("cipher not supported")

// Family tags which protocol family a method belongs to.
type Family int

const (
	FamilyStream Family = iota
	FamilyAEAD
)

func (f Family) String() string {
	if f == FamilyAEAD {
		return "aead"
	}
	return "stream"
}

// CipherInfo describes one method: the protocol-fixed key, IV, salt and tag
// lengths. Entries are immutable and shared by every session in the process.
// For AEAD methods IVLen is the nonce length and SaltLen sizes the
// per-session salt; for stream methods SaltLen and TagLen are zero.
type CipherInfo struct {
	Name    string
	KeyLen  int
	IVLen   int
	Family  Family
	SaltLen int
	TagLen  int

	newStream func(key []byte) (stream.Cipher, error)
	newAEAD   func(key []byte) (aead.Cipher, error)
}

// List of methods: canonical lowercase name to protocol constants and
// constructor.
var ciphers = map[string]CipherInfo{
	"aes-128-cfb":      {KeyLen: 16, IVLen: 16, newStream: stream.AESCFB},
	"aes-192-cfb":      {KeyLen: 24, IVLen: 16, newStream: stream.AESCFB},
	"aes-256-cfb":      {KeyLen: 32, IVLen: 16, newStream: stream.AESCFB},
	"aes-128-ctr":      {KeyLen: 16, IVLen: 16, newStream: stream.AESCTR},
	"aes-192-ctr":      {KeyLen: 24, IVLen: 16, newStream: stream.AESCTR},
	"aes-256-ctr":      {KeyLen: 32, IVLen: 16, newStream: stream.AESCTR},
	"bf-cfb":           {KeyLen: 16, IVLen: 8, newStream: stream.BlowfishCFB},
	"camellia-128-cfb": {KeyLen: 16, IVLen: 16, newStream: stream.CamelliaCFB},
	"camellia-192-cfb": {KeyLen: 24, IVLen: 16, newStream: stream.CamelliaCFB},
	"camellia-256-cfb": {KeyLen: 32, IVLen: 16, newStream: stream.CamelliaCFB},
	"cast5-cfb":        {KeyLen: 16, IVLen: 8, newStream: stream.Cast5CFB},
	"chacha20":         {KeyLen: 32, IVLen: 8, newStream: stream.ChaCha20},
	"chacha20-ietf":    {KeyLen: 32, IVLen: 12, newStream: stream.ChaCha20IETF},
	"des-cfb":          {KeyLen: 8, IVLen: 8, newStream: stream.DESCFB},
	"idea-cfb":         {KeyLen: 16, IVLen: 8, newStream: stream.IDEACFB},
	"rc4-md5":          {KeyLen: 16, IVLen: 16, newStream: stream.RC4MD5},
	"salsa20":          {KeyLen: 32, IVLen: 8, newStream: stream.Salsa20},
	"serpent-256-cfb":  {KeyLen: 32, IVLen: 16, newStream: stream.SerpentCFB},

	"aes-128-gcm":            {KeyLen: 16, IVLen: 12, Family: FamilyAEAD, SaltLen: 16, TagLen: 16, newAEAD: aead.AESGCM},
	"aes-192-gcm":            {KeyLen: 24, IVLen: 12, Family: FamilyAEAD, SaltLen: 24, TagLen: 16, newAEAD: aead.AESGCM},
	"aes-256-gcm":            {KeyLen: 32, IVLen: 12, Family: FamilyAEAD, SaltLen: 32, TagLen: 16, newAEAD: aead.AESGCM},
	"chacha20-ietf-poly1305": {KeyLen: 32, IVLen: 12, Family: FamilyAEAD, SaltLen: 32, TagLen: 16, newAEAD: aead.Chacha20Poly1305},
}

// Lookup returns the CipherInfo for a method. Names are matched
// case-insensitively.
func Lookup(method string) (CipherInfo, error) {
	name := strings.ToLower(method)
	ci, ok := ciphers[name]
	if !ok {
		return CipherInfo{}, ErrCipherNotSupported
	}
	ci.Name = name
	return ci, nil
}

// IsSupported reports whether method is in the registry.
func IsSupported(method string) bool {
	_, ok := ciphers[strings.ToLower(method)]
	return ok
}

// SupportedMethods returns all method names sorted alphabetically.
func SupportedMethods() []string {
	var l []string
	for k := range ciphers {
		l = append(l, k)
	}
	sort.Strings(l)
	return l
}
