package core

import (
	"encoding/binary"
	"errors"
	"runtime"

	"github.com/umbra-proxy/go-umbra/aead"
	"github.com/umbra-proxy/go-umbra/stream"
)

// ErrAuthFailed means a one-time-auth tag did not verify.
var ErrAuthFailed = errors.New("one-time auth failed")

// errNoDecryptIV means a decrypt-side operation ran before any peer IV
// arrived.
var errNoDecryptIV = errors.New("decrypt cipher not initialized")

// Encryptor owns both directions of one connection. The encrypt cipher is
// created lazily with a fresh random IV, which prefixes the first Encrypt
// output; the decrypt cipher binds to the IV that arrives at the head of the
// peer's stream, however fragmented. One Encryptor per connection; callers
// serialize calls per direction.
type Encryptor struct {
	info CipherInfo
	key  []byte

	enc    Cipher
	ivSent bool

	dec   Cipher
	ivBuf []byte // peer IV bytes collected so far

	// one-time-auth state
	encChunkID uint32
	decChunkID uint32
	chunkBuf   []byte // incomplete auth chunk from the previous call
}

// NewEncryptor derives the master key for method from password.
func NewEncryptor(method, password string) (*Encryptor, error) {
	ci, err := Lookup(method)
	if err != nil {
		return nil, err
	}
	return &Encryptor{info: ci, key: Kdf(password, ci.KeyLen)}, nil
}

// NewEncryptorKey uses a pre-derived master key.
func NewEncryptorKey(method string, key []byte) (*Encryptor, error) {
	ci, err := Lookup(method)
	if err != nil {
		return nil, err
	}
	if len(key) != ci.KeyLen {
		if ci.Family == FamilyAEAD {
			return nil, aead.KeySizeError(ci.KeyLen)
		}
		return nil, stream.KeySizeError(ci.KeyLen)
	}
	kc := make([]byte, len(key))
	copy(kc, key)
	return &Encryptor{info: ci, key: kc}, nil
}

func (e *Encryptor) initEnc() error {
	if e.enc != nil {
		return nil
	}
	enc, err := New(e.info.Name, e.key, nil, Encrypt)
	if err != nil {
		return err
	}
	e.enc = enc
	return nil
}

// Encrypt transforms outgoing bytes. The first call's output is prefixed
// with the session IV.
func (e *Encryptor) Encrypt(p []byte) ([]byte, error) {
	if err := e.initEnc(); err != nil {
		return nil, err
	}
	out, err := e.enc.Update(p)
	if err != nil {
		return nil, err
	}
	if !e.ivSent {
		e.ivSent = true
		iv := e.enc.IV()
		res := make([]byte, 0, len(iv)+len(out))
		res = append(res, iv...)
		return append(res, out...), nil
	}
	return out, nil
}

// Decrypt transforms incoming bytes. The peer's IV is consumed from the
// head of the stream; until it is complete Decrypt returns nothing.
func (e *Encryptor) Decrypt(p []byte) ([]byte, error) {
	if e.dec == nil {
		need := e.info.IVLen
		if e.info.Family == FamilyAEAD {
			need = e.info.SaltLen
		}
		e.ivBuf = append(e.ivBuf, p...)
		if len(e.ivBuf) < need {
			return nil, nil
		}
		dec, err := New(e.info.Name, e.key, e.ivBuf[:need], Decrypt)
		if err != nil {
			return nil, err
		}
		e.dec = dec
		rest := e.ivBuf[need:]
		e.ivBuf = nil
		return e.dec.Update(rest)
	}
	return e.dec.Update(p)
}

// EncryptAll encrypts a standalone datagram with its own fresh IV or salt.
func (e *Encryptor) EncryptAll(p []byte) ([]byte, error) {
	if e.info.Family == FamilyAEAD {
		ciph, err := e.info.newAEAD(e.key)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, e.info.SaltLen+len(p)+e.info.TagLen)
		return aead.Pack(buf, p, ciph)
	}
	ciph, err := e.info.newStream(e.key)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, e.info.IVLen+len(p))
	return stream.Pack(buf, p, ciph)
}

// DecryptAll decrypts a standalone datagram carrying its own IV or salt.
func (e *Encryptor) DecryptAll(p []byte) ([]byte, error) {
	if e.info.Family == FamilyAEAD {
		ciph, err := e.info.newAEAD(e.key)
		if err != nil {
			return nil, err
		}
		return aead.Unpack(make([]byte, len(p)), p, ciph)
	}
	ciph, err := e.info.newStream(e.key)
	if err != nil {
		return nil, err
	}
	return stream.Unpack(make([]byte, len(p)), p, ciph)
}

// IV returns the encrypt-side session IV, creating the encrypt cipher if
// needed.
func (e *Encryptor) IV() ([]byte, error) {
	if err := e.initEnc(); err != nil {
		return nil, err
	}
	return e.enc.IV(), nil
}

// Info returns the method description.
func (e *Encryptor) Info() CipherInfo { return e.info }

// AddHeaderAuth appends the one-time-auth header tag, keyed by IV || key,
// to header.
func (e *Encryptor) AddHeaderAuth(header []byte) ([]byte, error) {
	if err := e.initEnc(); err != nil {
		return nil, err
	}
	iv := e.enc.IV()
	k := make([]byte, 0, len(iv)+len(e.key))
	k = append(k, iv...)
	k = append(k, e.key...)
	return append(header, HmacSha1(k, header)...), nil
}

// VerifyHeaderAuth checks the tag following the first headerLen bytes of
// data, keyed by the decrypt-side IV || key.
func (e *Encryptor) VerifyHeaderAuth(data []byte, headerLen int) (bool, error) {
	if e.dec == nil {
		return false, errNoDecryptIV
	}
	if len(data) < headerLen+AuthLen {
		return false, nil
	}
	iv := e.dec.IV()
	k := make([]byte, 0, len(iv)+len(e.key))
	k = append(k, iv...)
	k = append(k, e.key...)
	return VerifyHmacSha1(k, data[:headerLen], data[headerLen:headerLen+AuthLen]), nil
}

// AddChunkAuth frames data as length || tag || data. The tag is keyed by
// IV || chunk counter, big-endian, incremented per chunk.
func (e *Encryptor) AddChunkAuth(data []byte) ([]byte, error) {
	if err := e.initEnc(); err != nil {
		return nil, err
	}
	k := chunkKey(e.enc.IV(), e.encChunkID)
	e.encChunkID++
	tag := HmacSha1(k, data)
	out := make([]byte, 0, 2+AuthLen+len(data))
	out = append(out, byte(len(data)>>8), byte(len(data)))
	out = append(out, tag...)
	return append(out, data...), nil
}

// VerifyExtractChunkAuth parses length || tag || data chunks, verifies each
// tag against the decrypt-side chunk counter and returns the concatenated
// payloads. Incomplete trailing chunks are buffered for the next call.
func (e *Encryptor) VerifyExtractChunkAuth(data []byte) ([]byte, error) {
	if e.dec == nil {
		return nil, errNoDecryptIV
	}
	e.chunkBuf = append(e.chunkBuf, data...)
	var out []byte
	for {
		if len(e.chunkBuf) < 2+AuthLen {
			break
		}
		size := int(e.chunkBuf[0])<<8 | int(e.chunkBuf[1])
		if len(e.chunkBuf) < 2+AuthLen+size {
			break
		}
		tag := e.chunkBuf[2 : 2+AuthLen]
		payload := e.chunkBuf[2+AuthLen : 2+AuthLen+size]
		if !VerifyHmacSha1(chunkKey(e.dec.IV(), e.decChunkID), payload, tag) {
			return nil, ErrAuthFailed
		}
		e.decChunkID++
		out = append(out, payload...)
		e.chunkBuf = e.chunkBuf[2+AuthLen+size:]
	}
	if len(e.chunkBuf) == 0 {
		e.chunkBuf = nil
	}
	return out, nil
}

func chunkKey(iv []byte, id uint32) []byte {
	k := make([]byte, len(iv)+4)
	copy(k, iv)
	binary.BigEndian.PutUint32(k[len(iv):], id)
	return k
}

// Close zeroes the master key, closes both directions and scrubs buffered
// data. The Encryptor must not be used afterwards.
func (e *Encryptor) Close() error {
	zeroBytes(e.key)
	zeroBytes(e.chunkBuf)
	e.chunkBuf = nil
	e.ivBuf = nil
	if e.enc != nil {
		e.enc.Close()
	}
	if e.dec != nil {
		e.dec.Close()
	}
	return nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
