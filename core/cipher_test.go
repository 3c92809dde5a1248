package core

import (
	"bytes"
	"testing"

	"github.com/umbra-proxy/go-umbra/aead"
	"github.com/umbra-proxy/go-umbra/stream"
)

func TestNewRoundTripAllMethods(t *testing.T) {
	msg := make([]byte, 4096)
	for i := range msg {
		msg[i] = byte(i * 11)
	}

	for _, method := range SupportedMethods() {
		t.Run(method, func(t *testing.T) {
			ci, err := Lookup(method)
			if err != nil {
				t.Fatal(err)
			}
			key := Kdf("round trip password", ci.KeyLen)

			enc, err := New(method, key, nil, Encrypt)
			if err != nil {
				t.Fatal(err)
			}

			wantIVLen := ci.IVLen
			if ci.Family == FamilyAEAD {
				wantIVLen = ci.SaltLen
			}
			if len(enc.IV()) != wantIVLen {
				t.Fatalf("IV length = %d, want %d", len(enc.IV()), wantIVLen)
			}

			dec, err := New(method, key, enc.IV(), Decrypt)
			if err != nil {
				t.Fatal(err)
			}

			// encrypt in uneven fragments
			var ct []byte
			for i := 0; i < len(msg); i += 1000 {
				end := i + 1000
				if end > len(msg) {
					end = len(msg)
				}
				out, err := enc.Update(msg[i:end])
				if err != nil {
					t.Fatal(err)
				}
				ct = append(ct, out...)
			}

			pt, err := dec.Update(ct)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(pt, msg) {
				t.Error("roundtrip mismatch")
			}
		})
	}
}

func TestNewStreamOutputLength(t *testing.T) {
	key := Kdf("p", 16)
	enc, err := New("rc4-md5", key, nil, Encrypt)
	if err != nil {
		t.Fatal(err)
	}
	out, err := enc.Update(make([]byte, 123))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 123 {
		t.Errorf("stream output length = %d, want 123", len(out))
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New("no-such-method", nil, nil, Encrypt); err != ErrCipherNotSupported {
		t.Errorf("err = %v, want ErrCipherNotSupported", err)
	}

	if _, err := New("aes-256-gcm", make([]byte, 16), nil, Encrypt); err == nil {
		t.Error("expected key size error for aead method")
	} else if _, ok := err.(aead.KeySizeError); !ok {
		t.Errorf("err = %T, want aead.KeySizeError", err)
	}

	if _, err := New("salsa20", make([]byte, 16), nil, Encrypt); err == nil {
		t.Error("expected key size error for stream method")
	} else if _, ok := err.(stream.KeySizeError); !ok {
		t.Errorf("err = %T, want stream.KeySizeError", err)
	}

	// decrypt side never generates an IV
	if _, err := New("aes-128-cfb", make([]byte, 16), nil, Decrypt); err == nil {
		t.Error("expected iv size error for decrypt without iv")
	} else if _, ok := err.(IVSizeError); !ok {
		t.Errorf("err = %T, want IVSizeError", err)
	}

	if _, err := New("aes-128-cfb", make([]byte, 16), make([]byte, 7), Encrypt); err == nil {
		t.Error("expected iv size error for short iv")
	}
	if _, err := New("aes-256-gcm", make([]byte, 32), make([]byte, 12), Encrypt); err == nil {
		t.Error("expected iv size error for nonce-sized salt")
	}
}

func TestNewWithPassword(t *testing.T) {
	enc, err := NewWithPassword("chacha20-ietf-poly1305", "pw", nil, Encrypt)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := New("chacha20-ietf-poly1305", Kdf("pw", 32), enc.IV(), Decrypt)
	if err != nil {
		t.Fatal(err)
	}

	msg := []byte("password-derived key")
	ct, err := enc.Update(msg)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := dec.Update(ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, msg) {
		t.Error("roundtrip mismatch")
	}
}

func TestFreshIVPerSession(t *testing.T) {
	key := Kdf("p", 32)
	a, err := New("chacha20", key, nil, Encrypt)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New("chacha20", key, nil, Encrypt)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.IV(), b.IV()) {
		t.Error("two sessions share an IV")
	}
}

func TestDirectionString(t *testing.T) {
	if Encrypt.String() != "encrypt" || Decrypt.String() != "decrypt" {
		t.Error("unexpected Direction strings")
	}
}
