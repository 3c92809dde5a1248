package aead

import (
	"bytes"
	"testing"
)

func testCipher(t *testing.T) Cipher {
	t.Helper()
	psk := make([]byte, 32)
	for i := range psk {
		psk[i] = byte(i)
	}
	c, err := Chacha20Poly1305(psk)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func testSalt(c Cipher) []byte {
	salt := make([]byte, c.SaltSize())
	for i := range salt {
		salt[i] = byte(i * 7)
	}
	return salt
}

func newTestPair(t *testing.T) (*Session, *Session) {
	t.Helper()
	c := testCipher(t)
	salt := testSalt(c)
	enc, err := NewEncryptSession(c, salt)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewDecryptSession(c, salt)
	if err != nil {
		t.Fatal(err)
	}
	return enc, dec
}

func TestSessionRoundTrip(t *testing.T) {
	enc, dec := newTestPair(t)

	msg := []byte("hello")
	ct, err := enc.Update(msg)
	if err != nil {
		t.Fatal(err)
	}
	// 2-byte length record and 5-byte payload record, each with a 16-byte tag
	if want := 2 + 16 + len(msg) + 16; len(ct) != want {
		t.Fatalf("sealed length = %d, want %d", len(ct), want)
	}

	pt, err := dec.Update(ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, msg) {
		t.Fatalf("roundtrip = %q, want %q", pt, msg)
	}
}

func TestSessionFragmentedInput(t *testing.T) {
	enc, dec := newTestPair(t)

	msg := make([]byte, 5000)
	for i := range msg {
		msg[i] = byte(i * 3)
	}
	ct, err := enc.Update(msg)
	if err != nil {
		t.Fatal(err)
	}

	// byte-at-a-time delivery must reproduce the plaintext exactly
	var got []byte
	for i := range ct {
		out, err := dec.Update(ct[i : i+1])
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, out...)
	}
	if !bytes.Equal(got, msg) {
		t.Error("fragmented decrypt differs from plaintext")
	}
}

func TestSessionChunking(t *testing.T) {
	enc, dec := newTestPair(t)

	// two records: payloadSizeMask and the remainder
	msg := make([]byte, payloadSizeMask+1000)
	for i := range msg {
		msg[i] = byte(i)
	}
	ct, err := enc.Update(msg)
	if err != nil {
		t.Fatal(err)
	}
	overhead := enc.Overhead()
	if want := 2 * (2 + overhead + overhead); len(ct) != len(msg)+want {
		t.Fatalf("sealed length = %d, want %d", len(ct), len(msg)+want)
	}

	pt, err := dec.Update(ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, msg) {
		t.Error("chunked roundtrip mismatch")
	}
}

func TestSessionEmptyUpdate(t *testing.T) {
	enc, dec := newTestPair(t)

	out, err := enc.Update(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("empty update sealed %d bytes", len(out))
	}

	// the empty call must not have consumed a nonce
	msg := []byte("after empty")
	ct, err := enc.Update(msg)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := dec.Update(ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, msg) {
		t.Error("decrypt failed after empty update")
	}
}

func TestSessionNonceAdvances(t *testing.T) {
	enc, _ := newTestPair(t)

	msg := []byte("same plaintext")
	ct1, err := enc.Update(msg)
	if err != nil {
		t.Fatal(err)
	}
	ct2, err := enc.Update(msg)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(ct1, ct2) {
		t.Error("two records of the same plaintext sealed identically")
	}

	// each short Update seals a length record and a payload record, so two
	// chunks leave the little-endian counter at 4
	want := make([]byte, len(enc.nonce))
	want[0] = 4
	if !bytes.Equal(enc.nonce, want) {
		t.Errorf("nonce = %v, want %v", enc.nonce, want)
	}
}

func TestSessionTamperedLength(t *testing.T) {
	enc, dec := newTestPair(t)

	ct, err := enc.Update([]byte("undisturbed payload"))
	if err != nil {
		t.Fatal(err)
	}
	ct[0] ^= 0x01

	if _, err := dec.Update(ct); err != ErrAuthFailed {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	// failure is sticky
	if _, err := dec.Update(nil); err != ErrAuthFailed {
		t.Fatalf("err after failure = %v, want ErrAuthFailed", err)
	}
}

func TestSessionTamperedPayload(t *testing.T) {
	enc, dec := newTestPair(t)

	ct, err := enc.Update([]byte("undisturbed payload"))
	if err != nil {
		t.Fatal(err)
	}
	ct[2+dec.Overhead()+3] ^= 0x80 // inside the payload record

	if _, err := dec.Update(ct); err != ErrAuthFailed {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
}

func TestSessionWrongSalt(t *testing.T) {
	c := testCipher(t)
	enc, err := NewEncryptSession(c, testSalt(c))
	if err != nil {
		t.Fatal(err)
	}

	other := testSalt(c)
	other[0] ^= 0xFF
	dec, err := NewDecryptSession(c, other)
	if err != nil {
		t.Fatal(err)
	}

	ct, err := enc.Update([]byte("keyed to a different salt"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dec.Update(ct); err != ErrAuthFailed {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
}

func TestSessionSaltSize(t *testing.T) {
	c := testCipher(t)
	if _, err := NewEncryptSession(c, make([]byte, c.SaltSize()-1)); err == nil {
		t.Error("expected salt size error")
	}

	salt := testSalt(c)
	ss, err := NewEncryptSession(c, salt)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ss.Salt(), salt) {
		t.Error("Salt() differs from the construction salt")
	}
	salt[0] = 99
	if ss.Salt()[0] == 99 {
		t.Error("Salt() aliases the caller's slice")
	}
}

func TestSessionClose(t *testing.T) {
	enc, dec := newTestPair(t)

	ct, err := enc.Update([]byte("before close"))
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Update([]byte("after close")); err == nil {
		t.Error("Update after Close did not fail")
	}

	// a failed session keeps its original error through Close
	ct[len(ct)-1] ^= 0x01
	if _, err := dec.Update(ct); err != ErrAuthFailed {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	dec.Close()
	if _, err := dec.Update(nil); err != ErrAuthFailed {
		t.Fatalf("err after Close = %v, want ErrAuthFailed", err)
	}
}

func TestCipherKeySize(t *testing.T) {
	if _, err := Chacha20Poly1305(make([]byte, 16)); err == nil {
		t.Error("expected key size error for chacha20-ietf-poly1305")
	}
	if _, err := AESGCM(make([]byte, 17)); err == nil {
		t.Error("expected key size error for aes-gcm")
	}
	for _, n := range []int{16, 24, 32} {
		if _, err := AESGCM(make([]byte, n)); err != nil {
			t.Errorf("AESGCM with %d-byte key: %v", n, err)
		}
	}
}

func TestSaltSizeBySaltLen(t *testing.T) {
	for _, tc := range []struct{ keyLen, saltLen int }{
		{16, 16},
		{24, 24},
		{32, 32},
	} {
		c, err := AESGCM(make([]byte, tc.keyLen))
		if err != nil {
			t.Fatal(err)
		}
		if c.SaltSize() != tc.saltLen {
			t.Errorf("key %d: SaltSize = %d, want %d", tc.keyLen, c.SaltSize(), tc.saltLen)
		}
	}
}

func TestIncrement(t *testing.T) {
	b := []byte{0, 0, 0}
	if increment(b) {
		t.Error("unexpected wrap")
	}
	if b[0] != 1 || b[1] != 0 || b[2] != 0 {
		t.Errorf("b = %v, want [1 0 0]", b)
	}

	b = []byte{0xFF, 0, 0}
	increment(b)
	if b[0] != 0 || b[1] != 1 {
		t.Errorf("b = %v, want [0 1 0]", b)
	}

	b = []byte{0xFF, 0xFF, 0xFF}
	if !increment(b) {
		t.Error("expected wrap")
	}
	if b[0] != 0 || b[1] != 0 || b[2] != 0 {
		t.Errorf("b = %v, want [0 0 0]", b)
	}
}
