package stream

import (
	"bytes"
	"testing"
)

func TestSessionFragmentation(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	ciph, err := ChaCha20IETF(key)
	if err != nil {
		t.Fatal(err)
	}
	iv := make([]byte, ciph.IVSize())

	src := make([]byte, 300)
	for i := range src {
		src[i] = byte(i * 17)
	}

	one := NewSession(ciph.Encrypter(iv), iv)
	want, err := one.Update(src)
	if err != nil {
		t.Fatal(err)
	}

	frag := NewSession(ciph.Encrypter(iv), iv)
	var got []byte
	for i := 0; i < len(src); i += 64 {
		end := i + 64
		if end > len(src) {
			end = len(src)
		}
		out, err := frag.Update(src[i:end])
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != end-i {
			t.Fatalf("Update returned %d bytes, want %d", len(out), end-i)
		}
		got = append(got, out...)
	}

	if !bytes.Equal(got, want) {
		t.Error("fragmented session output differs from one-shot")
	}
}

func TestSessionIV(t *testing.T) {
	key := make([]byte, 16)
	ciph, err := AESCTR(key)
	if err != nil {
		t.Fatal(err)
	}
	iv := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	s := NewSession(ciph.Encrypter(iv), iv)
	if !bytes.Equal(s.IV(), iv) {
		t.Fatal("IV() differs from the construction IV")
	}

	iv[0] = 99 // the session must not alias the caller's slice
	if s.IV()[0] == 99 {
		t.Error("IV() aliases the caller's slice")
	}
}

func TestSessionClose(t *testing.T) {
	key := make([]byte, 16)
	ciph, err := RC4MD5(key)
	if err != nil {
		t.Fatal(err)
	}
	iv := make([]byte, ciph.IVSize())

	s := NewSession(ciph.Encrypter(iv), iv)
	if _, err := s.Update([]byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update([]byte("more")); err == nil {
		t.Error("Update after Close did not fail")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSessionEmptyUpdate(t *testing.T) {
	key := make([]byte, 32)
	ciph, err := Salsa20(key)
	if err != nil {
		t.Fatal(err)
	}
	iv := make([]byte, ciph.IVSize())

	s := NewSession(ciph.Encrypter(iv), iv)
	out, err := s.Update(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("empty update produced %d bytes", len(out))
	}

	// the keystream position must not have moved
	got, err := s.Update([]byte{0})
	if err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 1)
	ciph.Encrypter(iv).XORKeyStream(want, []byte{0})
	if !bytes.Equal(got, want) {
		t.Error("empty update advanced the keystream")
	}
}
