package aead

import (
	"bytes"
	"io"
	"testing"
)

func TestPackUnpack(t *testing.T) {
	c := testCipher(t)
	payload := []byte("independent datagram")

	pkt := make([]byte, c.SaltSize()+len(payload)+maxTagSize)
	pkt, err := Pack(pkt, payload, c)
	if err != nil {
		t.Fatal(err)
	}
	if want := c.SaltSize() + len(payload) + 16; len(pkt) != want {
		t.Fatalf("packet length = %d, want %d", len(pkt), want)
	}

	out := make([]byte, len(pkt))
	got, err := Unpack(out, pkt, c)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("unpacked payload differs")
	}
}

func TestPackUniqueSalts(t *testing.T) {
	c := testCipher(t)
	payload := []byte("same payload")

	a := make([]byte, c.SaltSize()+len(payload)+maxTagSize)
	b := make([]byte, c.SaltSize()+len(payload)+maxTagSize)
	if _, err := Pack(a, payload, c); err != nil {
		t.Fatal(err)
	}
	if _, err := Pack(b, payload, c); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a[:c.SaltSize()], b[:c.SaltSize()]) {
		t.Error("two packets share a salt")
	}
}

func TestUnpackRejects(t *testing.T) {
	c := testCipher(t)
	payload := []byte("authenticated datagram")

	pkt := make([]byte, c.SaltSize()+len(payload)+maxTagSize)
	pkt, err := Pack(pkt, payload, c)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		mangle func([]byte) []byte
		want   error
	}{
		{"flipped salt", func(p []byte) []byte { p[0] ^= 1; return p }, ErrAuthFailed},
		{"flipped body", func(p []byte) []byte { p[c.SaltSize()+2] ^= 1; return p }, ErrAuthFailed},
		{"flipped tag", func(p []byte) []byte { p[len(p)-1] ^= 1; return p }, ErrAuthFailed},
		{"truncated to salt", func(p []byte) []byte { return p[:c.SaltSize()+1] }, ErrShortPacket},
		{"empty", func(p []byte) []byte { return nil }, ErrShortPacket},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mangled := tc.mangle(append([]byte(nil), pkt...))
			if _, err := Unpack(make([]byte, len(pkt)), mangled, c); err != tc.want {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPackShortBuffer(t *testing.T) {
	c := testCipher(t)
	payload := []byte("does not fit")

	if _, err := Pack(make([]byte, c.SaltSize()+len(payload)), payload, c); err != io.ErrShortBuffer {
		t.Errorf("err = %v, want io.ErrShortBuffer", err)
	}
	if _, err := Pack(make([]byte, 4), payload, c); err != io.ErrShortBuffer {
		t.Errorf("err = %v, want io.ErrShortBuffer", err)
	}
}
