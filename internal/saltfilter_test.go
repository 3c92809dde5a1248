package internal_test

import (
	"testing"

	"github.com/umbra-proxy/go-umbra/internal"
)

func TestSaltFilter(t *testing.T) {
	salt := []byte("0123456789abcdef0123456789abcdef")
	if internal.TestSalt(salt) {
		t.Fatal("fresh salt reported as repeated")
	}
	internal.AddSalt(salt)
	if !internal.TestSalt(salt) {
		t.Fatal("added salt not reported as repeated")
	}
}
