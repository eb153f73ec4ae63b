package keystore

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const testKEK = "6368616e676520746869732070617373776f726420746f206120736563726574" // 32 bytes

func TestSealOpenRoundTrip(t *testing.T) {
	ks, err := New(testKEK)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	secret := "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	ciphertext, nonce, err := ks.Seal(secret)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(ciphertext, []byte(secret)) {
		t.Fatal("ciphertext contains plaintext")
	}
	if len(nonce) == 0 {
		t.Fatal("expected non-empty nonce")
	}

	got, err := ks.Open(ciphertext, nonce)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != secret {
		t.Errorf("round trip mismatch: got %q", got)
	}
}

func TestOpenWithWrongKEK(t *testing.T) {
	ks1, err := New(testKEK)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ks2, err := New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ciphertext, nonce, err := ks1.Seal("secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := ks2.Open(ciphertext, nonce); !errors.Is(err, ErrSealedKey) {
		t.Errorf("expected ErrSealedKey, got %v", err)
	}
}

func TestOpenLegacyPlaintext(t *testing.T) {
	ks, err := New(testKEK)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := ks.Open([]byte("0xdeadbeef"), nil)
	if err != nil {
		t.Fatalf("Open legacy: %v", err)
	}
	if got != "0xdeadbeef" {
		t.Errorf("legacy passthrough mismatch: got %q", got)
	}
	if !IsLegacy(nil) || IsLegacy([]byte{1, 2, 3}) {
		t.Error("IsLegacy misclassifies nonces")
	}
}

func TestNewRejectsBadKEK(t *testing.T) {
	tests := []struct {
		name string
		kek  string
	}{
		{"empty", ""},
		{"not hex", "zz"},
		{"too short", "abcd"},
		{"too long", strings.Repeat("ab", 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.kek); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSealUsesFreshNonces(t *testing.T) {
	ks, err := New(testKEK)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, n1, err := ks.Seal("same input")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	_, n2, err := ks.Seal("same input")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(n1, n2) {
		t.Error("nonces repeated across Seal calls")
	}
}
