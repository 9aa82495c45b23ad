package vault

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty secret")
	}

	v, err := New("test-secret")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if v == nil {
		t.Fatal("expected vault")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	v, err := New("test-secret")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"short", "hunter2"},
		{"long", strings.Repeat("certificate-bytes-", 200)},
		{"unicode", "pässwörd§"},
		{"base64 payload", base64.StdEncoding.EncodeToString([]byte{0x30, 0x82, 0x01, 0x00})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted := v.Encrypt(tt.plaintext)
			if encrypted == "" {
				t.Fatal("Encrypt() returned empty")
			}
			if encrypted == tt.plaintext {
				t.Fatal("ciphertext equals plaintext")
			}

			if got := v.Decrypt(encrypted); got != tt.plaintext {
				t.Errorf("Decrypt() = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncryptEmpty(t *testing.T) {
	v, _ := New("test-secret")

	if got := v.Encrypt(""); got != "" {
		t.Errorf("Encrypt(\"\") = %q, want empty", got)
	}
	if got := v.Decrypt(""); got != "" {
		t.Errorf("Decrypt(\"\") = %q, want empty", got)
	}
}

func TestEncryptIsNondeterministic(t *testing.T) {
	v, _ := New("test-secret")

	a := v.Encrypt("secret")
	b := v.Encrypt("secret")
	if a == b {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestDecryptGarbage(t *testing.T) {
	v, _ := New("test-secret")

	tests := []struct {
		name string
		in   string
	}{
		{"not base64", "not-base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"random bytes", base64.StdEncoding.EncodeToString(make([]byte, 64))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Decrypt(tt.in); got != "" {
				t.Errorf("Decrypt(%q) = %q, want empty", tt.in, got)
			}
		})
	}
}

func TestDecryptTampered(t *testing.T) {
	v, _ := New("test-secret")

	encrypted := v.Encrypt("secret")
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		t.Fatalf("stored form is not base64: %v", err)
	}

	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	if got := v.Decrypt(tampered); got != "" {
		t.Errorf("Decrypt(tampered) = %q, want empty", got)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	v1, _ := New("secret-one")
	v2, _ := New("secret-two")

	encrypted := v1.Encrypt("secret")
	if got := v2.Decrypt(encrypted); got != "" {
		t.Errorf("Decrypt with wrong key = %q, want empty", got)
	}
}
