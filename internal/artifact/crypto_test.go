package artifact

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := []byte(`{"text":"hello","pageCount":3}`)

	enc, err := Encrypt(plain, "passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(enc, plain) {
		t.Fatal("ciphertext contains plaintext")
	}
	if !bytes.HasPrefix(enc, []byte(encMagic)) {
		t.Fatal("missing format magic")
	}

	dec, err := Decrypt(enc, "passphrase")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(dec, plain) {
		t.Fatalf("round trip mismatch: %q", dec)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	enc, err := Encrypt([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(enc, "wrong"); err == nil {
		t.Fatal("wrong passphrase must fail")
	}
}

func TestDecryptTamperedData(t *testing.T) {
	enc, err := Encrypt([]byte("secret"), "pass")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	enc[len(enc)-1] ^= 0xff
	if _, err := Decrypt(enc, "pass"); err == nil {
		t.Fatal("tampered ciphertext must fail")
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "p"); err == nil {
		t.Fatal("short input must fail")
	}
	long := []byte(strings.Repeat("A", 100))
	if _, err := Decrypt(long, "p"); err == nil {
		t.Fatal("wrong magic must fail")
	}
}
