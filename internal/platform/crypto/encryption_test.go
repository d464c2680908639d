package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func testKey() string {
	return hex.EncodeToString(bytes.Repeat([]byte{0xab}, 32))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New(testKey())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("expected service to be configured")
	}

	plain := "Muy buen trabajo en equipo"
	encrypted, err := svc.EncryptString(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(encrypted, []byte(plain)) {
		t.Fatal("ciphertext contains plaintext")
	}

	decrypted, err := svc.DecryptString(encrypted)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if decrypted != plain {
		t.Fatalf("round trip mismatch: got %q", decrypted)
	}
}

func TestUnconfiguredPassthrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Configured() {
		t.Fatal("expected unconfigured service")
	}

	out, err := svc.EncryptString("sin cifrar")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(out) != "sin cifrar" {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	svc, err := New(testKey())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	encrypted, err := svc.EncryptString("dato protegido")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	encrypted[len(encrypted)-1] ^= 0xff

	if _, err := svc.DecryptString(encrypted); err == nil {
		t.Fatal("expected tampered ciphertext to fail")
	}
}
