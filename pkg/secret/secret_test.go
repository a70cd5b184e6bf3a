package secret

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenGeneratesKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "cm.key")

	c, err := Open(keyPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if c == nil {
		t.Fatal("Open returned nil cipher")
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("key file not created: %v", err)
	}
	if info.Size() != KeyLength {
		t.Errorf("expected key file of %d bytes, got %d", KeyLength, info.Size())
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected key permissions 0600, got %04o", perm)
	}
}

func TestOpenReusesExistingKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "cm.key")

	c1, err := Open(keyPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	enc, err := c1.Encrypt("hunter2")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Second Open must load the same key and decrypt the earlier value.
	c2, err := Open(keyPath)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	got, err := c2.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if got != "hunter2" {
		t.Errorf("expected hunter2, got %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cm.key"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for _, s := range []string{"a", "p@ss w0rd!", "日本語パスワード", "with\nnewline"} {
		enc, err := c.Encrypt(s)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", s, err)
		}
		if enc == s {
			t.Errorf("ciphertext equals plaintext for %q", s)
		}
		dec, err := c.Decrypt(enc)
		if err != nil {
			t.Fatalf("Decrypt(%q) failed: %v", s, err)
		}
		if dec != s {
			t.Errorf("round trip mismatch: got %q, want %q", dec, s)
		}
	}
}

func TestDecryptWrongKey(t *testing.T) {
	dir := t.TempDir()
	c1, err := Open(filepath.Join(dir, "a.key"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c2, err := Open(filepath.Join(dir, "b.key"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	enc, err := c1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := c2.Decrypt(enc); !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("expected ErrInvalidSecret, got %v", err)
	}
}

func TestDecryptMalformed(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cm.key"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for _, bad := range []string{"", "not base64 at all!!", "YWJj"} {
		if _, err := c.Decrypt(bad); !errors.Is(err, ErrInvalidSecret) {
			t.Errorf("Decrypt(%q): expected ErrInvalidSecret, got %v", bad, err)
		}
	}
}

func TestOpenRejectsCorruptKeyFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "cm.key")
	if err := os.WriteFile(keyPath, []byte("short"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Open(keyPath); err == nil {
		t.Error("expected error for truncated key file")
	}
}
