package verify

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"       //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/link"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

var (
	signerOnce sync.Once
	signer     *openpgp.Entity
	signerErr  error
)

// testSigner returns a key generated once per test binary.
func testSigner(t *testing.T) *openpgp.Entity {
	t.Helper()
	signerOnce.Do(func() {
		signer, signerErr = openpgp.NewEntity("wheelwright test", "", "test@example.com", nil)
	})
	if signerErr != nil {
		t.Fatalf("generate key: %v", signerErr)
	}
	return signer
}

func writeKeyring(t *testing.T, dir string, armored bool) string {
	t.Helper()
	e := testSigner(t)

	var buf bytes.Buffer
	if armored {
		w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := e.Serialize(w); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	} else if err := e.Serialize(&buf); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "keyring.gpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeArchive(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "demo-1.0.tar.gz")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sign(t *testing.T, archive, suffix string, armored bool) {
	t.Helper()
	data, err := os.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}

	var sig bytes.Buffer
	if armored {
		err = openpgp.ArmoredDetachSign(&sig, testSigner(t), bytes.NewReader(data), nil)
	} else {
		err = openpgp.DetachSign(&sig, testSigner(t), bytes.NewReader(data), nil)
	}
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := os.WriteFile(archive+suffix, sig.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func mustLink(t *testing.T, raw string) *link.Link {
	t.Helper()
	l, err := link.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestVerifyHash(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "archive bytes")
	v := New()

	t.Run("matching digest", func(t *testing.T) {
		result, err := v.VerifyHash(archive, mustLink(t, "https://x/demo-1.0.tar.gz#sha256="+sha256Hex("archive bytes")))
		if err != nil {
			t.Fatalf("VerifyHash() error = %v", err)
		}
		if result.Method != MethodHash || !result.Success {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("mismatched digest", func(t *testing.T) {
		_, err := v.VerifyHash(archive, mustLink(t, "https://x/demo-1.0.tar.gz#sha256="+sha256Hex("other bytes")))
		if !errors.Is(err, wheelerr.ErrIntegrityViolation) {
			t.Fatalf("VerifyHash() error = %v, want ErrIntegrityViolation", err)
		}
		var checksumErr *ChecksumError
		if !errors.As(err, &checksumErr) || checksumErr.Algorithm != "sha256" || checksumErr.Path != archive {
			t.Errorf("ChecksumError = %+v", checksumErr)
		}
	})

	t.Run("no digest declared", func(t *testing.T) {
		result, err := v.VerifyHash(archive, mustLink(t, "https://x/demo-1.0.tar.gz"))
		if err != nil {
			t.Fatal(err)
		}
		if result.Method != MethodNone {
			t.Errorf("Method = %v, want none", result.Method)
		}
	})

	t.Run("nil link", func(t *testing.T) {
		if _, err := v.VerifyHash(archive, nil); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("missing archive", func(t *testing.T) {
		_, err := v.VerifyHash(filepath.Join(dir, "missing.tar.gz"), mustLink(t, "https://x/a.tar.gz#md5=abc"))
		if err == nil {
			t.Error("expected error for missing archive")
		}
	})
}

func TestVerifySignature(t *testing.T) {
	tests := []struct {
		name    string
		armored bool
		keyring bool
		suffix  string
	}{
		{"armored signature armored keyring", true, true, ".asc"},
		{"binary signature binary keyring", false, false, ".sig"},
		{"binary signature armored keyring", false, true, ".sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := writeArchive(t, dir, "signed content")
			sign(t, archive, tt.suffix, tt.armored)
			v := New(WithKeyring(writeKeyring(t, dir, tt.keyring)))

			result, err := v.VerifySignature(archive)
			if err != nil {
				t.Fatalf("VerifySignature() error = %v", err)
			}
			if result.Method != MethodSignature || !result.Success {
				t.Errorf("result = %+v", result)
			}
			if result.Detail != testSigner(t).PrimaryKey.KeyIdString() {
				t.Errorf("Detail = %q", result.Detail)
			}
		})
	}
}

func TestVerifySignature_TamperedArchive(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "signed content")
	sign(t, archive, ".asc", true)
	if err := os.WriteFile(archive, []byte("tampered content"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := New(WithKeyring(writeKeyring(t, dir, true)))
	if _, err := v.VerifySignature(archive); err == nil {
		t.Error("expected verification failure for tampered archive")
	}
}

func TestVerifySignature_Missing(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "unsigned")

	result, err := New().VerifySignature(archive)
	if err != nil {
		t.Fatal(err)
	}
	if result.Method != MethodNone {
		t.Errorf("Method = %v, want none", result.Method)
	}

	_, err = New(WithRequireSignatures(true)).VerifySignature(archive)
	if !errors.Is(err, ErrSignatureRequired) {
		t.Errorf("error = %v, want ErrSignatureRequired", err)
	}
}

func TestVerifySignature_NoKeyring(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "signed content")
	sign(t, archive, ".asc", true)

	if _, err := New().VerifySignature(archive); err != nil {
		t.Errorf("optional signature without keyring should pass, got %v", err)
	}
	if _, err := New(WithRequireSignatures(true)).VerifySignature(archive); !errors.Is(err, ErrNoKeyring) {
		t.Errorf("error = %v, want ErrNoKeyring", err)
	}
}

func TestLoadKeyring_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadKeyring(filepath.Join(dir, "missing.gpg")); err == nil {
		t.Error("expected error for missing keyring")
	}

	garbage := filepath.Join(dir, "garbage.gpg")
	if err := os.WriteFile(garbage, []byte("not a keyring"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKeyring(garbage); err == nil {
		t.Error("expected error for garbage keyring")
	}
}

func TestVerify_RunsEveryCheck(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "signed content")
	sign(t, archive, ".asc", true)
	v := New(WithKeyring(writeKeyring(t, dir, true)), WithRequireSignatures(true))

	results, err := v.Verify(archive, mustLink(t, "https://x/demo-1.0.tar.gz#sha256="+sha256Hex("signed content")))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Method != MethodHash || results[1].Method != MethodSignature {
		t.Errorf("results = %+v, %+v", results[0], results[1])
	}
}
