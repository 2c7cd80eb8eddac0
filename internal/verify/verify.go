// Package verify checks downloaded distribution archives before they are
// installed or cached: the digest a link declares and, when a keyring is
// configured, a detached OpenPGP signature next to the archive.
package verify

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/link"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/logging"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/record"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

// Method identifies how an archive was verified.
type Method string

const (
	MethodNone      Method = "none"
	MethodHash      Method = "hash"
	MethodSignature Method = "openpgp"
)

var (
	// ErrSignatureRequired indicates a missing signature while signatures
	// are mandatory.
	ErrSignatureRequired = errors.New("signature required but not available")

	// ErrNoKeyring indicates signature checking without a configured keyring.
	ErrNoKeyring = errors.New("no keyring configured")
)

// signatureSuffixes are tried in order next to the archive.
var signatureSuffixes = []string{".asc", ".sig"}

// ChecksumError reports an archive whose digest differs from the one its
// link declared.
type ChecksumError struct {
	Path      string
	Algorithm string
	Expected  string
	Actual    string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s:\nactual:   %s=%s\nexpected: %s=%s",
		e.Path, e.Algorithm, e.Actual, e.Algorithm, e.Expected)
}

// Unwrap returns wheelerr.ErrIntegrityViolation.
func (e *ChecksumError) Unwrap() error { return wheelerr.ErrIntegrityViolation }

// Result describes one verification step.
type Result struct {
	Method  Method
	Success bool
	// Detail names the digest or signing key that matched.
	Detail string
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithKeyring sets the OpenPGP keyring file (armored or binary).
func WithKeyring(path string) Option {
	return func(v *Verifier) { v.keyringPath = path }
}

// WithRequireSignatures makes a missing detached signature an error.
func WithRequireSignatures(required bool) Option {
	return func(v *Verifier) { v.requireSignatures = required }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(v *Verifier) { v.logger = logging.OrNoop(l) }
}

// Verifier handles cryptographic verification of archives.
type Verifier struct {
	keyringPath       string
	requireSignatures bool
	logger            logging.Logger
}

// New creates a Verifier.
func New(opts ...Option) *Verifier {
	v := &Verifier{logger: logging.Noop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs every applicable check on the archive at path.
func (v *Verifier) Verify(path string, l *link.Link) ([]*Result, error) {
	hashResult, err := v.VerifyHash(path, l)
	if err != nil {
		return nil, err
	}
	sigResult, err := v.VerifySignature(path)
	if err != nil {
		return nil, err
	}
	return []*Result{hashResult, sigResult}, nil
}

// VerifyHash compares the archive's digest with the one declared in the
// link fragment. Links without a digest pass with MethodNone.
func (v *Verifier) VerifyHash(path string, l *link.Link) (*Result, error) {
	if l == nil || l.HashName() == "" || l.Hash() == "" {
		return &Result{Method: MethodNone, Success: true}, nil
	}
	algo, expected := l.HashName(), l.Hash()

	actual, err := fileDigest(path, algo)
	if err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		v.logger.Warn("checksum mismatch", "path", path, "algorithm", algo)
		return nil, &ChecksumError{Path: path, Algorithm: algo, Expected: expected, Actual: actual}
	}

	v.logger.Debug("checksum verified", "path", path, "algorithm", algo)
	return &Result{Method: MethodHash, Success: true, Detail: algo + "=" + actual}, nil
}

// VerifySignature checks a detached signature at path+".asc" or
// path+".sig" against the keyring. Without a signature the archive passes
// with MethodNone unless signatures are required.
func (v *Verifier) VerifySignature(path string) (*Result, error) {
	sigPath := findSignature(path)
	if sigPath == "" {
		if v.requireSignatures {
			return nil, fmt.Errorf("%w: %s", ErrSignatureRequired, path)
		}
		return &Result{Method: MethodNone, Success: true}, nil
	}
	if v.keyringPath == "" {
		if v.requireSignatures {
			return nil, ErrNoKeyring
		}
		v.logger.Warn("signature present but no keyring configured", "signature", sigPath)
		return &Result{Method: MethodNone, Success: true}, nil
	}

	keyring, err := LoadKeyring(v.keyringPath)
	if err != nil {
		return nil, err
	}

	archiveFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	sigFile, err := os.Open(sigPath)
	if err != nil {
		return nil, fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	// Verify signature (try armored first)
	signer, err := openpgp.CheckArmoredDetachedSignature(keyring, archiveFile, sigFile, nil)
	if err != nil {
		// Try non-armored signature
		if _, seekErr := archiveFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("rewind archive: %w", seekErr)
		}
		if _, seekErr := sigFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("rewind signature: %w", seekErr)
		}
		signer, err = openpgp.CheckDetachedSignature(keyring, archiveFile, sigFile, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("verify signature %s: %w", sigPath, err)
	}

	detail := ""
	if signer != nil && signer.PrimaryKey != nil {
		detail = signer.PrimaryKey.KeyIdString()
	}
	v.logger.Debug("signature verified", "path", path, "key", detail)
	return &Result{Method: MethodSignature, Success: true, Detail: detail}, nil
}

// LoadKeyring reads an armored or binary OpenPGP keyring.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		if _, seekErr := keyringFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("rewind keyring: %w", seekErr)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

func findSignature(path string) string {
	for _, suffix := range signatureSuffixes {
		candidate := path + suffix
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// fileDigest returns the lowercase hex digest of the file under algo.
func fileDigest(path, algo string) (string, error) {
	h, err := record.NewHash(algo)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
