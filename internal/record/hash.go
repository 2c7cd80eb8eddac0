package record

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// DefaultAlgorithm is the digest algorithm used for entries created by
// wheelwright itself.
const DefaultAlgorithm = "sha256"

// hashers maps RECORD algorithm names (hashlib spelling) to constructors.
var hashers = map[string]func() hash.Hash{
	"md5":      md5.New,
	"sha1":     sha1.New,
	"sha224":   sha256.New224,
	"sha256":   sha256.New,
	"sha384":   sha512.New384,
	"sha512":   sha512.New,
	"sha3_224": sha3.New224,
	"sha3_256": sha3.New256,
	"sha3_384": sha3.New384,
	"sha3_512": sha3.New512,
	"blake2b": func() hash.Hash {
		h, _ := blake2b.New512(nil) // only fails for oversized keys
		return h
	},
	"blake2s": func() hash.Hash {
		h, _ := blake2s.New256(nil)
		return h
	},
}

// Supported reports whether algo is a digest algorithm wheelwright can compute.
func Supported(algo string) bool {
	_, ok := hashers[algo]
	return ok
}

// digestSize returns the raw digest length for algo.
func digestSize(algo string) (int, bool) {
	newHash, ok := hashers[algo]
	if !ok {
		return 0, false
	}
	return newHash().Size(), true
}

// Digest returns the unpadded base64url digest of data under algo.
func Digest(algo string, data []byte) (string, error) {
	h, err := NewHash(algo)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// NewHash returns a fresh hash for algo, for callers that stream content.
func NewHash(algo string) (hash.Hash, error) {
	newHash, ok := hashers[algo]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm %q", algo)
	}
	return newHash(), nil
}
