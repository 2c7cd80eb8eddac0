// Package chef maps distribution links to archives that were already
// fetched or built for a given runtime, and picks the most specific
// cached archive that runtime can install.
//
// Every lookup re-reads the filesystem; nothing about the cache contents
// is kept in memory. Chef never writes to the cache.
package chef

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/link"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/logging"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheel"
)

// archiveTypes are searched in this order; discovery order breaks ties.
var archiveTypes = []string{"whl", "tar.gz", "tar.bz2", "bz2", "zip"}

// sdistScore ranks source archives below every installable wheel.
const sdistScore = math.MaxInt

// Runtime describes the interpreter archives are selected for.
type Runtime interface {
	// InterpreterName is the implementation name, e.g. "cpython".
	InterpreterName() string
	// InterpreterVersion is the full version, e.g. "3.12.4".
	InterpreterVersion() string
	// SupportedTags lists installable tags from most to least specific.
	SupportedTags() []wheel.Tag
}

// Option configures a Chef.
type Option func(*Chef)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Chef) { c.logger = logging.OrNoop(l) }
}

// Chef looks up cached artifacts under <cache root>/artifacts.
type Chef struct {
	cacheDir string
	runtime  Runtime
	logger   logging.Logger
}

// New creates a Chef rooted at cacheRoot for runtime rt.
func New(cacheRoot string, rt Runtime, opts ...Option) *Chef {
	c := &Chef{
		cacheDir: filepath.Join(cacheRoot, "artifacts"),
		runtime:  rt,
		logger:   logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ArtifactsDir returns the root of the artifact cache.
func (c *Chef) ArtifactsDir() string { return c.cacheDir }

// IsWheel reports whether the archive at path is a binary distribution.
func (c *Chef) IsWheel(path string) bool {
	return link.Ext(path) == ".whl"
}

// ShouldPrepare reports whether the archive needs building before install.
func (c *Chef) ShouldPrepare(path string) bool {
	return !c.IsWheel(path)
}

// CacheKey returns the lowercase hex cache key for l under the runtime.
func (c *Chef) CacheKey(l *link.Link) string {
	parts := map[string]string{"url": l.URLWithoutFragment()}

	if l.HashName() != "" && l.Hash() != "" {
		parts[l.HashName()] = l.Hash()
	}
	if sub := l.Subdirectory(); sub != "" {
		parts["subdirectory"] = sub
	}
	parts["interpreter_name"] = c.runtime.InterpreterName()
	parts["interpreter_version"] = shortVersion(c.runtime.InterpreterVersion())

	sum := sha256.Sum256(canonicalJSON(parts))
	return hex.EncodeToString(sum[:])
}

// CacheDirFor returns the directory holding cached archives for l.
func (c *Chef) CacheDirFor(l *link.Link) string {
	key := c.CacheKey(l)
	return filepath.Join(c.cacheDir, key[:2], key[2:4], key[4:6], key[6:])
}

// CachedArchives lists archives present in the cache directory for l, in
// discovery order. A missing directory yields no archives.
func (c *Chef) CachedArchives(l *link.Link) ([]*link.Link, error) {
	dir := c.CacheDirFor(l)

	seen := make(map[string]bool)
	var archives []*link.Link
	for _, ext := range archiveTypes {
		matches, err := filepath.Glob(filepath.Join(dir, "*."+ext))
		if err != nil {
			return nil, fmt.Errorf("list cached archives: %w", err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			archive, err := link.FromPath(m)
			if err != nil {
				return nil, err
			}
			archives = append(archives, archive)
		}
	}
	return archives, nil
}

// BestCandidate returns the most specific cached archive the runtime can
// install, or l itself when nothing suitable is cached. Wheel links are
// returned unchanged without consulting the cache.
func (c *Chef) BestCandidate(l *link.Link) (*link.Link, error) {
	if l.IsWheel() {
		return l, nil
	}

	archives, err := c.CachedArchives(l)
	if err != nil {
		return nil, err
	}
	if len(archives) == 0 {
		c.logger.Debug("cache miss", "url", l.URLWithoutFragment())
		return l, nil
	}

	supported := c.runtime.SupportedTags()
	var best *link.Link
	bestScore := 0
	for _, archive := range archives {
		score, ok := candidateScore(archive, supported)
		if !ok {
			continue
		}
		if best == nil || score < bestScore {
			best, bestScore = archive, score
		}
	}

	if best == nil {
		c.logger.Debug("no compatible cached archive", "url", l.URLWithoutFragment(), "candidates", len(archives))
		return l, nil
	}
	c.logger.Debug("cache hit", "url", l.URLWithoutFragment(), "archive", best.Filename())
	return best, nil
}

// candidateScore ranks an archive; lower is better. Wheels that cannot be
// installed, or whose names do not parse, are not candidates at all.
func candidateScore(archive *link.Link, supported []wheel.Tag) (int, bool) {
	if !archive.IsWheel() {
		return sdistScore, true
	}
	f, err := wheel.ParseFilename(archive.Filename())
	if err != nil {
		return 0, false
	}
	idx := f.MinimumSupportedIndex(supported)
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// shortVersion keeps the first two version components, joined without a
// separator: "3.9.1" becomes "39".
func shortVersion(v string) string {
	parts := strings.Split(v, ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "")
}

// canonicalJSON encodes parts with sorted keys, no insignificant
// whitespace and every non-ASCII character escaped as \uXXXX.
func canonicalJSON(parts map[string]string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// A map of strings always encodes.
	_ = enc.Encode(parts)

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return asciiEscape(out)
}

func asciiEscape(data []byte) []byte {
	var out bytes.Buffer
	for _, r := range string(data) {
		if r < 0x80 {
			out.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&out, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&out, `\u%04x`, r)
	}
	return out.Bytes()
}
