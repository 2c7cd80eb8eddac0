// Package link models a reference to a distribution archive: its location,
// the digest it claims and the subdirectory inside it that holds the
// project.
package link

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	hashFragment   = regexp.MustCompile(`(sha1|sha224|sha384|sha256|sha512|md5)=([a-f0-9]+)`)
	subdirFragment = regexp.MustCompile(`[#&]subdirectory=([^&]*)`)
)

// archiveExtensions lists recognized archive suffixes, longest first.
var archiveExtensions = []string{".tar.gz", ".tar.bz2", ".tgz", ".tbz", ".tar", ".whl", ".zip", ".bz2"}

// Link is a parsed distribution URL.
type Link struct {
	raw *url.URL
	// text is the URL as given, kept so the fragment-free form is not
	// re-escaped.
	text string
}

// Parse parses rawURL. Plain filesystem paths are not accepted; use FromPath.
func Parse(rawURL string) (*Link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse link %q: %w", rawURL, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("parse link %q: missing scheme", rawURL)
	}
	return &Link{raw: u, text: rawURL}, nil
}

// FromPath returns a file:// link for a local archive.
func FromPath(p string) (*Link, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", p, err)
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return &Link{raw: u, text: u.String()}, nil
}

// String returns the full URL including any fragment.
func (l *Link) String() string {
	return l.text
}

// URLWithoutFragment returns the URL with its fragment removed.
func (l *Link) URLWithoutFragment() string {
	base, _, _ := strings.Cut(l.text, "#")
	return base
}

// Filename returns the unescaped last path segment.
func (l *Link) Filename() string {
	p := strings.TrimSuffix(l.raw.Path, "/")
	return path.Base(p)
}

// Path returns the local filesystem path for file:// links and "" otherwise.
func (l *Link) Path() string {
	if l.raw.Scheme != "file" {
		return ""
	}
	p := l.raw.Path
	// "/C:/x" on Windows
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// Ext returns the archive extension, e.g. ".tar.gz" or ".whl".
func (l *Link) Ext() string {
	return Ext(l.Filename())
}

// HashName returns the digest algorithm declared in the fragment, or "".
func (l *Link) HashName() string {
	m := hashFragment.FindStringSubmatch(l.raw.Fragment)
	if m == nil {
		return ""
	}
	return m[1]
}

// Hash returns the hex digest declared in the fragment, or "".
func (l *Link) Hash() string {
	m := hashFragment.FindStringSubmatch(l.raw.Fragment)
	if m == nil {
		return ""
	}
	return m[2]
}

// Subdirectory returns the subdirectory fragment, or "".
func (l *Link) Subdirectory() string {
	m := subdirFragment.FindStringSubmatch("#" + l.raw.Fragment)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsWheel reports whether the link points at a binary distribution.
func (l *Link) IsWheel() bool {
	return l.Ext() == ".whl"
}

// IsSdist reports whether the link points at a source archive.
func (l *Link) IsSdist() bool {
	switch l.Ext() {
	case ".tar.gz", ".tar.bz2", ".tgz", ".tbz", ".tar", ".zip", ".bz2":
		return true
	}
	return false
}

// Ext returns the archive extension of name, treating compressed tarballs
// as a single extension.
func Ext(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return strings.ToLower(path.Ext(name))
}
