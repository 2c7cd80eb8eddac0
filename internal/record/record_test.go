package record

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

func sha256Digest(data string) string {
	sum := sha256.Sum256([]byte(data))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestFromContent(t *testing.T) {
	content := "demo/__init__.py,sha256=" + sha256Digest("print(1)\n") + ",9\n" +
		"demo-1.0.dist-info/RECORD,,\n" +
		"\n" +
		`"demo/odd,name.py",,` + "\n"

	set, err := FromContent(content)
	if err != nil {
		t.Fatalf("FromContent() error = %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", set.Len())
	}

	e, ok := set.Entry("demo/__init__.py")
	if !ok {
		t.Fatal("entry for demo/__init__.py missing")
	}
	if e.Algorithm != "sha256" || e.Digest != sha256Digest("print(1)\n") {
		t.Errorf("hash = %s, want sha256 digest", e.HashValue())
	}
	if !e.HasSize || e.Size != 9 {
		t.Errorf("size = %d (known %v), want 9", e.Size, e.HasSize)
	}

	self, ok := set.Entry("demo-1.0.dist-info/RECORD")
	if !ok {
		t.Fatal("RECORD self entry missing")
	}
	if self.Algorithm != "" || self.HasSize {
		t.Errorf("self entry should be unhashed and unsized, got %v", self)
	}

	if _, ok := set.Entry("demo/odd,name.py"); !ok {
		t.Error("quoted path with delimiter should parse")
	}
}

func TestFromContent_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"too_few_columns", "demo/a.py,sha256=abc\n"},
		{"too_many_columns", "demo/a.py,,1,extra\n"},
		{"hash_without_separator", "demo/a.py,sha256,1\n"},
		{"empty_digest", "demo/a.py,sha256=,1\n"},
		{"non_canonical_digest", "demo/a.py,sha256=" + sha256Digest("x") + "==,1\n"},
		{"truncated_digest", "demo/a.py,sha256=AAAA,1\n"},
		{"bad_size", "demo/a.py,,ten\n"},
		{"negative_size", "demo/a.py,,-1\n"},
		{"empty_path", ",,\n"},
		{"bad_quote", "\"demo/a.py,,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromContent(tt.content)
			if !errors.Is(err, wheelerr.ErrMalformedManifest) {
				t.Errorf("FromContent() error = %v, want ErrMalformedManifest", err)
			}
		})
	}
}

func TestFromContent_ReportsLine(t *testing.T) {
	content := "a.py,,1\nb.py,,2\nc.py,,\n,\n"
	_, err := FromContent(content)

	var me *wheelerr.ManifestError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v, want *ManifestError", err)
	}
	if me.Line != 4 {
		t.Errorf("Line = %d, want 4", me.Line)
	}
}

func TestFromContent_UnknownAlgorithmParsesButNeverVerifies(t *testing.T) {
	set, err := FromContent("a.py,whirlpool=abc,1\n")
	if err != nil {
		t.Fatalf("FromContent() error = %v", err)
	}
	e, _ := set.Entry("a.py")
	if e.Check([]byte("anything")) {
		t.Error("unsupported algorithm must not verify")
	}
}

func TestRoundTrip(t *testing.T) {
	a, err := EntryFor("demo/a.py", "sha256", []byte("a = 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := EntryFor("demo/b.py", "blake2b", []byte("b = 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	sets := []*Set{
		NewSet(),
		NewSet(NewEntry("demo-1.0.dist-info/RECORD")),
		NewSet(a, b, NewEntry("demo-1.0.dist-info/RECORD")),
		NewSet(Entry{Path: `demo/with "quote", comma.txt`, Size: 0, HasSize: true}),
		NewSet(Entry{Path: "demo/line\nbreak.txt"}),
	}

	for _, set := range sets {
		parsed, err := FromContent(set.Content())
		if err != nil {
			t.Fatalf("FromContent(%q) error = %v", set.Content(), err)
		}
		if !parsed.Equal(set) {
			t.Errorf("round trip mismatch:\n got  %v\n want %v", parsed.Entries(), set.Entries())
		}
	}
}

func TestContent_SortedAndDeterministic(t *testing.T) {
	set := NewSet(
		NewEntry("z.py"),
		Entry{Path: "a.py", Algorithm: "sha256", Digest: sha256Digest("a"), Size: 1, HasSize: true},
		NewEntry("m/n.py"),
	)

	want := "a.py,sha256=" + sha256Digest("a") + ",1\nm/n.py,,\nz.py,,\n"
	if got := set.Content(); got != want {
		t.Errorf("Content() = %q, want %q", got, want)
	}
	if set.Content() != set.Clone().Content() {
		t.Error("Content() should be deterministic across copies")
	}
}

func TestSet_AddRemoveLastWriteWins(t *testing.T) {
	set := NewSet(NewEntry("a.py"))
	replacement, _ := EntryFor("a.py", "sha256", []byte("new"))
	set.Add(replacement)

	e, _ := set.Entry("a.py")
	if e.Algorithm != "sha256" {
		t.Error("Add should replace existing entry")
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}

	set.Remove("a.py")
	if _, ok := set.Entry("a.py"); ok {
		t.Error("Remove should delete entry")
	}
	set.Remove("missing.py")
}

func TestSet_CloneIsIndependent(t *testing.T) {
	orig := NewSet(NewEntry("a.py"))
	clone := orig.Clone()
	clone.Add(NewEntry("b.py"))

	if orig.Len() != 1 {
		t.Error("mutating clone changed original")
	}
}

func TestEntry_Check(t *testing.T) {
	data := []byte("hello world\n")

	algos := []string{"md5", "sha1", "sha224", "sha256", "sha384", "sha512", "sha3_256", "blake2b", "blake2s"}
	for _, algo := range algos {
		t.Run(algo, func(t *testing.T) {
			e, err := EntryFor("f.txt", algo, data)
			if err != nil {
				t.Fatalf("EntryFor() error = %v", err)
			}
			if strings.HasSuffix(e.Digest, "=") {
				t.Error("digest must not be padded")
			}
			if !e.Check(data) {
				t.Error("Check() = false for matching content")
			}
			if e.Check([]byte("hello world")) {
				t.Error("Check() = true for different content")
			}

			// Parsing the serialized form must accept the digest as canonical.
			if _, err := ParseEntry(e.Path, e.HashValue(), e.SizeValue()); err != nil {
				t.Errorf("ParseEntry() error = %v", err)
			}
		})
	}
}

func TestEntry_CheckUnhashedAcceptsAnything(t *testing.T) {
	e := NewEntry("demo-1.0.dist-info/RECORD.jws")
	for _, data := range [][]byte{nil, {}, []byte("anything")} {
		if !e.Check(data) {
			t.Errorf("Check(%q) = false for unhashed entry", data)
		}
	}
}

func TestEntry_CheckMatchesBase64URLNoPad(t *testing.T) {
	data := []byte{0xfb, 0xff, 0xfe}
	sum := sha256.Sum256(data)
	e := Entry{Path: "bin", Algorithm: "sha256", Digest: base64.RawURLEncoding.EncodeToString(sum[:])}
	if !e.Check(data) {
		t.Error("Check() should compare against base64url without padding")
	}

	std := Entry{Path: "bin", Algorithm: "sha256", Digest: base64.StdEncoding.EncodeToString(sum[:])}
	if std.Check(data) {
		t.Error("standard base64 encoding must not be accepted")
	}
}

func TestNewEntry_NormalizesSeparators(t *testing.T) {
	e := NewEntry(`demo\sub\mod.py`)
	if e.Path != "demo/sub/mod.py" {
		t.Errorf("Path = %q, want demo/sub/mod.py", e.Path)
	}
}

func TestDigest_Unsupported(t *testing.T) {
	if _, err := Digest("crc32", []byte("x")); err == nil {
		t.Error("Digest() should fail for unsupported algorithm")
	}
	if Supported("crc32") {
		t.Error("Supported(crc32) = true")
	}
	if !Supported(DefaultAlgorithm) {
		t.Error("default algorithm must be supported")
	}
}
