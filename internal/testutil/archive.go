package testutil

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/record"
)

// File is one archive member.
type File struct {
	Name string
	Body string
}

// WheelSpec describes a synthetic wheel for tests.
type WheelSpec struct {
	Name    string
	Version string
	// Tag defaults to "py3-none-any".
	Tag     string
	Purelib bool
	Files   []File
	// Unrecorded lists member names left out of RECORD.
	Unrecorded []string
	// Tamper replaces archived content after RECORD has been computed.
	Tamper map[string]string
	// Record, when non-empty, is written verbatim as RECORD.
	Record string
	// OmitWheelFile leaves WHEEL out of the archive.
	OmitWheelFile bool
}

// BuildWheel writes a wheel into dir and returns its path. Members appear
// in the archive in Files order followed by METADATA, WHEEL and RECORD.
func BuildWheel(t *testing.T, dir string, spec WheelSpec) string {
	t.Helper()

	tag := spec.Tag
	if tag == "" {
		tag = "py3-none-any"
	}
	distInfo := spec.Name + "-" + spec.Version + ".dist-info"
	purelib := "false"
	if spec.Purelib {
		purelib = "true"
	}

	files := append([]File{}, spec.Files...)
	files = append(files, File{
		Name: distInfo + "/METADATA",
		Body: "Metadata-Version: 2.1\nName: " + spec.Name + "\nVersion: " + spec.Version + "\n",
	})
	if !spec.OmitWheelFile {
		files = append(files, File{
			Name: distInfo + "/WHEEL",
			Body: "Wheel-Version: 1.0\nGenerator: wheelwright-tests\nRoot-Is-Purelib: " + purelib + "\nTag: " + tag + "\n",
		})
	}

	recordPath := distInfo + "/RECORD"
	content := spec.Record
	if content == "" {
		skip := make(map[string]bool, len(spec.Unrecorded))
		for _, name := range spec.Unrecorded {
			skip[name] = true
		}
		set := record.NewSet(record.NewEntry(recordPath))
		for _, f := range files {
			if skip[f.Name] {
				continue
			}
			e, err := record.EntryFor(f.Name, record.DefaultAlgorithm, []byte(f.Body))
			if err != nil {
				t.Fatalf("hash %s: %v", f.Name, err)
			}
			set.Add(e)
		}
		content = set.Content()
	}
	files = append(files, File{Name: recordPath, Body: content})

	for i, f := range files {
		if body, ok := spec.Tamper[f.Name]; ok {
			files[i].Body = body
		}
	}

	path := filepath.Join(dir, spec.Name+"-"+spec.Version+"-"+tag+".whl")
	BuildZip(t, path, files)
	return path
}

// BuildZip writes files into a zip archive at path.
func BuildZip(t *testing.T, path string, files []File) {
	t.Helper()

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatalf("create member %s: %v", f.Name, err)
		}
		if _, err := io.WriteString(w, f.Body); err != nil {
			t.Fatalf("write member %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

// BuildTar writes files into an uncompressed tar archive at path.
func BuildTar(t *testing.T, path string, files []File) {
	t.Helper()

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer out.Close()

	writeTar(t, out, files)
}

// BuildTarGz writes files into a gzip-compressed tar archive at path.
func BuildTarGz(t *testing.T, path string, files []File) {
	t.Helper()

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	writeTar(t, gw, files)
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
}

func writeTar(t *testing.T, w io.Writer, files []File) {
	t.Helper()

	tw := tar.NewWriter(w)
	for _, f := range files {
		hdr := &tar.Header{
			Name: f.Name,
			Mode: 0644,
			Size: int64(len(f.Body)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(f.Body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

// ReadZipMember returns the content of one member of the zip at path.
func ReadZipMember(t *testing.T, path, name string) string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open member %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read member %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("member %s not found in %s", name, path)
	return ""
}
