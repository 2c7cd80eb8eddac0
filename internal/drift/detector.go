package drift

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/record"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/scheme"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheel"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

const distInfoSuffix = ".dist-info"

// DetectDrift checks the distribution whose metadata directory is
// distInfo (e.g. "demo-1.0.dist-info") against the scheme roots in paths.
// The directory is looked up under purelib, then platlib.
//
// Every RECORD row is classified, sorted by path:
//  1. the row is mapped back to its scheme and destination the same way
//     the installer placed it
//  2. a missing destination is DriftMissing
//  3. a row without a supported digest is DriftUnhashed
//  4. otherwise the file content decides between DriftOK and DriftModified
func DetectDrift(paths map[scheme.Scheme]string, distInfo string) (*Report, error) {
	if !strings.HasSuffix(distInfo, distInfoSuffix) {
		return nil, fmt.Errorf("%q is not a %s directory", distInfo, distInfoSuffix)
	}
	root, err := locate(paths, distInfo)
	if err != nil {
		return nil, err
	}
	metaDir := filepath.Join(root, distInfo)

	data, err := os.ReadFile(filepath.Join(metaDir, "RECORD"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &wheelerr.MissingEntryError{Path: distInfo + "/RECORD"}
		}
		return nil, fmt.Errorf("read RECORD: %w", err)
	}
	manifest, err := record.Parse(data)
	if err != nil {
		return nil, err
	}

	pure, err := rootIsPurelib(metaDir)
	if err != nil {
		return nil, err
	}
	dataDir := strings.TrimSuffix(distInfo, distInfoSuffix) + ".data"
	resolver := scheme.NewResolver(dataDir, scheme.Root(pure), manifest)

	report := &Report{DistInfo: distInfo}
	for _, entry := range manifest.Entries() {
		d, err := resolver.Decide(entry.Path)
		if err != nil {
			return nil, err
		}
		dest := filepath.Join(paths[d.Scheme], filepath.FromSlash(d.Path))
		report.Results = append(report.Results, classify(entry, dest))
	}
	return report, nil
}

func classify(entry record.Entry, dest string) DriftResult {
	res := DriftResult{Path: entry.Path, Destination: dest, Expected: entry.HashValue()}

	content, err := os.ReadFile(dest)
	switch {
	case err != nil:
		res.DriftType = DriftMissing
	case entry.Algorithm == "" || !record.Supported(entry.Algorithm):
		res.DriftType = DriftUnhashed
	case entry.Check(content):
		res.DriftType = DriftOK
	default:
		res.DriftType = DriftModified
	}
	return res
}

func locate(paths map[scheme.Scheme]string, distInfo string) (string, error) {
	for _, s := range []scheme.Scheme{scheme.PureLib, scheme.PlatLib} {
		root := paths[s]
		if root == "" {
			continue
		}
		if info, err := os.Stat(filepath.Join(root, distInfo)); err == nil && info.IsDir() {
			return root, nil
		}
	}
	return "", fmt.Errorf("%s not installed in purelib or platlib", distInfo)
}

// rootIsPurelib reads Root-Is-Purelib from the installed WHEEL file; a
// missing file means impure.
func rootIsPurelib(metaDir string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(metaDir, "WHEEL"))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read WHEEL: %w", err)
	}
	return wheel.ParseMessage(data).Bool("Root-Is-Purelib"), nil
}
