// Package drift compares an installed distribution with the RECORD it
// was installed from and reports files that went missing or changed.
package drift

// DriftType represents the type of drift detected
type DriftType int

const (
	DriftOK DriftType = iota
	DriftModified
	DriftMissing
	// DriftUnhashed marks a present file whose RECORD row has no usable
	// digest, so its content cannot be checked.
	DriftUnhashed
)

// String returns human-readable drift type name
func (d DriftType) String() string {
	switch d {
	case DriftOK:
		return "OK"
	case DriftModified:
		return "MODIFIED"
	case DriftMissing:
		return "MISSING"
	case DriftUnhashed:
		return "UNHASHED"
	default:
		return "UNKNOWN"
	}
}

// DriftResult is the state of one RECORD row.
type DriftResult struct {
	// Path is the row's archive-relative path.
	Path string
	// Destination is where the file was installed.
	Destination string
	DriftType   DriftType
	Expected    string
}

// Report is the outcome of checking one distribution.
type Report struct {
	DistInfo string
	Results  []DriftResult
}

// Drifted reports whether any file is missing or modified.
func (r *Report) Drifted() bool {
	for _, res := range r.Results {
		if res.DriftType == DriftModified || res.DriftType == DriftMissing {
			return true
		}
	}
	return false
}
