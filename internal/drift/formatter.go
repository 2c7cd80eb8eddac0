package drift

import (
	"fmt"
	"strings"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"

// FormatDriftReport formats a report for user display. OK files are
// summarized as a count.
func FormatDriftReport(r *Report) string {
	var sb strings.Builder
	sb.Grow(1024 + len(r.Results)*128)

	sb.WriteString("\n" + rule)
	sb.WriteString("DRIFT REPORT: " + r.DistInfo + "\n")
	sb.WriteString(rule + "\n")

	counts := make(map[DriftType]int)
	for _, res := range r.Results {
		counts[res.DriftType]++
		if res.DriftType == DriftOK {
			continue
		}
		sb.WriteString(formatDriftEntry(res))
		sb.WriteString("\n")
	}

	if ok := counts[DriftOK]; ok > 0 {
		fmt.Fprintf(&sb, "[OK] ✓\n  %d files match RECORD\n\n", ok)
	}

	sb.WriteString(rule)
	drifted := counts[DriftModified] + counts[DriftMissing]
	if drifted == 0 {
		sb.WriteString("SUMMARY: No drifts detected ✓\n")
	} else {
		fmt.Fprintf(&sb, "SUMMARY: %d drifts detected\n", drifted)
		var parts []string
		if n := counts[DriftModified]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d modified", n))
		}
		if n := counts[DriftMissing]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d missing", n))
		}
		sb.WriteString("  " + strings.Join(parts, ", ") + "\n")
	}
	if n := counts[DriftUnhashed]; n > 0 {
		fmt.Fprintf(&sb, "  %d files not verifiable\n", n)
	}
	sb.WriteString(rule)
	return sb.String()
}

func formatDriftEntry(r DriftResult) string {
	var sb strings.Builder
	switch r.DriftType {
	case DriftModified:
		sb.WriteString("[MODIFIED]\n")
		fmt.Fprintf(&sb, "  %s\n", r.Path)
		fmt.Fprintf(&sb, "    Installed: %s\n", r.Destination)
		fmt.Fprintf(&sb, "    Expected:  %s\n", r.Expected)
		sb.WriteString("    → Content differs from RECORD\n")
	case DriftMissing:
		sb.WriteString("[MISSING]\n")
		fmt.Fprintf(&sb, "  %s\n", r.Path)
		fmt.Fprintf(&sb, "    Expected at: %s\n", r.Destination)
	case DriftUnhashed:
		sb.WriteString("[UNHASHED]\n")
		fmt.Fprintf(&sb, "  %s\n", r.Path)
	}
	return sb.String()
}
