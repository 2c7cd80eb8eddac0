package wheel

import (
	"fmt"
	"strings"
)

// Tag is a single interpreter/abi/platform compatibility triple.
type Tag struct {
	Interpreter string
	ABI         string
	Platform    string
}

// String returns the "interpreter-abi-platform" form.
func (t Tag) String() string {
	return t.Interpreter + "-" + t.ABI + "-" + t.Platform
}

// ParseTag parses a single "interpreter-abi-platform" tag. Compressed
// tag sets are not accepted here; use Filename.Tags for those.
func ParseTag(s string) (Tag, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Tag{}, fmt.Errorf("invalid tag %q: expected interpreter-abi-platform", s)
	}
	for _, p := range parts {
		if p == "" || strings.Contains(p, ".") {
			return Tag{}, fmt.Errorf("invalid tag %q", s)
		}
	}
	return Tag{Interpreter: parts[0], ABI: parts[1], Platform: parts[2]}, nil
}

// ParseTags parses a list of single tags, stopping at the first error.
func ParseTags(values []string) ([]Tag, error) {
	tags := make([]Tag, 0, len(values))
	for _, v := range values {
		t, err := ParseTag(v)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}
