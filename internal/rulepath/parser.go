package rulepath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex parses a single segment of a path, e.g. `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_:-]+)(?:\[(\d+)\])?$`)

// isValidSegmentName rejects names that are technically matched but confusing.
func isValidSegmentName(name string) bool {
	return name != "-" && name != ":"
}

// Parse creates a Path from its canonical string representation.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("path cannot be empty")
	}

	var p Path
	for _, segmentStr := range strings.Split(raw, ".") {
		if segmentStr == "" {
			return Path{}, fmt.Errorf("path %q contains an empty segment", raw)
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return Path{}, fmt.Errorf("invalid path segment format: %q", segmentStr)
		}

		name := matches[1]
		if !isValidSegmentName(name) {
			return Path{}, fmt.Errorf("invalid segment name: %q", name)
		}

		segment := NewSegment(name)
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				// Unreachable due to regex `\d+`
				return Path{}, fmt.Errorf("internal error parsing index: %w", err)
			}
			segment.Index = index
		}
		p.segments = append(p.segments, segment)
	}

	return p, nil
}
