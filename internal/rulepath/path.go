package rulepath

import "strings"

// String serializes the path into its canonical representation.
func (p Path) String() string {
	var sb strings.Builder
	for i, segment := range p.segments {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.String())
	}
	return sb.String()
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Child returns a new path with name appended.
func (p Path) Child(name string) Path {
	return p.append(NewSegment(name))
}

// Indexed returns a new path with `name[index]` appended.
func (p Path) Indexed(name string, index int) Path {
	return p.append(NewIndexedSegment(name, index))
}

// Key returns a new path with the dotted key appended. Keys written by
// authors, such as a choice key `school`, may themselves contain several
// segments; invalid keys are appended verbatim as a single segment.
func (p Path) Key(key string) Path {
	parsed, err := Parse(key)
	if err != nil {
		return p.Child(key)
	}
	out := p
	for _, s := range parsed.segments {
		out = out.append(s)
	}
	return out
}

func (p Path) append(s Segment) Path {
	out := Path{segments: make([]Segment, len(p.segments), len(p.segments)+1)}
	copy(out.segments, p.segments)
	out.segments = append(out.segments, s)
	return out
}
