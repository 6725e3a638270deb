package rulepath

import "strconv"

// Segment is a single component of a path, e.g. `name` or `name[index]`.
type Segment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewSegment creates a segment without an index.
func NewSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// NewIndexedSegment creates a segment that carries an index.
func NewIndexedSegment(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex reports whether the segment has an explicit index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// String renders the segment as it appears in a path.
func (s Segment) String() string {
	if !s.HasIndex() {
		return s.Name
	}
	return s.Name + "[" + strconv.Itoa(s.Index) + "]"
}

// Path is the structured location of a rule source inside the character tree.
// The zero value is the root path.
type Path struct {
	segments []Segment
}

// Root returns the empty path.
func Root() Path {
	return Path{}
}

// Of builds a path from plain segment names.
func Of(names ...string) Path {
	p := Path{segments: make([]Segment, 0, len(names))}
	for _, n := range names {
		p.segments = append(p.segments, NewSegment(n))
	}
	return p
}
