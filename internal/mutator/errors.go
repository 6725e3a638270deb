package mutator

import (
	"errors"
	"fmt"
)

// ErrCircularDependency is wrapped by every cycle reported by a scheduler.
var ErrCircularDependency = errors.New("circular mutator dependency")

// CycleError reports two entries whose dependency sets name each other.
type CycleError struct {
	A, B  string
	PathA string
	PathB string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %q (at %q) and %q (at %q) depend on each other",
		ErrCircularDependency, e.A, e.PathA, e.B, e.PathB)
}

func (e *CycleError) Unwrap() error {
	return ErrCircularDependency
}
