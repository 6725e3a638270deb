package pipeline

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/specialistvlad/charsmith/internal/pipeline"

// DefaultMaxExtraRounds is the number of resolution rounds allowed after the
// first one.
const DefaultMaxExtraRounds = 3

// Options tunes a recompute.
type Options struct {
	// Workers bounds concurrent provider calls. Zero or less is unbounded.
	Workers int
	// MaxExtraRounds caps the resolution rounds after the first.
	MaxExtraRounds int
	// DeferLookups skips provider calls in the indirection phase. The caller
	// is expected to resolve the remaining references in the background.
	DeferLookups bool
	// Tracer records one span per recompute and per phase. Nil uses the
	// global tracer provider.
	Tracer trace.Tracer
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Workers: 8, MaxExtraRounds: DefaultMaxExtraRounds}
}

func (o Options) tracer() trace.Tracer {
	if o.Tracer != nil {
		return o.Tracer
	}
	return otel.Tracer(tracerName)
}
