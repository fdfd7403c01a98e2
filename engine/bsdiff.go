package engine

import (
	"github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/gabstv/go-bsdiff/pkg/bspatch"
)

// BSDiffGenerator implements DeltaGenerator for engine id DeltaBSDiff,
// the byte-level differ spec.md §4.6 names explicitly alongside
// JavaxDelta. It accepts any byte pair; BSDIFF's suffix-sort algorithm
// has no content precondition.
type BSDiffGenerator struct{}

func (BSDiffGenerator) ID() uint32 { return DeltaBSDiff }

func (BSDiffGenerator) Accepts(oldBytes, newBytes []byte) bool {
	return true
}

func (BSDiffGenerator) Generate(oldBytes, newBytes []byte) ([]byte, error) {
	return bsdiff.Bytes(oldBytes, newBytes)
}

// BSDiffApplier is the DeltaApplier half of the same engine.
type BSDiffApplier struct{}

func (BSDiffApplier) ID() uint32 { return DeltaBSDiff }

func (BSDiffApplier) Apply(oldBytes, deltaBytes []byte) ([]byte, error) {
	return bspatch.Bytes(oldBytes, deltaBytes)
}
