// Package engine defines the pluggable delta and compression
// capability interfaces (spec.md §6.3) and the id-keyed registries
// that the patch generator and applier look engines up through
// (spec.md §4.6). The core only guarantees id→engine lookup and
// absence-is-error behavior; the concrete algorithms are ordinary
// library wrappers with no special standing over a caller-supplied
// implementation of the same interfaces.
package engine

import (
	"errors"
	"fmt"
)

// ErrUnknownEngine is returned when a patch directive references an
// engine id with no registered implementation (spec.md §7).
var ErrUnknownEngine = errors.New("engine: unknown engine id")

// Engine ids. NONE is reserved, in both the delta and the (separate)
// compression namespace, for "no transformation" / identity (spec.md
// §4.6). The core ships at least JavaxDelta and BSDiff for delta, and
// CompressionNone/DeflateRaw for compression; this build also wires a
// second compression engine (LZ4) to exercise the pluggable ordering
// rule with more than one real alternative.
const (
	DeltaNone       uint32 = 0
	DeltaJavaxDelta uint32 = 1
	DeltaBSDiff     uint32 = 2

	CompressionNone       uint32 = 0
	CompressionDeflateRaw uint32 = 1
	CompressionLZ4        uint32 = 2
)

// DeltaGenerator produces delta bytes transforming oldBytes into
// newBytes, if it is willing to handle that pair (spec.md §6.3).
type DeltaGenerator interface {
	ID() uint32
	Accepts(oldBytes, newBytes []byte) bool
	Generate(oldBytes, newBytes []byte) ([]byte, error)
}

// DeltaApplier reconstructs newBytes from oldBytes and delta bytes
// produced by the DeltaGenerator of the same ID.
type DeltaApplier interface {
	ID() uint32
	Apply(oldBytes, deltaBytes []byte) ([]byte, error)
}

// Compressor optionally compresses delta/payload bytes before they are
// embedded in a patch.
type Compressor interface {
	ID() uint32
	Accepts(data []byte) bool
	Compress(data []byte) ([]byte, error)
}

// Uncompressor reverses a Compressor of the same ID.
type Uncompressor interface {
	ID() uint32
	Uncompress(data []byte) ([]byte, error)
}

// Registry is a pair of disjoint, id-keyed lookup tables: one for
// delta engines, one for compression engines (spec.md §4.6). It also
// remembers registration order, so it can double as the ordered engine
// list patch.DefaultOptions hands to the generator's "first acceptor
// wins" planner (spec.md §4.4 step 4).
type Registry struct {
	deltaGenerators  map[uint32]DeltaGenerator
	deltaAppliers    map[uint32]DeltaApplier
	compressors      map[uint32]Compressor
	uncompressors    map[uint32]Uncompressor
	deltaOrder       []uint32
	compressionOrder []uint32
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		deltaGenerators: make(map[uint32]DeltaGenerator),
		deltaAppliers:   make(map[uint32]DeltaApplier),
		compressors:     make(map[uint32]Compressor),
		uncompressors:   make(map[uint32]Uncompressor),
	}
}

// RegisterDelta adds a generator/applier pair under its shared id, in
// the priority order DeltaGenerators later returns it in.
func (r *Registry) RegisterDelta(g DeltaGenerator, a DeltaApplier) {
	if _, exists := r.deltaGenerators[g.ID()]; !exists {
		r.deltaOrder = append(r.deltaOrder, g.ID())
	}
	r.deltaGenerators[g.ID()] = g
	r.deltaAppliers[a.ID()] = a
}

// RegisterCompression adds a compressor/uncompressor pair under its
// shared id, in the priority order Compressors later returns it in.
func (r *Registry) RegisterCompression(c Compressor, u Uncompressor) {
	if _, exists := r.compressors[c.ID()]; !exists {
		r.compressionOrder = append(r.compressionOrder, c.ID())
	}
	r.compressors[c.ID()] = c
	r.uncompressors[u.ID()] = u
}

// DeltaApplierByID looks up a DeltaApplier, failing with
// ErrUnknownEngine if none is registered (spec.md §7).
func (r *Registry) DeltaApplierByID(id uint32) (DeltaApplier, error) {
	a, ok := r.deltaAppliers[id]
	if !ok {
		return nil, fmt.Errorf("%w: delta engine %d", ErrUnknownEngine, id)
	}
	return a, nil
}

// UncompressorByID looks up an Uncompressor, failing with
// ErrUnknownEngine if none is registered.
func (r *Registry) UncompressorByID(id uint32) (Uncompressor, error) {
	if id == CompressionNone {
		return identityCodec{}, nil
	}
	u, ok := r.uncompressors[id]
	if !ok {
		return nil, fmt.Errorf("%w: compression engine %d", ErrUnknownEngine, id)
	}
	return u, nil
}

// DeltaGenerators returns the registered generators in registration
// order, the priority order patch.GeneratorOptions uses for the
// planner's "first acceptor wins" rule (spec.md §4.4). Callers that
// want a different priority build their own GeneratorOptions slice
// instead of going through a Registry at all.
func (r *Registry) DeltaGenerators() []DeltaGenerator {
	out := make([]DeltaGenerator, 0, len(r.deltaOrder))
	for _, id := range r.deltaOrder {
		out = append(out, r.deltaGenerators[id])
	}
	return out
}

// Compressors mirrors DeltaGenerators for compression engines.
func (r *Registry) Compressors() []Compressor {
	out := make([]Compressor, 0, len(r.compressionOrder))
	for _, id := range r.compressionOrder {
		out = append(out, r.compressors[id])
	}
	return out
}

// identityCodec is the NONE compression engine: compress and
// uncompress are both no-ops.
type identityCodec struct{}

func (identityCodec) ID() uint32                         { return CompressionNone }
func (identityCodec) Accepts([]byte) bool                { return true }
func (identityCodec) Compress(d []byte) ([]byte, error)  { return d, nil }
func (identityCodec) Uncompress(d []byte) ([]byte, error) { return d, nil }

// Default returns a Registry pre-populated with every engine this
// module ships (spec.md §4.6): JavaxDelta and BSDiff for delta, and
// NONE/DeflateRaw/LZ4 for compression.
func Default() *Registry {
	r := NewRegistry()
	r.RegisterDelta(JavaxDeltaGenerator{}, JavaxDeltaApplier{})
	r.RegisterDelta(BSDiffGenerator{}, BSDiffApplier{})
	r.RegisterCompression(identityCodec{}, identityCodec{})
	r.RegisterCompression(DeflateRawCompressor{}, DeflateRawUncompressor{})
	r.RegisterCompression(LZ4Compressor{}, LZ4Uncompressor{})
	return r
}

