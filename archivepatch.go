// Package archivepatch generates and applies bit-exact structural
// patches between two ZIP archives: instead of shipping a new archive
// in full, a patch describes each new entry as a byte-for-byte COPY or
// REFRESH of an old entry, a PATCH built from a binary delta against
// the old entry's payload, or a brand NEW entry (spec.md §1-§2).
package archivepatch

import (
	"bytes"
	"fmt"

	"github.com/martin-sucha/archivepatch/engine"
	"github.com/martin-sucha/archivepatch/patch"
	"github.com/martin-sucha/archivepatch/zip"
)

// Generate compares oldArchive and newArchive (complete ZIP archive
// images) and returns a patch that reconstructs newArchive from
// oldArchive, plus a Report describing the result.
func Generate(oldArchive, newArchive []byte, opts patch.GeneratorOptions) ([]byte, *patch.Report, error) {
	oldA, err := zip.Load(oldArchive)
	if err != nil {
		return nil, nil, fmt.Errorf("archivepatch: loading old archive: %w", err)
	}
	newA, err := zip.Load(newArchive)
	if err != nil {
		return nil, nil, fmt.Errorf("archivepatch: loading new archive: %w", err)
	}

	directives, report, err := patch.Generate(oldA, newA, opts)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := patch.WriteDirectives(&buf, patch.CurrentPatchVersion, directives); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), report, nil
}

// Apply reconstructs a new archive image from an old archive image and
// a patch produced by Generate (or by a patchVersion 1 producer).
// registry is nil-safe: a nil registry falls back to engine.Default().
func Apply(oldArchive, patchBytes []byte, registry *engine.Registry) ([]byte, error) {
	if registry == nil {
		registry = engine.Default()
	}

	c := zip.NewCursor(patchBytes, 0)
	version, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("archivepatch: reading patch version: %w", err)
	}
	if version == 0 || version > patch.CurrentPatchVersion {
		return nil, fmt.Errorf("%w: %d", patch.ErrUnsupportedVersion, version)
	}

	var directives []*patch.Directive
	for c.Remaining() > 0 {
		d, err := patch.ReadDirective(c, version)
		if err != nil {
			return nil, err
		}
		directives = append(directives, d)
	}

	return patch.Apply(oldArchive, directives, registry)
}
