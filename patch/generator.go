package patch

import (
	"io"

	"github.com/martin-sucha/archivepatch/engine"
	"github.com/martin-sucha/archivepatch/zip"
)

// CurrentPatchVersion is the patchVersion Generate always writes. A
// reader must still accept version 1 (spec.md §6.2, §9).
const CurrentPatchVersion uint32 = 2

// GeneratorOptions configures which delta and compression engines
// Generate may choose from, in priority order: the first one that
// accepts a given payload wins (spec.md §4.4 step 4, §8 "first
// acceptor wins").
type GeneratorOptions struct {
	DeltaGenerators []engine.DeltaGenerator
	Compressors     []engine.Compressor
}

// DefaultOptions returns the ambient engine ordering: JavaxDelta before
// BSDiff, raw DEFLATE before LZ4, derived from engine.Default()'s
// registration order so the registry Apply uses and the priority list
// Generate uses never drift apart.
func DefaultOptions() GeneratorOptions {
	r := engine.Default()
	return GeneratorOptions{
		DeltaGenerators: r.DeltaGenerators(),
		Compressors:     r.Compressors(),
	}
}

// Generate compares old and new and returns the directive stream that
// reconstructs new from old, plus a Report describing the result
// (spec.md §4.4). Both archives are finalized as a side effect if they
// were not already.
func Generate(oldArchive, newArchive *zip.Archive, opts GeneratorOptions) ([]*Directive, *Report, error) {
	if err := oldArchive.Finalize(); err != nil {
		return nil, nil, err
	}
	if err := newArchive.Finalize(); err != nil {
		return nil, nil, err
	}

	oldCentral := oldArchive.CentralByName()
	oldLocal := oldArchive.LocalByName()
	newLocal := newArchive.LocalByName()

	report := &Report{}

	beginSection, err := newArchive.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	directives := []*Directive{
		{Tag: TagBegin, Begin: &BeginMetadata{CentralDirectory: beginSection}},
	}
	report.DirectiveBytes += int64(1) + int64(beginSection.StructureLength())

	for _, newCD := range newArchive.Central {
		newLS := newLocal[newCD.Name]

		oldCD, found := oldCentral[newCD.Name]
		if !found {
			appendNewDirective(&directives, report, newLS)
			continue
		}
		oldLS := oldLocal[newCD.Name]

		if newCD.PositionIndependentEqual(oldCD) {
			directives = append(directives, &Directive{Tag: TagCopy, Offset: oldCD.RelativeOffsetOfLocalHeader})
			report.CopyCount++
			report.DirectiveBytes += 5
			report.BytesAvoided += int64(oldCD.CompressedSize)
			continue
		}

		if samePayload(oldCD, newCD, oldLS, newLS) {
			rm := &RefreshMetadata{LocalFile: newLS.LocalFile, DataDescriptor: newLS.DataDescriptor}
			directives = append(directives, &Directive{Tag: TagRefresh, Offset: oldCD.RelativeOffsetOfLocalHeader, Refresh: rm})
			report.RefreshCount++
			report.DirectiveBytes += int64(5 + rm.LocalFile.StructureLength())
			report.BytesAvoided += int64(oldCD.CompressedSize)
			continue
		}

		if pm, ok := tryDelta(oldLS.FileData, newLS, opts); ok {
			directives = append(directives, &Directive{Tag: TagPatch, Offset: oldCD.RelativeOffsetOfLocalHeader, Patch: pm})
			report.PatchCount++
			report.DirectiveBytes += int64(5+pm.LocalFile.StructureLength()) + 8 + 4 + int64(len(pm.Blob))
			report.BytesIntroduced += int64(len(pm.Blob))
			continue
		}

		appendNewDirective(&directives, report, newLS)
	}

	return directives, report, nil
}

// samePayload reports whether the new entry's compressed bytes are
// identical to the old entry's, even though the central directory
// entries themselves differ (e.g. only the timestamp changed) — the
// REFRESH case (spec.md §4.4 step 3).
func samePayload(oldCD, newCD *zip.CentralDirectoryFile, oldLS, newLS *zip.LocalSectionParts) bool {
	if oldCD.CRC32 != newCD.CRC32 || oldCD.CompressedSize != newCD.CompressedSize || oldCD.Method != newCD.Method {
		return false
	}
	return engine.QuickEqual(oldLS.FileData, newLS.FileData)
}

// tryDelta attempts PATCH: the first accepting delta generator builds
// a delta against oldPayload, and the first accepting compressor
// shrinks it further. If no delta generator accepts the pair, ok is
// false and the caller falls back to NEW.
func tryDelta(oldPayload []byte, newLS *zip.LocalSectionParts, opts GeneratorOptions) (*PatchMetadata, bool) {
	var chosen engine.DeltaGenerator
	for _, g := range opts.DeltaGenerators {
		if g.Accepts(oldPayload, newLS.FileData) {
			chosen = g
			break
		}
	}
	if chosen == nil {
		return nil, false
	}

	deltaBytes, err := chosen.Generate(oldPayload, newLS.FileData)
	if err != nil {
		return nil, false
	}

	blob := deltaBytes
	compID := engine.CompressionNone
	for _, comp := range opts.Compressors {
		if comp.ID() == engine.CompressionNone || !comp.Accepts(deltaBytes) {
			continue
		}
		compressed, err := comp.Compress(deltaBytes)
		if err != nil {
			continue
		}
		blob = compressed
		compID = comp.ID()
		break
	}

	return &PatchMetadata{
		RefreshMetadata:     RefreshMetadata{LocalFile: newLS.LocalFile, DataDescriptor: newLS.DataDescriptor},
		DeltaEngineID:       chosen.ID(),
		CompressionEngineID: compID,
		Blob:                blob,
	}, true
}

func appendNewDirective(directives *[]*Directive, report *Report, newLS *zip.LocalSectionParts) {
	nm := &NewMetadata{LocalFile: newLS.LocalFile, DataDescriptor: newLS.DataDescriptor, Blob: newLS.FileData}
	*directives = append(*directives, &Directive{Tag: TagNew, New: nm})
	report.NewCount++
	report.DirectiveBytes += int64(1+nm.LocalFile.StructureLength()) + 4 + int64(len(nm.Blob))
	report.BytesIntroduced += int64(len(nm.Blob))
}

// WriteDirectives serializes a directive stream with the given
// patchVersion header (spec.md §6.2: a u32 version, then the
// directives themselves, BEGIN first).
func WriteDirectives(w io.Writer, version uint32, directives []*Directive) error {
	if err := writeUint32(w, version); err != nil {
		return err
	}
	for _, d := range directives {
		if err := d.Write(w, version); err != nil {
			return err
		}
	}
	return nil
}
