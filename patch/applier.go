package patch

import (
	"fmt"

	"github.com/martin-sucha/archivepatch/engine"
	"github.com/martin-sucha/archivepatch/zip"
)

// Apply reconstructs the new archive bytes from oldData and a patch
// stream read through directives (spec.md §4.5). registry supplies the
// delta/compression engines PATCH directives may reference; pass
// engine.Default() unless the caller registered custom engines.
func Apply(oldData []byte, directives []*Directive, registry *engine.Registry) ([]byte, error) {
	old, err := zip.Load(oldData)
	if err != nil {
		return nil, err
	}
	oldCentral := old.CentralByName()
	cache := newEntryCache(oldData, oldCentral)

	if len(directives) == 0 {
		return nil, fmt.Errorf("%w: empty directive stream", ErrUnexpectedDirective)
	}
	begin := directives[0]
	if begin.Tag != TagBegin {
		return nil, fmt.Errorf("%w: stream must start with BEGIN, got %s", ErrUnexpectedDirective, begin.Tag)
	}

	out := zip.New()
	for _, d := range directives[1:] {
		switch d.Tag {
		case TagCopy:
			ls, err := cache.get(d.Offset)
			if err != nil {
				return nil, err
			}
			cd := oldEntryAt(old, d.Offset)
			if cd == nil {
				return nil, fmt.Errorf("%w: COPY references unknown offset %d", zip.ErrFormat, d.Offset)
			}
			if err := out.Append(ls.Clone(), cd.Clone()); err != nil {
				return nil, err
			}

		case TagRefresh:
			ls, err := cache.get(d.Offset)
			if err != nil {
				return nil, err
			}
			newLS := &zip.LocalSectionParts{
				LocalFile:      d.Refresh.LocalFile,
				FileData:       ls.FileData,
				DataDescriptor: d.Refresh.DataDescriptor,
			}
			cd := refreshedCentralEntry(oldEntryAt(old, d.Offset), d.Refresh.LocalFile)
			if err := out.Append(newLS, cd); err != nil {
				return nil, err
			}

		case TagPatch:
			ls, err := cache.get(d.Offset)
			if err != nil {
				return nil, err
			}
			newPayload, err := applyPatch(registry, ls.FileData, d.Patch)
			if err != nil {
				return nil, err
			}
			newLS := &zip.LocalSectionParts{
				LocalFile:      d.Patch.LocalFile,
				FileData:       newPayload,
				DataDescriptor: d.Patch.DataDescriptor,
			}
			cd := refreshedCentralEntry(oldEntryAt(old, d.Offset), d.Patch.LocalFile)
			if err := out.Append(newLS, cd); err != nil {
				return nil, err
			}

		case TagNew:
			newLS := &zip.LocalSectionParts{
				LocalFile:      d.New.LocalFile,
				FileData:       d.New.Blob,
				DataDescriptor: d.New.DataDescriptor,
			}
			cd := centralEntryFromNew(d.New)
			if err := out.Append(newLS, cd); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("%w: unexpected tag %s in directive stream", ErrUnexpectedDirective, d.Tag)
		}
	}

	if err := out.Install(begin.Begin.CentralDirectory); err != nil {
		return nil, err
	}
	return out.Bytes()
}

func applyPatch(registry *engine.Registry, oldPayload []byte, pm *PatchMetadata) ([]byte, error) {
	applier, err := registry.DeltaApplierByID(pm.GetDeltaEngineID())
	if err != nil {
		return nil, err
	}
	uncompressor, err := registry.UncompressorByID(pm.GetCompressionEngineID())
	if err != nil {
		return nil, err
	}
	deltaBytes, err := uncompressor.Uncompress(pm.Blob)
	if err != nil {
		return nil, err
	}
	return applier.Apply(oldPayload, deltaBytes)
}

// oldEntryAt finds the old archive's central directory entry whose
// local header lives at offset. COPY/REFRESH/PATCH directives carry a
// raw byte offset rather than a name (spec.md §6.2), so this is a
// linear scan; entryCache keeps the hot path (payload bytes) fast, and
// archives patched in this tool's target size range have at most a few
// thousand entries.
func oldEntryAt(old *zip.Archive, offset uint32) *zip.CentralDirectoryFile {
	for _, cd := range old.Central {
		if cd.RelativeOffsetOfLocalHeader == offset {
			return cd
		}
	}
	return nil
}

// refreshedCentralEntry builds the output archive's central directory
// entry for a REFRESH/PATCH target: a copy of the old entry with its
// header fields (name, flags, method, time, CRC, sizes, extra) taken
// from the LocalFile carried by the directive. The generator passes the
// new archive's LocalFile unchanged, so for descriptor-flagged entries
// the CRC and sizes copied here are zero. Apply replaces these entries
// with the BEGIN directive's central directory before serializing.
func refreshedCentralEntry(oldCD *zip.CentralDirectoryFile, lf *zip.LocalFile) *zip.CentralDirectoryFile {
	cd := oldCD.Clone()
	cd.Name = lf.Name
	cd.Flags = lf.Flags
	cd.Method = lf.Method
	cd.ModifiedTime = lf.ModifiedTime
	cd.ModifiedDate = lf.ModifiedDate
	cd.CRC32 = lf.CRC32
	cd.CompressedSize = lf.CompressedSize
	cd.UncompressedSize = lf.UncompressedSize
	cd.Extra = lf.Extra
	return cd
}

func centralEntryFromNew(nm *NewMetadata) *zip.CentralDirectoryFile {
	lf := nm.LocalFile
	return &zip.CentralDirectoryFile{
		CreatorVersion:   creatorUnix<<8 | lf.ReaderVersion,
		ReaderVersion:    lf.ReaderVersion,
		Flags:            lf.Flags,
		Method:           lf.Method,
		ModifiedTime:     lf.ModifiedTime,
		ModifiedDate:     lf.ModifiedDate,
		CRC32:            lf.CRC32,
		CompressedSize:   lf.CompressedSize,
		UncompressedSize: lf.UncompressedSize,
		Name:             lf.Name,
		Extra:            lf.Extra,
	}
}

// creatorUnix mirrors zip.AddFile's CreatorVersion convention for
// entries materialized straight from a NEW directive (spec.md §6.1).
const creatorUnix uint16 = 3
