package patch

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/martin-sucha/archivepatch/engine"
	"github.com/martin-sucha/archivepatch/zip"
)

// Tag identifies a directive's kind on the wire (spec.md §6.2).
type Tag uint8

const (
	TagBegin   Tag = 0
	TagCopy    Tag = 1
	TagRefresh Tag = 2
	TagPatch   Tag = 3
	TagNew     Tag = 4
)

func (t Tag) String() string {
	switch t {
	case TagBegin:
		return "BEGIN"
	case TagCopy:
		return "COPY"
	case TagRefresh:
		return "REFRESH"
	case TagPatch:
		return "PATCH"
	case TagNew:
		return "NEW"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// BeginMetadata is the payload of a BEGIN directive: a full snapshot of
// the new archive's central directory, installed into the output
// archive once the applier has processed every other directive
// (spec.md §4.4, §4.5).
type BeginMetadata struct {
	CentralDirectory *zip.CentralDirectorySection
}

// RefreshMetadata is the payload shared by REFRESH, PATCH and NEW: the
// new LocalFile header (and its DataDescriptor, if the header's flags
// call for one) that the applier writes into the output archive in
// place of the old one.
type RefreshMetadata struct {
	LocalFile      *zip.LocalFile
	DataDescriptor *zip.DataDescriptor
}

// PatchMetadata is the payload of a PATCH directive: the new header
// plus the delta blob and the engine ids needed to reconstruct the new
// payload from the old one (spec.md §4.6).
//
// GetCompressionEngineID returns the compression engine id. The Java
// original's equivalent accessor returned the delta engine id here by
// mistake (spec.md §9 open issue); there is no such bug in this type,
// the two ids are simply separate fields.
type PatchMetadata struct {
	RefreshMetadata
	DeltaEngineID       uint32
	CompressionEngineID uint32
	Blob                []byte
}

// GetDeltaEngineID returns the engine id the delta blob was produced
// with.
func (m *PatchMetadata) GetDeltaEngineID() uint32 { return m.DeltaEngineID }

// GetCompressionEngineID returns the engine id the delta blob was
// compressed with, CompressionNone if it was not compressed at all.
func (m *PatchMetadata) GetCompressionEngineID() uint32 { return m.CompressionEngineID }

// NewMetadata is the payload of a NEW directive: the new header and
// its full, compressed payload, verbatim from the new archive.
type NewMetadata struct {
	LocalFile      *zip.LocalFile
	DataDescriptor *zip.DataDescriptor
	Blob           []byte
}

// Directive is one entry in a patch's directive stream (spec.md §3.3,
// §6.2). Exactly one of Begin, Refresh, Patch, New is set, matching
// Tag; Offset is meaningful for COPY, REFRESH and PATCH.
type Directive struct {
	Tag    Tag
	Offset uint32

	Begin   *BeginMetadata
	Refresh *RefreshMetadata
	Patch   *PatchMetadata
	New     *NewMetadata
}

func writeUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeRefreshMetadata(w io.Writer, m *RefreshMetadata) error {
	if err := m.LocalFile.Write(w); err != nil {
		return err
	}
	if m.LocalFile.HasDataDescriptor() {
		return m.DataDescriptor.Write(w)
	}
	return nil
}

// Write serializes d per the wire layout for the given patchVersion
// (spec.md §6.2): version 1 omits the PATCH directive's two engine-id
// fields and implies JavaxDelta/CompressionNone on read.
func (d *Directive) Write(w io.Writer, version uint32) error {
	if err := writeUint8(w, uint8(d.Tag)); err != nil {
		return err
	}
	switch d.Tag {
	case TagBegin:
		return d.Begin.CentralDirectory.Write(w)
	case TagCopy:
		return writeUint32(w, d.Offset)
	case TagRefresh:
		if err := writeUint32(w, d.Offset); err != nil {
			return err
		}
		return writeRefreshMetadata(w, d.Refresh)
	case TagPatch:
		if err := writeUint32(w, d.Offset); err != nil {
			return err
		}
		if err := writeRefreshMetadata(w, &d.Patch.RefreshMetadata); err != nil {
			return err
		}
		if version >= 2 {
			if err := writeUint32(w, d.Patch.DeltaEngineID); err != nil {
				return err
			}
			if err := writeUint32(w, d.Patch.CompressionEngineID); err != nil {
				return err
			}
		}
		if err := writeUint32(w, uint32(len(d.Patch.Blob))); err != nil {
			return err
		}
		_, err := w.Write(d.Patch.Blob)
		return err
	case TagNew:
		if err := writeRefreshMetadata(w, &RefreshMetadata{LocalFile: d.New.LocalFile, DataDescriptor: d.New.DataDescriptor}); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(d.New.Blob))); err != nil {
			return err
		}
		_, err := w.Write(d.New.Blob)
		return err
	default:
		return fmt.Errorf("%w: tag %s", ErrUnexpectedDirective, d.Tag)
	}
}

func readRefreshMetadata(c *zip.Cursor) (*RefreshMetadata, error) {
	lf, err := c.ReadLocalFile()
	if err != nil {
		return nil, err
	}
	rm := &RefreshMetadata{LocalFile: lf}
	if lf.HasDataDescriptor() {
		dd, err := c.ReadDataDescriptor()
		if err != nil {
			return nil, err
		}
		rm.DataDescriptor = dd
	}
	return rm, nil
}

// ReadDirective reads one directive from c. version selects the PATCH
// wire layout (spec.md §6.2); for version 1 the delta/compression
// engine ids default to JavaxDelta/CompressionNone, the ambient
// default pair the legacy format always assumed.
func ReadDirective(c *zip.Cursor, version uint32) (*Directive, error) {
	tagByte, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	tag := Tag(tagByte)
	d := &Directive{Tag: tag}

	switch tag {
	case TagBegin:
		section, err := c.ReadCentralDirectorySection()
		if err != nil {
			return nil, err
		}
		d.Begin = &BeginMetadata{CentralDirectory: section}

	case TagCopy:
		off, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		d.Offset = off

	case TagRefresh:
		off, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		d.Offset = off
		rm, err := readRefreshMetadata(c)
		if err != nil {
			return nil, err
		}
		d.Refresh = rm

	case TagPatch:
		off, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		d.Offset = off
		rm, err := readRefreshMetadata(c)
		if err != nil {
			return nil, err
		}
		deltaID := uint32(engine.DeltaJavaxDelta)
		compID := uint32(engine.CompressionNone)
		if version >= 2 {
			deltaID, err = c.ReadUint32()
			if err != nil {
				return nil, err
			}
			compID, err = c.ReadUint32()
			if err != nil {
				return nil, err
			}
		}
		blobLen, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		blob, err := c.ReadBytes(int(blobLen))
		if err != nil {
			return nil, err
		}
		d.Patch = &PatchMetadata{
			RefreshMetadata:     *rm,
			DeltaEngineID:       deltaID,
			CompressionEngineID: compID,
			Blob:                append([]byte(nil), blob...),
		}

	case TagNew:
		rm, err := readRefreshMetadata(c)
		if err != nil {
			return nil, err
		}
		blobLen, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		blob, err := c.ReadBytes(int(blobLen))
		if err != nil {
			return nil, err
		}
		d.New = &NewMetadata{LocalFile: rm.LocalFile, DataDescriptor: rm.DataDescriptor, Blob: append([]byte(nil), blob...)}

	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnexpectedDirective, tagByte)
	}

	return d, nil
}
