// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package zip implements a bit-exact reader/writer for the PKZIP/"ZIP"
container format: local file records, the central directory, the
end-of-central-directory trailer, and the optional data descriptor.

It deliberately mirrors the subset of the format archive patching
needs (spec.md §1 Non-goals): no POSIX permissions, no encryption, no
multi-volume archives, no ZIP64 size extensions, and compression
limited to stored/deflated.
*/
package zip

import (
	"bytes"
	"fmt"
	"io"
)

// LocalSectionParts is the per-entry triple described in spec.md §3.1:
// a LocalFile header, the (possibly compressed) FileData, and an
// optional trailing DataDescriptor.
type LocalSectionParts struct {
	LocalFile      *LocalFile
	FileData       []byte
	DataDescriptor *DataDescriptor
}

// StructureLength is the exact number of bytes Write emits.
func (p *LocalSectionParts) StructureLength() int {
	n := p.LocalFile.StructureLength() + len(p.FileData)
	if p.DataDescriptor != nil {
		n += p.DataDescriptor.StructureLength()
	}
	return n
}

// Clone returns a deep copy, safe to hand to more than one Archive
// (the patch applier does this when a cached old entry is reused
// verbatim for a COPY directive).
func (p *LocalSectionParts) Clone() *LocalSectionParts {
	c := &LocalSectionParts{
		LocalFile: p.LocalFile.Clone(),
		FileData:  append([]byte(nil), p.FileData...),
	}
	if p.DataDescriptor != nil {
		dd := *p.DataDescriptor
		c.DataDescriptor = &dd
	}
	return c
}

func (p *LocalSectionParts) Write(w io.Writer) error {
	if err := p.LocalFile.Write(w); err != nil {
		return err
	}
	if _, err := w.Write(p.FileData); err != nil {
		return err
	}
	if p.DataDescriptor != nil {
		return p.DataDescriptor.Write(w)
	}
	return nil
}

// readLocalSectionAt parses one LocalSectionParts starting at the given
// cursor position. centralByName supplies the authoritative compressed
// size for entries whose size lives in a trailing DataDescriptor
// (spec.md §3.1, §4.1): the local header's own size fields are zero in
// that case, so there is no way to know where the payload ends without
// consulting the matching central-directory entry.
func readLocalSectionAt(c *cursor, centralByName map[string]*CentralDirectoryFile) (*LocalSectionParts, error) {
	lf, err := readLocalFile(c)
	if err != nil {
		return nil, err
	}
	cd, ok := centralByName[lf.Name]
	if !ok {
		return nil, fmt.Errorf("%w: local section %q has no central directory entry", ErrFormat, lf.Name)
	}

	payload, err := c.readN(int(cd.CompressedSize))
	if err != nil {
		return nil, err
	}
	ls := &LocalSectionParts{
		LocalFile: lf,
		FileData:  append([]byte(nil), payload...),
	}

	if lf.HasDataDescriptor() {
		dd, err := readDataDescriptor(c)
		if err != nil {
			return nil, err
		}
		ls.DataDescriptor = dd
	}
	return ls, nil
}

// CentralDirectorySection is a central directory plus its EOCD trailer,
// the payload BEGIN directives carry (spec.md §3.4, §6.2).
type CentralDirectorySection struct {
	Entries []*CentralDirectoryFile
	EOCD    *EndOfCentralDirectory
}

func (s *CentralDirectorySection) StructureLength() int {
	n := s.EOCD.StructureLength()
	for _, e := range s.Entries {
		n += e.StructureLength()
	}
	return n
}

func (s *CentralDirectorySection) Write(w io.Writer) error {
	for _, e := range s.Entries {
		if err := e.Write(w); err != nil {
			return err
		}
	}
	return s.EOCD.Write(w)
}

// readCentralDirectorySection reads central-directory entries
// sequentially until the EOCD signature, then the EOCD itself
// (spec.md §4.2). Used both by Load (via a count/offset-bounded
// variant) and by the patch package (through Cursor, below) to parse a
// BEGIN directive's payload from a plain forward-only stream.
func readCentralDirectorySection(c *cursor) (*CentralDirectorySection, error) {
	var entries []*CentralDirectoryFile
	for {
		sig, ok := c.peekUint32()
		if !ok {
			return nil, ErrTruncated
		}
		if sig == EndOfCentralDirectorySignature {
			break
		}
		if sig != CentralDirectorySignature {
			return nil, fmt.Errorf("%w: expected central directory or EOCD signature, got %#x", ErrFormat, sig)
		}
		e, err := readCentralDirectoryFile(c)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	eocd, err := readEndOfCentralDirectory(c)
	if err != nil {
		return nil, err
	}
	return &CentralDirectorySection{Entries: entries, EOCD: eocd}, nil
}

// NewCursor exposes the package-private cursor to callers (the patch
// package) that need to parse a CentralDirectorySection out of a
// larger byte slice starting at an arbitrary position.
func NewCursor(data []byte, pos int) *Cursor {
	return &Cursor{c: &cursor{data: data, pos: pos}}
}

// Cursor is the exported handle around the internal cursor type.
type Cursor struct{ c *cursor }

// Pos returns the current read position.
func (c *Cursor) Pos() int { return c.c.pos }

// ReadCentralDirectorySection reads a CentralDirectorySection from c.
func (c *Cursor) ReadCentralDirectorySection() (*CentralDirectorySection, error) {
	return readCentralDirectorySection(c.c)
}

// Remaining reports how many bytes are left unread in c.
func (c *Cursor) Remaining() int { return c.c.remaining() }

// ReadLocalFile reads a LocalFile header, used by REFRESH/PATCH/NEW
// directive payloads (spec.md §6.2).
func (c *Cursor) ReadLocalFile() (*LocalFile, error) { return readLocalFile(c.c) }

// ReadDataDescriptor reads an optional DataDescriptor, accepting both
// the signature-prefixed and bare encodings (spec.md §4.1, §9).
func (c *Cursor) ReadDataDescriptor() (*DataDescriptor, error) { return readDataDescriptor(c.c) }

// ReadUint32 reads one little-endian u32, the width every directive
// offset/length/engine-id field uses (spec.md §6.2).
func (c *Cursor) ReadUint32() (uint32, error) {
	raw, err := c.c.readN(4)
	if err != nil {
		return 0, err
	}
	b := readBuf(raw)
	return b.uint32(), nil
}

// ReadUint8 reads one byte, the width a directive's tag uses.
func (c *Cursor) ReadUint8() (uint8, error) {
	raw, err := c.c.readN(1)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

// ReadBytes reads exactly n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) { return c.c.readN(n) }

// Archive is an in-memory, ordered ZIP container: a local section, a
// central directory, and an EOCD trailer (spec.md §3.1).
type Archive struct {
	Local   []*LocalSectionParts
	Central []*CentralDirectoryFile
	Comment string

	finalized bool
	eocd      *EndOfCentralDirectory
}

// New returns an empty, unfinalized Archive.
func New() *Archive { return &Archive{} }

// Append adds one local section and its mirroring central-directory
// entry to the archive, in order. It fails if the archive has already
// been finalized, or the two records do not name the same file
// (spec.md §3.1 invariant: pairing is by name).
func (a *Archive) Append(ls *LocalSectionParts, cd *CentralDirectoryFile) error {
	if a.finalized {
		return ErrFinalized
	}
	if ls.LocalFile.Name != cd.Name {
		return fmt.Errorf("%w: local section name %q does not match central directory entry %q", ErrFormat, ls.LocalFile.Name, cd.Name)
	}
	a.Local = append(a.Local, ls)
	a.Central = append(a.Central, cd)
	return nil
}

// CentralByName indexes Central by file name.
func (a *Archive) CentralByName() map[string]*CentralDirectoryFile {
	m := make(map[string]*CentralDirectoryFile, len(a.Central))
	for _, cd := range a.Central {
		m[cd.Name] = cd
	}
	return m
}

// LocalByName indexes Local by file name.
func (a *Archive) LocalByName() map[string]*LocalSectionParts {
	m := make(map[string]*LocalSectionParts, len(a.Local))
	for _, ls := range a.Local {
		m[ls.LocalFile.Name] = ls
	}
	return m
}

// EOCD returns the trailer computed by the last Finalize call, or nil
// if the archive has not been finalized yet.
func (a *Archive) EOCD() *EndOfCentralDirectory { return a.eocd }

// Finalized reports whether Finalize has been called.
func (a *Archive) Finalized() bool { return a.finalized }

// Finalize recomputes every local-header offset, the EOCD, and
// verifies local/central pairing. It is idempotent: once finalized, an
// Archive accepts no further mutation (Append returns ErrFinalized),
// so a second call is a pure no-op and offsets are stable (spec.md
// §4.2, §8 "idempotent finalization").
func (a *Archive) Finalize() error {
	if a.finalized {
		return nil
	}

	localOffsets := make(map[string]uint32, len(a.Local))
	var offset int64
	for _, ls := range a.Local {
		name := ls.LocalFile.Name
		if _, dup := localOffsets[name]; dup {
			return fmt.Errorf("%w: duplicate local section name %q", ErrFormat, name)
		}
		localOffsets[name] = uint32(offset)
		offset += int64(ls.StructureLength())
	}

	seen := make(map[string]bool, len(a.Central))
	var cdLength int64
	for _, cd := range a.Central {
		off, ok := localOffsets[cd.Name]
		if !ok {
			return fmt.Errorf("%w: central directory entry %q has no matching local section", ErrFormat, cd.Name)
		}
		if seen[cd.Name] {
			return fmt.Errorf("%w: duplicate central directory entry %q", ErrFormat, cd.Name)
		}
		seen[cd.Name] = true
		cd.RelativeOffsetOfLocalHeader = off
		cdLength += int64(cd.StructureLength())
	}
	if len(seen) != len(localOffsets) {
		return fmt.Errorf("%w: unpaired local sections remain", ErrFormat)
	}

	a.eocd = &EndOfCentralDirectory{
		NumEntriesThisDisk:              uint16(len(a.Central)),
		NumEntriesTotal:                 uint16(len(a.Central)),
		LengthOfCentralDirectory:        uint32(cdLength),
		OffsetOfStartOfCentralDirectory: uint32(offset),
		Comment:                         a.Comment,
	}
	a.finalized = true
	return nil
}

// Snapshot finalizes the archive (if needed) and returns its central
// directory and EOCD as a standalone CentralDirectorySection, the
// payload a patch BEGIN directive carries (spec.md §4.4).
func (a *Archive) Snapshot() (*CentralDirectorySection, error) {
	if err := a.Finalize(); err != nil {
		return nil, err
	}
	return &CentralDirectorySection{Entries: a.Central, EOCD: a.eocd}, nil
}

// Install replaces the archive's central directory content with the
// one carried by a patch's BEGIN directive, the way the applier
// reconstructs new-archive metadata even where REFRESH/PATCH changed
// flags or timestamps (spec.md §4.5 step 4). Offsets are discarded and
// recomputed by the next Finalize call.
func (a *Archive) Install(section *CentralDirectorySection) error {
	if a.finalized {
		return ErrFinalized
	}
	a.Central = section.Entries
	a.Comment = section.EOCD.Comment
	return nil
}

// WriteTo finalizes the archive (if needed) and serializes it: the
// local section in insertion order, then the central directory in its
// order, then the EOCD (spec.md §4.2). It writes through the same
// go4.org/readerutil-composed ReaderAt that random-access callers use,
// so the two never drift apart.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	ra, size, err := a.ReaderAt()
	if err != nil {
		return 0, err
	}
	return io.Copy(w, io.NewSectionReader(ra, 0, size))
}

// Bytes finalizes and serializes the archive into a new byte slice.
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load parses a complete archive image (spec.md §4.2). It locates the
// EOCD trailer first (scanning backward, since the archive comment has
// unknown length) to learn the authoritative compressed size of any
// entry whose size lives in a DataDescriptor rather than its LocalFile
// — those fields are zeroed in the local header by definition (spec.md
// §3.1), so there is no way to bound that entry's FileData without
// consulting the central directory.
func Load(data []byte) (*Archive, error) {
	eocdPos, err := findEndOfCentralDirectory(data)
	if err != nil {
		return nil, err
	}

	eocdCursor := &cursor{data: data, pos: eocdPos}
	eocd, err := readEndOfCentralDirectory(eocdCursor)
	if err != nil {
		return nil, err
	}

	cdCursor := &cursor{data: data, pos: int(eocd.OffsetOfStartOfCentralDirectory)}
	central := make([]*CentralDirectoryFile, 0, eocd.NumEntriesTotal)
	byName := make(map[string]*CentralDirectoryFile, eocd.NumEntriesTotal)
	for cdCursor.pos < eocdPos {
		entry, err := readCentralDirectoryFile(cdCursor)
		if err != nil {
			return nil, err
		}
		if _, dup := byName[entry.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate central directory entry %q", ErrFormat, entry.Name)
		}
		byName[entry.Name] = entry
		central = append(central, entry)
	}
	if cdCursor.pos != eocdPos || len(central) != int(eocd.NumEntriesTotal) {
		return nil, fmt.Errorf("%w: central directory length does not match EOCD", ErrFormat)
	}

	localCursor := &cursor{data: data, pos: 0}
	var local []*LocalSectionParts
	consumed := make(map[string]bool, len(central))
	for {
		sig, ok := localCursor.peekUint32()
		if !ok || sig != LocalFileSignature {
			break
		}
		ls, err := readLocalSectionAt(localCursor, byName)
		if err != nil {
			return nil, err
		}
		if consumed[ls.LocalFile.Name] {
			return nil, fmt.Errorf("%w: duplicate local section %q", ErrFormat, ls.LocalFile.Name)
		}
		consumed[ls.LocalFile.Name] = true
		local = append(local, ls)
	}
	if localCursor.pos != int(eocd.OffsetOfStartOfCentralDirectory) {
		return nil, fmt.Errorf("%w: local section length does not match central directory offset", ErrFormat)
	}
	if len(consumed) != len(central) {
		return nil, fmt.Errorf("%w: unpaired central directory entries remain", ErrFormat)
	}

	a := &Archive{Local: local, Central: central, Comment: eocd.Comment}
	if err := a.Finalize(); err != nil {
		return nil, err
	}
	return a, nil
}

// findEndOfCentralDirectory scans backward for the EOCD signature,
// verifying the declared comment length accounts for every remaining
// byte, so a comment that happens to contain the signature bytes does
// not get mistaken for the trailer.
func findEndOfCentralDirectory(data []byte) (int, error) {
	maxSearch := endOfCentralDirectoryFixedLen + uint16max
	start := len(data) - maxSearch
	if start < 0 {
		start = 0
	}
	for i := len(data) - endOfCentralDirectoryFixedLen; i >= start; i-- {
		if i < 0 {
			break
		}
		sig := readBuf(data[i : i+4])
		if sig.uint32() != EndOfCentralDirectorySignature {
			continue
		}
		commentField := readBuf(data[i+20 : i+22])
		commentLen := int(commentField.uint16())
		if i+endOfCentralDirectoryFixedLen+commentLen == len(data) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: end of central directory record not found", ErrFormat)
}

// ReadLocalSectionAt parses one LocalSectionParts out of archive image
// data, starting at the given absolute byte offset, using central for
// the authoritative compressed size of descriptor-flagged entries.
// This is what the patch applier uses to pull a source entry out of
// the old archive for COPY/REFRESH/PATCH (spec.md §4.5).
func ReadLocalSectionAt(data []byte, central map[string]*CentralDirectoryFile, offset uint32) (*LocalSectionParts, error) {
	c := &cursor{data: data, pos: int(offset)}
	return readLocalSectionAt(c, central)
}
