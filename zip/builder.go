package zip

import (
	"bytes"
	"hash/crc32"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
)

// Reference version numbers written by this package (spec.md §6.1).
const (
	zipVersion20 uint16 = 20

	// creatorUnix marks the high byte of CreatorVersion as produced on
	// a Unix-like host; this core does not track POSIX permissions
	// (spec.md §1 Non-goals), so it is purely informational.
	creatorUnix uint16 = 3
)

// AddFile appends one entry to the archive using the in-memory builder
// algorithm from spec.md §4.3: a fresh LocalFile with the
// sizes-and-CRC-in-descriptor flag set, raw (headerless) DEFLATE
// compression, and a mirroring CentralDirectoryFile. content is read to
// EOF and fully buffered; this matches the teacher's own "buffer one
// entry in memory" builder model (spec.md §5 Resource discipline).
func (a *Archive) AddFile(name string, modified time.Time, content io.Reader) error {
	modDate, modTime := timeToMsDosTime(modified)

	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	if err != nil {
		return err
	}
	crc := crc32.NewIEEE()
	uncompressedLen, err := io.Copy(io.MultiWriter(fw, crc), content)
	if err != nil {
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}

	lf := &LocalFile{
		ReaderVersion: zipVersion20,
		Flags:         FlagDataDescriptor,
		Method:        Deflate,
		ModifiedDate:  modDate,
		ModifiedTime:  modTime,
		Name:          name,
	}
	dd := &DataDescriptor{
		CRC32:            crc.Sum32(),
		CompressedSize:   uint32(compressed.Len()),
		UncompressedSize: uint32(uncompressedLen),
	}
	ls := &LocalSectionParts{
		LocalFile:      lf,
		FileData:       compressed.Bytes(),
		DataDescriptor: dd,
	}

	cd := &CentralDirectoryFile{
		CreatorVersion:   creatorUnix<<8 | zipVersion20,
		ReaderVersion:    zipVersion20,
		Flags:            lf.Flags,
		Method:           lf.Method,
		ModifiedTime:     lf.ModifiedTime,
		ModifiedDate:     lf.ModifiedDate,
		CRC32:            dd.CRC32,
		CompressedSize:   dd.CompressedSize,
		UncompressedSize: dd.UncompressedSize,
		Name:             name,
	}
	return a.Append(ls, cd)
}

// AddFileMillis is AddFile with the epoch-milliseconds timestamp
// convention spec.md §4.3 specifies for the reference producer.
func (a *Archive) AddFileMillis(name string, lastModifiedMillis int64, content io.Reader) error {
	return a.AddFile(name, millisToTime(lastModifiedMillis), content)
}
