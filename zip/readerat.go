package zip

import (
	"bytes"
	"io"

	"go4.org/readerutil"
)

// ReaderAt finalizes the archive and composes it into a single
// io.ReaderAt without concatenating every part into one buffer first:
// each local section and the central directory section is serialized
// once into its own byte slice, then the slices are joined with
// go4.org/readerutil the way the teacher's own hand-rolled
// multiReaderAt joined HTTP range parts. WriteTo and Bytes both read
// the archive out through this same composed reader, so callers that
// only need a range of the archive (e.g. serving one entry) can read
// through it directly instead of materializing WriteTo's full output.
func (a *Archive) ReaderAt() (readerutil.SizeReaderAt, int64, error) {
	if err := a.Finalize(); err != nil {
		return nil, 0, err
	}

	parts := make([]readerutil.SizeReaderAt, 0, len(a.Local)+1)
	for _, ls := range a.Local {
		buf, err := serializeToBytes(ls)
		if err != nil {
			return nil, 0, err
		}
		parts = append(parts, bytes.NewReader(buf))
	}

	section := &CentralDirectorySection{Entries: a.Central, EOCD: a.eocd}
	cdBuf, err := serializeToBytes(section)
	if err != nil {
		return nil, 0, err
	}
	parts = append(parts, bytes.NewReader(cdBuf))

	composed := readerutil.NewMultiReaderAt(parts...)
	return composed, composed.Size(), nil
}

type writerToBytes interface {
	Write(w io.Writer) error
}

func serializeToBytes(v writerToBytes) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
