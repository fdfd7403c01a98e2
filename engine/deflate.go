package engine

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// DeflateRawCompressor implements Compressor for engine id
// CompressionDeflateRaw: raw DEFLATE, no zlib/gzip wrapper, matching
// the archive's own payload codec (spec.md §4.3 step 3).
type DeflateRawCompressor struct{}

func (DeflateRawCompressor) ID() uint32      { return CompressionDeflateRaw }
func (DeflateRawCompressor) Accepts([]byte) bool { return true }

func (DeflateRawCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeflateRawUncompressor is the Uncompressor half of the same engine.
type DeflateRawUncompressor struct{}

func (DeflateRawUncompressor) ID() uint32 { return CompressionDeflateRaw }

func (DeflateRawUncompressor) Uncompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}
