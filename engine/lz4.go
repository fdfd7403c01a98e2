package engine

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor implements Compressor for engine id CompressionLZ4, a
// second real compression engine (beyond the mandatory NONE/DEFLATE
// pair) to exercise the pluggable, ordered engine-list rule (spec.md
// §4.4, §4.6) with more than one alternative.
type LZ4Compressor struct{}

func (LZ4Compressor) ID() uint32      { return CompressionLZ4 }
func (LZ4Compressor) Accepts([]byte) bool { return true }

func (LZ4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LZ4Uncompressor is the Uncompressor half of the same engine.
type LZ4Uncompressor struct{}

func (LZ4Uncompressor) ID() uint32 { return CompressionLZ4 }

func (LZ4Uncompressor) Uncompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}
