package zip

import (
	"bytes"
	"reflect"
	"testing"
)

func TestDataDescriptorRoundTrip(t *testing.T) {
	dd := &DataDescriptor{CRC32: 0xdeadbeef, CompressedSize: 12, UncompressedSize: 34}

	tests := []struct {
		name   string
		encode func() []byte
	}{
		{
			name: "signature-prefixed",
			encode: func() []byte {
				var buf bytes.Buffer
				if err := dd.Write(&buf); err != nil {
					t.Fatal(err)
				}
				return buf.Bytes()
			},
		},
		{
			name: "bare",
			encode: func() []byte {
				var buf bytes.Buffer
				if err := dd.Write(&buf); err != nil {
					t.Fatal(err)
				}
				return buf.Bytes()[4:] // strip the signature this package always writes
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.encode()
			c := &cursor{data: data}
			got, err := readDataDescriptor(c)
			if err != nil {
				t.Fatalf("readDataDescriptor: %v", err)
			}
			if *got != *dd {
				t.Errorf("got %+v, want %+v", got, dd)
			}
			if c.remaining() != 0 {
				t.Errorf("%d bytes left unconsumed", c.remaining())
			}
		})
	}
}

func TestLocalFileRoundTrip(t *testing.T) {
	lf := &LocalFile{
		ReaderVersion:    20,
		Flags:            FlagDataDescriptor | FlagUTF8,
		Method:           Deflate,
		ModifiedTime:     0x1234,
		ModifiedDate:     0x5678,
		CRC32:            1,
		CompressedSize:   2,
		UncompressedSize: 3,
		Name:             "hello/world.txt",
		Extra:            []byte{1, 2, 3, 4},
	}

	var buf bytes.Buffer
	if err := lf.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != lf.StructureLength() {
		t.Fatalf("wrote %d bytes, StructureLength says %d", buf.Len(), lf.StructureLength())
	}

	c := &cursor{data: buf.Bytes()}
	got, err := readLocalFile(c)
	if err != nil {
		t.Fatalf("readLocalFile: %v", err)
	}
	// Extra is a slice, compare separately.
	gotCopy, wantCopy := *got, *lf
	gotCopy.Extra, wantCopy.Extra = nil, nil
	if !reflect.DeepEqual(gotCopy, wantCopy) || !bytes.Equal(got.Extra, lf.Extra) {
		t.Errorf("got %+v, want %+v", got, lf)
	}
}

func TestCentralDirectoryFilePositionIndependentEqual(t *testing.T) {
	a := &CentralDirectoryFile{Name: "a", CRC32: 1, RelativeOffsetOfLocalHeader: 100}
	b := &CentralDirectoryFile{Name: "a", CRC32: 1, RelativeOffsetOfLocalHeader: 200}
	if !a.PositionIndependentEqual(b) {
		t.Error("entries differing only in RelativeOffsetOfLocalHeader should be position-independent equal")
	}

	c := &CentralDirectoryFile{Name: "a", CRC32: 2, RelativeOffsetOfLocalHeader: 100}
	if a.PositionIndependentEqual(c) {
		t.Error("entries with different CRC32 should not be position-independent equal")
	}
}
