package zip

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
)

func TestEmptyArchiveRoundTrip(t *testing.T) {
	a := New()
	data, err := a.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Central) != 0 || len(got.Local) != 0 {
		t.Errorf("got %d central / %d local entries, want 0/0", len(got.Central), len(got.Local))
	}
}

func TestSingleEntryRoundTrip(t *testing.T) {
	a := New()
	content := "Rabbits, guinea pigs, gophers, marsupial rats, and quolls."
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := a.AddFile("hello.txt", mtime, strings.NewReader(content)); err != nil {
		t.Fatal(err)
	}

	data, err := a.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Central) != 1 {
		t.Fatalf("got %d central entries, want 1", len(got.Central))
	}

	ls := got.Local[0]
	fr := flate.NewReader(bytes.NewReader(ls.FileData))
	var decoded bytes.Buffer
	if _, err := io.Copy(&decoded, fr); err != nil {
		t.Fatal(err)
	}
	if decoded.String() != content {
		t.Errorf("got payload %q, want %q", decoded.String(), content)
	}
	if ls.DataDescriptor == nil {
		t.Fatal("expected a DataDescriptor (FlagDataDescriptor set by AddFile)")
	}
	if ls.DataDescriptor.UncompressedSize != uint32(len(content)) {
		t.Errorf("got UncompressedSize %d, want %d", ls.DataDescriptor.UncompressedSize, len(content))
	}
}

func TestReaderAtServesArbitraryRanges(t *testing.T) {
	a := New()
	content := "Rabbits, guinea pigs, gophers, marsupial rats, and quolls."
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := a.AddFile("hello.txt", mtime, strings.NewReader(content)); err != nil {
		t.Fatal(err)
	}

	want, err := a.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	ra, size, err := a.ReaderAt()
	if err != nil {
		t.Fatal(err)
	}
	if size != int64(len(want)) {
		t.Fatalf("ReaderAt size = %d, want %d", size, len(want))
	}

	// Read the archive back in two adjacent ranges, out of order, the
	// access pattern ReaderAt exists for (a full serial WriteTo would
	// not exercise random access at all).
	second := make([]byte, size-size/2)
	if _, err := ra.ReadAt(second, size/2); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if !bytes.Equal(second, want[size/2:]) {
		t.Error("second-half ReadAt did not match Bytes() output")
	}
	first := make([]byte, size/2)
	if _, err := ra.ReadAt(first, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, want[:size/2]) {
		t.Error("first-half ReadAt did not match Bytes() output")
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	a := New()
	if err := a.AddFile("a.txt", time.Now(), strings.NewReader("a")); err != nil {
		t.Fatal(err)
	}
	if err := a.Finalize(); err != nil {
		t.Fatal(err)
	}
	offset := a.Central[0].RelativeOffsetOfLocalHeader
	if err := a.Finalize(); err != nil {
		t.Fatal(err)
	}
	if a.Central[0].RelativeOffsetOfLocalHeader != offset {
		t.Error("second Finalize changed an already-computed offset")
	}
	if err := a.Append(&LocalSectionParts{LocalFile: &LocalFile{Name: "b.txt"}}, &CentralDirectoryFile{Name: "b.txt"}); err != ErrFinalized {
		t.Errorf("Append after Finalize: got %v, want ErrFinalized", err)
	}
}

func TestLoadRejectsTruncatedInput(t *testing.T) {
	a := New()
	if err := a.AddFile("a.txt", time.Now(), strings.NewReader("a")); err != nil {
		t.Fatal(err)
	}
	data, err := a.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Load(data[:len(data)-5]); err == nil {
		t.Error("Load on truncated input should fail")
	}
}
