package patch

import (
	"bytes"
	"testing"

	"github.com/martin-sucha/archivepatch/engine"
	"github.com/martin-sucha/archivepatch/zip"
)

func lfFor(name string) *zip.LocalFile {
	return &zip.LocalFile{Name: name, ReaderVersion: 20}
}

func TestPatchMetadataEngineIDsDoNotAlias(t *testing.T) {
	pm := &PatchMetadata{
		RefreshMetadata:     RefreshMetadata{LocalFile: lfFor("a")},
		DeltaEngineID:       engine.DeltaBSDiff,
		CompressionEngineID: engine.CompressionLZ4,
	}
	if pm.GetDeltaEngineID() != engine.DeltaBSDiff {
		t.Errorf("GetDeltaEngineID() = %d, want %d", pm.GetDeltaEngineID(), engine.DeltaBSDiff)
	}
	if pm.GetCompressionEngineID() != engine.CompressionLZ4 {
		t.Errorf("GetCompressionEngineID() = %d, want %d (must not return the delta engine id)", pm.GetCompressionEngineID(), engine.CompressionLZ4)
	}
}

func TestDirectiveWriteReadVersion2(t *testing.T) {
	d := &Directive{
		Tag:    TagPatch,
		Offset: 123,
		Patch: &PatchMetadata{
			RefreshMetadata:     RefreshMetadata{LocalFile: lfFor("patched.bin")},
			DeltaEngineID:       engine.DeltaBSDiff,
			CompressionEngineID: engine.CompressionLZ4,
			Blob:                []byte("delta-bytes"),
		},
	}

	var buf bytes.Buffer
	if err := d.Write(&buf, 2); err != nil {
		t.Fatal(err)
	}

	c := zip.NewCursor(buf.Bytes(), 0)
	got, err := ReadDirective(c, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tag != TagPatch || got.Offset != 123 {
		t.Fatalf("got tag=%v offset=%d", got.Tag, got.Offset)
	}
	if got.Patch.DeltaEngineID != engine.DeltaBSDiff || got.Patch.CompressionEngineID != engine.CompressionLZ4 {
		t.Errorf("engine ids round-tripped wrong: %+v", got.Patch)
	}
	if !bytes.Equal(got.Patch.Blob, []byte("delta-bytes")) {
		t.Errorf("blob round-tripped wrong: %q", got.Patch.Blob)
	}
}

func TestDirectiveVersion1DefaultsEngineIDs(t *testing.T) {
	d := &Directive{
		Tag:    TagPatch,
		Offset: 7,
		Patch: &PatchMetadata{
			RefreshMetadata: RefreshMetadata{LocalFile: lfFor("legacy.bin")},
			Blob:            []byte("legacy-delta"),
		},
	}

	var buf bytes.Buffer
	if err := d.Write(&buf, 1); err != nil {
		t.Fatal(err)
	}

	c := zip.NewCursor(buf.Bytes(), 0)
	got, err := ReadDirective(c, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Patch.DeltaEngineID != engine.DeltaJavaxDelta {
		t.Errorf("version 1 PATCH should default to DeltaJavaxDelta, got %d", got.Patch.DeltaEngineID)
	}
	if got.Patch.CompressionEngineID != engine.CompressionNone {
		t.Errorf("version 1 PATCH should default to CompressionNone, got %d", got.Patch.CompressionEngineID)
	}
}

func TestDirectiveWriteReadBegin(t *testing.T) {
	section := &zip.CentralDirectorySection{
		Entries: nil,
		EOCD:    &zip.EndOfCentralDirectory{},
	}
	d := &Directive{Tag: TagBegin, Begin: &BeginMetadata{CentralDirectory: section}}

	var buf bytes.Buffer
	if err := d.Write(&buf, CurrentPatchVersion); err != nil {
		t.Fatal(err)
	}
	c := zip.NewCursor(buf.Bytes(), 0)
	got, err := ReadDirective(c, CurrentPatchVersion)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tag != TagBegin {
		t.Fatalf("got tag %v, want TagBegin", got.Tag)
	}
	if len(got.Begin.CentralDirectory.Entries) != 0 {
		t.Errorf("expected empty central directory, got %d entries", len(got.Begin.CentralDirectory.Entries))
	}
}
