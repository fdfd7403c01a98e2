package engine

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRegistryUnknownEngine(t *testing.T) {
	r := NewRegistry()
	if _, err := r.DeltaApplierByID(99); err == nil {
		t.Error("expected ErrUnknownEngine for unregistered delta id")
	}
	if _, err := r.UncompressorByID(99); err == nil {
		t.Error("expected ErrUnknownEngine for unregistered compression id")
	}
}

func TestRegistryOrderedAccessorsMatchRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.RegisterDelta(JavaxDeltaGenerator{}, JavaxDeltaApplier{})
	r.RegisterDelta(BSDiffGenerator{}, BSDiffApplier{})
	r.RegisterCompression(DeflateRawCompressor{}, DeflateRawUncompressor{})
	r.RegisterCompression(LZ4Compressor{}, LZ4Uncompressor{})

	gens := r.DeltaGenerators()
	if len(gens) != 2 || gens[0].ID() != DeltaJavaxDelta || gens[1].ID() != DeltaBSDiff {
		t.Fatalf("DeltaGenerators() = %v, want [JavaxDelta, BSDiff] in registration order", gens)
	}

	comps := r.Compressors()
	if len(comps) != 2 || comps[0].ID() != CompressionDeflateRaw || comps[1].ID() != CompressionLZ4 {
		t.Fatalf("Compressors() = %v, want [DeflateRaw, LZ4] in registration order", comps)
	}
}

func TestDefaultRegistryOrdersJavaxDeltaBeforeBSDiff(t *testing.T) {
	gens := Default().DeltaGenerators()
	if len(gens) < 2 || gens[0].ID() != DeltaJavaxDelta || gens[1].ID() != DeltaBSDiff {
		t.Fatalf("Default().DeltaGenerators() = %v, want JavaxDelta before BSDiff", gens)
	}
}

func TestUncompressorByIDNoneIsIdentity(t *testing.T) {
	r := NewRegistry()
	u, err := r.UncompressorByID(CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("passthrough")
	got, err := u.Uncompress(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestDeflateRawRoundTrip(t *testing.T) {
	data := []byte(bytes.Repeat([]byte("hello world "), 50))
	c := DeflateRawCompressor{}
	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatal(err)
	}
	u := DeflateRawUncompressor{}
	got, err := u.Uncompress(compressed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("round trip mismatch")
	}
}

func TestLZ4RoundTrip(t *testing.T) {
	data := []byte(bytes.Repeat([]byte("abcdefgh"), 100))
	c := LZ4Compressor{}
	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatal(err)
	}
	u := LZ4Uncompressor{}
	got, err := u.Uncompress(compressed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("round trip mismatch")
	}
}

func TestBSDiffRoundTrip(t *testing.T) {
	old := randBytesForTest(4096, 1)
	newData := append(append([]byte{}, old[:2048]...), randBytesForTest(256, 2)...)
	newData = append(newData, old[2048:]...)

	g := BSDiffGenerator{}
	delta, err := g.Generate(old, newData)
	if err != nil {
		t.Fatal(err)
	}
	a := BSDiffApplier{}
	got, err := a.Apply(old, delta)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, newData) {
		t.Error("bsdiff round trip mismatch")
	}
}

func TestJavaxDeltaRoundTrip(t *testing.T) {
	old := randBytesForTest(4096, 3)
	newData := append(append([]byte{}, old[:1000]...), []byte("some inserted literal bytes here")...)
	newData = append(newData, old[1000:3000]...)

	g := JavaxDeltaGenerator{}
	delta, err := g.Generate(old, newData)
	if err != nil {
		t.Fatal(err)
	}
	a := JavaxDeltaApplier{}
	got, err := a.Apply(old, delta)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, newData) {
		t.Error("javaxdelta round trip mismatch")
	}
}

func TestQuickEqual(t *testing.T) {
	a := []byte("identical payload")
	b := append([]byte{}, a...)
	if !QuickEqual(a, b) {
		t.Error("identical byte slices should compare equal")
	}
	c := []byte("different payload")
	if QuickEqual(a, c) {
		t.Error("different byte slices should not compare equal")
	}
}

func randBytesForTest(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}
