package rfbenc

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func TestPersistentCompressorRoundTrips(t *testing.T) {
	pc := NewPersistentCompressor()
	payload := bytes.Repeat([]byte("vnc-hextile-tight-zrle"), 50)

	compressed, err := pc.Compress(0, 6, payload)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	// Compress sync-flushes instead of closing the stream, so the chunk has
	// no final block: the reader delivers every byte and then reports
	// io.ErrUnexpectedEOF.
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil && err != io.ErrUnexpectedEOF {
		t.Fatalf("reading inflated stream: %v", err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatal("round-tripped payload does not match input")
	}
}

func TestPersistentCompressorStreamsAreIndependent(t *testing.T) {
	pc := NewPersistentCompressor()
	a, err := pc.Compress(0, 6, []byte("stream zero"))
	if err != nil {
		t.Fatalf("Compress stream 0: %v", err)
	}
	b, err := pc.Compress(1, 6, []byte("stream one"))
	if err != nil {
		t.Fatalf("Compress stream 1: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("independent streams produced identical output for different input")
	}
}

func TestPersistentCompressorRejectsBadStreamID(t *testing.T) {
	pc := NewPersistentCompressor()
	if _, err := pc.Compress(4, 6, []byte("x")); err == nil {
		t.Fatal("expected error for out-of-range stream id")
	}
}

func TestPersistentCompressorLevelChangeResetsStream(t *testing.T) {
	pc := NewPersistentCompressor()
	payload := []byte("some repeated payload some repeated payload")
	if _, err := pc.Compress(0, 1, payload); err != nil {
		t.Fatalf("Compress at level 1: %v", err)
	}
	out, err := pc.Compress(0, 9, payload)
	if err != nil {
		t.Fatalf("Compress at level 9: %v", err)
	}
	// Re-initializing the stream means this call's output decompresses to
	// exactly the new payload, not a dictionary-relative delta against the
	// prior level's stream.
	r, err := zlib.NewReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	var got bytes.Buffer
	if _, err := got.ReadFrom(r); err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if !bytes.Equal(got.Bytes(), payload) {
		t.Fatal("payload did not round-trip after a level change")
	}
}
