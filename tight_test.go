package rfbenc

import "testing"

func TestTightEncodingSolidTileUsesFillControlByte(t *testing.T) {
	interior := solidInterior(8, 8, 11, 22, 33)
	enc := &TightEncoding{}
	pc := NewPersistentCompressor()

	out, err := enc.EncodeStateful(interior, 8, 8, Options{Format: PixelFormatRGBA32, Quality: 9, Compression: 6}, pc)
	if err != nil {
		t.Fatalf("EncodeStateful: %v", err)
	}
	if out[0] != 0x80 {
		t.Fatalf("expected Fill control byte 0x80, got 0x%02x", out[0])
	}
	// TPIXEL for RGBA32 (channels within the low 24 bits) is 3 bytes.
	if len(out) != 1+3 {
		t.Fatalf("expected 4 bytes for a solid tile, got %d", len(out))
	}
}

func TestTightEncodingSolidRedMatchesSpecVector(t *testing.T) {
	interior := solidInterior(4, 4, 255, 0, 0)
	enc := &TightEncoding{}
	pc := NewPersistentCompressor()

	out, err := enc.EncodeStateful(interior, 4, 4, Options{Format: PixelFormatRGBA32, Quality: 9, Compression: 6}, pc)
	if err != nil {
		t.Fatalf("EncodeStateful: %v", err)
	}
	want := []byte{0x80, 0xFF, 0x00, 0x00}
	if len(out) != len(want) {
		t.Fatalf("expected %d bytes, got %d: % x", len(want), len(out), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d: got 0x%02x, want 0x%02x", i, out[i], want[i])
		}
	}
}

func TestTightEncodingMonoTileUsesPaletteFilter(t *testing.T) {
	interior := solidInterior(8, 8, 0, 0, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			o := 4 * (y*8 + x)
			interior[o], interior[o+1], interior[o+2] = 255, 255, 255
		}
	}
	enc := &TightEncoding{}
	pc := NewPersistentCompressor()

	out, err := enc.EncodeStateful(interior, 8, 8, Options{Format: PixelFormatRGBA32, Quality: 9, Compression: 6}, pc)
	if err != nil {
		t.Fatalf("EncodeStateful: %v", err)
	}
	if out[0] != 0x40 {
		t.Fatalf("expected filtered Basic control byte 0x40 (raw body, stream id 0), got 0x%02x", out[0])
	}
	if out[1] != tightFilterPalette {
		t.Fatalf("expected a standalone palette filter-id byte of %d, got %d", tightFilterPalette, out[1])
	}
	if out[2] != 1 {
		t.Fatalf("expected a palette-size byte of 1 (2 colours - 1), got %d", out[2])
	}
}

func TestTightEncodingIndexedTileUsesPaletteFilter(t *testing.T) {
	interior := solidInterior(8, 8, 0, 0, 0)
	colours := [4][3]uint8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 0}}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := colours[(y*8+x)%4]
			o := 4 * (y*8 + x)
			interior[o], interior[o+1], interior[o+2] = c[0], c[1], c[2]
		}
	}
	enc := &TightEncoding{}
	pc := NewPersistentCompressor()

	out, err := enc.EncodeStateful(interior, 8, 8, Options{Format: PixelFormatRGBA32, Quality: 9, Compression: 6}, pc)
	if err != nil {
		t.Fatalf("EncodeStateful: %v", err)
	}
	// 8x8 at 2 bits/index packs to 16 bytes, at/over tightMinToCompress, so
	// this body is actually compressed on stream 2 (tightIndexedStream):
	// bits 5-4 carry 2, bit 6 marks the filter byte that follows.
	if out[0] != 0x60 {
		t.Fatalf("expected filtered Basic control byte 0x60 (stream 2, filtered), got 0x%02x", out[0])
	}
	if out[1] != tightFilterPalette {
		t.Fatalf("expected a standalone palette filter-id byte of %d, got %d", tightFilterPalette, out[1])
	}
	if out[2] != 3 {
		t.Fatalf("expected a palette-size byte of 3 (4 colours - 1), got %d", out[2])
	}
}

func TestTightEncodingManyColoursUsesBasicFullColor(t *testing.T) {
	interior := make([]byte, 4*8*8)
	for i := 0; i < 64; i++ {
		o := 4 * i
		interior[o] = byte(i * 4)
		interior[o+1] = byte(i * 3)
		interior[o+2] = byte(i * 2)
	}
	enc := &TightEncoding{}
	pc := NewPersistentCompressor()

	// Quality >= 5 rules out the JPEG path, isolating the BasicFullColor branch.
	out, err := enc.EncodeStateful(interior, 8, 8, Options{Format: PixelFormatRGBA32, Quality: 9, Compression: 6}, pc)
	if err != nil {
		t.Fatalf("EncodeStateful: %v", err)
	}
	if out[0] != 0x00 {
		t.Fatalf("expected unfiltered Basic control byte 0x00, got 0x%02x", out[0])
	}
}

// pixelFormatBGRX32 is a 32-bit true-colour format with channels packed
// in the low 24 bits but in B,G,R byte order, used to exercise Tight's
// TPIXEL channel-order handling independent of PixelFormatRGBA32.
var pixelFormatBGRX32 = PixelFormat{
	BPP: 32, Depth: 24, BigEndian: 0, TrueColor: 1,
	RedMax: 255, GreenMax: 255, BlueMax: 255,
	RedShift: 16, GreenShift: 8, BlueShift: 0,
}

func TestTightEncodingCheckerMatchesSpecVector(t *testing.T) {
	// 8x1 alternating red/blue, per spec.md §8's concrete scenario.
	interior := make([]byte, 4*8)
	for x := 0; x < 8; x++ {
		o := 4 * x
		if x%2 == 0 {
			interior[o], interior[o+1], interior[o+2] = 255, 0, 0
		} else {
			interior[o], interior[o+1], interior[o+2] = 0, 0, 255
		}
	}
	enc := &TightEncoding{}
	pc := NewPersistentCompressor()

	out, err := enc.EncodeStateful(interior, 8, 1, Options{Format: pixelFormatBGRX32, Quality: 9, Compression: 6}, pc)
	if err != nil {
		t.Fatalf("EncodeStateful: %v", err)
	}
	// 1-byte bitmap body is always below tightMinToCompress, so the
	// stream-id bits are 0 regardless of the nominal mono stream.
	if out[0] != 0x40 {
		t.Fatalf("expected filtered, uncompressed control byte 0x40, got 0x%02x", out[0])
	}
	if out[1] != tightFilterPalette {
		t.Fatalf("expected palette filter-id byte 0x01, got 0x%02x", out[1])
	}
	if out[2] != 1 {
		t.Fatalf("expected palette-size byte 0x01 (2 colours - 1), got 0x%02x", out[2])
	}
	// Two TPIXELs (3 bytes each, B,G,R order for this format) follow the
	// palette-size byte, then a single-byte 8-pixel bitmap; no length
	// prefix since the body never reached the compression threshold.
	if len(out) != 3+2*3+1 {
		t.Fatalf("expected 10 bytes total, got %d: % x", len(out), out)
	}
	bitmap := out[len(out)-1]
	if bitmap != 0xAA && bitmap != 0x55 {
		t.Fatalf("expected checker bitmap 0xAA or 0x55 depending on palette scan order, got 0x%02x", bitmap)
	}
}

func TestTightEncodingRejectsBadRectangle(t *testing.T) {
	enc := &TightEncoding{}
	pc := NewPersistentCompressor()
	_, err := enc.EncodeStateful([]byte{1, 2, 3}, 1, 1, Options{Format: PixelFormatRGBA32}, pc)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsErrorKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTightEncodingLowQualityPrefersJPEGForDenseNonGradientContent(t *testing.T) {
	// Many distinct colours (rules out Solid/Mono/Indexed) clustered in a
	// narrow range (low channel stddev, so isGradientLike is false): per
	// spec.md §4.7 this combination takes the JPEG branch at low quality.
	width, height := 32, 32
	interior := make([]byte, 4*width*height)
	for i := 0; i < width*height; i++ {
		o := 4 * i
		interior[o] = byte(100 + i%20)
		interior[o+1] = byte(100 + (i/20)%20)
		interior[o+2] = byte(100 + (i*7)%20)
	}
	enc := &TightEncoding{}
	pc := NewPersistentCompressor()
	out, err := enc.EncodeStateful(interior, width, height, Options{Format: PixelFormatRGBA32, Quality: 1, Compression: 6}, pc)
	if err != nil {
		t.Fatalf("EncodeStateful: %v", err)
	}
	if out[0] != 0x90 {
		t.Fatalf("expected JPEG control byte 0x90, got 0x%02x", out[0])
	}
}
