package rfbenc

import (
	"encoding/binary"
	"testing"
)

func TestZYWRLELevelFromQuality(t *testing.T) {
	cases := []struct {
		quality, want int
	}{
		{0, 3}, {1, 3}, {2, 2}, {4, 2}, {5, 1}, {7, 1}, {8, 0}, {9, 0},
	}
	for _, c := range cases {
		if got := zywrleLevel(c.quality); got != c.want {
			t.Errorf("zywrleLevel(%d) = %d, want %d", c.quality, got, c.want)
		}
	}
}

func TestZYWRLEEncodingWireForm(t *testing.T) {
	interior := solidInterior(8, 8, 20, 30, 40)
	enc := &ZYWRLEEncoding{}
	pc := NewPersistentCompressor()

	out, err := enc.EncodeStateful(interior, 8, 8, Options{Format: PixelFormatRGBA32, Quality: 0, Compression: 6}, pc)
	if err != nil {
		t.Fatalf("EncodeStateful: %v", err)
	}
	n := binary.BigEndian.Uint32(out[:4])
	if int(n) != len(out)-4 {
		t.Fatalf("length prefix %d does not match body length %d", n, len(out)-4)
	}
	payload := inflateZlib(t, out[4:])
	if len(payload) == 0 {
		t.Fatal("expected a non-empty tile payload")
	}
}

func TestZYWRLEEncodingRejectsBadRectangle(t *testing.T) {
	enc := &ZYWRLEEncoding{}
	pc := NewPersistentCompressor()
	_, err := enc.EncodeStateful([]byte{1, 2, 3}, 1, 1, Options{Format: PixelFormatRGBA32}, pc)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsErrorKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReflectIdxMirrorsBoundary(t *testing.T) {
	// For n=8, index 8 (one past the end) should mirror to 6.
	if got := reflectIdx(8, 8); got != 6 {
		t.Fatalf("reflectIdx(8, 8) = %d, want 6", got)
	}
	// In-range indices pass through unchanged.
	if got := reflectIdx(3, 8); got != 3 {
		t.Fatalf("reflectIdx(3, 8) = %d, want 3", got)
	}
}

func TestCDF97RoundTripsWithinTolerance(t *testing.T) {
	signal := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	original := append([]float64(nil), signal...)

	cdf97Forward(signal)
	cdf97Inverse(signal)

	for i := range signal {
		diff := signal[i] - original[i]
		if diff < -1e-6 || diff > 1e-6 {
			t.Fatalf("index %d: forward+inverse did not round-trip: got %v, want %v", i, signal[i], original[i])
		}
	}
}
