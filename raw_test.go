package rfbenc

import "testing"

func TestRawEncodingRoundTripsThroughTranslate(t *testing.T) {
	interior := solidInterior(2, 2, 10, 20, 30)
	enc := &RawEncoding{}
	if enc.Type() != EncRaw {
		t.Fatalf("unexpected type %v", enc.Type())
	}
	out, err := enc.Encode(interior, 2, 2, Options{Format: PixelFormatRGBA32})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(out) != 4*2*2 {
		t.Fatalf("expected %d bytes, got %d", 4*2*2, len(out))
	}
}

func TestRawEncodingRejectsBadRectangle(t *testing.T) {
	enc := &RawEncoding{}
	_, err := enc.Encode([]byte{1, 2, 3}, 1, 1, Options{Format: PixelFormatRGBA32})
	if err == nil {
		t.Fatal("expected error for short buffer")
	}
}
