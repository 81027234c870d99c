package rfbenc

import "testing"

func solidInterior(w, h int, r, g, b uint8) []byte {
	out := make([]byte, 4*w*h)
	for i := 0; i < w*h; i++ {
		out[4*i], out[4*i+1], out[4*i+2] = r, g, b
	}
	return out
}

func TestBuildPaletteCountsDistinctColours(t *testing.T) {
	interior := solidInterior(4, 4, 10, 10, 10)
	interior[0], interior[1], interior[2] = 200, 0, 0

	pal, overflowed := buildPalette(interior, 4, 4, 16)
	if overflowed {
		t.Fatal("unexpected overflow")
	}
	if pal.size() != 2 {
		t.Fatalf("expected 2 colours, got %d", pal.size())
	}
}

func TestBuildPaletteOverflow(t *testing.T) {
	interior := make([]byte, 4*17)
	for i := 0; i < 17; i++ {
		interior[4*i] = byte(i * 10)
	}
	pal, overflowed := buildPalette(interior, 17, 1, 16)
	if !overflowed {
		t.Fatal("expected overflow with 17 distinct colours against a 16 cap")
	}
	if pal.size() != 16 {
		t.Fatalf("expected palette capped at 16, got %d", pal.size())
	}
}

func TestUniqueColourCountEarlyBailout(t *testing.T) {
	interior := make([]byte, 4*20)
	for i := 0; i < 20; i++ {
		interior[4*i] = byte(i)
	}
	got := uniqueColourCount(interior, 20, 1, 16)
	if got != 17 {
		t.Fatalf("expected sentinel cap+1=17, got %d", got)
	}
}

func TestMostCommonColourPicksMajority(t *testing.T) {
	interior := solidInterior(3, 3, 0, 0, 0)
	interior[4*4], interior[4*4+1], interior[4*4+2] = 255, 255, 255
	r, g, b := mostCommonColour(interior, 3, 3)
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("expected black majority, got (%d,%d,%d)", r, g, b)
	}
}

func TestFindSubrectsCoversEveryNonBackgroundPixel(t *testing.T) {
	// 4x4 tile, background black, a 2x2 red block at (1,1) and a lone blue
	// pixel at (3,0).
	interior := solidInterior(4, 4, 0, 0, 0)
	setPixel := func(x, y int, r, g, b uint8) {
		o := 4 * (y*4 + x)
		interior[o], interior[o+1], interior[o+2] = r, g, b
	}
	setPixel(1, 1, 255, 0, 0)
	setPixel(2, 1, 255, 0, 0)
	setPixel(1, 2, 255, 0, 0)
	setPixel(2, 2, 255, 0, 0)
	setPixel(3, 0, 0, 0, 255)

	subs := findSubrects(interior, 4, 4, 0, 0, 0)

	var coveredPixels int
	for _, s := range subs {
		coveredPixels += s.W * s.H
	}
	if coveredPixels != 5 {
		t.Fatalf("expected subrects to cover exactly 5 non-background pixels, got %d", coveredPixels)
	}

	foundRedBlock := false
	for _, s := range subs {
		if s.R == 255 && s.W == 2 && s.H == 2 {
			foundRedBlock = true
		}
	}
	if !foundRedBlock {
		t.Fatal("expected a single 2x2 subrect for the red block")
	}
}

func TestFindSubrectsNeverDropsASubrect(t *testing.T) {
	// Checkerboard: every other pixel is non-background, forcing many
	// 1x1 subrects. The "v0.1.0 fix" this tests: none may be silently
	// dropped for being inefficient.
	w, h := 6, 6
	interior := solidInterior(w, h, 0, 0, 0)
	nonBG := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				continue
			}
			o := 4 * (y*w + x)
			interior[o] = 99
			nonBG++
		}
	}
	subs := findSubrects(interior, w, h, 0, 0, 0)
	var covered int
	for _, s := range subs {
		covered += s.W * s.H
	}
	if covered != nonBG {
		t.Fatalf("covered %d pixels, want %d", covered, nonBG)
	}
}

func TestIsGradientLikeByColourCount(t *testing.T) {
	// 8000 distinct colours with every channel confined to 100..119, so the
	// per-channel standard deviation stays far below its threshold and only
	// the colour count can make this rectangle gradient-like.
	w, h := 100, 100
	interior := make([]byte, 4*w*h)
	for i := 0; i < w*h; i++ {
		interior[4*i] = byte(100 + i%20)
		interior[4*i+1] = byte(100 + (i/20)%20)
		interior[4*i+2] = byte(100 + (i/400)%20)
	}
	if !isGradientLike(interior, w, h) {
		t.Fatal("expected a rectangle with >4096 unique colours to be gradient-like")
	}
}

func TestIsGradientLikeFalseForFlatRegion(t *testing.T) {
	interior := solidInterior(8, 8, 50, 60, 70)
	if isGradientLike(interior, 8, 8) {
		t.Fatal("a flat region should not be classified as gradient-like")
	}
}
