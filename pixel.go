// This file implements the "Common utilities" component of spec.md §2:
// colour counting, palette construction, solid/gradient detection, and
// the small geometry types (subrect) several encoders share. Grounded on
// the teacher's use of color.Palette in encoding_tight.go's
// readTightPalette/drawTightPalette, run in the encode direction, and on
// spec.md §3 "Palette" / §9 "Palette construction".
package rfbenc

import "math"

// rgbAt reads the R,G,B channels of interior pixel i (the pad byte is
// never meaningful to an encoder).
func rgbAt(interior []byte, i int) (r, g, b uint8) {
	o := 4 * i
	return interior[o], interior[o+1], interior[o+2]
}

// packRGB is the identity key used to deduplicate pixel values while
// building a palette; it deliberately ignores the pad byte.
func packRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// palette is an insertion-ordered, deduplicated list of pixel values,
// capped so that accumulation can bail out the moment a mode's colour
// limit is exceeded rather than doing quadratic work on photographs
// (spec.md §9 "Palette construction").
type palette struct {
	colours    []uint32
	index      map[uint32]int
	overflowed bool
	cap        int
}

func newPalette(cap int) *palette {
	return &palette{index: make(map[uint32]int, cap), cap: cap}
}

// add records key, returning its palette index. Once the palette has
// overflowed, it stops growing but keeps reporting overflow so callers
// can bail to the next mode.
func (p *palette) add(key uint32) (idx int, overflowed bool) {
	if i, ok := p.index[key]; ok {
		return i, p.overflowed
	}
	if len(p.colours) >= p.cap {
		p.overflowed = true
		return -1, true
	}
	idx = len(p.colours)
	p.colours = append(p.colours, key)
	p.index[key] = idx
	return idx, p.overflowed
}

func (p *palette) size() int { return len(p.colours) }

// buildPalette scans an interior pixel rectangle in row-major order and
// returns its palette, capped at max distinct colours. The second result
// reports overflow: it is true if the rectangle contains more than max
// distinct colours (the caller should fall back to a larger mode).
func buildPalette(interior []byte, width, height, max int) (*palette, bool) {
	p := newPalette(max)
	n := width * height
	for i := 0; i < n; i++ {
		r, g, b := rgbAt(interior, i)
		if _, overflowed := p.add(packRGB(r, g, b)); overflowed {
			return p, true
		}
	}
	return p, false
}

// uniqueColourCount counts distinct colours up to (and including) the
// point it exceeds cap, returning cap+1 to mean "more than cap" without
// continuing to scan — the same early-bailout discipline buildPalette
// uses, needed by Tight's mode classifier (spec.md §4.7) which only
// cares whether the count is 1, 2, 3-16, or >16.
func uniqueColourCount(interior []byte, width, height, cap int) int {
	p := newPalette(cap + 1)
	n := width * height
	for i := 0; i < n; i++ {
		r, g, b := rgbAt(interior, i)
		if _, overflowed := p.add(packRGB(r, g, b)); overflowed {
			return cap + 1
		}
	}
	return p.size()
}

// mostCommonColour returns the pixel value with the highest frequency in
// the rectangle, used by RRE/CoRRE as the background colour (spec.md
// §4.3). Ties are broken by first occurrence.
func mostCommonColour(interior []byte, width, height int) (r, g, b uint8) {
	counts := make(map[uint32]int)
	order := make([]uint32, 0)
	n := width * height
	for i := 0; i < n; i++ {
		pr, pg, pb := rgbAt(interior, i)
		key := packRGB(pr, pg, pb)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}
	best := order[0]
	bestCount := counts[best]
	for _, key := range order[1:] {
		if counts[key] > bestCount {
			best = key
			bestCount = counts[key]
		}
	}
	return uint8(best >> 16), uint8(best >> 8), uint8(best)
}

// channelStdDev computes the standard deviation of each of R, G, B across
// the rectangle and returns the largest of the three — the "per-channel
// standard deviation" spec.md §4.7 and §9 use as one signal that a
// rectangle is photographic/gradient-like rather than flat or textual.
func channelStdDev(interior []byte, width, height int) float64 {
	n := width * height
	if n == 0 {
		return 0
	}
	var sumR, sumG, sumB float64
	for i := 0; i < n; i++ {
		r, g, b := rgbAt(interior, i)
		sumR += float64(r)
		sumG += float64(g)
		sumB += float64(b)
	}
	meanR, meanG, meanB := sumR/float64(n), sumG/float64(n), sumB/float64(n)
	var varR, varG, varB float64
	for i := 0; i < n; i++ {
		r, g, b := rgbAt(interior, i)
		varR += (float64(r) - meanR) * (float64(r) - meanR)
		varG += (float64(g) - meanG) * (float64(g) - meanG)
		varB += (float64(b) - meanB) * (float64(b) - meanB)
	}
	sdR := math.Sqrt(varR / float64(n))
	sdG := math.Sqrt(varG / float64(n))
	sdB := math.Sqrt(varB / float64(n))
	return math.Max(sdR, math.Max(sdG, sdB))
}

// gradientStdDevThreshold is the empirical cutoff spec.md §9 flags as
// under-documented: "an implementer should cross-check against a
// reference VNC client and treat thresholds as a tuning table." 48 keeps
// sharp-edged UI (low stddev even with many colours, e.g. anti-aliased
// text) out of the gradient bucket while still catching photographs.
const gradientStdDevThreshold = 48.0

// gradientColourCountThreshold is the unique-colour cutoff spec.md §4.7
// names explicitly ("exceeds 4096").
const gradientColourCountThreshold = 4096

// isGradientLike implements spec.md §4.7's conservative gradient
// predicate: a rectangle with more than 4096 unique colours, or whose
// per-channel standard deviation exceeds the empirical threshold, is
// treated as photographic content that Tight should not try to
// palette-encode.
func isGradientLike(interior []byte, width, height int) bool {
	if uniqueColourCount(interior, width, height, gradientColourCountThreshold) > gradientColourCountThreshold {
		return true
	}
	return channelStdDev(interior, width, height) > gradientStdDevThreshold
}

// subrect is the (color, x, y, w, h) tuple spec.md §3 defines for RRE,
// CoRRE, and the Hextile subrect subencoding. x, y are tile/rect-local.
type subrect struct {
	R, G, B uint8
	X, Y    int
	W, H    int
}

// findSubrects partitions the non-background pixels of a w×h interior
// rectangle into axis-aligned monochrome subrectangles using the greedy
// scan spec.md §4.3 mandates: on encountering an unconsumed non-background
// pixel, extend right while the colour matches, then extend down while
// the full-width strip matches, marking consumed pixels so every one is
// emitted exactly once. This never drops a subrectangle for "efficiency"
// (spec.md §4.3, "the v0.1.0 fix").
func findSubrects(interior []byte, width, height int, bgR, bgG, bgB uint8) []subrect {
	consumed := make([]bool, width*height)
	at := func(x, y int) (uint8, uint8, uint8) {
		return rgbAt(interior, y*width+x)
	}
	isBG := func(x, y int) bool {
		r, g, b := at(x, y)
		return r == bgR && g == bgG && b == bgB
	}
	var out []subrect
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if consumed[idx] || isBG(x, y) {
				continue
			}
			r, g, b := at(x, y)
			sameColour := func(cx, cy int) bool {
				cr, cg, cb := at(cx, cy)
				return cr == r && cg == g && cb == b
			}
			w := 1
			for x+w < width && !consumed[y*width+x+w] && sameColour(x+w, y) {
				w++
			}
			h := 1
		rowLoop:
			for y+h < height {
				for dx := 0; dx < w; dx++ {
					if consumed[(y+h)*width+x+dx] || !sameColour(x+dx, y+h) {
						break rowLoop
					}
				}
				h++
			}
			for dy := 0; dy < h; dy++ {
				for dx := 0; dx < w; dx++ {
					consumed[(y+dy)*width+x+dx] = true
				}
			}
			out = append(out, subrect{R: r, G: g, B: b, X: x, Y: y, W: w, H: h})
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
