package rfbenc

import "encoding/binary"

// ZRLE subencoding control bytes, spec.md §4.9.
const (
	zrleSubencodingRaw     = 0
	zrleSubencodingRLE     = 128
	zrleRunIndexFlag       = 0x80
	zrleMaxPlainPaletteLen = 16
	zrleMaxPalettedLen     = 127
)

// ZRLEEncoding implements RFC 6143 §7.7.7: 64x64 tiles in CPIXEL form,
// each independently choosing solid/palette/palette-RLE/plain-RLE/raw,
// concatenated and deflated as a whole on the persistent compressor's
// stream 0 (spec.md §4.9). Framing (u32 length + stream-0 zlib) is
// grounded on the teacher's encoding_zrle.go decode loop; per-tile
// subencoding selection and run encoding are new, grounded on spec.md's
// explicit algorithm.
type ZRLEEncoding struct{}

func (*ZRLEEncoding) Type() EncodingType { return EncZRLE }

func (*ZRLEEncoding) EncodeStateful(interior []byte, width, height int, opts Options, pc *PersistentCompressor) ([]byte, error) {
	if width <= 0 || height <= 0 || len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "bad rectangle for ZRLE")
	}
	pf := &opts.Format
	if err := pf.Validate(); err != nil {
		return nil, err
	}

	var payload []byte
	var encErr error
	tileExtents(width, height, 64, func(tx, ty, tw, th int) {
		if encErr != nil {
			return
		}
		tile := extractTile(interior, width, tx, ty, tw, th)
		tileBytes, err := encodeZRLETile(tile, tw, th, pf)
		if err != nil {
			encErr = err
			return
		}
		payload = append(payload, tileBytes...)
	})
	if encErr != nil {
		return nil, encErr
	}

	compressed, err := pc.Compress(0, opts.clamped().Compression, payload)
	if err != nil {
		if IsErrorKind(err, ErrCompressor) {
			// spec.md §7: reset the offending stream and fall back to Raw
			// for this rectangle; a compressor failure never reaches the
			// caller as an error.
			pc.Reset(0)
			return (&RawEncoding{}).Encode(interior, width, height, opts)
		}
		return nil, err
	}

	out := make([]byte, 4, 4+len(compressed))
	binary.BigEndian.PutUint32(out, uint32(len(compressed)))
	return append(out, compressed...), nil
}

// encodeZRLETile selects and emits one tile's subencoding, per spec.md
// §4.9's numbered cascade.
func encodeZRLETile(tile []byte, tw, th int, pf *PixelFormat) ([]byte, error) {
	pal, overflowed := buildPalette(tile, tw, th, zrleMaxPalettedLen)

	if !overflowed && pal.size() == 1 {
		cpx, err := translateTPixel([]byte{byte(pal.colours[0] >> 16), byte(pal.colours[0] >> 8), byte(pal.colours[0]), 0}, 1, 1, pf)
		if err != nil {
			return nil, err
		}
		return append([]byte{1}, cpx...), nil
	}

	if !overflowed && pal.size() >= 2 && pal.size() <= zrleMaxPlainPaletteLen {
		bitsPerIndex := 4
		switch {
		case pal.size() <= 2:
			bitsPerIndex = 1
		case pal.size() <= 4:
			bitsPerIndex = 2
		}
		out := []byte{byte(pal.size())}
		for _, c := range pal.colours {
			cpx, err := translateTPixel([]byte{byte(c >> 16), byte(c >> 8), byte(c), 0}, 1, 1, pf)
			if err != nil {
				return nil, err
			}
			out = append(out, cpx...)
		}
		out = append(out, packIndices(tile, tw, th, pal, bitsPerIndex)...)
		return out, nil
	}

	runs := zrleRuns(tile, tw, th)
	hasLongRun := false
	for _, r := range runs {
		if r.length >= 3 {
			hasLongRun = true
			break
		}
	}

	switch {
	case hasLongRun && pal.size() > zrleMaxPlainPaletteLen:
		// Long runs present and >16 colours (spec.md §4.9 line 134):
		// plain RLE, regardless of whether the palette itself overflowed
		// past zrleMaxPalettedLen.
		return encodeZRLEPlainRLE(runs, pf)
	case !overflowed && pal.size() >= 17 && pal.size() <= zrleMaxPalettedLen:
		// 17-127 colours, no long run: palette-RLE.
		return encodeZRLEPaletteRLE(tile, tw, th, pal, pf)
	default:
		cpixels, err := translateTPixel(tile, tw, th, pf)
		if err != nil {
			return nil, err
		}
		return append([]byte{zrleSubencodingRaw}, cpixels...), nil
	}
}

type zrleRun struct {
	r, g, b uint8
	length  int
}

// zrleRuns walks a tile in row-major order, coalescing consecutive equal
// pixels into runs, for the plain-RLE subencoding and the long-run check
// that selects it.
func zrleRuns(tile []byte, tw, th int) []zrleRun {
	var runs []zrleRun
	n := tw * th
	i := 0
	for i < n {
		r, g, b := rgbAt(tile, i)
		j := i + 1
		for j < n {
			r2, g2, b2 := rgbAt(tile, j)
			if r2 != r || g2 != g || b2 != b {
				break
			}
			j++
		}
		runs = append(runs, zrleRun{r, g, b, j - i})
		i = j
	}
	return runs
}

// appendRunLength appends the variable-length run-length encoding of
// spec.md §4.9: N-1 written as zero or more 255 bytes followed by one
// final byte below 255, the byte values summing to N-1.
func appendRunLength(dst []byte, n int) []byte {
	v := n - 1
	for v >= 255 {
		dst = append(dst, 255)
		v -= 255
	}
	return append(dst, byte(v))
}

func encodeZRLEPlainRLE(runs []zrleRun, pf *PixelFormat) ([]byte, error) {
	out := []byte{zrleSubencodingRLE}
	for _, r := range runs {
		cpx, err := translateTPixel([]byte{r.r, r.g, r.b, 0}, 1, 1, pf)
		if err != nil {
			return nil, err
		}
		out = append(out, cpx...)
		out = appendRunLength(out, r.length)
	}
	return out, nil
}

func encodeZRLEPaletteRLE(tile []byte, tw, th int, pal *palette, pf *PixelFormat) ([]byte, error) {
	out := []byte{byte(zrleRunIndexFlag | pal.size())}
	for _, c := range pal.colours {
		cpx, err := translateTPixel([]byte{byte(c >> 16), byte(c >> 8), byte(c), 0}, 1, 1, pf)
		if err != nil {
			return nil, err
		}
		out = append(out, cpx...)
	}

	runs := zrleRunsByPaletteIndex(tile, tw, th, pal)
	for _, r := range runs {
		if r.length == 1 {
			out = append(out, byte(r.index))
		} else {
			out = append(out, byte(r.index)|zrleRunIndexFlag)
			out = appendRunLength(out, r.length)
		}
	}
	return out, nil
}

type zrleIndexRun struct {
	index  int
	length int
}

func zrleRunsByPaletteIndex(tile []byte, tw, th int, pal *palette) []zrleIndexRun {
	var runs []zrleIndexRun
	n := tw * th
	i := 0
	for i < n {
		r, g, b := rgbAt(tile, i)
		idx, _ := pal.add(packRGB(r, g, b))
		j := i + 1
		for j < n {
			r2, g2, b2 := rgbAt(tile, j)
			idx2, _ := pal.add(packRGB(r2, g2, b2))
			if idx2 != idx {
				break
			}
			j++
		}
		runs = append(runs, zrleIndexRun{idx, j - i})
		i = j
	}
	return runs
}
