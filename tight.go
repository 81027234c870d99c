package rfbenc

import (
	"bytes"
	"image"
	"image/jpeg"
	"sync"

	"github.com/dustinmcafee/rfb-encodings/logger"
)

// Tight compression-control nibble values and filter ids, kept identical
// to the teacher's encoding_tight.go constants (TightCompressionBasic/
// Fill/JPEG/PNG, TightFilterCopy/Palette/Gradient) so the control byte
// this file writes is what that file's Read would accept.
const (
	tightCompressionBasic = 0
	tightCompressionFill  = 8
	tightCompressionJPEG  = 9
	tightCompressionPNG   = 10

	tightFilterCopy    = 0
	tightFilterPalette = 1
)

// tightMinToCompress mirrors the teacher's TightMinToCompress: below this
// many bytes, zlib overhead outweighs the saving and the payload is sent
// uncompressed with no length prefix.
const tightMinToCompress = 12

// tightJPEGQuality maps the RFB 0-9 quality scale onto libjpeg quality,
// spec.md §4.7's explicit table.
var tightJPEGQuality = [10]int{5, 10, 15, 25, 37, 50, 60, 70, 75, 80}

// tightBufPool mirrors the teacher's encoding.go bPool: a sync.Pool of
// reusable bytes.Buffer, used here for JPEG encoding scratch space.
var tightBufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// TightEncoding implements RFC 6143 §7.7.6 and the Tight extension's five
// internal modes (spec.md §4.7). Grounded on the teacher's
// encoding_tight.go decode path (TightCompression*/TightFilter* constants,
// calcTightBytePerPixel, readTightPalette/drawTightPalette inverted into
// buildPalette/packIndices, writeTightLength kept as appendCompactLength,
// writeTightCC inverted into tightControlByte), run in the encode
// direction; large-rectangle strip splitting and the mode-selection
// cascade are new, grounded directly on spec.md §4.7.
type TightEncoding struct{}

func (*TightEncoding) Type() EncodingType { return EncTight }

func (enc *TightEncoding) EncodeStateful(interior []byte, width, height int, opts Options, pc *PersistentCompressor) ([]byte, error) {
	if width <= 0 || height <= 0 || len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "bad rectangle for Tight")
	}
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	opts = opts.clamped()

	maxRows := 65536 / width
	if maxRows > 2048 || maxRows == 0 {
		maxRows = 2048
	}
	if maxRows < 1 {
		maxRows = 1
	}

	out := make([]byte, 0, width*height)
	for y := 0; y < height; y += maxRows {
		sh := maxRows
		if height-y < sh {
			sh = height - y
		}
		strip := extractTile(interior, width, 0, y, width, sh)
		stripOut, err := enc.encodeStrip(strip, width, sh, opts, pc)
		if err != nil {
			if IsErrorKind(err, ErrCompressor) {
				// spec.md §7: never propagate a compressor failure past
				// this call; fall back to Raw for the whole rectangle.
				return (&RawEncoding{}).Encode(interior, width, height, opts)
			}
			return nil, err
		}
		out = append(out, stripOut...)
	}
	return out, nil
}

func (enc *TightEncoding) encodeStrip(interior []byte, width, height int, opts Options, pc *PersistentCompressor) ([]byte, error) {
	pf := &opts.Format

	const paletteScanCap = 16
	uniq := uniqueColourCount(interior, width, height, paletteScanCap)

	switch {
	case uniq == 1:
		return enc.encodeSolid(interior, pf)
	case uniq == 2:
		return enc.encodeMono(interior, width, height, opts, pc)
	case uniq >= 3 && uniq <= 16:
		return enc.encodeIndexed(interior, width, height, opts, pc, uniq)
	case opts.Quality < 5 && !isGradientLike(interior, width, height):
		body, err := enc.encodeJPEG(interior, width, height, opts)
		if err == nil {
			return body, nil
		}
		logger.Debugf("Tight: JPEG encode failed, falling back to BasicFullColor: %v", err)
		// spec.md §4.7: JPEG unavailable/error never drops the rectangle —
		// fall back to BasicFullColor.
		fallthrough
	default:
		return enc.encodeBasicFullColor(interior, width, height, opts, pc)
	}
}

func (enc *TightEncoding) encodeSolid(interior []byte, pf *PixelFormat) ([]byte, error) {
	r, g, b := rgbAt(interior, 0)
	tpx, err := translateTPixel([]byte{r, g, b, 0}, 1, 1, pf)
	if err != nil {
		return nil, err
	}
	return append([]byte{tightControlByte(tightCompressionFill, false, 0)}, tpx...), nil
}

// tightMonoStream/tightIndexedStream/tightFullColorStream are the
// persistent-compressor stream ids spec.md §9 "Stream index discipline"
// hard-codes: 0 for full-colour, 1 for mono, 2 for indexed.
const (
	tightFullColorStream = 0
	tightMonoStream      = 1
	tightIndexedStream   = 2
)

func (enc *TightEncoding) encodeMono(interior []byte, width, height int, opts Options, pc *PersistentCompressor) ([]byte, error) {
	pf := &opts.Format
	pal, _ := buildPalette(interior, width, height, 2)
	if pal.size() != 2 {
		return enc.encodeBasicFullColor(interior, width, height, opts, pc)
	}

	bitmap := packMonoBitmap(interior, width, height, pal)
	body, usedStream, err := enc.compressOrRaw(bitmap, tightMonoStream, opts.Compression, pc)
	if err != nil {
		return nil, err
	}

	streamMask := uint8(0)
	if usedStream {
		streamMask = tightMonoStream
	}
	out := []byte{tightControlByte(tightCompressionBasic, true, streamMask), tightFilterPalette}
	out = append(out, byte(pal.size()-1))
	for _, c := range pal.colours {
		r, g, b := unpackRGB(c)
		tpx, err := translateTPixel([]byte{r, g, b, 0}, 1, 1, pf)
		if err != nil {
			return nil, err
		}
		out = append(out, tpx...)
	}
	out = append(out, body...)
	return out, nil
}

func (enc *TightEncoding) encodeIndexed(interior []byte, width, height int, opts Options, pc *PersistentCompressor, uniq int) ([]byte, error) {
	pf := &opts.Format
	pal, overflowed := buildPalette(interior, width, height, 16)
	if overflowed || pal.size() < 3 || pal.size() > 16 {
		return enc.encodeBasicFullColor(interior, width, height, opts, pc)
	}

	bitsPerIndex := 4
	switch {
	case pal.size() <= 2:
		bitsPerIndex = 1
	case pal.size() <= 4:
		bitsPerIndex = 2
	}
	indices := packIndices(interior, width, height, pal, bitsPerIndex)

	body, usedStream, err := enc.compressOrRaw(indices, tightIndexedStream, opts.Compression, pc)
	if err != nil {
		return nil, err
	}

	streamMask := uint8(0)
	if usedStream {
		streamMask = tightIndexedStream
	}
	out := []byte{tightControlByte(tightCompressionBasic, true, streamMask), tightFilterPalette}
	out = append(out, byte(pal.size()-1))
	for _, c := range pal.colours {
		r, g, b := unpackRGB(c)
		tpx, err := translateTPixel([]byte{r, g, b, 0}, 1, 1, pf)
		if err != nil {
			return nil, err
		}
		out = append(out, tpx...)
	}
	out = append(out, body...)
	return out, nil
}

func (enc *TightEncoding) encodeBasicFullColor(interior []byte, width, height int, opts Options, pc *PersistentCompressor) ([]byte, error) {
	pf := &opts.Format
	tpixels, err := translateTPixel(interior, width, height, pf)
	if err != nil {
		return nil, err
	}
	body, _, err := enc.compressOrRaw(tpixels, tightFullColorStream, opts.Compression, pc)
	if err != nil {
		return nil, err
	}
	out := []byte{tightControlByte(tightCompressionBasic, false, tightFullColorStream)}
	out = append(out, body...)
	return out, nil
}

func (enc *TightEncoding) encodeJPEG(interior []byte, width, height int, opts Options) ([]byte, error) {
	if opts.Format.BPP == 8 {
		return nil, newError(ErrJpegUnavailable, "JPEG is not supported in 8 bpp mode")
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		r, g, b := rgbAt(interior, i)
		img.Pix[4*i+0] = r
		img.Pix[4*i+1] = g
		img.Pix[4*i+2] = b
		img.Pix[4*i+3] = 255
	}

	buf := tightBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer tightBufPool.Put(buf)

	quality := tightJPEGQuality[clampInt(opts.Quality, 0, 9)]
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, newError(ErrJpegUnavailable, "jpeg encode: %v", err)
	}

	out := []byte{tightControlByte(tightCompressionJPEG, false, 0)}
	out = appendCompactLength(out, buf.Len())
	out = append(out, buf.Bytes()...)
	return out, nil
}

// compressOrRaw compresses payload on the given stream, returning the
// compact-length-prefixed compressed form unless it would not beat the
// tightMinToCompress threshold, in which case it returns payload verbatim
// with no length prefix (spec.md §4.7's Basic-Mono/Indexed/FullColor
// threshold). usedStream reports whether the persistent compressor was
// actually invoked — the caller needs this to know whether the control
// byte's stream-id bits mean anything (the teacher's ReadTightData never
// consults decoderId for a sub-threshold, uncompressed body).
func (enc *TightEncoding) compressOrRaw(payload []byte, streamID int, compression int, pc *PersistentCompressor) (body []byte, usedStream bool, err error) {
	if len(payload) < tightMinToCompress {
		return payload, false, nil
	}
	compressed, err := pc.Compress(streamID, compression, payload)
	if err != nil {
		if IsErrorKind(err, ErrCompressor) {
			// Reset here, where the offending stream id is known; the
			// caller's EncodeStateful converts this error into a
			// whole-rectangle Raw fallback per spec.md §7.
			pc.Reset(streamID)
		}
		return nil, false, err
	}
	framed := appendCompactLength(make([]byte, 0, len(compressed)+3), len(compressed))
	framed = append(framed, compressed...)
	return framed, true, nil
}

// tightControlByte builds the one-byte prefix spec.md §4.7 defines: bits
// 5-4 carry the persistent-stream id (0-3) the body was compressed on,
// bit 6 (0x40) is set when an explicit filter id byte follows, 0x80 is
// Fill/Solid, 0x90 is JPEG, 0xA0 is PNG. Grounded on the teacher's
// writeTightCC/handleTightFilters STREAM_ID_MASK (0x30) and
// FILTER_ID_MASK (0x40) constants — that file only ever writes the
// Fill/JPEG/PNG cases; the Basic and filtered bit placement here follows
// its decode-side mask definitions instead, since writeTightCC never
// emits them.
func tightControlByte(compression int, filtered bool, streamMask uint8) byte {
	switch compression {
	case tightCompressionFill:
		return 0x80
	case tightCompressionJPEG:
		return 0x90
	case tightCompressionPNG:
		return 0xA0
	default:
		b := streamMask << 4
		if filtered {
			b |= 0x40
		}
		return b
	}
}

func unpackRGB(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// packMonoBitmap packs a two-colour tile into 1-bit-per-pixel rows, MSB
// first, each row padded to a byte boundary (spec.md §4.7 Basic-Mono).
func packMonoBitmap(interior []byte, width, height int, pal *palette) []byte {
	rowBytes := (width + 7) / 8
	out := make([]byte, rowBytes*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b := rgbAt(interior, y*width+x)
			idx, _ := pal.add(packRGB(r, g, b))
			if idx == 1 {
				out[y*rowBytes+x/8] |= 1 << (7 - uint(x%8))
			}
		}
	}
	return out
}

// packIndices packs per-pixel palette indices at 1, 2, or 4 bits per
// pixel, MSB first, rows padded to byte boundaries (spec.md §4.7
// Basic-Indexed).
func packIndices(interior []byte, width, height int, pal *palette, bitsPerIndex int) []byte {
	perByte := 8 / bitsPerIndex
	rowBytes := (width + perByte - 1) / perByte
	out := make([]byte, rowBytes*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b := rgbAt(interior, y*width+x)
			idx, _ := pal.add(packRGB(r, g, b))
			shift := 8 - bitsPerIndex*(x%perByte+1)
			out[y*rowBytes+x/perByte] |= byte(idx) << uint(shift)
		}
	}
	return out
}
