package rfbenc

import (
	"bytes"
	"image"
	"image/png"
)

// TightPngEncoding is Tight's PNG variant (spec.md §4.8): control byte
// 0x0A, compact length, then an 8-bit RGB PNG with no alpha channel.
// Grounded directly on the teacher's encoding_tightpng.go Write method,
// the one place in the pack that already performs forward PNG encoding
// (png.Encoder with a sync.Pool-backed buffer); compression-level mapping
// from the RFB 0-9 scale is new, grounded on image/png's three-level enum.
type TightPngEncoding struct{}

func (*TightPngEncoding) Type() EncodingType { return EncTightPng }

func (*TightPngEncoding) Encode(interior []byte, width, height int, opts Options) ([]byte, error) {
	if width <= 0 || height <= 0 || len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "bad rectangle for TightPng")
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

	pngEnc := &png.Encoder{CompressionLevel: tightPngCompressionLevel(opts.clamped().Compression)}
	if err := pngEnc.Encode(buf, img); err != nil {
		return nil, newError(ErrInvalidInput, "png encode: %v", err)
	}

	out := []byte{0x0A}
	out = appendCompactLength(out, buf.Len())
	out = append(out, buf.Bytes()...)
	return out, nil
}

// tightPngCompressionLevel maps the RFB 0-9 compression scale onto
// image/png's three-level enum: 0 is fastest, 9 is smallest.
func tightPngCompressionLevel(compression int) png.CompressionLevel {
	switch {
	case compression <= 1:
		return png.BestSpeed
	case compression >= 8:
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}
