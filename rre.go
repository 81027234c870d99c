package rfbenc

import (
	"encoding/binary"
)

// RREEncoding implements RFC 6143 §7.7.2: a whole-rectangle background
// colour plus a list of monochrome subrectangles covering everything
// else (spec.md §4.3). Grounded on the teacher's encoding_rre.go decode
// loop (u32 nSubrects, background colour, then per-subrect
// [color][u16 x][u16 y][u16 w][u16 h]), run in reverse.
type RREEncoding struct{}

func (*RREEncoding) Type() EncodingType { return EncRRE }

func (*RREEncoding) Encode(interior []byte, width, height int, opts Options) ([]byte, error) {
	if width <= 0 || height <= 0 || len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "bad rectangle for RRE")
	}
	pf := &opts.Format
	bgR, bgG, bgB := mostCommonColour(interior, width, height)
	subs := findSubrects(interior, width, height, bgR, bgG, bgB)

	// spec.md §4.3 failure mode: fall back to Raw if nSubrects would
	// overflow the wire field (u32 for RRE — effectively unreachable for
	// any real rectangle, but honoured for completeness).
	if uint64(len(subs)) > 0xFFFFFFFF {
		return (&RawEncoding{}).Encode(interior, width, height, opts)
	}

	out := make([]byte, 0, 4+pf.BytesPerPixel()*(1+len(subs))+8*len(subs))
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(subs)))
	out = append(out, hdr[:]...)

	bg, err := Translate([]byte{bgR, bgG, bgB, 0}, 1, 1, pf)
	if err != nil {
		return nil, err
	}
	out = append(out, bg...)

	for _, s := range subs {
		px, err := Translate([]byte{s.R, s.G, s.B, 0}, 1, 1, pf)
		if err != nil {
			return nil, err
		}
		out = append(out, px...)
		out = appendU16(out, uint16(s.X))
		out = appendU16(out, uint16(s.Y))
		out = appendU16(out, uint16(s.W))
		out = appendU16(out, uint16(s.H))
	}
	return out, nil
}

func appendU16(dst []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(dst, b[:]...)
}
