package rfbenc

// CoRREEncoding is RRE with 8-bit subrectangle coordinates and a single
// tile bounded to 255×255 (spec.md §4.3). The caller is responsible for
// decomposing a larger rectangle into ≤255×255 CoRRE tiles before calling
// Encode; this mirrors the teacher's encoding_corre.go, whose decode loop
// reads a 4-byte-per-subrect tail ([u8 x][u8 y][u8 w][u8 h]) rather than
// RRE's 8-byte one.
type CoRREEncoding struct{}

func (*CoRREEncoding) Type() EncodingType { return EncCoRRE }

func (*CoRREEncoding) Encode(interior []byte, width, height int, opts Options) ([]byte, error) {
	if width <= 0 || height <= 0 || len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "bad rectangle for CoRRE")
	}
	if width > 255 || height > 255 {
		return nil, newError(ErrInvalidInput, "CoRRE tile exceeds 255x255 (%dx%d); caller must decompose", width, height)
	}
	pf := &opts.Format
	bgR, bgG, bgB := mostCommonColour(interior, width, height)
	subs := findSubrects(interior, width, height, bgR, bgG, bgB)

	// spec.md §4.3 failure mode: fall back to Raw if nSubrects would
	// overflow the 8-bit wire field.
	if len(subs) > 255 {
		return (&RawEncoding{}).Encode(interior, width, height, opts)
	}

	out := make([]byte, 0, pf.BytesPerPixel()*(1+len(subs))+1+5*len(subs))
	bg, err := Translate([]byte{bgR, bgG, bgB, 0}, 1, 1, pf)
	if err != nil {
		return nil, err
	}
	out = append(out, bg...)
	out = append(out, byte(len(subs)))

	for _, s := range subs {
		px, err := Translate([]byte{s.R, s.G, s.B, 0}, 1, 1, pf)
		if err != nil {
			return nil, err
		}
		out = append(out, px...)
		out = append(out, byte(s.X), byte(s.Y), byte(s.W), byte(s.H))
	}
	return out, nil
}
