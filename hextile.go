package rfbenc

// Hextile flag bits, RFC 6143 §7.7.4. Names and values kept identical to
// the teacher's encoding_hextile.go so the wire layout this file writes
// is a byte-for-byte mirror of what that file's Read loop consumes.
const (
	HextileRaw                 = 1
	HextileBackgroundSpecified = 2
	HextileForegroundSpecified = 4
	HextileAnySubrects         = 8
	HextileSubrectsColoured    = 16
)

// HextileEncoding implements RFC 6143 §7.7.4: the rectangle is tiled into
// 16x16 cells, each independently choosing raw, background-only, or a
// subrect list, with background/foreground colour carried forward from
// the previous tile when unchanged (spec.md §4.4). Grounded on the
// teacher's encoding_hextile.go decode loop (same flag constants, same
// tx/ty/16 tiling, same dimensions-byte packing for subrect x/y/w/h), run
// in reverse.
type HextileEncoding struct{}

func (*HextileEncoding) Type() EncodingType { return EncHextile }

func (*HextileEncoding) Encode(interior []byte, width, height int, opts Options) ([]byte, error) {
	if width <= 0 || height <= 0 || len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "bad rectangle for Hextile")
	}
	pf := &opts.Format
	if err := pf.Validate(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, width*height)
	var haveBg, haveFg bool
	var bgR, bgG, bgB uint8
	var fgR, fgG, fgB uint8

	tileExtents(width, height, 16, func(tx, ty, tw, th int) {
		tile := extractTile(interior, width, tx, ty, tw, th)

		tileBgR, tileBgG, tileBgB := mostCommonColour(tile, tw, th)
		subs := findSubrects(tile, tw, th, tileBgR, tileBgG, tileBgB)

		// All subrects share one colour: this tile can be expressed with
		// AnySubrects and no per-subrect colour, or even BackgroundSpecified
		// alone if the subrects cover nothing (solid tile).
		uniformColoured := true
		var subR, subG, subB uint8
		if len(subs) > 0 {
			subR, subG, subB = subs[0].R, subs[0].G, subs[0].B
			for _, s := range subs[1:] {
				if s.R != subR || s.G != subG || s.B != subB {
					uniformColoured = false
					break
				}
			}
		}

		var flags byte
		bgChanged := !haveBg || bgR != tileBgR || bgG != tileBgG || bgB != tileBgB

		switch {
		case len(subs) == 0:
			// Solid tile: background colour alone covers it.
			if bgChanged {
				flags = HextileBackgroundSpecified
			}
		case len(subs) > 255 || (len(subs)*(pf.BytesPerPixel()+2) >= tw*th*pf.BytesPerPixel()):
			// Subrect list would cost more than raw: fall back to raw.
			flags = HextileRaw
		case uniformColoured:
			flags = HextileAnySubrects
			if bgChanged {
				flags |= HextileBackgroundSpecified
			}
			if !haveFg || fgR != subR || fgG != subG || fgB != subB {
				flags |= HextileForegroundSpecified
			}
		default:
			flags = HextileAnySubrects | HextileSubrectsColoured
			if bgChanged {
				flags |= HextileBackgroundSpecified
			}
		}

		out = append(out, flags)

		if flags&HextileRaw != 0 {
			raw, _ := Translate(tile, tw, th, pf)
			out = append(out, raw...)
			// A raw tile does not update carried bg/fg state (RFC 6143 leaves
			// it undefined across a raw tile, matching the teacher's decoder
			// which never touches bgCol/fgCol in the Raw branch).
			return
		}

		if flags&HextileBackgroundSpecified != 0 {
			px, _ := Translate([]byte{tileBgR, tileBgG, tileBgB, 0}, 1, 1, pf)
			out = append(out, px...)
			bgR, bgG, bgB = tileBgR, tileBgG, tileBgB
			haveBg = true
		}

		if flags&HextileAnySubrects == 0 {
			return
		}

		if flags&HextileForegroundSpecified != 0 {
			px, _ := Translate([]byte{subR, subG, subB, 0}, 1, 1, pf)
			out = append(out, px...)
			fgR, fgG, fgB = subR, subG, subB
			haveFg = true
		}

		out = append(out, byte(len(subs)))
		coloured := flags&HextileSubrectsColoured != 0
		for _, s := range subs {
			if coloured {
				px, _ := Translate([]byte{s.R, s.G, s.B, 0}, 1, 1, pf)
				out = append(out, px...)
			}
			out = append(out, byte(s.X<<4|s.Y))
			out = append(out, byte((s.W-1)<<4|(s.H-1)))
		}
	})

	return out, nil
}
