package rfbenc

// ZlibHexEncoding is Hextile with the per-tile payload bytes deflated
// instead of sent raw (RFB type 8, spec.md §4.6). Each tile's one-byte
// flag mask stays uncompressed; the body that follows is compressed on
// stream 1 for Raw-flagged tiles (mirroring RFB convention, which keeps
// Hextile's bulk raw fallback off the general-purpose stream) or stream 0
// for AnySubrects/SubrectsColoured tiles. Solid (background-only) tiles
// carry no body to compress. There is no teacher or pack grounding for
// this encoding directly; it is composed from the Hextile tiling and
// selection logic (hextile.go, grounded on encoding_hextile.go) plus the
// persistent compressor (compressor.go), per spec.md §4.6's explicit
// byte-for-byte recipe.
type ZlibHexEncoding struct{}

func (*ZlibHexEncoding) Type() EncodingType { return EncZlibHex }

func (*ZlibHexEncoding) EncodeStateful(interior []byte, width, height int, opts Options, pc *PersistentCompressor) ([]byte, error) {
	if width <= 0 || height <= 0 || len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "bad rectangle for ZlibHex")
	}
	pf := &opts.Format
	if err := pf.Validate(); err != nil {
		return nil, err
	}
	level := opts.clamped().Compression

	out := make([]byte, 0, width*height)
	var haveBg, haveFg bool
	var bgR, bgG, bgB uint8
	var fgR, fgG, fgB uint8
	var encErr error

	tileExtents(width, height, 16, func(tx, ty, tw, th int) {
		if encErr != nil {
			return
		}
		tile := extractTile(interior, width, tx, ty, tw, th)

		tileBgR, tileBgG, tileBgB := mostCommonColour(tile, tw, th)
		subs := findSubrects(tile, tw, th, tileBgR, tileBgG, tileBgB)

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
			if bgChanged {
				flags = HextileBackgroundSpecified
			}
		case len(subs) > 255 || (len(subs)*(pf.BytesPerPixel()+2) >= tw*th*pf.BytesPerPixel()):
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
			raw, err := Translate(tile, tw, th, pf)
			if err != nil {
				encErr = err
				return
			}
			compressed, err := pc.Compress(1, level, raw)
			if err != nil {
				if IsErrorKind(err, ErrCompressor) {
					pc.Reset(1)
				}
				encErr = err
				return
			}
			out = appendCompactLength(out, len(compressed))
			out = append(out, compressed...)
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

		body := make([]byte, 0, 1+len(subs)*6)
		body = append(body, byte(len(subs)))
		coloured := flags&HextileSubrectsColoured != 0
		for _, s := range subs {
			if coloured {
				px, _ := Translate([]byte{s.R, s.G, s.B, 0}, 1, 1, pf)
				body = append(body, px...)
			}
			body = append(body, byte(s.X<<4|s.Y))
			body = append(body, byte((s.W-1)<<4|(s.H-1)))
		}

		compressed, err := pc.Compress(0, level, body)
		if err != nil {
			if IsErrorKind(err, ErrCompressor) {
				pc.Reset(0)
			}
			encErr = err
			return
		}
		out = appendCompactLength(out, len(compressed))
		out = append(out, compressed...)
	})

	if encErr != nil {
		if IsErrorKind(encErr, ErrCompressor) {
			// spec.md §7: never propagate a compressor failure past this
			// call; fall back to Raw for the whole rectangle.
			return (&RawEncoding{}).Encode(interior, width, height, opts)
		}
		return nil, encErr
	}
	return out, nil
}
