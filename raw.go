package rfbenc

// RawEncoding is the trivial fallback encoder: translate to the client
// format and emit the bytes unchanged, with no framing header and no
// compression (spec.md §4.2). Grounded on the teacher's encoding_raw.go,
// whose decode loop this runs in reverse via Translate.
type RawEncoding struct{}

func (*RawEncoding) Type() EncodingType { return EncRaw }

func (*RawEncoding) Encode(interior []byte, width, height int, opts Options) ([]byte, error) {
	return Translate(interior, width, height, &opts.Format)
}
