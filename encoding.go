package rfbenc

// EncodingType identifies an RFB rectangle encoding on the wire. Values
// are fixed by RFC 6143 §7.7 and the Tight extension; kept here (rather
// than re-deriving per file) exactly as the teacher's encoding.go does,
// trimmed to the encodings this library actually implements (spec.md §6).
type EncodingType int32

const (
	EncRaw      EncodingType = 0
	EncRRE      EncodingType = 2
	EncCoRRE    EncodingType = 4
	EncHextile  EncodingType = 5
	EncZlib     EncodingType = 6
	EncTight    EncodingType = 7
	EncZlibHex  EncodingType = 8
	EncZRLE     EncodingType = 16
	EncZYWRLE   EncodingType = 17
	EncTightPng EncodingType = -260
)

// Options bundles the per-call parameters spec.md §6's "Encoder contract"
// lists: quality and compression on the RFB 0-9 scale, and the client's
// negotiated PixelFormat.
type Options struct {
	Quality     int
	Compression int
	Format      PixelFormat
}

func (o Options) clamped() Options {
	o.Quality = clampInt(o.Quality, 0, 9)
	o.Compression = clampInt(o.Compression, 0, 9)
	return o
}

// Encoder is satisfied by the stateless encodings: Raw, RRE, CoRRE,
// Hextile, TightPng. Ported from original_source/src/lib.rs's Encoding
// trait (SPEC_FULL.md §6), adapted to Go's multi-return error convention.
type Encoder interface {
	Type() EncodingType
	Encode(interior []byte, width, height int, opts Options) ([]byte, error)
}

// StatefulEncoder is satisfied by the encodings that depend on the
// persistent zlib multiplexer for cross-rectangle dictionary continuity:
// Zlib, ZlibHex, Tight, ZRLE, ZYWRLE (spec.md §3 "PersistentCompressor").
type StatefulEncoder interface {
	Type() EncodingType
	EncodeStateful(interior []byte, width, height int, opts Options, pc *PersistentCompressor) ([]byte, error)
}

// NewEncoder returns the stateless encoder for t, mirroring
// original_source's get_encoder factory (SPEC_FULL.md §6). Stateful
// encodings come from NewStatefulEncoder instead, since they need a
// *PersistentCompressor at each call, not just at construction time.
func NewEncoder(t EncodingType) (Encoder, bool) {
	switch t {
	case EncRaw:
		return &RawEncoding{}, true
	case EncRRE:
		return &RREEncoding{}, true
	case EncCoRRE:
		return &CoRREEncoding{}, true
	case EncHextile:
		return &HextileEncoding{}, true
	case EncTightPng:
		return &TightPngEncoding{}, true
	default:
		return nil, false
	}
}

// NewStatefulEncoder returns the persistent-compressor-backed encoder for
// t, or false if t does not need one.
func NewStatefulEncoder(t EncodingType) (StatefulEncoder, bool) {
	switch t {
	case EncZlib:
		return &ZlibEncoding{}, true
	case EncZlibHex:
		return &ZlibHexEncoding{}, true
	case EncTight:
		return &TightEncoding{}, true
	case EncZRLE:
		return &ZRLEEncoding{}, true
	case EncZYWRLE:
		return &ZYWRLEEncoding{}, true
	default:
		return nil, false
	}
}
