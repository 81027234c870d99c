package rfbenc

import "fmt"

// ErrorKind classifies the ways an encode call can fail without being
// fatal to the caller. Every encoder either produces a conformant payload
// or, for InvalidInput, an empty one; the other kinds drive an internal
// fallback and are never expected to reach library callers.
type ErrorKind int

const (
	// ErrInvalidInput covers a pixel buffer length mismatch, an
	// unsupported PixelFormat (colormapped, non-2^k-1 maxima, 24bpp
	// wire), or zero width/height.
	ErrInvalidInput ErrorKind = iota
	// ErrCompressor covers a zlib stream failure inside the persistent
	// compressor.
	ErrCompressor
	// ErrJpegUnavailable covers a disabled or failing JPEG backend.
	ErrJpegUnavailable
	// ErrPaletteOverflow covers a palette exceeding a mode's colour cap.
	ErrPaletteOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidInput:
		return "invalid-input"
	case ErrCompressor:
		return "compressor"
	case ErrJpegUnavailable:
		return "jpeg-unavailable"
	case ErrPaletteOverflow:
		return "palette-overflow"
	default:
		return "unknown"
	}
}

// EncodingError is returned internally by encoder helpers to signal which
// kind of recoverable condition was hit. Callers of the exported Encoder
// interface only ever see it wrapped as a plain error for ErrInvalidInput;
// the other kinds are consumed by the encoder itself to choose a fallback
// path and never escape Encode.
type EncodingError struct {
	Kind ErrorKind
	Msg  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("rfbenc: %s: %s", e.Kind, e.Msg)
}

func newError(kind ErrorKind, format string, args ...interface{}) *EncodingError {
	return &EncodingError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsErrorKind reports whether err is an *EncodingError of the given kind,
// letting a caller distinguish a malformed rectangle (ErrInvalidInput)
// from an internal fallback condition it may want to log.
func IsErrorKind(err error, kind ErrorKind) bool {
	ee, ok := err.(*EncodingError)
	return ok && ee.Kind == kind
}
