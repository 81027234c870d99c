package rfbenc

import "encoding/binary"

// ZlibEncoding is Raw pixel data deflated on the connection's stream 0,
// framed with a 4-byte big-endian length (RFC 6143 §7.7.3). Grounded on
// the teacher's encoding_zlib.go Read, which reads that same u32 length
// then inflates from a persistent zlib.Reader; this runs the inverse
// with PersistentCompressor in place of the teacher's single
// unzipper/zippedBuff pair.
type ZlibEncoding struct{}

func (*ZlibEncoding) Type() EncodingType { return EncZlib }

func (*ZlibEncoding) EncodeStateful(interior []byte, width, height int, opts Options, pc *PersistentCompressor) ([]byte, error) {
	raw, err := Translate(interior, width, height, &opts.Format)
	if err != nil {
		return nil, err
	}
	compressed, err := pc.Compress(0, opts.clamped().Compression, raw)
	if err != nil {
		if IsErrorKind(err, ErrCompressor) {
			// spec.md §7: reset the offending stream and fall back to Raw
			// for this rectangle; a compressor failure never reaches the
			// caller as an error.
			pc.Reset(0)
			return raw, nil
		}
		return nil, err
	}

	out := make([]byte, 4, 4+len(compressed))
	binary.BigEndian.PutUint32(out, uint32(len(compressed)))
	return append(out, compressed...), nil
}
