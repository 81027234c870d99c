package rfbenc

import (
	"bytes"

	"github.com/klauspost/compress/zlib"

	"github.com/dustinmcafee/rfb-encodings/logger"
)

// PersistentCompressor holds the four independent, dictionary-preserving
// zlib streams RFC 6143's Tight/ZRLE encodings multiplex across the
// lifetime of one connection (spec.md §3 "PersistentCompressor"). Each
// stream keeps its own sliding-window dictionary between calls; callers
// pick a stream index (0-3) the way the wire protocol's compression
// control byte does. Grounded on the teacher's encoding_tight.go
// decoders/decoderBuffs pair, inverted from inflate to deflate, using
// klauspost/compress/zlib as a drop-in stand-in for compress/zlib
// (SPEC_FULL.md §3).
type PersistentCompressor struct {
	streams [4]*streamState
}

type streamState struct {
	level int
	buf   bytes.Buffer
	w     *zlib.Writer
}

// NewPersistentCompressor returns a compressor with all four streams
// uninitialized; each is lazily created on first use at the level
// requested then.
func NewPersistentCompressor() *PersistentCompressor {
	return &PersistentCompressor{}
}

// Compress deflates input on the given stream (0-3) at the requested
// zlib level, returning only the newly produced compressed bytes for
// this call (the stream's dictionary carries forward internally). A
// level change on an existing stream resets that stream's dictionary,
// mirroring the teacher's resetDecoders, which drops a decoder's state
// whenever the peer's compression-control reset bit is set for it.
func (pc *PersistentCompressor) Compress(streamID int, level int, input []byte) ([]byte, error) {
	if streamID < 0 || streamID > 3 {
		return nil, newError(ErrInvalidInput, "zlib stream id %d out of range", streamID)
	}
	level = clampZlibLevel(level)

	st := pc.streams[streamID]
	if st == nil || st.level != level {
		logger.Tracef("PersistentCompressor: (re)initializing stream %d at level %d", streamID, level)
		st = &streamState{level: level}
		w, err := zlib.NewWriterLevel(&st.buf, level)
		if err != nil {
			return nil, newError(ErrCompressor, "creating zlib writer: %v", err)
		}
		st.w = w
		pc.streams[streamID] = st
	}

	st.buf.Reset()
	if _, err := st.w.Write(input); err != nil {
		return nil, newError(ErrCompressor, "zlib write: %v", err)
	}
	// Sync flush: emit everything written so far without resetting the
	// dictionary, so the next call's Write can still reference this
	// call's bytes for back-references (spec.md §3).
	if err := st.w.Flush(); err != nil {
		return nil, newError(ErrCompressor, "zlib flush: %v", err)
	}

	out := make([]byte, st.buf.Len())
	copy(out, st.buf.Bytes())
	return out, nil
}

// Reset drops all dictionary state for the given stream, forcing the
// next Compress call to start a fresh zlib stream.
func (pc *PersistentCompressor) Reset(streamID int) {
	if streamID >= 0 && streamID <= 3 {
		pc.streams[streamID] = nil
	}
}

func clampZlibLevel(level int) int {
	// RFB compression levels run 0-9; zlib's run 0 (none) to 9 (best), with
	// -1 meaning "default" — the two scales line up directly.
	return clampInt(level, zlib.NoCompression, zlib.BestCompression)
}
