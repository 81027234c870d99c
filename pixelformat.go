// Package rfbenc implements RFC 6143 / Tight-extension pixel-rectangle
// encoders for the Remote Framebuffer protocol used by VNC.
//
// This file implements the PixelFormat data structure and the pixel-format
// translator (spec.md §3 "PixelFormat", §4.1 "Pixel Translator"), grounded
// on the teacher's pixel_format.go and on original_source/src/lib.rs, whose
// Rust PixelFormat supplies the validation rules and named presets below.
package rfbenc

import (
	"encoding/binary"
	"math/bits"
)

// PixelFormat describes the wire layout of a pixel the client negotiated.
// Field names and meanings follow RFC 6143 §7.4 exactly.
type PixelFormat struct {
	BPP        uint8 // bits-per-pixel: 8, 16, or 32
	Depth      uint8 // colour depth
	BigEndian  uint8 // 1 if multi-byte pixel values are big-endian
	TrueColor  uint8 // must be 1; colormapped formats are unsupported
	RedMax     uint16
	GreenMax   uint16
	BlueMax    uint16
	RedShift   uint8
	GreenShift uint8
	BlueShift  uint8
}

// Well-known presets. RGBA32 mirrors the teacher's NewPixelFormat(32);
// RGB565, RGB555 and BGR233 are ported from original_source's
// PixelFormat::rgb565/rgb555/bgr233, which the distilled spec only
// refers to generically as "the client pixel format" (see SPEC_FULL.md §6).
var (
	PixelFormatRGBA32 = PixelFormat{
		BPP: 32, Depth: 24, BigEndian: 0, TrueColor: 1,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 0, GreenShift: 8, BlueShift: 16,
	}
	PixelFormatRGB565 = PixelFormat{
		BPP: 16, Depth: 16, BigEndian: 0, TrueColor: 1,
		RedMax: 31, GreenMax: 63, BlueMax: 31,
		RedShift: 11, GreenShift: 5, BlueShift: 0,
	}
	PixelFormatRGB555 = PixelFormat{
		BPP: 16, Depth: 15, BigEndian: 0, TrueColor: 1,
		RedMax: 31, GreenMax: 31, BlueMax: 31,
		RedShift: 10, GreenShift: 5, BlueShift: 0,
	}
	PixelFormatBGR233 = PixelFormat{
		BPP: 8, Depth: 8, BigEndian: 0, TrueColor: 1,
		RedMax: 7, GreenMax: 7, BlueMax: 3,
		RedShift: 0, GreenShift: 3, BlueShift: 6,
	}
)

func (pf *PixelFormat) order() binary.ByteOrder {
	if pf.BigEndian == 1 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// BytesPerPixel returns the wire size of one pixel under this format.
func (pf *PixelFormat) BytesPerPixel() int {
	return int(pf.BPP) / 8
}

// Validate checks the invariants spec.md §3 places on PixelFormat:
// bits-per-pixel in {8,16,32}, true-colour only, channel maxima of the
// form 2^k-1, non-overlapping channel bit ranges that fit within
// bits-per-pixel. Ported from original_source's PixelFormat::is_valid,
// tightened to reject colormapped formats outright (spec.md Non-goals).
func (pf *PixelFormat) Validate() error {
	switch pf.BPP {
	case 8, 16, 32:
	default:
		return newError(ErrInvalidInput, "bits-per-pixel must be 8, 16, or 32, got %d", pf.BPP)
	}
	if pf.TrueColor == 0 {
		return newError(ErrInvalidInput, "colormapped (non true-colour) pixel formats are unsupported")
	}
	for name, max := range map[string]uint16{"red": pf.RedMax, "green": pf.GreenMax, "blue": pf.BlueMax} {
		if max != 0 && (uint32(max)&(uint32(max)+1)) != 0 {
			return newError(ErrInvalidInput, "%s-max %d is not of the form 2^k-1", name, max)
		}
	}
	redBits := bits.OnesCount16(pf.RedMax)
	greenBits := bits.OnesCount16(pf.GreenMax)
	blueBits := bits.OnesCount16(pf.BlueMax)
	if int(pf.RedShift)+redBits > int(pf.BPP) ||
		int(pf.GreenShift)+greenBits > int(pf.BPP) ||
		int(pf.BlueShift)+blueBits > int(pf.BPP) {
		return newError(ErrInvalidInput, "a channel's shift+width exceeds bits-per-pixel")
	}
	ranges := [][2]int{
		{int(pf.RedShift), int(pf.RedShift) + redBits},
		{int(pf.GreenShift), int(pf.GreenShift) + greenBits},
		{int(pf.BlueShift), int(pf.BlueShift) + blueBits},
	}
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			if ranges[i][0] < ranges[j][1] && ranges[j][0] < ranges[i][1] {
				return newError(ErrInvalidInput, "channel bit ranges overlap")
			}
		}
	}
	return nil
}

// IsCompatibleWithRGBA32 reports whether pf matches PixelFormatRGBA32
// field for field, ported from original_source's
// PixelFormat::is_compatible_with_rgba32.
func (pf *PixelFormat) IsCompatibleWithRGBA32() bool {
	return *pf == PixelFormatRGBA32
}

// fitsInLowBits reports whether every channel's bit range lies within the
// low n bits of the packed pixel, i.e. shift+width <= n for all of
// red/green/blue.
func (pf *PixelFormat) fitsInLowBits(n int) bool {
	return int(pf.RedShift)+bits.OnesCount16(pf.RedMax) <= n &&
		int(pf.GreenShift)+bits.OnesCount16(pf.GreenMax) <= n &&
		int(pf.BlueShift)+bits.OnesCount16(pf.BlueMax) <= n
}

// isTightTrueColor24 reports whether pf is a 32bpp true-colour format
// whose channels all fit in the low 24 bits — the condition under which
// Tight/TightPng emit 3-byte TPIXELs instead of full 4-byte pixels.
// Mirrors the teacher's "isTightFormat" check in encoding_tight.go's
// getTightColor, generalized from "max <= 255" to "fits in 24 bits".
func (pf *PixelFormat) isTightTrueColor24() bool {
	return pf.TrueColor != 0 && pf.BPP == 32 && pf.fitsInLowBits(24)
}

func scaleChannel(c uint8, max uint16) uint32 {
	return uint32(c) * uint32(max) / 255
}

func packPixel(r, g, b uint8, pf *PixelFormat) uint32 {
	return scaleChannel(r, pf.RedMax)<<pf.RedShift |
		scaleChannel(g, pf.GreenMax)<<pf.GreenShift |
		scaleChannel(b, pf.BlueMax)<<pf.BlueShift
}

// putPixel serializes a packed pixel value into its wire bytes (1, 2, or
// 4 bytes per pf.BPP) in the format's declared endianness, appending to
// dst and returning the result.
func putPixel(dst []byte, packed uint32, pf *PixelFormat) []byte {
	order := pf.order()
	switch pf.BPP {
	case 8:
		return append(dst, byte(packed))
	case 16:
		var b [2]byte
		order.PutUint16(b[:], uint16(packed))
		return append(dst, b[:]...)
	case 32:
		var b [4]byte
		order.PutUint32(b[:], packed)
		return append(dst, b[:]...)
	default:
		return dst
	}
}

// Translate converts a canonical interior pixel buffer (4 bytes per
// pixel: R, G, B, pad) into the client's negotiated wire layout, per
// spec.md §4.1. The returned buffer has length BytesPerPixel(pf)*w*h.
func Translate(interior []byte, width, height int, pf *PixelFormat) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, newError(ErrInvalidInput, "zero or negative dimensions")
	}
	if len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "interior pixel buffer length %d != 4*%d*%d", len(interior), width, height)
	}
	if err := pf.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, pf.BytesPerPixel()*width*height)
	for i := 0; i < width*height; i++ {
		px := interior[4*i : 4*i+4]
		packed := packPixel(px[0], px[1], px[2], pf)
		out = putPixel(out, packed, pf)
	}
	return out, nil
}

// TranslateCPixel produces ZRLE's "compact pixel" encoding (spec.md §4.1):
// when the format is 32bpp true-colour with all channel bits within the
// low 24, each pixel is emitted as 3 bytes rather than 4, dropping the
// byte whose bit range lies entirely outside every channel mask. For any
// other format it falls back to Translate.
func TranslateCPixel(interior []byte, width, height int, pf *PixelFormat) ([]byte, error) {
	if !pf.isTightTrueColor24() {
		return Translate(interior, width, height, pf)
	}
	if width <= 0 || height <= 0 {
		return nil, newError(ErrInvalidInput, "zero or negative dimensions")
	}
	if len(interior) != 4*width*height {
		return nil, newError(ErrInvalidInput, "interior pixel buffer length %d != 4*%d*%d", len(interior), width, height)
	}
	drop := uncoveredByteIndex(pf)
	out := make([]byte, 0, 3*width*height)
	var full [4]byte
	order := pf.order()
	for i := 0; i < width*height; i++ {
		px := interior[4*i : 4*i+4]
		packed := packPixel(px[0], px[1], px[2], pf)
		order.PutUint32(full[:], packed)
		for b := 0; b < 4; b++ {
			if b == drop {
				continue
			}
			out = append(out, full[b])
		}
	}
	return out, nil
}

// uncoveredByteIndex returns the index (0-3) of the serialized byte whose
// 8-bit range does not overlap any channel's bit range, for a 32bpp
// format known (by isTightTrueColor24) to fit all channels in 24 bits.
func uncoveredByteIndex(pf *PixelFormat) int {
	covered := [4]bool{}
	mark := func(shift, width int) {
		for bit := shift; bit < shift+width; bit++ {
			covered[bit/8] = true
		}
	}
	mark(int(pf.RedShift), bits.OnesCount16(pf.RedMax))
	mark(int(pf.GreenShift), bits.OnesCount16(pf.GreenMax))
	mark(int(pf.BlueShift), bits.OnesCount16(pf.BlueMax))
	for i, c := range covered {
		if !c {
			if pf.BigEndian == 1 {
				// covered is indexed by bit position; big-endian
				// serialization writes the most significant byte first.
				return 3 - i
			}
			return i
		}
	}
	return 3
}

// translateTPixel is Translate specialized to TPIXEL/CPIXEL output: 3
// bytes per pixel for a tight-eligible 32bpp format, full width
// otherwise. Shared by Tight (TPIXEL) and ZRLE (CPIXEL), per spec.md's
// GLOSSARY entries for both terms.
func translateTPixel(interior []byte, width, height int, pf *PixelFormat) ([]byte, error) {
	if pf.isTightTrueColor24() {
		return TranslateCPixel(interior, width, height, pf)
	}
	return Translate(interior, width, height, pf)
}
