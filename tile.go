package rfbenc

// tileExtents walks a width×height rectangle in row-major, left-to-right
// then top-to-bottom tile order (spec.md §3 "Tile"), calling fn with each
// tile's origin and extent. Extents are computed as
// min(tileSize, rectExtent-origin) rather than padding (spec.md §9 "Tile
// edge handling"), so edge tiles report their true, possibly smaller,
// width and height.
func tileExtents(width, height, tileSize int, fn func(tx, ty, tw, th int)) {
	for ty := 0; ty < height; ty += tileSize {
		th := tileSize
		if height-ty < th {
			th = height - ty
		}
		for tx := 0; tx < width; tx += tileSize {
			tw := tileSize
			if width-tx < tw {
				tw = width - tx
			}
			fn(tx, ty, tw, th)
		}
	}
}

// extractTile copies the tw×th sub-rectangle at (tx,ty) out of a
// width×height interior buffer into a freshly allocated, tightly packed
// tw*th*4-byte buffer.
func extractTile(interior []byte, width, tx, ty, tw, th int) []byte {
	out := make([]byte, 4*tw*th)
	for row := 0; row < th; row++ {
		srcOff := 4 * ((ty+row)*width + tx)
		dstOff := 4 * row * tw
		copy(out[dstOff:dstOff+4*tw], interior[srcOff:srcOff+4*tw])
	}
	return out
}
