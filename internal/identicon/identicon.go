// Package identicon renders deterministic fallback server icons.
//
// The icon is a vertically mirrored cell grid derived from a seed string;
// the same seed always yields the same image. The background is left
// transparent so the consuming UI can react to theme changes.
package identicon

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/image/draw"
)

const (
	// gridSize is the number of cells per icon side.
	gridSize = 9
	// imageSize is the final icon edge length in pixels.
	imageSize = 54
	// border is the transparent frame width in pixels.
	border = 6
)

// Generate renders the identicon for seed and returns it as a
// base64-encoded PNG.
func Generate(seed string) string {
	rng := rand.New(rand.NewSource(int64(xxhash.Sum64String(seed))))

	fg := color.NRGBA{
		R: uint8(64 + rng.Intn(160)),
		G: uint8(64 + rng.Intn(160)),
		B: uint8(64 + rng.Intn(160)),
		A: 255,
	}

	// Fill the left half plus the center column and mirror it, so the icon
	// is symmetric the way classic identicons are.
	grid := image.NewNRGBA(image.Rect(0, 0, gridSize, gridSize))
	half := gridSize/2 + 1
	for y := 0; y < gridSize; y++ {
		for x := 0; x < half; x++ {
			if rng.Intn(2) == 0 {
				continue
			}
			grid.SetNRGBA(x, y, fg)
			grid.SetNRGBA(gridSize-1-x, y, fg)
		}
	}

	// Scale the cell grid into the bordered canvas.
	icon := image.NewNRGBA(image.Rect(0, 0, imageSize, imageSize))
	inner := image.Rect(border, border, imageSize-border, imageSize-border)
	draw.NearestNeighbor.Scale(icon, inner, grid, grid.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, icon); err != nil {
		// Encoding an in-memory NRGBA image cannot fail in practice.
		return ""
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
