// Package render turns julia.Params into a greyscale raster.
//
// Rendering is sequential: the grid is cut into tiles which are rendered one
// after another and copied into the output buffer, so every grid coordinate
// is evaluated exactly once.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/marben/julia"
)

// DefaultTileSize is the side of the square tiles the grid is cut into.
const DefaultTileSize = 64

var ErrTileOutOfBounds = errors.New("tile outside of the image")

// EscapeFunc computes the escape time of z0 under z = z*z + c.
// julia.EscapeTime is the real one; tests substitute counting stubs.
type EscapeFunc func(z0, c complex128, maxIter int, radius float64) int

type RendererImpl struct {
	// OnTileRender, if set, is called before each tile is rendered.
	OnTileRender func(tile image.Rectangle)

	// Escape defaults to julia.EscapeTime.
	Escape EscapeFunc

	// TileSize defaults to DefaultTileSize.
	TileSize int
}

var _ julia.Renderer = RendererImpl{}

// Bounds of the full image rendered for p.
func Bounds(p julia.Params) image.Rectangle {
	return image.Rect(0, 0, p.GridSize, p.GridSize)
}

// RenderTile renders the part of the grid covered by tile.
// The returned image uses global coordinates, its Bounds() equal tile.
func (imp RendererImpl) RenderTile(p julia.Params, tile image.Rectangle) (*image.Gray, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if tile.Empty() || !tile.In(Bounds(p)) {
		return nil, fmt.Errorf("%w: %s not in %s", ErrTileOutOfBounds, tile, Bounds(p))
	}
	return imp.renderTile(p, tile), nil
}

// Render renders the full gridsize × gridsize image.
func (imp RendererImpl) Render(p julia.Params) (*image.Gray, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	img := image.NewGray(Bounds(p))
	for _, tile := range SplitRect(img.Bounds(), imp.tileSize(), imp.tileSize()) {
		tileImg := imp.renderTile(p, tile)
		draw.Draw(img, tile, tileImg, tile.Min, draw.Src)
	}
	return img, nil
}

func (imp RendererImpl) renderTile(p julia.Params, tile image.Rectangle) *image.Gray {
	if imp.OnTileRender != nil {
		imp.OnTileRender(tile)
	}
	escape := imp.Escape
	if escape == nil {
		escape = julia.EscapeTime
	}

	img := image.NewGray(tile)

	// x is the grid row (real axis), y the grid column (imaginary axis)
	for y := tile.Min.Y; y < tile.Max.Y; y++ {
		for x := tile.Min.X; x < tile.Max.X; x++ {
			z0 := julia.MapPixel(p.Region, x, y, p.GridSize, p.Sampling)
			n := escape(z0, p.C, p.MaxIter, p.Radius)
			img.SetGray(x, y, color.Gray{Y: p.Shade(n)})
		}
	}
	return img
}

func (imp RendererImpl) tileSize() int {
	if imp.TileSize <= 0 {
		return DefaultTileSize
	}
	return imp.TileSize
}

// SplitRect splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func SplitRect(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)

		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)

			tiles = append(tiles, image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			))
		}
	}

	return tiles
}
