package julia

import (
	"image"
)

// Renderer renders one tile of the full gridsize × gridsize image.
// The returned image has global coordinates: its Bounds() equal tile.
type Renderer interface {
	RenderTile(p Params, tile image.Rectangle) (*image.Gray, error)
}
