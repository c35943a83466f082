package output

import (
	"image"

	"github.com/disintegration/gift"
	"github.com/nfnt/resize"
)

// Filters are applied to the rendered image before it is saved.
type Filters struct {
	Gamma  float64 // 0 or 1 leaves the image alone
	Invert bool
}

func (f Filters) empty() bool {
	return (f.Gamma == 0 || f.Gamma == 1) && !f.Invert
}

// Apply returns img run through the configured filters.
// Without any filter img itself is returned.
func (f Filters) Apply(img *image.Gray) *image.Gray {
	if f.empty() {
		return img
	}

	g := gift.New()
	if f.Gamma != 0 && f.Gamma != 1 {
		g.Add(gift.Gamma(float32(f.Gamma)))
	}
	if f.Invert {
		g.Add(gift.Invert())
	}

	dst := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// Thumbnail scales img so that its longer side is size pixels.
func Thumbnail(img image.Image, size int) image.Image {
	return resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3)
}
