package julia

import (
	"context"
	"image"
)

// ImgProvider hands out the fully rendered image.
// The server exposes it over irpc, see imgprovider_irpc.go.
//
//go:generate irpc $GOFILE
type ImgProvider interface {
	GetImage(ctx context.Context) (*image.Gray, error)
}
