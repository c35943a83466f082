package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"net"

	"github.com/marben/irpc"
	"github.com/marben/julia"
)

// fetch asks the julia server at addr for its finished image.
// GetImage blocks on the server until every tile is rendered.
func fetch(ctx context.Context, addr string) (*image.Gray, error) {
	log.Printf("Connecting to julia server on %s...", addr)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	ep := irpc.NewEndpoint(conn)
	defer ep.Close()

	client, err := julia.NewImgProviderIrpcClient(ep)
	if err != nil {
		return nil, fmt.Errorf("failed to create ImgProvider client: %w", err)
	}

	log.Printf("Requesting fully rendered image from server...")
	img, err := client.GetImage(ctx)
	if err != nil {
		return nil, fmt.Errorf("client.GetImage: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("server %s returned no image", addr)
	}
	return img, nil
}
