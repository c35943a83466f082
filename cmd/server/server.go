// server renders a Julia set tile by tile and lets browsers and scripts
// watch it happen: tiles are pushed over a websocket as they finish and the
// whole image is served once complete. The finished image is also saved to
// the configured output file.
//
// The same image is provided as julia.ImgProvider over irpc on -rpc, which is
// what `julia -remote` connects to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/marben/irpc"
	"github.com/marben/julia"
	"github.com/marben/julia/internal/config"
	"github.com/marben/julia/internal/output"
	"github.com/marben/julia/render"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("run: %+v", err)
	}
}

func run(args []string) error {
	cfg, err := config.Load("julia-server", args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	imgWorkScheduler := newImgWorkScheduler(cfg.Params, render.DefaultTileSize)
	renderer := render.RendererImpl{OnTileRender: func(tile image.Rectangle) { log.Printf("rendering tile: %s", tile) }}

	// single renderer: tiles are computed one after another
	go func() {
		start := time.Now()
		if err := imgWorkScheduler.render(renderer); err != nil {
			log.Printf("render: %v", err)
			return
		}
		p := cfg.Params
		log.Printf("computed %dx%d grid in %s", p.GridSize, p.GridSize, time.Since(start))

		if err := saveImage(ctx, cfg, imgWorkScheduler); err != nil {
			log.Printf("save: %v", err)
		}
	}()

	// imgProviderIrpcService hands the finished image to `julia -remote`
	irpcServer := irpc.NewServer(irpc.WithOnConnect(func(ep *irpc.Endpoint) {
		log.Printf("got irpc connection from: %s", ep.RemoteAddr())
	}))
	irpcServer.AddService(julia.NewImgProviderIrpcService(imgWorkScheduler))

	tcpListener, err := net.Listen("tcp", cfg.RPCAddr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}
	go func() {
		log.Printf("irpc listening on %s", tcpListener.Addr())
		if err := irpcServer.Serve(tcpListener); err != nil && !errors.Is(err, irpc.ErrServerClosed) {
			log.Printf("irpc server: %v", err)
		}
	}()

	httpServer := webServer(cfg.Addr, imgWorkScheduler)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		irpcServer.Close()
	}()

	log.Printf("listening on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// saveImage waits for the finished image and writes it, with a thumbnail
// when cfg asks for one.
func saveImage(ctx context.Context, cfg *config.Config, p julia.ImgProvider) error {
	img, err := p.GetImage(ctx)
	if err != nil {
		return fmt.Errorf("get image: %w", err)
	}
	thumb, err := output.SaveWithThumbnail(cfg.OutputPath, cfg.Filters.Apply(img), cfg.ThumbSize, cfg.Output)
	if err != nil {
		return err
	}
	log.Printf("rendered image saved to %q", cfg.OutputPath)
	if thumb != "" {
		log.Printf("thumbnail saved to %q", thumb)
	}
	return nil
}
