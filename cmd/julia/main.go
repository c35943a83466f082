// julia renders a Julia-set fractal into an image file.
//
// Every run parameter is a flag (see -h), can come from a TOML file given with
// -config, or from a named -preset. The image is computed in one sequential
// pass, timed, and written once at the end. With -remote the image is instead
// fetched over irpc from a running julia-server once it finished rendering.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

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
		log.Fatalf("FATAL: %v", err)
	}
}

func run(args []string) error {
	cfg, err := config.Load("julia", args)
	if err != nil {
		return err
	}
	if cfg.Remote != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		img, err := fetch(ctx, cfg.Remote)
		if err != nil {
			return err
		}
		return save(cfg, img)
	}
	p := cfg.Params

	logGrid(p)

	log.Printf("Starting computing pixels convergence...")
	start := time.Now()
	img, err := render.RendererImpl{}.Render(p)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	elapsed := time.Since(start)

	pixels := p.GridSize * p.GridSize
	log.Printf("Computed %d pixels in %s for a %dx%d grid (%.2f Mpx/s)",
		pixels, elapsed, p.GridSize, p.GridSize, mpxPerSecond(pixels, elapsed))

	return save(cfg, img)
}

func logGrid(p julia.Params) {
	step := julia.MapPixel(p.Region, 1, 1, p.GridSize, p.Sampling) - julia.MapPixel(p.Region, 0, 0, p.GridSize, p.Sampling)

	log.Printf("Grid parameters:")
	log.Printf("%d×%d pixels, %s sampling", p.GridSize, p.GridSize, p.Sampling)
	log.Printf("%s", p.Region)
	log.Printf("Δx = %g, Δy = %g", real(step), imag(step))
	log.Printf("c = %v, max iterations = %d, escape radius = %g", p.C, p.MaxIter, p.Radius)
	log.Printf("mode = %s, brightening = %g, overflow = %s", p.Mode, p.Brightening, p.Overflow)
}

func save(cfg *config.Config, img *image.Gray) error {
	out := cfg.Filters.Apply(img)

	log.Printf("Saving rendered image to %q...", cfg.OutputPath)
	thumb, err := output.SaveWithThumbnail(cfg.OutputPath, out, cfg.ThumbSize, cfg.Output)
	if err != nil {
		return err
	}
	log.Printf("Rendered image saved to %q", cfg.OutputPath)
	if thumb != "" {
		log.Printf("Thumbnail saved to %q", thumb)
	}
	return nil
}

func mpxPerSecond(pixels int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(pixels) / d.Seconds() / 1e6
}
