package main

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"sync"

	"github.com/marben/julia"
	"github.com/marben/julia/render"
)

type imgWorkScheduler struct {
	params julia.Params
	img    *image.Gray

	// cancelled once every tile is in img
	ctx       context.Context
	ctxCancel context.CancelFunc

	totalPixels    int
	finishedPixels int

	unstarted []image.Rectangle
	inProcess map[image.Rectangle]struct{}
	finished  []image.Rectangle // in completion order

	// closed and replaced whenever a tile finishes
	updated chan struct{}

	m sync.Mutex
}

func newImgWorkScheduler(p julia.Params, tileSize int) *imgWorkScheduler {
	img := image.NewGray(render.Bounds(p))
	ctx, cancel := context.WithCancel(context.Background())
	return &imgWorkScheduler{
		params:      p,
		img:         img,
		unstarted:   render.SplitRect(img.Bounds(), tileSize, tileSize),
		inProcess:   make(map[image.Rectangle]struct{}),
		totalPixels: p.GridSize * p.GridSize,
		updated:     make(chan struct{}),
		ctx:         ctx,
		ctxCancel:   cancel,
	}
}

func (iws *imgWorkScheduler) popTile() (tile image.Rectangle, found bool) {
	iws.m.Lock()
	defer iws.m.Unlock()

	if len(iws.unstarted) == 0 {
		return image.Rectangle{}, false
	}
	tile = iws.unstarted[0]
	iws.unstarted = iws.unstarted[1:]

	// Move popped tile to currently processed tiles
	iws.inProcess[tile] = struct{}{}
	return tile, true
}

// requeue puts a tile whose render failed back in front of the queue.
func (iws *imgWorkScheduler) requeue(tile image.Rectangle) {
	iws.m.Lock()
	defer iws.m.Unlock()

	delete(iws.inProcess, tile)
	iws.unstarted = append([]image.Rectangle{tile}, iws.unstarted...)
}

// GetImage implements julia.ImgProvider. It waits for the render to complete.
func (iws *imgWorkScheduler) GetImage(ctx context.Context) (*image.Gray, error) {
	select {
	case <-iws.ctx.Done():
		return iws.img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ julia.ImgProvider = (*imgWorkScheduler)(nil)

func (iws *imgWorkScheduler) progress() float32 {
	iws.m.Lock()
	defer iws.m.Unlock()
	return float32(iws.finishedPixels) / float32(iws.totalPixels)
}

func (iws *imgWorkScheduler) tileFinished(tileImg *image.Gray) {
	rect := tileImg.Bounds()

	iws.m.Lock()
	defer iws.m.Unlock()

	if _, found := iws.inProcess[rect]; !found {
		log.Printf("dropping tile %s that was not being rendered", rect)
		return
	}
	delete(iws.inProcess, rect)

	draw.Draw(
		iws.img,
		rect,     // destination rectangle (global coords)
		tileImg,  // source image
		rect.Min, // source start
		draw.Src,
	)

	iws.finishedPixels += rect.Dx() * rect.Dy()
	iws.finished = append(iws.finished, rect)

	close(iws.updated)
	iws.updated = make(chan struct{})

	if len(iws.unstarted) == 0 && len(iws.inProcess) == 0 {
		iws.ctxCancel()
	}
}

// tileUpdate is a copy of one finished tile.
type tileUpdate struct {
	rect image.Rectangle
	img  *image.Gray
}

// tilesSince returns copies of the tiles finished after the first n, a
// channel closed on the next finished tile and whether the render is complete.
func (iws *imgWorkScheduler) tilesSince(n int) (tiles []tileUpdate, updated <-chan struct{}, done bool) {
	iws.m.Lock()
	defer iws.m.Unlock()

	for _, rect := range iws.finished[min(n, len(iws.finished)):] {
		cp := image.NewGray(rect)
		draw.Draw(cp, rect, iws.img, rect.Min, draw.Src)
		tiles = append(tiles, tileUpdate{rect: rect, img: cp})
	}
	return tiles, iws.updated, iws.ctx.Err() != nil
}

// render renders all unfinished tiles on the provided Renderer, one at a time.
func (iws *imgWorkScheduler) render(renderer julia.Renderer) error {
	defer func() { log.Printf("finished: %.0f%%", 100*iws.progress()) }()

	for {
		tile, found := iws.popTile()
		if !found {
			return nil
		}
		tileImg, err := renderer.RenderTile(iws.params, tile)
		if err != nil {
			iws.requeue(tile)
			return fmt.Errorf("render of tile %s: %w", tile, err)
		}
		iws.tileFinished(tileImg)
	}
}
