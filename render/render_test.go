package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/marben/julia"
)

func scenarioParams() julia.Params {
	p := julia.DefaultParams()
	p.GridSize = 4
	p.MaxIter = 10
	p.Radius = 2
	p.Brightening = 1
	return p
}

func TestRenderScenario(t *testing.T) {
	want := [4][4]uint8{
		{1, 1, 4, 2},
		{1, 3, 10, 4},
		{2, 10, 10, 10},
		{2, 4, 10, 3},
	}

	img, err := RendererImpl{}.Render(scenarioParams())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			if got := img.GrayAt(row, col).Y; got != want[row][col] {
				t.Errorf("pixel (%d,%d) = %d, want %d", row, col, got, want[row][col])
			}
		}
	}
}

func TestRenderVisitsEveryCoordinateOnce(t *testing.T) {
	for _, tc := range []struct{ grid, tile int }{
		{1, 64},
		{4, 64},
		{5, 2},
		{37, 8},
		{130, 64},
	} {
		t.Run(fmt.Sprintf("%dx%d/tile%d", tc.grid, tc.grid, tc.tile), func(t *testing.T) {
			p := julia.DefaultParams()
			p.GridSize = tc.grid

			seen := make(map[complex128]int)
			calls := 0
			imp := RendererImpl{
				TileSize: tc.tile,
				Escape: func(z0, c complex128, maxIter int, radius float64) int {
					calls++
					seen[z0]++
					return maxIter
				},
			}

			img, err := imp.Render(p)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got := len(img.Pix); got != tc.grid*tc.grid {
				t.Errorf("image has %d pixels, want %d", got, tc.grid*tc.grid)
			}
			if calls != tc.grid*tc.grid {
				t.Errorf("evaluator called %d times, want %d", calls, tc.grid*tc.grid)
			}
			for row := 0; row < tc.grid; row++ {
				for col := 0; col < tc.grid; col++ {
					z := julia.MapPixel(p.Region, row, col, p.GridSize, p.Sampling)
					if seen[z] != 1 {
						t.Fatalf("coordinate (%d,%d) evaluated %d times", row, col, seen[z])
					}
				}
			}
		})
	}
}

func TestRenderFillsLastRowAndColumn(t *testing.T) {
	p := julia.DefaultParams()
	p.GridSize = 9
	p.Mode = julia.ModeMask

	imp := RendererImpl{Escape: func(_, _ complex128, maxIter int, _ float64) int { return maxIter }}
	img, err := imp.Render(p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i, v := range img.Pix {
		if v != 255 {
			t.Fatalf("pixel %d left unpainted (%d)", i, v)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	p := julia.DefaultParams()
	p.GridSize = 96

	a, err := RendererImpl{}.Render(p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RendererImpl{TileSize: 17}.Render(p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two renders with identical params differ")
	}
}

func TestRenderTileMatchesFullRender(t *testing.T) {
	p := julia.DefaultParams()
	p.GridSize = 50

	full, err := RendererImpl{}.Render(p)
	if err != nil {
		t.Fatal(err)
	}

	var rendered []image.Rectangle
	imp := RendererImpl{OnTileRender: func(r image.Rectangle) { rendered = append(rendered, r) }}
	tile := image.Rect(10, 20, 30, 45)
	tileImg, err := imp.RenderTile(p, tile)
	if err != nil {
		t.Fatal(err)
	}
	if tileImg.Bounds() != tile {
		t.Errorf("tile bounds = %s, want %s", tileImg.Bounds(), tile)
	}
	if len(rendered) != 1 || rendered[0] != tile {
		t.Errorf("OnTileRender saw %v", rendered)
	}
	for y := tile.Min.Y; y < tile.Max.Y; y++ {
		for x := tile.Min.X; x < tile.Max.X; x++ {
			if tileImg.GrayAt(x, y) != full.GrayAt(x, y) {
				t.Fatalf("pixel (%d,%d) differs between tile and full render", x, y)
			}
		}
	}
}

func TestRenderTileErrors(t *testing.T) {
	p := julia.DefaultParams()
	p.GridSize = 16

	if _, err := (RendererImpl{}).RenderTile(p, image.Rect(8, 8, 17, 12)); !errors.Is(err, ErrTileOutOfBounds) {
		t.Errorf("tile past the edge: err = %v", err)
	}
	if _, err := (RendererImpl{}).RenderTile(p, image.Rectangle{}); !errors.Is(err, ErrTileOutOfBounds) {
		t.Errorf("empty tile: err = %v", err)
	}

	p.MaxIter = 0
	if _, err := (RendererImpl{}).RenderTile(p, image.Rect(0, 0, 4, 4)); !errors.Is(err, julia.ErrInvalidParams) {
		t.Errorf("invalid params: err = %v", err)
	}
}

func TestRenderRejectsInvalidParams(t *testing.T) {
	p := julia.DefaultParams()
	p.GridSize = 0
	calls := 0
	imp := RendererImpl{Escape: func(_, _ complex128, _ int, _ float64) int { calls++; return 0 }}
	if _, err := imp.Render(p); !errors.Is(err, julia.ErrInvalidParams) {
		t.Fatalf("err = %v, want ErrInvalidParams", err)
	}
	if calls != 0 {
		t.Errorf("evaluator ran %d times before validation failed", calls)
	}
}

func TestSplitRect(t *testing.T) {
	r := image.Rect(0, 0, 130, 70)
	tiles := SplitRect(r, 64, 64)
	if len(tiles) != 6 {
		t.Fatalf("got %d tiles, want 6", len(tiles))
	}

	area := 0
	for i, a := range tiles {
		if !a.In(r) {
			t.Errorf("tile %s outside %s", a, r)
		}
		area += a.Dx() * a.Dy()
		for _, b := range tiles[i+1:] {
			if a.Overlaps(b) {
				t.Errorf("tiles %s and %s overlap", a, b)
			}
		}
	}
	if area != 130*70 {
		t.Errorf("tiles cover %d pixels, want %d", area, 130*70)
	}
	if last := tiles[len(tiles)-1]; last != image.Rect(128, 64, 130, 70) {
		t.Errorf("last tile = %s", last)
	}
}

func BenchmarkRender(b *testing.B) {
	for _, size := range []int{128, 512} {
		p := julia.DefaultParams()
		p.GridSize = size
		b.Run(fmt.Sprintf("%dx%d-%d", size, size, p.MaxIter), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := (RendererImpl{}).Render(p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
