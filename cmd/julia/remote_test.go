package main

import (
	"context"
	"errors"
	"image"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marben/irpc"
	"github.com/marben/julia"
	"github.com/marben/julia/render"
)

type staticProvider struct {
	img *image.Gray
	err error
}

func (p staticProvider) GetImage(context.Context) (*image.Gray, error) {
	return p.img, p.err
}

// serveProvider starts an irpc server for p on a loopback port.
func serveProvider(t *testing.T, p julia.ImgProvider) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := irpc.NewServer(irpc.WithServices(julia.NewImgProviderIrpcService(p)))
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })
	return l.Addr().String()
}

func TestRunRemoteSavesServerImage(t *testing.T) {
	p := julia.DefaultParams()
	p.GridSize = 24
	want, err := render.RendererImpl{}.Render(p)
	if err != nil {
		t.Fatal(err)
	}
	addr := serveProvider(t, staticProvider{img: want})

	dir := t.TempDir()
	out := filepath.Join(dir, "remote.png")
	if err := run([]string{"-remote", addr, "-o", out, "-thumb", "8"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds() != want.Bounds() {
		t.Fatalf("bounds = %s, want %s", got.Bounds(), want.Bounds())
	}
	for y := 0; y < p.GridSize; y++ {
		for x := 0; x < p.GridSize; x++ {
			r, _, _, _ := got.At(x, y).RGBA()
			if uint8(r>>8) != want.GrayAt(x, y).Y {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, r>>8, want.GrayAt(x, y).Y)
			}
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "remote_thumb.png")); err != nil {
		t.Errorf("thumbnail: %v", err)
	}
}

func TestRunRemoteReportsServerError(t *testing.T) {
	addr := serveProvider(t, staticProvider{err: errors.New("render aborted")})

	out := filepath.Join(t.TempDir(), "remote.png")
	err := run([]string{"-remote", addr, "-o", out})
	if err == nil || !strings.Contains(err.Error(), "render aborted") {
		t.Fatalf("err = %v, want the server's error", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output written after a failed fetch: %v", err)
	}
}

func TestRunRemoteUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	if err := run([]string{"-remote", addr, "-o", filepath.Join(t.TempDir(), "x.png")}); err == nil {
		t.Fatal("run succeeded against a closed port")
	}
}
