package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/marben/julia/internal/output"
)

// webServer serves render progress, the finished image and a websocket
// feed of finished tiles.
func webServer(addr string, iws *imgWorkScheduler) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", websocketHandler(iws))
	mux.HandleFunc("GET /image", imageHandler(iws))
	mux.HandleFunc("GET /{$}", statusHandler(iws))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func statusHandler(iws *imgWorkScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := iws.params
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "julia c=%v %dx%d %s\n", p.C, p.GridSize, p.GridSize, p.Region)
		fmt.Fprintf(w, "max iterations %d, escape radius %g, mode %s\n", p.MaxIter, p.Radius, p.Mode)
		fmt.Fprintf(w, "progress %.1f%%\n", 100*iws.progress())
	}
}

// imageHandler waits for the render to finish and responds with a PNG.
func imageHandler(iws *imgWorkScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := iws.GetImage(r.Context())
		if err != nil {
			// client went away
			return
		}

		var buf bytes.Buffer
		if err := output.Encode(&buf, img, ".png", output.Options{}); err != nil {
			log.Printf("encode image: %v", err)
			http.Error(w, "failed to encode image", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}
}

// websocketHandler streams every finished tile, oldest first, as a binary
// message and closes normally once the render is complete.
func websocketHandler(iws *imgWorkScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Println(err)
			return
		}
		defer c.CloseNow()

		// we never expect messages, CloseRead handles control frames
		ctx := c.CloseRead(r.Context())

		if err := streamTiles(ctx, c, iws); err != nil {
			log.Printf("ws %s: %v", r.RemoteAddr, err)
			return
		}
		c.Close(websocket.StatusNormalClosure, "render complete")
	}
}

func streamTiles(ctx context.Context, c *websocket.Conn, iws *imgWorkScheduler) error {
	sent := 0
	for {
		tiles, updated, done := iws.tilesSince(sent)
		for _, t := range tiles {
			frame, err := encodeTileFrame(t.rect, t.img)
			if err != nil {
				return err
			}
			if err := c.Write(ctx, websocket.MessageBinary, frame); err != nil {
				return err
			}
			sent++
		}
		if done {
			return nil
		}

		select {
		case <-updated:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

// tileHeaderLen is the size of the tile rectangle prefix of a frame:
// Min.X, Min.Y, Max.X, Max.Y as big endian uint32, followed by a PNG.
const tileHeaderLen = 16

func encodeTileFrame(rect image.Rectangle, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	var hdr [tileHeaderLen]byte
	binary.BigEndian.PutUint32(hdr[0:], uint32(rect.Min.X))
	binary.BigEndian.PutUint32(hdr[4:], uint32(rect.Min.Y))
	binary.BigEndian.PutUint32(hdr[8:], uint32(rect.Max.X))
	binary.BigEndian.PutUint32(hdr[12:], uint32(rect.Max.Y))
	buf.Write(hdr[:])

	if err := output.Encode(&buf, img, ".png", output.Options{}); err != nil {
		return nil, fmt.Errorf("encode tile %s: %w", rect, err)
	}
	return buf.Bytes(), nil
}
