// Package output writes rendered images to disk.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Options tune the encoders. Zero values pick the defaults.
type Options struct {
	// JPEGQuality in [1, 100]; 0 means jpeg.DefaultQuality.
	JPEGQuality int
}

// Validate rejects a JPEG quality outside [0, 100].
func (o Options) Validate() error {
	if o.JPEGQuality < 0 || o.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be in [0, 100], 0 for default, got %d", o.JPEGQuality)
	}
	return nil
}

type encodeFunc func(w io.Writer, img image.Image, o Options) error

var encoders = map[string]encodeFunc{
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".png":  encodePNG,
	".gif":  encodeGIF,
	".bmp":  encodeBMP,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodePNG(w io.Writer, img image.Image, _ Options) error {
	return png.Encode(w, img)
}

func encodeBMP(w io.Writer, img image.Image, _ Options) error {
	return bmp.Encode(w, img)
}

func encodeJPEG(w io.Writer, img image.Image, o Options) error {
	q := o.JPEGQuality
	if q == 0 {
		q = jpeg.DefaultQuality
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
}

// encodeGIF draws onto a 256 level grey palette; the default Plan9
// quantizer would collapse neighbouring grey levels.
func encodeGIF(w io.Writer, img image.Image, _ Options) error {
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.Gray{Y: uint8(i)}
	}
	dst := image.NewPaletted(img.Bounds(), pal)
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return gif.Encode(w, dst, &gif.Options{NumColors: len(pal)})
}

func encodeTIFF(w io.Writer, img image.Image, _ Options) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// Format returns the normalized extension of path if an encoder exists for it.
func Format(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := encoders[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	return ext, nil
}

// Encode writes img to w in the given format (an extension such as ".png").
func Encode(w io.Writer, img image.Image, format string, o Options) error {
	enc, ok := encoders[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := o.Validate(); err != nil {
		return err
	}
	return enc(w, img, o)
}

// Save encodes img into path, picking the encoder from the extension.
// An existing file is overwritten.
func Save(path string, img image.Image, o Options) (err error) {
	format, err := Format(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	if err := Encode(f, img, format, o); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// ThumbnailPath derives the thumbnail file name: julia.jpg -> julia_thumb.jpg.
func ThumbnailPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_thumb" + ext
}

// SaveWithThumbnail saves img into path and, when thumb > 0, a copy scaled
// to thumb pixels into ThumbnailPath(path). It returns the thumbnail path,
// empty when none was written.
func SaveWithThumbnail(path string, img image.Image, thumb int, o Options) (string, error) {
	if err := Save(path, img, o); err != nil {
		return "", err
	}
	if thumb <= 0 {
		return "", nil
	}
	tpath := ThumbnailPath(path)
	if err := Save(tpath, Thumbnail(img, thumb), o); err != nil {
		return "", fmt.Errorf("thumbnail: %w", err)
	}
	return tpath, nil
}
