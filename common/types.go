// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds decoded RGBA pixel data for a texture pending upload by a renderer.
// Loader goroutines produce it; only the frame goroutine turns it into a renderer texture.
type TextureStagingData struct {
	// Label is a debug name for the texture, usually the source file name.
	Label string
	// Pixels is the straight-alpha RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// DecodeImage decodes any registered image format (png, jpeg, gif, bmp, tiff, webp) into RGBA staging data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: the reader providing encoded image bytes
//   - label: a debug label stored on the result
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - error: error if the format is unknown or the data is corrupt
func DecodeImage(r io.Reader, label string) (TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode image %s: %w", label, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Label:  label,
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// DecodeImageFile opens and decodes the image at path.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - TextureStagingData: the decoded pixels labelled with the path
//   - error: error if the file cannot be read or decoded
func DecodeImageFile(path string) (TextureStagingData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	return DecodeImage(bytes.NewReader(data), path)
}

// Fit downscales the texture so neither side exceeds maxSize, preserving aspect ratio.
// UV coordinates are normalized, so a scaled page keeps every atlas region valid.
// Returns the texture unchanged when it already fits or maxSize is 0.
//
// Parameters:
//   - maxSize: the largest allowed width or height in pixels
//
// Returns:
//   - TextureStagingData: the fitted texture
func (t TextureStagingData) Fit(maxSize uint32) TextureStagingData {
	if maxSize == 0 || (t.Width <= maxSize && t.Height <= maxSize) || t.Width == 0 || t.Height == 0 {
		return t
	}

	ratio := float64(maxSize) / float64(max(t.Width, t.Height))
	w := max(1, int(float64(t.Width)*ratio))
	h := max(1, int(float64(t.Height)*ratio))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), t.RGBA(), t.RGBA().Bounds(), xdraw.Src, nil)

	return TextureStagingData{
		Label:  t.Label,
		Pixels: dst.Pix,
		Width:  uint32(w),
		Height: uint32(h),
	}
}

// RGBA wraps the pixel data as an *image.RGBA without copying.
//
// Returns:
//   - *image.RGBA: an image view over Pixels
func (t TextureStagingData) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    t.Pixels,
		Stride: int(t.Width) * 4,
		Rect:   image.Rect(0, 0, int(t.Width), int(t.Height)),
	}
}
