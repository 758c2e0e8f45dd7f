// Package imaging renders catalog thumbnails from uploaded artwork.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// Mode selects how artwork is fitted into the thumbnail box.
type Mode int

const (
	// ModeFill center-crops to exactly fill the box (game cards).
	ModeFill Mode = iota
	// ModeFit letterboxes the whole image on a white background (platform logos).
	ModeFit
)

// Spec describes one thumbnail variant.
type Spec struct {
	Width   int
	Height  int
	Quality int
	Mode    Mode
}

var (
	GameCard     = Spec{Width: 480, Height: 270, Quality: 85, Mode: ModeFill}
	PlatformLogo = Spec{Width: 256, Height: 256, Quality: 90, Mode: ModeFit}
)

// Thumbnail is a rendered JPEG.
type Thumbnail struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Render decodes data and produces a JPEG thumbnail per spec.
func Render(data []byte, spec Spec) (*Thumbnail, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var out image.Image
	switch spec.Mode {
	case ModeFit:
		fitted := imaging.Fit(img, spec.Width, spec.Height, imaging.Lanczos)
		canvas := imaging.New(spec.Width, spec.Height, color.White)
		out = imaging.PasteCenter(canvas, fitted)
	default:
		out = imaging.Fill(img, spec.Width, spec.Height, imaging.Center, imaging.Lanczos)
	}

	quality := spec.Quality
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
	}, nil
}
