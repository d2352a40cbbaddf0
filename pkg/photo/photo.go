// Package photo post-processes captured proof photos: a timestamp
// watermark for the attendance record and thumbnails for list views.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/fogleman/gg"
	"github.com/teslashibe/go-liveness/pkg/camera"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
)

// ErrNotJPEG is returned when the input cannot be decoded as JPEG.
var ErrNotJPEG = errors.New("photo: not a JPEG image")

// DefaultQuality matches the capture quality of attendance photos.
const DefaultQuality = 80

// Stamp is the text burned into a proof photo.
type Stamp struct {
	Time  time.Time
	Label string // e.g. challenge kind
}

// Text renders the stamp as a single line.
func (s Stamp) Text() string {
	ts := s.Time.Format("2006-01-02 15:04:05 MST")
	if s.Label == "" {
		return ts
	}
	return ts + "  " + s.Label
}

// Watermark draws the stamp on a translucent bar along the bottom edge.
func Watermark(img camera.Image, st Stamp, quality int) (camera.Image, error) {
	src, err := decode(img)
	if err != nil {
		return camera.Image{}, err
	}

	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	face := basicfont.Face7x13
	barH := float64(face.Height) + 8

	dc := gg.NewContextForImage(src)
	dc.SetFontFace(face)
	dc.SetRGBA(0, 0, 0, 0.55)
	dc.DrawRectangle(0, h-barH, w, barH)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(st.Text(), 6, h-barH/2, 0, 0.35)

	return encode(dc.Image(), img.CapturedAt, quality)
}

// Thumbnail scales the image so its longer side is at most maxSide pixels.
// Images already small enough are re-encoded unchanged.
func Thumbnail(img camera.Image, maxSide, quality int) (camera.Image, error) {
	if maxSide <= 0 {
		return camera.Image{}, fmt.Errorf("photo: max side must be positive, got %d", maxSide)
	}
	src, err := decode(img)
	if err != nil {
		return camera.Image{}, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return encode(src, img.CapturedAt, quality)
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	return encode(dst, img.CapturedAt, quality)
}

func decode(img camera.Image) (image.Image, error) {
	if img.Empty() {
		return nil, camera.ErrEmptyFrame
	}
	src, err := jpeg.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJPEG, err)
	}
	return src, nil
}

func encode(m image.Image, capturedAt time.Time, quality int) (camera.Image, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, m, &jpeg.Options{Quality: quality}); err != nil {
		return camera.Image{}, fmt.Errorf("photo: encode: %w", err)
	}
	b := m.Bounds()
	return camera.Image{
		Data:       buf.Bytes(),
		MIMEType:   "image/jpeg",
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: capturedAt,
	}, nil
}
