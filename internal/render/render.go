// Package render turns user images and text into sticker-ready webp bytes:
// plain stickerification, captioned images, two-line memes and quote cards.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"stickerforge/core/logger"

	"log/slog"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// MaxEdge is the longest side Telegram accepts for static stickers.
const MaxEdge = 512

// ErrDecode reports input bytes that are not a decodable image.
var ErrDecode = errors.New("render: undecodable image")

// Compositor renders sticker images. The zero value is usable and falls
// back to a built-in bitmap font; set FontPath for proper caption glyphs.
type Compositor struct {
	FontPath string
	Quality  float32
}

// New builds a Compositor with the given font path and default quality.
func New(fontPath string) *Compositor {
	return &Compositor{FontPath: fontPath, Quality: 90}
}

// Stickerify resizes the image to fit the sticker bounds and encodes webp.
func (c *Compositor) Stickerify(r io.Reader) ([]byte, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}
	return c.encode(fit(img))
}

// Caption draws a single centered caption near the bottom of the image.
func (c *Compositor) Caption(r io.Reader, text string) ([]byte, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}
	img = fit(img)

	dc := gg.NewContextForImage(img)
	w, h := float64(dc.Width()), float64(dc.Height())
	size := h / 10
	if err := c.setFace(dc, size); err != nil {
		return nil, err
	}
	drawOutlined(dc, strings.TrimSpace(text), w/2, h-size, w*0.94)
	return c.encode(dc.Image())
}

// Meme draws uppercase outlined top and bottom lines over the image.
func (c *Compositor) Meme(r io.Reader, top, bottom string) ([]byte, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}
	img = fit(img)

	dc := gg.NewContextForImage(img)
	w, h := float64(dc.Width()), float64(dc.Height())
	size := h / 8
	if err := c.setFace(dc, size); err != nil {
		return nil, err
	}
	if t := strings.ToUpper(strings.TrimSpace(top)); t != "" {
		drawOutlined(dc, t, w/2, size*1.1, w*0.94)
	}
	if b := strings.ToUpper(strings.TrimSpace(bottom)); b != "" {
		drawOutlined(dc, b, w/2, h-size*0.5, w*0.94)
	}

	logger.Render.LogAttrs(logger.Background(), slog.LevelDebug, "render.meme",
		slog.Int("width", dc.Width()),
		slog.Int("height", dc.Height()),
	)
	return c.encode(dc.Image())
}

// Quote renders a text quote card attributed to the given author.
func (c *Compositor) Quote(author, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("render: %w", ErrDecode)
	}

	dc := gg.NewContext(MaxEdge, MaxEdge)
	dc.SetRGBA(0.09, 0.11, 0.13, 1)
	dc.Clear()

	// Translucent bubble behind the quote body.
	dc.SetRGBA(1, 1, 1, 0.08)
	dc.DrawRoundedRectangle(24, 24, MaxEdge-48, MaxEdge-48, 28)
	dc.Fill()

	if err := c.setFace(dc, 34); err != nil {
		return nil, err
	}
	dc.SetRGB(0.95, 0.95, 0.95)
	dc.DrawStringWrapped("“"+text+"”", MaxEdge/2, MaxEdge/2-20, 0.5, 0.5, MaxEdge-96, 1.4, gg.AlignCenter)

	if err := c.setFace(dc, 26); err != nil {
		return nil, err
	}
	dc.SetRGBA(0.6, 0.75, 0.95, 1)
	dc.DrawStringAnchored("— "+strings.TrimSpace(author), MaxEdge/2, MaxEdge-70, 0.5, 0.5)

	return c.encode(dc.Image())
}

func (c *Compositor) encode(img image.Image) ([]byte, error) {
	quality := c.Quality
	if quality <= 0 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("render: webp encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// fit shrinks the image so its longest edge is MaxEdge; smaller images pass
// through unscaled.
func fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= MaxEdge && b.Dy() <= MaxEdge {
		return img
	}
	return imaging.Fit(img, MaxEdge, MaxEdge, imaging.Lanczos)
}

// drawOutlined draws white text with a dark outline, wrapped to maxWidth
// and anchored at (x, y).
func drawOutlined(dc *gg.Context, text string, x, y, maxWidth float64) {
	if text == "" {
		return
	}
	const off = 2.0
	dc.SetRGB(0, 0, 0)
	for _, d := range [][2]float64{{-off, -off}, {off, -off}, {-off, off}, {off, off}, {0, -off}, {0, off}, {-off, 0}, {off, 0}} {
		dc.DrawStringWrapped(text, x+d[0], y+d[1], 0.5, 0.5, maxWidth, 1.2, gg.AlignCenter)
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(text, x, y, 0.5, 0.5, maxWidth, 1.2, gg.AlignCenter)
}
