package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
)

func pngImage(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func decodeWebp(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid webp: %v", err)
	}
	return img
}

func TestStickerifyShrinksToBounds(t *testing.T) {
	c := New("")
	out, err := c.Stickerify(pngImage(t, 1024, 768))
	if err != nil {
		t.Fatal(err)
	}
	img := decodeWebp(t, out)
	b := img.Bounds()
	if b.Dx() > MaxEdge || b.Dy() > MaxEdge {
		t.Fatalf("output exceeds sticker bounds: %dx%d", b.Dx(), b.Dy())
	}
	if b.Dx() != MaxEdge {
		t.Fatalf("long edge should be %d, got %d", MaxEdge, b.Dx())
	}
}

func TestStickerifySmallImagePassesThrough(t *testing.T) {
	c := New("")
	out, err := c.Stickerify(pngImage(t, 100, 80))
	if err != nil {
		t.Fatal(err)
	}
	b := decodeWebp(t, out).Bounds()
	if b.Dx() != 100 || b.Dy() != 80 {
		t.Fatalf("small image must not be upscaled, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestStickerifyRejectsGarbage(t *testing.T) {
	c := New("")
	_, err := c.Stickerify(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestMemeProducesWebp(t *testing.T) {
	c := New("")
	out, err := c.Meme(pngImage(t, 512, 512), "top line", "bottom line")
	if err != nil {
		t.Fatal(err)
	}
	decodeWebp(t, out)
}

func TestCaptionProducesWebp(t *testing.T) {
	c := New("")
	out, err := c.Caption(pngImage(t, 512, 400), "hello there")
	if err != nil {
		t.Fatal(err)
	}
	decodeWebp(t, out)
}

func TestQuoteCard(t *testing.T) {
	c := New("")
	out, err := c.Quote("Ada", "Simplicity is the soul of efficiency.")
	if err != nil {
		t.Fatal(err)
	}
	b := decodeWebp(t, out).Bounds()
	if b.Dx() != MaxEdge || b.Dy() != MaxEdge {
		t.Fatalf("quote card must be %dx%d, got %dx%d", MaxEdge, MaxEdge, b.Dx(), b.Dy())
	}
}

func TestQuoteRejectsEmptyText(t *testing.T) {
	c := New("")
	if _, err := c.Quote("Ada", "   "); err == nil {
		t.Fatal("expected error for empty quote text")
	}
}
