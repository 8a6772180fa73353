package render

import (
	"stickerforge/core/logger"

	"log/slog"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// setFace loads the configured TTF at the given point size, falling back to
// the built-in bitmap face when no font is configured or loading fails.
func (c *Compositor) setFace(dc *gg.Context, points float64) error {
	if c.FontPath == "" {
		dc.SetFontFace(basicfont.Face7x13)
		return nil
	}
	if err := dc.LoadFontFace(c.FontPath, points); err != nil {
		logger.Render.LogAttrs(logger.Background(), slog.LevelWarn, "render.font.fallback",
			slog.String("path", c.FontPath),
			slog.String("err", err.Error()),
		)
		dc.SetFontFace(basicfont.Face7x13)
	}
	return nil
}
