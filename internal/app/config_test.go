package app

import (
	"testing"
	"time"
)

func TestNormalizeDefaultsStickerLimits(t *testing.T) {
	cfg := &Config{}
	normalize(cfg)

	if cfg.Stickers.MaxFileSizeMB != 50 {
		t.Fatalf("MaxFileSizeMB = %d, want 50", cfg.Stickers.MaxFileSizeMB)
	}
	if cfg.Stickers.StateExpiryMinutes != 60 {
		t.Fatalf("StateExpiryMinutes = %d, want 60", cfg.Stickers.StateExpiryMinutes)
	}
}

func TestNormalizeClampsOversizedFileLimit(t *testing.T) {
	cfg := &Config{}
	cfg.Stickers.MaxFileSizeMB = 200
	normalize(cfg)

	if cfg.Stickers.MaxFileSizeMB != 50 {
		t.Fatalf("MaxFileSizeMB = %d, want clamp to 50", cfg.Stickers.MaxFileSizeMB)
	}
}

func TestNormalizeKeepsValidValues(t *testing.T) {
	cfg := &Config{}
	cfg.Stickers.MaxFileSizeMB = 10
	cfg.Stickers.StateExpiryMinutes = 15
	normalize(cfg)

	if cfg.Stickers.MaxFileSizeMB != 10 {
		t.Fatalf("MaxFileSizeMB = %d, want 10", cfg.Stickers.MaxFileSizeMB)
	}
	if got := cfg.StateExpiry(); got != 15*time.Minute {
		t.Fatalf("StateExpiry() = %v, want 15m", got)
	}
}

func TestMaxFileSizeBytes(t *testing.T) {
	cfg := &Config{}
	cfg.Stickers.MaxFileSizeMB = 2
	if got := cfg.MaxFileSizeBytes(); got != 2<<20 {
		t.Fatalf("MaxFileSizeBytes() = %d, want %d", got, int64(2<<20))
	}
}
