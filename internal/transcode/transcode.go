// Package transcode converts animations and videos into Telegram video
// sticker format: VP9 webm, at most 3 seconds, longest edge 512px, no audio.
package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stickerforge/core/logger"

	"log/slog"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	// MaxSeconds caps video sticker duration.
	MaxSeconds = 3
	// MaxEdge caps the longest side of a video sticker.
	MaxEdge = 512
)

// Transcoder shells out to ffmpeg for webm conversion.
type Transcoder struct {
	TempDir string
	Bitrate string
}

// New builds a Transcoder writing scratch files to the OS temp dir.
func New() *Transcoder {
	return &Transcoder{Bitrate: "400k"}
}

// ToWebm converts the given media bytes into a sticker-compatible webm.
// The source extension hints ffmpeg's demuxer (".mp4", ".gif", ...).
func (t *Transcoder) ToWebm(ctx context.Context, input []byte, srcExt string) ([]byte, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("transcode: empty input")
	}
	if srcExt == "" {
		srcExt = ".mp4"
	}

	in, err := os.CreateTemp(t.TempDir, "stickerforge-src-*"+srcExt)
	if err != nil {
		return nil, fmt.Errorf("transcode: temp input: %w", err)
	}
	inPath := in.Name()
	defer os.Remove(inPath)

	if _, err := in.Write(input); err != nil {
		in.Close()
		return nil, fmt.Errorf("transcode: write input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("transcode: close input: %w", err)
	}

	outPath := filepath.Join(filepath.Dir(inPath), fmt.Sprintf("stickerforge-out-%d.webm", time.Now().UnixNano()))
	defer os.Remove(outPath)

	start := time.Now()
	err = ffmpeg.Input(inPath).
		Output(outPath, outputArgs(t.Bitrate)).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		logger.Transcode.LogAttrs(ctx, slog.LevelError, "transcode.failed",
			slog.String("ext", srcExt),
			slog.Int("size_bytes", len(input)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("transcode: ffmpeg: %w", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("transcode: read output: %w", err)
	}

	logger.Transcode.LogAttrs(ctx, slog.LevelInfo, "transcode.done",
		slog.String("ext", srcExt),
		slog.Int("size_bytes", len(out)),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)
	return out, nil
}

// outputArgs builds the ffmpeg output options for a video sticker: VP9,
// capped duration, audio stripped, long edge scaled down to the limit while
// keeping even dimensions.
func outputArgs(bitrate string) ffmpeg.KwArgs {
	if bitrate == "" {
		bitrate = "400k"
	}
	return ffmpeg.KwArgs{
		"c:v": "libvpx-vp9",
		"b:v": bitrate,
		"t":   fmt.Sprintf("%d", MaxSeconds),
		"an":  "",
		"vf":  scaleFilter(MaxEdge),
	}
}

// scaleFilter shrinks the longest edge to max, preserving aspect ratio.
// -2 keeps the other dimension even, which libvpx requires.
func scaleFilter(max int) string {
	return fmt.Sprintf("scale='if(gt(iw,ih),%d,-2)':'if(gt(iw,ih),-2,%d)'", max, max)
}
