package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"stickerforge/core/logger"
	"stickerforge/internal/media"
	"stickerforge/internal/packs"
	"stickerforge/internal/render"
	"stickerforge/internal/session"
	"stickerforge/internal/storage"

	"log/slog"
)

// MediaFetcher downloads media bytes by their platform handle.
type MediaFetcher interface {
	Fetch(ctx context.Context, remoteID string) (io.ReadCloser, error)
}

// Compositor renders sticker images from user input.
type Compositor interface {
	Stickerify(r io.Reader) ([]byte, error)
	Caption(r io.Reader, text string) ([]byte, error)
	Meme(r io.Reader, top, bottom string) ([]byte, error)
	Quote(author, text string) ([]byte, error)
}

// Transcoder converts animations and videos to sticker webm.
type Transcoder interface {
	ToWebm(ctx context.Context, input []byte, srcExt string) ([]byte, error)
}

// PackManager performs sticker-set operations on the platform.
type PackManager interface {
	Create(ctx context.Context, userID int64, name, title string, st packs.Sticker) error
	Add(ctx context.Context, userID int64, name string, st packs.Sticker) error
}

// DefaultMaxFileSize caps incoming media at 50MB, the Bot API download limit.
const DefaultMaxFileSize = 50 << 20

// Service implements the conversion and pack flows. All methods classify
// failures into the package's error taxonomy before returning.
type Service struct {
	Sessions  *session.Store
	Fetcher   MediaFetcher
	Render    Compositor
	Transcode Transcoder
	Packs     PackManager
	PackRepo  storage.PackRepository
	Stats     storage.StatsRepository

	BotUsername string
	MaxFileSize int64
}

// Stickerify converts the resolved photo into a static sticker image.
func (s *Service) Stickerify(ctx context.Context, userID int64, direct, reply *media.Descriptor) ([]byte, error) {
	d, err := s.resolveOneOf(userID, direct, reply, "send or reply to a photo first", media.KindPhoto)
	if err != nil {
		return nil, err
	}
	body, err := s.fetch(ctx, d)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	out, err := s.Render.Stickerify(body)
	if err != nil {
		return nil, classifyRender(err)
	}
	s.countOp(ctx, "stickerify")
	return out, nil
}

// AddText draws a caption over the resolved photo.
func (s *Service) AddText(ctx context.Context, userID int64, direct, reply *media.Descriptor, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidInput("usage: /addtext <caption> — attach a photo or reply to one")
	}
	d, err := s.resolveOneOf(userID, direct, reply, "send or reply to a photo first", media.KindPhoto)
	if err != nil {
		return nil, err
	}
	body, err := s.fetch(ctx, d)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	out, err := s.Render.Caption(body, text)
	if err != nil {
		return nil, classifyRender(err)
	}
	s.countOp(ctx, "addtext")
	return out, nil
}

// Gif2Sticker converts the resolved animation or video into a video sticker.
func (s *Service) Gif2Sticker(ctx context.Context, userID int64, direct, reply *media.Descriptor) ([]byte, error) {
	d, err := s.resolveOneOf(userID, direct, reply, "send or reply to a GIF or video first",
		media.KindAnimation, media.KindVideo)
	if err != nil {
		return nil, err
	}
	body, err := s.fetch(ctx, d)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := s.readAll(body)
	if err != nil {
		return nil, err
	}
	out, err := s.Transcode.ToWebm(ctx, raw, extFor(d))
	if err != nil {
		return nil, externalFailure("transcode", err)
	}
	s.countOp(ctx, "gif2sticker")
	return out, nil
}

// Quote renders a quote card from a replied-to text message.
func (s *Service) Quote(ctx context.Context, author, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidInput("reply to a text message with /quote2sticker")
	}
	if author = strings.TrimSpace(author); author == "" {
		author = "anonymous"
	}
	out, err := s.Render.Quote(author, text)
	if err != nil {
		return nil, classifyRender(err)
	}
	s.countOp(ctx, "quote2sticker")
	return out, nil
}

// KangResult reports where a kanged sticker landed.
type KangResult struct {
	PackName string
	Created  bool
}

// Kang copies the resolved sticker into the caller's grab-bag pack, creating
// the pack on first use. A missing pack is retried exactly once via create;
// a second miss is a hard failure.
func (s *Service) Kang(ctx context.Context, userID int64, userName string, direct, reply *media.Descriptor, emoji string) (KangResult, error) {
	d, err := s.resolveOneOf(userID, direct, reply, "send or reply to a sticker first", media.KindSticker)
	if err != nil {
		return KangResult{}, err
	}
	st, err := s.stickerPayload(ctx, d, emoji)
	if err != nil {
		return KangResult{}, err
	}

	name := packs.KangName(userID, s.BotUsername)
	title := kangTitle(userName)

	addErr := s.Packs.Add(ctx, userID, name, st)
	if addErr == nil {
		s.countOp(ctx, "kang")
		return KangResult{PackName: name}, nil
	}
	if !errors.Is(addErr, packs.ErrPackNotFound) {
		return KangResult{}, externalFailure("add sticker", addErr)
	}

	// Single bounded retry: create the pack with this sticker as its first.
	if err := s.Packs.Create(ctx, userID, name, title, st); err != nil {
		return KangResult{}, externalFailure("create pack", err)
	}
	s.recordPack(ctx, userID, name, title, string(st.Format))
	s.countOp(ctx, "kang")
	return KangResult{PackName: name, Created: true}, nil
}

// CreatePack creates a named pack seeded with the resolved media.
func (s *Service) CreatePack(ctx context.Context, userID int64, title string, direct, reply *media.Descriptor) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalidInput("usage: /createstickerpack <name> — attach the first sticker's media")
	}
	d, err := s.resolveOneOf(userID, direct, reply, "send or reply to the pack's first image, GIF or sticker")
	if err != nil {
		return "", err
	}
	st, err := s.stickerPayload(ctx, d, "")
	if err != nil {
		return "", err
	}

	name := packs.Name(title, userID, s.BotUsername)
	if err := s.Packs.Create(ctx, userID, name, title, st); err != nil {
		if errors.Is(err, packs.ErrPackNotFound) {
			return "", externalFailure("create pack", err)
		}
		var apiErr *packs.APIError
		if errors.As(err, &apiErr) {
			return "", invalidInput("the platform rejected that pack name, try another one")
		}
		return "", externalFailure("create pack", err)
	}
	s.recordPack(ctx, userID, name, title, string(st.Format))
	s.countOp(ctx, "createstickerpack")
	return name, nil
}

// AddToPack adds the resolved media to one of the caller's recorded packs.
func (s *Service) AddToPack(ctx context.Context, userID int64, packName string, direct, reply *media.Descriptor) error {
	owned, err := s.PackRepo.Has(ctx, userID, packName)
	if err != nil {
		return externalFailure("pack lookup", err)
	}
	if !owned {
		return missingState("I don't know that pack — create one with /createstickerpack first")
	}
	d, err := s.resolveOneOf(userID, direct, reply, "send me the media to add first")
	if err != nil {
		return err
	}
	st, err := s.stickerPayload(ctx, d, "")
	if err != nil {
		return err
	}
	if err := s.Packs.Add(ctx, userID, packName, st); err != nil {
		if errors.Is(err, packs.ErrPackNotFound) {
			return missingState("that pack no longer exists on Telegram")
		}
		return externalFailure("add sticker", err)
	}
	s.countOp(ctx, "addsticker")
	return nil
}

// ListPacks returns the caller's recorded packs.
func (s *Service) ListPacks(ctx context.Context, userID int64) ([]storage.Pack, error) {
	list, err := s.PackRepo.List(ctx, userID)
	if err != nil {
		return nil, externalFailure("list packs", err)
	}
	return list, nil
}

// Totals returns the conversion counters for the admin stats view.
func (s *Service) Totals(ctx context.Context) ([]storage.OperationCount, error) {
	totals, err := s.Stats.Totals(ctx)
	if err != nil {
		return nil, externalFailure("load stats", err)
	}
	return totals, nil
}

// RememberMedia records the user's most recent media.
func (s *Service) RememberMedia(userID int64, d *media.Descriptor) {
	if d == nil {
		return
	}
	s.Sessions.SetLastMedia(userID, d)
}

// resolveOneOf picks the working descriptor with the fixed precedence
// direct > reply > remembered, filtering the remembered tier by kind. A
// direct or reply candidate of the wrong kind is rejected here with a
// user-facing message, per the resolver's contract.
func (s *Service) resolveOneOf(userID int64, direct, reply *media.Descriptor, wantMsg string, kinds ...media.Kind) (*media.Descriptor, error) {
	var fallback *media.Descriptor
	if st, ok := s.Sessions.Get(userID); ok {
		fallback = st.LastMedia
	}

	var d *media.Descriptor
	if len(kinds) == 0 {
		d = media.Resolve(media.KindAny, direct, reply, fallback)
	} else {
		for _, k := range kinds {
			if d = media.Resolve(k, direct, reply, fallback); d != nil {
				break
			}
		}
	}
	if d == nil {
		return nil, missingState(wantMsg)
	}
	if len(kinds) > 0 && !kindIn(d.Kind, kinds) {
		return nil, invalidInput(wantMsg)
	}
	if limit := s.maxFileSize(); d.FileSize > limit {
		return nil, tooLarge(d.FileSize, limit)
	}
	return d, nil
}

// stickerPayload downloads the media and converts it to a pack-ready
// sticker: photos become static webp, animations and videos become webm,
// static and video stickers pass through as-is.
func (s *Service) stickerPayload(ctx context.Context, d *media.Descriptor, emoji string) (packs.Sticker, error) {
	body, err := s.fetch(ctx, d)
	if err != nil {
		return packs.Sticker{}, err
	}
	defer body.Close()

	switch d.Kind {
	case media.KindPhoto:
		data, err := s.Render.Stickerify(body)
		if err != nil {
			return packs.Sticker{}, classifyRender(err)
		}
		return packs.Sticker{Data: data, Format: packs.FormatStatic, Emoji: emoji}, nil

	case media.KindAnimation, media.KindVideo:
		raw, err := s.readAll(body)
		if err != nil {
			return packs.Sticker{}, err
		}
		data, err := s.Transcode.ToWebm(ctx, raw, extFor(d))
		if err != nil {
			return packs.Sticker{}, externalFailure("transcode", err)
		}
		return packs.Sticker{Data: data, Format: packs.FormatVideo, Emoji: emoji}, nil

	case media.KindSticker:
		if d.Animated {
			return packs.Sticker{}, invalidInput("animated (TGS) stickers can't be copied, only static and video ones")
		}
		raw, err := s.readAll(body)
		if err != nil {
			return packs.Sticker{}, err
		}
		format := packs.FormatStatic
		if d.Video {
			format = packs.FormatVideo
		}
		return packs.Sticker{Data: raw, Format: format, Emoji: emoji}, nil

	case media.KindDocument:
		switch {
		case strings.HasPrefix(d.MIME, "image/gif"), strings.HasPrefix(d.MIME, "video/"):
			raw, err := s.readAll(body)
			if err != nil {
				return packs.Sticker{}, err
			}
			data, err := s.Transcode.ToWebm(ctx, raw, extFor(d))
			if err != nil {
				return packs.Sticker{}, externalFailure("transcode", err)
			}
			return packs.Sticker{Data: data, Format: packs.FormatVideo, Emoji: emoji}, nil
		case strings.HasPrefix(d.MIME, "image/"):
			data, err := s.Render.Stickerify(body)
			if err != nil {
				return packs.Sticker{}, classifyRender(err)
			}
			return packs.Sticker{Data: data, Format: packs.FormatStatic, Emoji: emoji}, nil
		}
		return packs.Sticker{}, invalidInput("that document type can't become a sticker")
	}
	return packs.Sticker{}, invalidInput("that media type can't become a sticker")
}

func (s *Service) fetch(ctx context.Context, d *media.Descriptor) (io.ReadCloser, error) {
	if limit := s.maxFileSize(); d.FileSize > limit {
		return nil, tooLarge(d.FileSize, limit)
	}
	body, err := s.Fetcher.Fetch(ctx, d.RemoteID)
	if err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "media.fetch.failed",
			slog.String("kind", d.Kind.String()),
			slog.String("file_id", logger.SanitizeLimit(d.RemoteID, 48)),
			slog.String("err", err.Error()),
		)
		return nil, externalFailure("download", err)
	}
	return body, nil
}

func (s *Service) maxFileSize() int64 {
	if s.MaxFileSize > 0 {
		return s.MaxFileSize
	}
	return DefaultMaxFileSize
}

// countOp bumps a conversion counter; stats are best-effort.
func (s *Service) countOp(ctx context.Context, op string) {
	if s.Stats == nil {
		return
	}
	if err := s.Stats.Increment(ctx, op); err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelWarn, "stats.increment.failed",
			slog.String("operation", op),
			slog.String("err", err.Error()),
		)
	}
}

func (s *Service) recordPack(ctx context.Context, userID int64, name, title, format string) {
	if s.PackRepo == nil {
		return
	}
	if err := s.PackRepo.Record(ctx, userID, name, title, format); err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelWarn, "pack.record.failed",
			slog.String("pack", name),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func classifyRender(err error) error {
	if errors.Is(err, render.ErrDecode) {
		return invalidInput("I couldn't read that image, send a regular photo")
	}
	return externalFailure("render", err)
}

func kindIn(k media.Kind, kinds []media.Kind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func extFor(d *media.Descriptor) string {
	switch {
	case strings.HasSuffix(d.MIME, "/gif"):
		return ".gif"
	case strings.HasSuffix(d.MIME, "/webm"):
		return ".webm"
	case strings.HasSuffix(d.MIME, "/quicktime"):
		return ".mov"
	default:
		return ".mp4"
	}
}

func kangTitle(userName string) string {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return "Kanged stickers"
	}
	return userName + "'s kanged stickers"
}

// readAll drains a download, enforcing the size limit on the actual bytes —
// descriptors from forwarded media sometimes carry no FileSize.
func (s *Service) readAll(r io.Reader) ([]byte, error) {
	limit := s.maxFileSize()
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, externalFailure("download", err)
	}
	if n > limit {
		return nil, tooLarge(n, limit)
	}
	return buf.Bytes(), nil
}
