package packs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stickerforge/core/logger"

	"log/slog"
)

// Format names the sticker payload format the Bot API expects.
type Format string

const (
	// FormatStatic is a webp image sticker.
	FormatStatic Format = "static"
	// FormatVideo is a webm VP9 sticker.
	FormatVideo Format = "video"
)

// Sticker is one sticker payload to upload.
type Sticker struct {
	Data   []byte
	Format Format
	Emoji  string
}

// Manager performs sticker-set operations against the Bot API.
type Manager struct {
	token   string
	baseURL string
	httpc   *http.Client
}

// New builds a Manager. A nil client falls back to a plain client with a
// generous timeout; uploads carry whole sticker files.
func New(token string, httpc *http.Client) *Manager {
	if httpc == nil {
		httpc = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Manager{
		token:   token,
		baseURL: "https://api.telegram.org",
		httpc:   httpc,
	}
}

// Create makes a new sticker set owned by the user with one initial sticker.
func (m *Manager) Create(ctx context.Context, userID int64, name, title string, st Sticker) error {
	input, err := inputSticker(st, "attach://sticker0")
	if err != nil {
		return err
	}
	fields := map[string]string{
		"user_id":  strconv.FormatInt(userID, 10),
		"name":     name,
		"title":    title,
		"stickers": "[" + input + "]",
	}
	err = m.call(ctx, "createNewStickerSet", fields, st)
	logPackOp(ctx, "pack.create", name, userID, err)
	return err
}

// Add appends one sticker to an existing set.
func (m *Manager) Add(ctx context.Context, userID int64, name string, st Sticker) error {
	input, err := inputSticker(st, "attach://sticker0")
	if err != nil {
		return err
	}
	fields := map[string]string{
		"user_id": strconv.FormatInt(userID, 10),
		"name":    name,
		"sticker": input,
	}
	err = m.call(ctx, "addStickerToSet", fields, st)
	logPackOp(ctx, "pack.add", name, userID, err)
	return err
}

// Exists probes the platform for a sticker set.
func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	err := m.call(ctx, "getStickerSet", map[string]string{"name": name}, Sticker{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func isNotFound(err error) bool {
	if errors.Is(err, ErrPackNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(strings.ToLower(apiErr.Description), "not found")
	}
	return false
}

// inputSticker encodes one InputSticker JSON object.
func inputSticker(st Sticker, attach string) (string, error) {
	emoji := st.Emoji
	if emoji == "" {
		emoji = "🙂"
	}
	format := st.Format
	if format == "" {
		format = FormatStatic
	}
	obj := map[string]any{
		"sticker":    attach,
		"format":     string(format),
		"emoji_list": []string{emoji},
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("packs: encode input sticker: %w", err)
	}
	return string(raw), nil
}

// call posts a multipart Bot API request and decodes the ok/description
// envelope. A sticker with data is attached as "sticker0".
func (m *Manager) call(ctx context.Context, method string, fields map[string]string, st Sticker) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("packs: %s: build form: %w", method, err)
		}
	}
	if len(st.Data) > 0 {
		ext := ".webp"
		if st.Format == FormatVideo {
			ext = ".webm"
		}
		part, err := w.CreateFormFile("sticker0", "sticker"+ext)
		if err != nil {
			return fmt.Errorf("packs: %s: attach sticker: %w", method, err)
		}
		if _, err := part.Write(st.Data); err != nil {
			return fmt.Errorf("packs: %s: attach sticker: %w", method, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("packs: %s: finalize form: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", m.baseURL, m.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("packs: %s: %w", method, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := m.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("packs: %s: %s", method, m.redact(err.Error()))
	}
	defer resp.Body.Close()

	var envelope struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		ErrorCode   int    `json:"error_code"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("packs: %s: read response: %w", method, err)
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("packs: %s: status %s: %w", method, resp.Status, err)
	}
	if !envelope.OK {
		code := envelope.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return classify(code, envelope.Description)
	}
	return nil
}

// redact strips the bot token out of transport error text.
func (m *Manager) redact(s string) string {
	if m.token == "" {
		return s
	}
	return strings.ReplaceAll(s, m.token, "[REDACTED]")
}

func logPackOp(ctx context.Context, event, name string, userID int64, err error) {
	attrs := []slog.Attr{
		slog.String("pack", name),
		slog.Int64("user_id", userID),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		logger.Packs.LogAttrs(ctx, slog.LevelWarn, event, attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "ok"))
	logger.Packs.LogAttrs(ctx, slog.LevelInfo, event, attrs...)
}
