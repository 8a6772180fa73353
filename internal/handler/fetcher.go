package handler

import (
	"context"
	"io"

	tele "gopkg.in/telebot.v4"
)

// TelebotFetcher downloads media through the connected bot.
type TelebotFetcher struct {
	bot *tele.Bot
}

// NewTelebotFetcher wraps the live bot as a MediaFetcher.
func NewTelebotFetcher(bot *tele.Bot) *TelebotFetcher {
	return &TelebotFetcher{bot: bot}
}

// Fetch streams the file bytes for a remote identifier.
func (f *TelebotFetcher) Fetch(_ context.Context, remoteID string) (io.ReadCloser, error) {
	return f.bot.File(&tele.File{FileID: remoteID})
}
