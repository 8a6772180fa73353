package handler

import (
	"bytes"

	tghelpers "stickerforge/core/telegram/helpers"
	"stickerforge/core/telegram/keyboard"
	"stickerforge/internal/media"
	"stickerforge/internal/session"

	tele "gopkg.in/telebot.v4"
)

// OnMedia handles every inbound media update: the descriptor is always
// remembered as the user's last media, and when a meme workflow is active
// the media also feeds it.
func (b *Bot) OnMedia(c tele.Context) error {
	d := media.FromMessage(c.Message())
	if d == nil || c.Sender() == nil {
		return nil
	}
	userID := c.Sender().ID
	b.Svc.RememberMedia(userID, d)

	if b.Svc.MemeInProgress(userID) {
		return b.feedWorkflow(c, session.Input{Media: d})
	}
	return nil
}

// WorkflowFSM exposes the meme workflow to the text router's FSM gate.
type WorkflowFSM struct {
	bot *Bot
}

// NewWorkflowFSM builds the router adapter.
func NewWorkflowFSM(bot *Bot) *WorkflowFSM {
	return &WorkflowFSM{bot: bot}
}

// InProgress reports whether the user has an active workflow.
func (f *WorkflowFSM) InProgress(userID int64) bool {
	return f.bot.Svc.MemeInProgress(userID)
}

// ManagerHandler feeds a text update into the workflow.
func (f *WorkflowFSM) ManagerHandler(c tele.Context) error {
	return f.bot.feedWorkflow(c, session.Input{Text: c.Text()})
}

func (b *Bot) feedWorkflow(c tele.Context, in session.Input) error {
	ctx := tghelpers.BuildContext(c)
	res, err := b.Svc.FeedMeme(ctx, c.Sender().ID, in)
	if err != nil {
		return b.replyError(c, err)
	}
	if len(res.Output) > 0 {
		return tghelpers.ReplyDocument(c, bytes.NewReader(res.Output), "meme.webp", "")
	}
	if res.Prompt != "" {
		return tghelpers.SendText(c, res.Prompt, &tele.SendOptions{
			ReplyMarkup: keyboard.WithCancelRow(nil, CallbackMemeCancel),
		})
	}
	return nil
}
