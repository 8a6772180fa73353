package handler

import (
	"fmt"

	"stickerforge/core/telegram/callbacks"
	"stickerforge/core/telegram/format"
	tghelpers "stickerforge/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Callback keys routed through the registry.
const (
	// CallbackAddToPack carries the target pack name as payload.
	CallbackAddToPack = "addtopack"
	// CallbackMemeCancel aborts an in-flight meme workflow.
	CallbackMemeCancel = "memecancel"
)

// OnAddToPack adds the caller's resolved media to the pack picked from the
// /addsticker keyboard.
func (b *Bot) OnAddToPack(c tele.Context) error {
	packName := callbacks.CallbackPayload(c)
	if packName == "" {
		return tghelpers.EditOrSendMD(c, "That button has gone stale, run /addsticker again.")
	}
	ctx := tghelpers.BuildContext(c)
	if err := b.Svc.AddToPack(ctx, c.Sender().ID, packName, nil, nil); err != nil {
		_ = tghelpers.EditOrSendMD(c, UserMessage(err))
		return err
	}
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("Added to t.me/addstickers/%s", format.EscapeMD(packName)))
}

// OnMemeCancel aborts the meme workflow from an inline cancel button.
func (b *Bot) OnMemeCancel(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, b.Svc.CancelMeme(c.Sender().ID))
}
