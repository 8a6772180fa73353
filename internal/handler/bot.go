package handler

import (
	"bytes"
	"fmt"
	"strings"

	"stickerforge/core/logger"
	tghelpers "stickerforge/core/telegram/helpers"
	"stickerforge/core/telegram/keyboard"
	"stickerforge/internal/media"

	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Bot adapts the service flows to telebot handlers. Handlers stay thin:
// extract descriptors, call the service, send the reply.
type Bot struct {
	Svc *Service
}

// NewBot wraps a service.
func NewBot(svc *Service) *Bot {
	return &Bot{Svc: svc}
}

// Start greets the user.
func (b *Bot) Start(c tele.Context) error {
	return tghelpers.SendText(c, startText)
}

// Help explains every command.
func (b *Bot) Help(c tele.Context) error {
	return tghelpers.SendMD(c, helpText)
}

// Stickerify converts the resolved photo to a static sticker file.
func (b *Bot) Stickerify(c tele.Context) error {
	direct, reply := descriptors(c)
	out, err := b.Svc.Stickerify(tghelpers.BuildContext(c), c.Sender().ID, direct, reply)
	if err != nil {
		return b.replyError(c, err)
	}
	return tghelpers.ReplyDocument(c, bytes.NewReader(out), "sticker.webp", "")
}

// AddText captions the resolved photo.
func (b *Bot) AddText(c tele.Context) error {
	direct, reply := descriptors(c)
	out, err := b.Svc.AddText(tghelpers.BuildContext(c), c.Sender().ID, direct, reply, c.Message().Payload)
	if err != nil {
		return b.replyError(c, err)
	}
	return tghelpers.ReplyDocument(c, bytes.NewReader(out), "sticker.webp", "")
}

// Gif2Sticker converts the resolved animation or video to a video sticker.
func (b *Bot) Gif2Sticker(c tele.Context) error {
	direct, reply := descriptors(c)
	out, err := b.Svc.Gif2Sticker(tghelpers.BuildContext(c), c.Sender().ID, direct, reply)
	if err != nil {
		return b.replyError(c, err)
	}
	return tghelpers.ReplyDocument(c, bytes.NewReader(out), "sticker.webm", "")
}

// Quote2Sticker renders the replied-to text message as a quote card.
func (b *Bot) Quote2Sticker(c tele.Context) error {
	rt := c.Message().ReplyTo
	var author, text string
	if rt != nil {
		text = rt.Text
		author = senderName(rt.Sender)
	}
	out, err := b.Svc.Quote(tghelpers.BuildContext(c), author, text)
	if err != nil {
		return b.replyError(c, err)
	}
	return tghelpers.ReplyDocument(c, bytes.NewReader(out), "quote.webp", "")
}

// Kang copies the resolved sticker into the caller's personal pack.
func (b *Bot) Kang(c tele.Context) error {
	direct, reply := descriptors(c)
	emoji := strings.TrimSpace(c.Message().Payload)
	res, err := b.Svc.Kang(tghelpers.BuildContext(c), c.Sender().ID, senderName(c.Sender()), direct, reply, emoji)
	if err != nil {
		return b.replyError(c, err)
	}
	msg := fmt.Sprintf("Added to your pack: t.me/addstickers/%s", res.PackName)
	if res.Created {
		msg = fmt.Sprintf("Created your pack and added the sticker: t.me/addstickers/%s", res.PackName)
	}
	return tghelpers.SendText(c, msg)
}

// CreatePack creates a named pack seeded with the resolved media.
func (b *Bot) CreatePack(c tele.Context) error {
	direct, reply := descriptors(c)
	name, err := b.Svc.CreatePack(tghelpers.BuildContext(c), c.Sender().ID, c.Message().Payload, direct, reply)
	if err != nil {
		return b.replyError(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Pack created: t.me/addstickers/%s", name))
}

// AddSticker shows the caller's packs as buttons; the chosen pack receives
// the resolved media via the addtopack callback.
func (b *Bot) AddSticker(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	list, err := b.Svc.ListPacks(ctx, c.Sender().ID)
	if err != nil {
		return b.replyError(c, err)
	}
	if len(list) == 0 {
		return tghelpers.SendText(c, "You have no packs yet — create one with /createstickerpack <name>.")
	}
	btns := make([]keyboard.InlineBtn, 0, len(list))
	for _, p := range list {
		btns = append(btns, keyboard.InlineBtn{
			Text:   p.Title,
			Unique: CallbackAddToPack,
			Data:   p.Name,
		})
	}
	markup := keyboard.InlineButtonsNPerRow(btns, 2)
	return tghelpers.SendMD(c, "Pick the pack to add it to:", markup)
}

// MyPacks lists the caller's recorded packs.
func (b *Bot) MyPacks(c tele.Context) error {
	list, err := b.Svc.ListPacks(tghelpers.BuildContext(c), c.Sender().ID)
	if err != nil {
		return b.replyError(c, err)
	}
	if len(list) == 0 {
		return tghelpers.SendText(c, "You have no packs yet — create one with /createstickerpack <name>.")
	}
	var sb strings.Builder
	sb.WriteString("Your packs:\n")
	for _, p := range list {
		fmt.Fprintf(&sb, "• %s — t.me/addstickers/%s (%s)\n", p.Title, p.Name, p.Format)
	}
	return tghelpers.SendText(c, sb.String())
}

// Meme starts (or restarts) the meme workflow.
func (b *Bot) Meme(c tele.Context) error {
	return tghelpers.SendText(c, b.Svc.StartMeme(c.Sender().ID), &tele.SendOptions{
		ReplyMarkup: keyboard.WithCancelRow(nil, CallbackMemeCancel),
	})
}

// Cancel aborts an in-flight meme workflow.
func (b *Bot) Cancel(c tele.Context) error {
	return tghelpers.SendText(c, b.Svc.CancelMeme(c.Sender().ID))
}

// Stats shows the conversion counters. Admin only; access is enforced by
// the command route middleware.
func (b *Bot) Stats(c tele.Context) error {
	totals, err := b.Svc.Totals(tghelpers.BuildContext(c))
	if err != nil {
		return b.replyError(c, err)
	}
	if len(totals) == 0 {
		return tghelpers.SendText(c, "No conversions yet.")
	}
	var sb strings.Builder
	sb.WriteString("Conversions:\n")
	for _, t := range totals {
		fmt.Fprintf(&sb, "%s: %d\n", t.Operation, t.Count)
	}
	return tghelpers.SendText(c, sb.String())
}

// replyError sends the class-stable user message and propagates the typed
// error so the handler summary carries its code.
func (b *Bot) replyError(c tele.Context, err error) error {
	ctx := tghelpers.BuildContext(c)
	logger.TG.LogAttrs(ctx, slog.LevelWarn, "handler.classified_error",
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	_ = tghelpers.SendText(c, UserMessage(err))
	return err
}

// descriptors extracts the direct and reply media for the resolver.
func descriptors(c tele.Context) (direct, reply *media.Descriptor) {
	m := c.Message()
	if m == nil {
		return nil, nil
	}
	return media.FromMessage(m), media.FromMessage(m.ReplyTo)
}

func senderName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName)
	if name == "" {
		name = strings.TrimSpace(u.Username)
	}
	return name
}
