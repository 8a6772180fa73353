// Package media defines the descriptor value type for user-submitted media
// and the precedence rules that pick which descriptor a command operates on.
package media

import (
	tele "gopkg.in/telebot.v4"
)

// Kind discriminates the media variants the bot can work with.
type Kind uint8

const (
	// KindAny matches every kind; used as the "no filter" value in Resolve.
	KindAny Kind = iota
	// KindPhoto is a compressed photo.
	KindPhoto
	// KindSticker is an existing sticker (static, animated or video).
	KindSticker
	// KindAnimation is a GIF/MPEG-4 animation.
	KindAnimation
	// KindVideo is a regular video.
	KindVideo
	// KindDocument is an uncompressed file attachment.
	KindDocument
)

// String returns the kind name used in logs and user-facing messages.
func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindSticker:
		return "sticker"
	case KindAnimation:
		return "animation"
	case KindVideo:
		return "video"
	case KindDocument:
		return "document"
	default:
		return "any"
	}
}

// Descriptor describes one piece of user media. Kind is the discriminant:
// Animated and Video are meaningful only for stickers and are mutually
// exclusive; MIME is set only for documents.
type Descriptor struct {
	Kind     Kind
	RemoteID string

	Animated bool
	Video    bool

	MIME     string
	Width    int
	Height   int
	FileSize int64
}

// FromMessage extracts a Descriptor from whatever media the message carries.
// Returns nil when the message has no usable media attachment.
func FromMessage(m *tele.Message) *Descriptor {
	if m == nil {
		return nil
	}
	switch {
	case m.Photo != nil:
		return &Descriptor{
			Kind:     KindPhoto,
			RemoteID: m.Photo.FileID,
			Width:    m.Photo.Width,
			Height:   m.Photo.Height,
			FileSize: int64(m.Photo.FileSize),
		}
	case m.Sticker != nil:
		return &Descriptor{
			Kind:     KindSticker,
			RemoteID: m.Sticker.FileID,
			Animated: m.Sticker.Animated,
			Video:    m.Sticker.Video,
			Width:    m.Sticker.Width,
			Height:   m.Sticker.Height,
			FileSize: int64(m.Sticker.FileSize),
		}
	case m.Animation != nil:
		return &Descriptor{
			Kind:     KindAnimation,
			RemoteID: m.Animation.FileID,
			MIME:     m.Animation.MIME,
			Width:    m.Animation.Width,
			Height:   m.Animation.Height,
			FileSize: int64(m.Animation.FileSize),
		}
	case m.Video != nil:
		return &Descriptor{
			Kind:     KindVideo,
			RemoteID: m.Video.FileID,
			MIME:     m.Video.MIME,
			Width:    m.Video.Width,
			Height:   m.Video.Height,
			FileSize: int64(m.Video.FileSize),
		}
	case m.Document != nil:
		return &Descriptor{
			Kind:     KindDocument,
			RemoteID: m.Document.FileID,
			MIME:     m.Document.MIME,
			FileSize: int64(m.Document.FileSize),
		}
	}
	return nil
}
