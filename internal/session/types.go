// Package session owns the in-memory per-user interaction state: the last
// media a user sent and the multi-step meme workflow. State is held only for
// the lifetime of the process and expires after an idle window.
package session

import (
	"errors"
	"time"

	"stickerforge/internal/media"
)

// Stage identifies a meme workflow step.
type Stage uint8

const (
	// StageAwaitingImage waits for the source photo.
	StageAwaitingImage Stage = iota
	// StageAwaitingTopText waits for the top caption.
	StageAwaitingTopText
	// StageAwaitingBottomText waits for the bottom caption.
	StageAwaitingBottomText
	// StageDone marks a completed workflow; the record is removed right
	// after the render call returns, so Done never persists in the store.
	StageDone
)

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageAwaitingImage:
		return "awaiting_image"
	case StageAwaitingTopText:
		return "awaiting_top_text"
	case StageAwaitingBottomText:
		return "awaiting_bottom_text"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Workflow is the meme builder state for one user. Fields are populated
// strictly in stage order.
type Workflow struct {
	Stage   Stage
	Photo   *media.Descriptor
	TopText string
}

// UserState is a snapshot of one user's tracked state.
type UserState struct {
	LastMedia  *media.Descriptor
	LastUpdate time.Time
	Workflow   *Workflow
}

// Input carries one workflow step's payload: a media attachment or a text
// message, never both.
type Input struct {
	Media *media.Descriptor
	Text  string
}

// ErrInvalidStageInput reports input that does not match the current
// workflow stage (e.g. text while a photo is expected). The stage is
// left unchanged.
var ErrInvalidStageInput = errors.New("input does not match workflow stage")

// DefaultExpiry is the idle window after which user state is dropped.
const DefaultExpiry = time.Hour
