package handler

import (
	"context"
	"errors"
	"strings"

	"stickerforge/internal/session"
)

// Meme workflow prompts. Re-prompts fire on invalid input without moving
// the stage.
const (
	promptMemeImage    = "Let's build a meme. Send me the photo."
	repromptMemeImage  = "I still need a photo — send one as a compressed image."
	promptMemeTop      = "Got it. Now send the TOP text."
	repromptMemeText   = "The caption can't be empty — send me a line of text."
	promptMemeBottom   = "And now the BOTTOM text."
	memeWorkflowHalted = "Meme cancelled."
)

// MemeResult is what the bot should do after feeding workflow input: show a
// prompt, or deliver the rendered meme.
type MemeResult struct {
	Prompt string
	Output []byte
}

// StartMeme begins (or restarts) the caller's meme workflow. A restart
// discards any partial input — the latest /meme wins.
func (s *Service) StartMeme(userID int64) string {
	s.Sessions.GetOrStartWorkflow(userID)
	return promptMemeImage
}

// CancelMeme drops the caller's workflow, leaving remembered media intact.
func (s *Service) CancelMeme(userID int64) string {
	s.Sessions.ClearWorkflow(userID)
	return memeWorkflowHalted
}

// MemeInProgress reports whether the caller has an active workflow.
func (s *Service) MemeInProgress(userID int64) bool {
	return s.Sessions.InProgress(userID)
}

// FeedMeme applies one piece of input to the caller's workflow. Invalid
// input re-prompts without an error. Reaching the final stage triggers the
// render; the workflow is removed as soon as the render returns, success or
// not, so a failure never leaves the user stuck mid-conversation.
func (s *Service) FeedMeme(ctx context.Context, userID int64, in session.Input) (MemeResult, error) {
	wf, err := s.Sessions.AdvanceWorkflow(userID, in)
	if err != nil {
		if errors.Is(err, session.ErrInvalidStageInput) {
			return MemeResult{Prompt: repromptFor(wf.Stage)}, nil
		}
		return MemeResult{}, externalFailure("workflow", err)
	}

	switch wf.Stage {
	case session.StageAwaitingTopText:
		return MemeResult{Prompt: promptMemeTop}, nil
	case session.StageAwaitingBottomText:
		return MemeResult{Prompt: promptMemeBottom}, nil
	case session.StageDone:
		defer s.Sessions.ClearWorkflow(userID)

		body, err := s.fetch(ctx, wf.Photo)
		if err != nil {
			return MemeResult{}, err
		}
		defer body.Close()

		out, err := s.Render.Meme(body, wf.TopText, strings.TrimSpace(in.Text))
		if err != nil {
			return MemeResult{}, classifyRender(err)
		}
		s.countOp(ctx, "meme")
		return MemeResult{Output: out}, nil
	}
	return MemeResult{Prompt: repromptFor(wf.Stage)}, nil
}

func repromptFor(stage session.Stage) string {
	switch stage {
	case session.StageAwaitingImage:
		return repromptMemeImage
	default:
		return repromptMemeText
	}
}
