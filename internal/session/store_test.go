package session

import (
	"errors"
	"testing"
	"time"

	"stickerforge/internal/media"
)

func photo(id string) *media.Descriptor {
	return &media.Descriptor{Kind: media.KindPhoto, RemoteID: id}
}

func newTestStore(t *testing.T, expiry time.Duration) (*Store, *time.Time) {
	t.Helper()
	s := NewStore(expiry)
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestSetLastMediaLastWriteWins(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	s.SetLastMedia(1, photo("a"))
	s.SetLastMedia(1, photo("b"))
	s.SetLastMedia(2, photo("c"))
	s.SetLastMedia(1, photo("d"))

	st, ok := s.Get(1)
	if !ok || st.LastMedia == nil || st.LastMedia.RemoteID != "d" {
		t.Fatalf("expected last media d, got %+v ok=%v", st.LastMedia, ok)
	}
	st2, ok := s.Get(2)
	if !ok || st2.LastMedia.RemoteID != "c" {
		t.Fatalf("expected last media c for user 2, got %+v", st2.LastMedia)
	}
}

func TestGetAbsentUser(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	if _, ok := s.Get(42); ok {
		t.Fatal("expected no state for unknown user")
	}
}

func TestSweepExpiredIdempotent(t *testing.T) {
	s, now := newTestStore(t, time.Hour)

	s.SetLastMedia(1, photo("a"))
	s.SetLastMedia(2, photo("b"))

	later := now.Add(2 * time.Hour)
	if removed := s.SweepExpired(later); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if removed := s.SweepExpired(later); removed != 0 {
		t.Fatalf("second sweep must remove nothing, got %d", removed)
	}
}

func TestGetAfterExpiryReturnsNothing(t *testing.T) {
	s, now := newTestStore(t, time.Hour)

	s.SetLastMedia(1, photo("a"))
	*now = now.Add(61 * time.Minute)

	if _, ok := s.Get(1); ok {
		t.Fatal("expected state to be swept on get")
	}
}

func TestWorkflowProgression(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	wf := s.GetOrStartWorkflow(7)
	if wf.Stage != StageAwaitingImage {
		t.Fatalf("fresh workflow stage = %v", wf.Stage)
	}

	wf, err := s.AdvanceWorkflow(7, Input{Media: photo("img")})
	if err != nil || wf.Stage != StageAwaitingTopText {
		t.Fatalf("after photo: stage=%v err=%v", wf.Stage, err)
	}
	if wf.Photo == nil || wf.Photo.RemoteID != "img" {
		t.Fatalf("photo not recorded: %+v", wf.Photo)
	}

	wf, err = s.AdvanceWorkflow(7, Input{Text: "  TOP  "})
	if err != nil || wf.Stage != StageAwaitingBottomText {
		t.Fatalf("after top text: stage=%v err=%v", wf.Stage, err)
	}
	if wf.TopText != "TOP" {
		t.Fatalf("top text not trimmed/recorded: %q", wf.TopText)
	}

	wf, err = s.AdvanceWorkflow(7, Input{Text: "BOTTOM"})
	if err != nil || wf.Stage != StageDone {
		t.Fatalf("after bottom text: stage=%v err=%v", wf.Stage, err)
	}

	// The caller renders, then clears; Done never persists.
	s.ClearWorkflow(7)
	st, ok := s.Get(7)
	if !ok {
		t.Fatal("user state should survive workflow clear")
	}
	if st.Workflow != nil {
		t.Fatalf("workflow should be removed, got %+v", st.Workflow)
	}
}

func TestWorkflowInvalidInputKeepsStage(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	s.GetOrStartWorkflow(7)

	// Text while a photo is expected.
	wf, err := s.AdvanceWorkflow(7, Input{Text: "hello"})
	if !errors.Is(err, ErrInvalidStageInput) {
		t.Fatalf("expected ErrInvalidStageInput, got %v", err)
	}
	if wf.Stage != StageAwaitingImage {
		t.Fatalf("stage must not change on invalid input, got %v", wf.Stage)
	}

	// Sticker while a photo is expected.
	sticker := &media.Descriptor{Kind: media.KindSticker, RemoteID: "s"}
	if _, err := s.AdvanceWorkflow(7, Input{Media: sticker}); !errors.Is(err, ErrInvalidStageInput) {
		t.Fatalf("expected ErrInvalidStageInput for sticker, got %v", err)
	}

	// Empty text while a caption is expected.
	if _, err := s.AdvanceWorkflow(7, Input{Media: photo("img")}); err != nil {
		t.Fatalf("photo should advance: %v", err)
	}
	wf, err = s.AdvanceWorkflow(7, Input{Text: "   "})
	if !errors.Is(err, ErrInvalidStageInput) {
		t.Fatalf("expected ErrInvalidStageInput for blank text, got %v", err)
	}
	if wf.Stage != StageAwaitingTopText {
		t.Fatalf("stage must stay awaiting_top_text, got %v", wf.Stage)
	}
}

func TestRestartDiscardsPartialInput(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	s.GetOrStartWorkflow(7)
	if _, err := s.AdvanceWorkflow(7, Input{Media: photo("img")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AdvanceWorkflow(7, Input{Text: "TOP"}); err != nil {
		t.Fatal(err)
	}

	wf := s.GetOrStartWorkflow(7)
	if wf.Stage != StageAwaitingImage {
		t.Fatalf("restart should reset to awaiting_image, got %v", wf.Stage)
	}
	if wf.Photo != nil || wf.TopText != "" {
		t.Fatalf("partial input must be discarded, got %+v", wf)
	}
}

func TestAdvanceAfterExpiryRederives(t *testing.T) {
	s, now := newTestStore(t, time.Hour)

	s.GetOrStartWorkflow(7)
	if _, err := s.AdvanceWorkflow(7, Input{Media: photo("img")}); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(2 * time.Hour)

	// The stale workflow is gone; input is judged against a fresh one.
	wf, err := s.AdvanceWorkflow(7, Input{Text: "TOP"})
	if !errors.Is(err, ErrInvalidStageInput) {
		t.Fatalf("expected fresh workflow to reject text, got %v", err)
	}
	if wf.Stage != StageAwaitingImage {
		t.Fatalf("expected re-derived awaiting_image, got %v", wf.Stage)
	}
}

func TestClearWorkflowPreservesLastMedia(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	s.SetLastMedia(7, photo("keep"))
	s.GetOrStartWorkflow(7)
	s.ClearWorkflow(7)

	st, ok := s.Get(7)
	if !ok || st.LastMedia == nil || st.LastMedia.RemoteID != "keep" {
		t.Fatalf("lastMedia must survive workflow clear, got %+v ok=%v", st.LastMedia, ok)
	}
}

func TestInProgress(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	if s.InProgress(7) {
		t.Fatal("no workflow yet")
	}
	s.GetOrStartWorkflow(7)
	if !s.InProgress(7) {
		t.Fatal("workflow should be in progress")
	}
	s.ClearWorkflow(7)
	if s.InProgress(7) {
		t.Fatal("cleared workflow should not be in progress")
	}
}
