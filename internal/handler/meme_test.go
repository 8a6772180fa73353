package handler

import (
	"context"
	"errors"
	"testing"

	"stickerforge/internal/media"
	"stickerforge/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemeHappyPath(t *testing.T) {
	f := newService(t)
	ctx := context.Background()

	prompt := f.svc.StartMeme(42)
	assert.Equal(t, promptMemeImage, prompt)
	assert.True(t, f.svc.MemeInProgress(42))

	res, err := f.svc.FeedMeme(ctx, 42, session.Input{Media: photoDesc("photo1")})
	require.NoError(t, err)
	assert.Equal(t, promptMemeTop, res.Prompt)

	res, err = f.svc.FeedMeme(ctx, 42, session.Input{Text: "top line"})
	require.NoError(t, err)
	assert.Equal(t, promptMemeBottom, res.Prompt)

	res, err = f.svc.FeedMeme(ctx, 42, session.Input{Text: "bottom line"})
	require.NoError(t, err)
	assert.Equal(t, []byte("rendered"), res.Output)
	assert.Equal(t, 1, f.render.memeCalls)
	assert.Equal(t, "top line", f.render.gotTop)
	assert.Equal(t, "bottom line", f.render.gotBottom)

	// Done never persists.
	assert.False(t, f.svc.MemeInProgress(42))
	st, ok := f.svc.Sessions.Get(42)
	require.True(t, ok)
	assert.Nil(t, st.Workflow)
}

func TestMemeRepromptsOnWrongInput(t *testing.T) {
	f := newService(t)
	ctx := context.Background()

	f.svc.StartMeme(42)

	// Text while a photo is expected.
	res, err := f.svc.FeedMeme(ctx, 42, session.Input{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, repromptMemeImage, res.Prompt)
	assert.True(t, f.svc.MemeInProgress(42))

	// A sticker is still not a photo.
	res, err = f.svc.FeedMeme(ctx, 42, session.Input{Media: stickerDesc("sticker1")})
	require.NoError(t, err)
	assert.Equal(t, repromptMemeImage, res.Prompt)

	// Advance, then send a blank caption.
	_, err = f.svc.FeedMeme(ctx, 42, session.Input{Media: photoDesc("photo1")})
	require.NoError(t, err)
	res, err = f.svc.FeedMeme(ctx, 42, session.Input{Text: "   "})
	require.NoError(t, err)
	assert.Equal(t, repromptMemeText, res.Prompt)
}

func TestMemeRestartDiscardsPartialInput(t *testing.T) {
	f := newService(t)
	ctx := context.Background()

	f.svc.StartMeme(42)
	_, err := f.svc.FeedMeme(ctx, 42, session.Input{Media: photoDesc("photo1")})
	require.NoError(t, err)
	_, err = f.svc.FeedMeme(ctx, 42, session.Input{Text: "old top"})
	require.NoError(t, err)

	f.svc.StartMeme(42)

	// Back to expecting a photo, with nothing carried over.
	res, err := f.svc.FeedMeme(ctx, 42, session.Input{Text: "new top"})
	require.NoError(t, err)
	assert.Equal(t, repromptMemeImage, res.Prompt)
}

func TestMemeRenderFailureClearsWorkflow(t *testing.T) {
	f := newService(t)
	ctx := context.Background()
	f.render.err = errors.New("compositor crashed")

	f.svc.StartMeme(42)
	_, err := f.svc.FeedMeme(ctx, 42, session.Input{Media: photoDesc("photo1")})
	require.NoError(t, err)
	_, err = f.svc.FeedMeme(ctx, 42, session.Input{Text: "top"})
	require.NoError(t, err)

	_, err = f.svc.FeedMeme(ctx, 42, session.Input{Text: "bottom"})
	assert.Equal(t, CodeExternalFailure, errCode(t, err))
	assert.NotContains(t, UserMessage(err), "compositor")

	// The failed workflow must not silently re-trigger.
	assert.False(t, f.svc.MemeInProgress(42))
}

func TestMemeFetchFailureClearsWorkflow(t *testing.T) {
	f := newService(t)
	ctx := context.Background()

	f.svc.StartMeme(42)
	_, err := f.svc.FeedMeme(ctx, 42, session.Input{Media: &media.Descriptor{Kind: media.KindPhoto, RemoteID: "gone"}})
	require.NoError(t, err)
	_, err = f.svc.FeedMeme(ctx, 42, session.Input{Text: "top"})
	require.NoError(t, err)

	_, err = f.svc.FeedMeme(ctx, 42, session.Input{Text: "bottom"})
	assert.Equal(t, CodeExternalFailure, errCode(t, err))
	assert.False(t, f.svc.MemeInProgress(42))
}

func TestCancelMeme(t *testing.T) {
	f := newService(t)
	f.svc.RememberMedia(42, photoDesc("photo1"))
	f.svc.StartMeme(42)

	f.svc.CancelMeme(42)
	assert.False(t, f.svc.MemeInProgress(42))

	st, ok := f.svc.Sessions.Get(42)
	require.True(t, ok)
	assert.NotNil(t, st.LastMedia)
}
