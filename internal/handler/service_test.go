package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"stickerforge/internal/media"
	"stickerforge/internal/packs"
	"stickerforge/internal/session"
	"stickerforge/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	data        map[string][]byte
	err         error
	lastFetched string
}

func (f *fakeFetcher) Fetch(_ context.Context, remoteID string) (io.ReadCloser, error) {
	f.lastFetched = remoteID
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.data[remoteID]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

type fakeRender struct {
	out       []byte
	err       error
	memeCalls int
	gotTop    string
	gotBottom string
}

func (f *fakeRender) Stickerify(io.Reader) ([]byte, error)        { return f.out, f.err }
func (f *fakeRender) Caption(io.Reader, string) ([]byte, error)   { return f.out, f.err }
func (f *fakeRender) Quote(string, string) ([]byte, error)        { return f.out, f.err }
func (f *fakeRender) Meme(_ io.Reader, top, bottom string) ([]byte, error) {
	f.memeCalls++
	f.gotTop, f.gotBottom = top, bottom
	return f.out, f.err
}

type fakeTranscoder struct {
	out []byte
	err error
}

func (f *fakeTranscoder) ToWebm(context.Context, []byte, string) ([]byte, error) {
	return f.out, f.err
}

type fakePacks struct {
	addErr      error
	createErr   error
	addCalls    int
	createCalls int
	lastSticker packs.Sticker
}

func (f *fakePacks) Add(_ context.Context, _ int64, _ string, st packs.Sticker) error {
	f.addCalls++
	f.lastSticker = st
	return f.addErr
}

func (f *fakePacks) Create(_ context.Context, _ int64, _, _ string, st packs.Sticker) error {
	f.createCalls++
	f.lastSticker = st
	return f.createErr
}

type fakePackRepo struct {
	packs    []storage.Pack
	recorded []string
	listErr  error
}

func (f *fakePackRepo) Record(_ context.Context, _ int64, name, _, _ string) error {
	f.recorded = append(f.recorded, name)
	return nil
}

func (f *fakePackRepo) List(context.Context, int64) ([]storage.Pack, error) {
	return f.packs, f.listErr
}

func (f *fakePackRepo) Has(_ context.Context, _ int64, name string) (bool, error) {
	for _, p := range f.packs {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type fakeStats struct {
	counts map[string]int64
}

func (f *fakeStats) Increment(_ context.Context, op string) error {
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[op]++
	return nil
}

func (f *fakeStats) Totals(context.Context) ([]storage.OperationCount, error) {
	var out []storage.OperationCount
	for op, n := range f.counts {
		out = append(out, storage.OperationCount{Operation: op, Count: n})
	}
	return out, nil
}

type fixtures struct {
	svc    *Service
	fetch  *fakeFetcher
	render *fakeRender
	trans  *fakeTranscoder
	packs  *fakePacks
	repo   *fakePackRepo
	stats  *fakeStats
}

func newService(t *testing.T) fixtures {
	t.Helper()
	f := fixtures{
		fetch:  &fakeFetcher{data: map[string][]byte{"photo1": []byte("jpegbytes"), "sticker1": []byte("webpbytes"), "gif1": []byte("gifbytes")}},
		render: &fakeRender{out: []byte("rendered")},
		trans:  &fakeTranscoder{out: []byte("webm")},
		packs:  &fakePacks{},
		repo:   &fakePackRepo{},
		stats:  &fakeStats{},
	}
	f.svc = &Service{
		Sessions:    session.NewStore(time.Hour),
		Fetcher:     f.fetch,
		Render:      f.render,
		Transcode:   f.trans,
		Packs:       f.packs,
		PackRepo:    f.repo,
		Stats:       f.stats,
		BotUsername: "forgebot",
	}
	return f
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var e *Error
	require.ErrorAs(t, err, &e)
	return e.Code()
}

func photoDesc(id string) *media.Descriptor {
	return &media.Descriptor{Kind: media.KindPhoto, RemoteID: id}
}

func stickerDesc(id string) *media.Descriptor {
	return &media.Descriptor{Kind: media.KindSticker, RemoteID: id}
}

func TestStickerifyUsesRememberedPhoto(t *testing.T) {
	f := newService(t)
	f.svc.RememberMedia(42, photoDesc("photo1"))

	out, err := f.svc.Stickerify(context.Background(), 42, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("rendered"), out)
	assert.Equal(t, int64(1), f.stats.counts["stickerify"])
}

func TestStickerifyNoMedia(t *testing.T) {
	f := newService(t)

	_, err := f.svc.Stickerify(context.Background(), 42, nil, nil)
	assert.Equal(t, CodeMissingState, errCode(t, err))
}

func TestStickerifyRememberedStickerIsFilteredOut(t *testing.T) {
	f := newService(t)
	f.svc.RememberMedia(42, stickerDesc("sticker1"))

	// The remembered tier is kind-filtered, so a remembered sticker never
	// satisfies a photo command.
	_, err := f.svc.Stickerify(context.Background(), 42, nil, nil)
	assert.Equal(t, CodeMissingState, errCode(t, err))
}

func TestStickerifyWrongReplyKindRejected(t *testing.T) {
	f := newService(t)

	_, err := f.svc.Stickerify(context.Background(), 42, nil, stickerDesc("sticker1"))
	assert.Equal(t, CodeInvalidInput, errCode(t, err))
}

func TestStickerifyReplyBeatsRemembered(t *testing.T) {
	f := newService(t)
	f.fetch.data["photo2"] = []byte("p2")
	f.svc.RememberMedia(42, photoDesc("photo1"))

	_, err := f.svc.Stickerify(context.Background(), 42, nil, photoDesc("photo2"))
	require.NoError(t, err)
	assert.Equal(t, "photo2", f.fetch.lastFetched)
}

func TestFileTooLarge(t *testing.T) {
	f := newService(t)
	d := photoDesc("photo1")
	d.FileSize = DefaultMaxFileSize + 1

	_, err := f.svc.Stickerify(context.Background(), 42, d, nil)
	assert.Equal(t, CodeTooLarge, errCode(t, err))
}

func TestGif2StickerAcceptsAnimationAndVideo(t *testing.T) {
	f := newService(t)

	anim := &media.Descriptor{Kind: media.KindAnimation, RemoteID: "gif1", MIME: "video/mp4"}
	out, err := f.svc.Gif2Sticker(context.Background(), 42, anim, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("webm"), out)

	vid := &media.Descriptor{Kind: media.KindVideo, RemoteID: "gif1", MIME: "video/mp4"}
	_, err = f.svc.Gif2Sticker(context.Background(), 42, vid, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.stats.counts["gif2sticker"])
}

func TestGif2StickerTranscodeFailure(t *testing.T) {
	f := newService(t)
	f.trans.err = errors.New("ffmpeg exploded")

	anim := &media.Descriptor{Kind: media.KindAnimation, RemoteID: "gif1"}
	_, err := f.svc.Gif2Sticker(context.Background(), 42, anim, nil)
	assert.Equal(t, CodeExternalFailure, errCode(t, err))
	// The raw cause is not what the user sees.
	assert.NotContains(t, UserMessage(err), "ffmpeg")
}

func TestQuoteRequiresText(t *testing.T) {
	f := newService(t)
	_, err := f.svc.Quote(context.Background(), "Ada", "  ")
	assert.Equal(t, CodeInvalidInput, errCode(t, err))
}

func TestKangAddsToExistingPack(t *testing.T) {
	f := newService(t)

	res, err := f.svc.Kang(context.Background(), 42, "Ada", stickerDesc("sticker1"), nil, "😎")
	require.NoError(t, err)
	assert.Equal(t, "kang_42_by_forgebot", res.PackName)
	assert.False(t, res.Created)
	assert.Equal(t, 1, f.packs.addCalls)
	assert.Equal(t, 0, f.packs.createCalls)
	assert.Equal(t, packs.FormatStatic, f.packs.lastSticker.Format)
}

func TestKangCreatesPackOnFirstUse(t *testing.T) {
	f := newService(t)
	f.packs.addErr = packs.ErrPackNotFound

	res, err := f.svc.Kang(context.Background(), 42, "Ada", stickerDesc("sticker1"), nil, "")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, f.packs.addCalls)
	assert.Equal(t, 1, f.packs.createCalls)
	assert.Equal(t, []string{"kang_42_by_forgebot"}, f.repo.recorded)
}

func TestKangRetryIsBounded(t *testing.T) {
	f := newService(t)
	f.packs.addErr = packs.ErrPackNotFound
	f.packs.createErr = packs.ErrPackNotFound

	// A pathological platform that keeps reporting the pack missing must
	// produce a failure after one create attempt, not a retry loop.
	_, err := f.svc.Kang(context.Background(), 42, "Ada", stickerDesc("sticker1"), nil, "")
	assert.Equal(t, CodeExternalFailure, errCode(t, err))
	assert.Equal(t, 1, f.packs.addCalls)
	assert.Equal(t, 1, f.packs.createCalls)
}

func TestKangRejectsAnimatedSticker(t *testing.T) {
	f := newService(t)
	d := stickerDesc("sticker1")
	d.Animated = true

	_, err := f.svc.Kang(context.Background(), 42, "Ada", d, nil, "")
	assert.Equal(t, CodeInvalidInput, errCode(t, err))
}

func TestKangVideoStickerKeepsFormat(t *testing.T) {
	f := newService(t)
	d := stickerDesc("sticker1")
	d.Video = true

	_, err := f.svc.Kang(context.Background(), 42, "Ada", d, nil, "")
	require.NoError(t, err)
	assert.Equal(t, packs.FormatVideo, f.packs.lastSticker.Format)
}

func TestCreatePackRequiresTitle(t *testing.T) {
	f := newService(t)
	_, err := f.svc.CreatePack(context.Background(), 42, "  ", photoDesc("photo1"), nil)
	assert.Equal(t, CodeInvalidInput, errCode(t, err))
}

func TestCreatePackRecordsIt(t *testing.T) {
	f := newService(t)

	name, err := f.svc.CreatePack(context.Background(), 42, "My Memes", photoDesc("photo1"), nil)
	require.NoError(t, err)
	assert.Equal(t, "my_memes_42_by_forgebot", name)
	assert.Equal(t, []string{"my_memes_42_by_forgebot"}, f.repo.recorded)
}

func TestAddToPackUnknownPack(t *testing.T) {
	f := newService(t)

	err := f.svc.AddToPack(context.Background(), 42, "ghost_42_by_forgebot", photoDesc("photo1"), nil)
	assert.Equal(t, CodeMissingState, errCode(t, err))
	assert.Equal(t, 0, f.packs.addCalls)
}

func TestAddToPackConvertsPhoto(t *testing.T) {
	f := newService(t)
	f.repo.packs = []storage.Pack{{UserID: 42, Name: "my_memes_42_by_forgebot"}}

	err := f.svc.AddToPack(context.Background(), 42, "my_memes_42_by_forgebot", photoDesc("photo1"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.packs.addCalls)
	assert.Equal(t, packs.FormatStatic, f.packs.lastSticker.Format)
	assert.Equal(t, []byte("rendered"), f.packs.lastSticker.Data)
}
