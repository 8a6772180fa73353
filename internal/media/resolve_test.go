package media

import "testing"

func desc(kind Kind, id string) *Descriptor {
	return &Descriptor{Kind: kind, RemoteID: id}
}

func TestResolvePrecedence(t *testing.T) {
	direct := desc(KindPhoto, "direct")
	reply := desc(KindPhoto, "reply")
	fallback := desc(KindPhoto, "fallback")

	if got := Resolve(KindAny, direct, reply, fallback); got != direct {
		t.Fatalf("expected direct, got %+v", got)
	}
	if got := Resolve(KindAny, nil, reply, fallback); got != reply {
		t.Fatalf("expected reply, got %+v", got)
	}
	if got := Resolve(KindAny, nil, nil, fallback); got != fallback {
		t.Fatalf("expected fallback, got %+v", got)
	}
	if got := Resolve(KindAny, nil, nil, nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestResolveKindFiltersFallbackOnly(t *testing.T) {
	sticker := desc(KindSticker, "sticker")

	// Fallback of the wrong kind is skipped.
	if got := Resolve(KindPhoto, nil, nil, sticker); got != nil {
		t.Fatalf("expected nil for mismatched fallback, got %+v", got)
	}
	// Fallback of the right kind passes.
	if got := Resolve(KindSticker, nil, nil, sticker); got != sticker {
		t.Fatalf("expected sticker fallback, got %+v", got)
	}
	// Direct and reply candidates are never filtered here.
	if got := Resolve(KindPhoto, sticker, nil, nil); got != sticker {
		t.Fatalf("expected direct candidate regardless of kind, got %+v", got)
	}
	if got := Resolve(KindPhoto, nil, sticker, nil); got != sticker {
		t.Fatalf("expected reply candidate regardless of kind, got %+v", got)
	}
}

func TestResolveReplyBeatsRememberedMedia(t *testing.T) {
	p1 := desc(KindPhoto, "p1") // remembered from an earlier message
	p2 := desc(KindPhoto, "p2") // replied-to photo

	got := Resolve(KindPhoto, nil, p2, p1)
	if got != p2 {
		t.Fatalf("expected replied-to photo p2, got %+v", got)
	}
}
