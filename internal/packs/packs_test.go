package packs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	cases := []struct {
		prefix string
		want   string
	}{
		{"memes", "memes_42_by_forgebot"},
		{"My Cool Pack!", "my_cool_pack_42_by_forgebot"},
		{"42abc", "abc_42_by_forgebot"},
		{"", "pack_42_by_forgebot"},
		{"___", "pack_42_by_forgebot"},
	}
	for _, tc := range cases {
		if got := Name(tc.prefix, 42, "forgebot"); got != tc.want {
			t.Errorf("Name(%q) = %q, want %q", tc.prefix, got, tc.want)
		}
	}
}

func TestNameStripsAtAndTruncates(t *testing.T) {
	got := Name(strings.Repeat("x", 100), 42, "@forgebot")
	if len(got) > maxNameLen {
		t.Fatalf("name too long: %d", len(got))
	}
	if !strings.HasSuffix(got, "_42_by_forgebot") {
		t.Fatalf("suffix missing: %q", got)
	}
}

func TestKangName(t *testing.T) {
	if got := KangName(7, "forgebot"); got != "kang_7_by_forgebot" {
		t.Fatalf("KangName = %q", got)
	}
}

func TestClassifyPackNotFound(t *testing.T) {
	err := classify(400, "Bad Request: STICKERSET_INVALID")
	if !errors.Is(err, ErrPackNotFound) {
		t.Fatalf("expected ErrPackNotFound, got %v", err)
	}

	err = classify(400, "Bad Request: sticker set name is already occupied")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 400 {
		t.Fatalf("expected APIError 400, got %v", err)
	}
}

func newTestManager(t *testing.T, handler http.HandlerFunc) (*Manager, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	m := New("test-token", srv.Client())
	m.baseURL = srv.URL
	return m, srv
}

func TestAddStickerUploadsMultipart(t *testing.T) {
	var gotName, gotUserID, gotSticker string
	var fileBytes []byte

	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/addStickerToSet") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not multipart: %v", err)
		}
		gotName = r.FormValue("name")
		gotUserID = r.FormValue("user_id")
		gotSticker = r.FormValue("sticker")
		f, _, err := r.FormFile("sticker0")
		if err != nil {
			t.Fatalf("sticker0 part missing: %v", err)
		}
		buf := make([]byte, 16)
		n, _ := f.Read(buf)
		fileBytes = buf[:n]
		w.Write([]byte(`{"ok":true}`))
	})

	err := m.Add(context.Background(), 42, "kang_42_by_forgebot", Sticker{
		Data:   []byte("webpdata"),
		Format: FormatStatic,
		Emoji:  "😎",
	})
	if err != nil {
		t.Fatal(err)
	}
	if gotName != "kang_42_by_forgebot" || gotUserID != "42" {
		t.Fatalf("fields: name=%q user_id=%q", gotName, gotUserID)
	}
	if !strings.Contains(gotSticker, `"attach://sticker0"`) || !strings.Contains(gotSticker, `"static"`) {
		t.Fatalf("input sticker json: %s", gotSticker)
	}
	if string(fileBytes) != "webpdata" {
		t.Fatalf("uploaded bytes = %q", fileBytes)
	}
}

func TestAddClassifiesMissingPack(t *testing.T) {
	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: STICKERSET_INVALID"}`))
	})

	err := m.Add(context.Background(), 42, "missing_42_by_forgebot", Sticker{Data: []byte("x")})
	if !errors.Is(err, ErrPackNotFound) {
		t.Fatalf("expected ErrPackNotFound, got %v", err)
	}
}

func TestExists(t *testing.T) {
	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.FormValue("name"), "missing") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: STICKERSET_INVALID"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	ok, err := m.Exists(context.Background(), "kang_42_by_forgebot")
	if err != nil || !ok {
		t.Fatalf("expected pack to exist, ok=%v err=%v", ok, err)
	}
	ok, err = m.Exists(context.Background(), "missing_42_by_forgebot")
	if err != nil || ok {
		t.Fatalf("expected pack to be absent, ok=%v err=%v", ok, err)
	}
}

func TestRedactHidesToken(t *testing.T) {
	m := New("secret-token", nil)
	out := m.redact("Post https://api.telegram.org/botsecret-token/addStickerToSet: timeout")
	if strings.Contains(out, "secret-token") {
		t.Fatalf("token leaked: %s", out)
	}
}
