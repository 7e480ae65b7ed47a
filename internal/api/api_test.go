package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/outlined/internal/config"
	"github.com/dgallion1/outlined/internal/engine"
	"github.com/dgallion1/outlined/internal/sse"
)

const testDoc = `# Introduction

Some opening prose.

## Background

More detail here.

## Approach

How we go about it.

# Results

What we found.
`

type recordingNav struct {
	mu      sync.Mutex
	offsets []int
}

func (n *recordingNav) JumpTo(offset int) {
	n.mu.Lock()
	n.offsets = append(n.offsets, offset)
	n.mu.Unlock()
}

func (n *recordingNav) last() (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.offsets) == 0 {
		return 0, false
	}
	return n.offsets[len(n.offsets)-1], true
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *engine.Engine, *recordingNav, *sse.Broker) {
	t.Helper()
	broker := sse.NewBroker()
	t.Cleanup(broker.Close)

	nav := &recordingNav{}
	eng := engine.New(NewEventHost(broker), nav, engine.WithRevealDelay(time.Millisecond))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(eng, broker, log, cfg), eng, nav, broker
}

func uploadMarkdown(t *testing.T, srv http.Handler, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndOutline(t *testing.T) {
	srv, _, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})

	rec := uploadMarkdown(t, srv, "paper.md", testDoc)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var up struct {
		Title    string `json:"title"`
		Headings int    `json:"headings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if up.Headings != 4 {
		t.Errorf("headings = %d, want 4", up.Headings)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/outline", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("outline status = %d", rec.Code)
	}
	var resp struct {
		Outline []itemJSON `json:"outline"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode outline: %v", err)
	}
	if len(resp.Outline) != 2 {
		t.Fatalf("roots = %d, want 2", len(resp.Outline))
	}
	intro := resp.Outline[0]
	if intro.Label != "Introduction" || intro.Level != 1 {
		t.Errorf("first root = %q level %d, want Introduction level 1", intro.Label, intro.Level)
	}
	if len(intro.Children) != 2 {
		t.Errorf("Introduction children = %d, want 2", len(intro.Children))
	}
	if got := resp.Outline[1].Label; got != "Results" {
		t.Errorf("second root = %q, want Results", got)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv, _, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})
	rec := uploadMarkdown(t, srv, "archive.zip", "not really a zip")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported file type") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	srv, _, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 64})
	rec := uploadMarkdown(t, srv, "big.md", strings.Repeat("x", 200))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	srv, eng, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})
	uploadMarkdown(t, srv, "paper.md", testDoc)

	// Offset inside the Background section.
	pos := strings.Index(testDoc, "## Background") + 2
	body := strings.NewReader(`{"offset": ` + jsonInt(pos) + `}`)
	req := httptest.NewRequest(http.MethodPost, "/api/selection", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("selection status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ActiveID int `json:"active_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ActiveID < 0 {
		t.Fatalf("active_id = %d, want >= 0", resp.ActiveID)
	}
	item := eng.ItemByID(resp.ActiveID)
	if item == nil || item.Label != "Background" {
		t.Errorf("active item = %+v, want Background", item)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/selection", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear selection status = %d", rec.Code)
	}
	if snap := eng.Snapshot(); snap.ActiveID != -1 {
		t.Errorf("active_id after clear = %d, want -1", snap.ActiveID)
	}
}

func TestSelectionRequiresOffset(t *testing.T) {
	srv, _, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})
	req := httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFilterEndpoints(t *testing.T) {
	srv, eng, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})
	uploadMarkdown(t, srv, "paper.md", testDoc)

	req := httptest.NewRequest(http.MethodPost, "/api/filter", strings.NewReader(`{"term":"background"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("filter status = %d", rec.Code)
	}
	var resp struct {
		Term    string `json:"term"`
		Visible int    `json:"visible"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Visible != 2 {
		t.Errorf("visible = %d, want 2 (Introduction connector + Background)", resp.Visible)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/filter", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear filter status = %d", rec.Code)
	}
	if term := eng.FilterTerm(); term != "" {
		t.Errorf("filter term after clear = %q", term)
	}
}

func TestActivateForwardsOffset(t *testing.T) {
	srv, eng, nav, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})
	uploadMarkdown(t, srv, "paper.md", testDoc)

	target := eng.Children(nil)[1] // Results
	req := httptest.NewRequest(http.MethodPost, "/api/items/"+jsonInt(target.ID())+"/activate", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate status = %d, body: %s", rec.Code, rec.Body.String())
	}
	got, ok := nav.last()
	if !ok || got != target.Pos() {
		t.Errorf("nav offset = %d (%v), want %d", got, ok, target.Pos())
	}
}

func TestActivateUnknownItem(t *testing.T) {
	srv, _, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})
	req := httptest.NewRequest(http.MethodPost, "/api/items/999/activate", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStats(t *testing.T) {
	srv, _, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})
	uploadMarkdown(t, srv, "paper.md", testDoc)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var resp struct {
		Headings int `json:"headings"`
		Visible  int `json:"visible"`
		ActiveID int `json:"active_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Headings != 4 || resp.Visible != 4 {
		t.Errorf("headings=%d visible=%d, want 4/4", resp.Headings, resp.Visible)
	}
	if resp.ActiveID != -1 {
		t.Errorf("active_id = %d, want -1", resp.ActiveID)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _, _, _ := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20, APIKey: "secret-key"})

	// Health stays public.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	// API requires the key.
	req = httptest.NewRequest(http.MethodGet, "/api/outline", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no-auth status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/outline", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad-key status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/outline", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("good-key status = %d, want 200", rec.Code)
	}
}

func TestEventHostPublishes(t *testing.T) {
	srv, eng, _, broker := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20})
	_ = srv

	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	if err := eng.SetOutline(nil); err != nil {
		t.Fatalf("SetOutline: %v", err)
	}
	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: outline.refresh") {
			t.Errorf("message = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no refresh event broadcast")
	}
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
