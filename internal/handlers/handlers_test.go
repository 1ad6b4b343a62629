package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gallery/internal/database"
	"gallery/internal/indexer"
	"gallery/internal/mediatypes"
	"gallery/internal/startup"
	"gallery/internal/thumbstore"
)

type mockScanner struct {
	mu        sync.Mutex
	status    indexer.Status
	runReply  indexer.Reply
	stopReply indexer.Reply
	runs      int
	stops     int
}

func (m *mockScanner) Run() indexer.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	return m.runReply
}

func (m *mockScanner) Stop() indexer.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return m.stopReply
}

func (m *mockScanner) Status() indexer.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockScanner) IsReady() bool {
	return m.Status().Ready
}

type mockLibrary struct {
	items     []database.MediaItem
	folders   []database.FolderItem
	err       error
	lastQuery database.MediaQuery
	recursive bool
}

func (m *mockLibrary) page(q database.MediaQuery) (*database.MediaPage, error) {
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}
	return &database.MediaPage{
		Items:      m.items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalItems: len(m.items),
		TotalPages: 1,
	}, nil
}

func (m *mockLibrary) FolderMedia(_ context.Context, q database.MediaQuery) (*database.MediaPage, error) {
	return m.page(q)
}

func (m *mockLibrary) FolderMediaRecursive(_ context.Context, q database.MediaQuery) (*database.MediaPage, error) {
	m.recursive = true
	return m.page(q)
}

func (m *mockLibrary) FolderFolders(_ context.Context, _ string, _ mediatypes.SortField, _ bool) ([]database.FolderItem, error) {
	return m.folders, m.err
}

type mockThumbs map[string][]byte

func (m mockThumbs) Get(path string) ([]byte, error) {
	if data, ok := m[path]; ok {
		return data, nil
	}
	return nil, thumbstore.ErrNotFound
}

func newTestHandlers(t *testing.T) (*Handlers, *mockScanner, *mockLibrary, mockThumbs) {
	t.Helper()
	scanner := &mockScanner{status: indexer.Status{State: "idle", Root: "/media", Ready: true}}
	library := &mockLibrary{}
	thumbs := mockThumbs{}
	config := &startup.Config{MediaDir: t.TempDir(), PageSize: 50}
	return New(library, scanner, thumbs, config), scanner, library, thumbs
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestGetStatus(t *testing.T) {
	h, scanner, _, _ := newTestHandlers(t)
	scanner.status = indexer.Status{
		State: "indexing",
		Root:  "/media",
		Stats: indexer.Stats{FilesDone: 3, FilesTotal: 9},
	}

	w := httptest.NewRecorder()
	h.GetStatus(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var got indexer.Status
	decode(t, w, &got)
	if got.State != "indexing" || got.Root != "/media" || got.Stats.FilesDone != 3 || got.Stats.FilesTotal != 9 {
		t.Errorf("Unexpected status: %+v", got)
	}
}

func TestRunAndStopScanner(t *testing.T) {
	tests := []struct {
		name    string
		reply   indexer.Reply
		stop    bool
		code    int
		message string
	}{
		{"run accepted", indexer.ReplyOK, false, http.StatusOK, "OK"},
		{"run while busy", indexer.ReplyNotIdle, false, http.StatusConflict, "NotIdle"},
		{"stop accepted", indexer.ReplyOK, true, http.StatusOK, "OK"},
		{"stop while idle", indexer.ReplyAlreadyIdle, true, http.StatusConflict, "AlreadyIdle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, scanner, _, _ := newTestHandlers(t)
			scanner.runReply = tt.reply
			scanner.stopReply = tt.reply

			w := httptest.NewRecorder()
			if tt.stop {
				h.StopScanner(w, httptest.NewRequest(http.MethodPost, "/api/scanner/stop", nil))
			} else {
				h.RunScanner(w, httptest.NewRequest(http.MethodPost, "/api/scanner/run", nil))
			}

			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, w.Code)
			}
			var got replyResponse
			decode(t, w, &got)
			if got.Reply != tt.message {
				t.Errorf("Expected reply %q, got %q", tt.message, got.Reply)
			}
			if tt.stop && scanner.stops != 1 || !tt.stop && scanner.runs != 1 {
				t.Errorf("Expected exactly one call, got runs=%d stops=%d", scanner.runs, scanner.stops)
			}
		})
	}
}

func TestGetFolder(t *testing.T) {
	h, _, library, _ := newTestHandlers(t)
	library.items = []database.MediaItem{{Path: "/trips/a.jpg", Name: "a.jpg", Dir: "/trips", Type: mediatypes.FileTypeImage}}
	library.folders = []database.FolderItem{{Path: "/trips/2024", Name: "2024", ImageCount: 4}}

	req := httptest.NewRequest(http.MethodGet, "/api/folder?path=trips/&sort=random&seed=abc&reverse=true&page=2", nil)
	w := httptest.NewRecorder()
	h.GetFolder(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	q := library.lastQuery
	if q.Dir != "/trips" || q.Sort != mediatypes.SortByRandom || q.Seed != "abc" || !q.Reverse || q.Page != 2 || q.PageSize != 50 {
		t.Errorf("Unexpected query: %+v", q)
	}

	var got FolderResponse
	decode(t, w, &got)
	if len(got.Media) != 1 || got.Media[0].Name != "a.jpg" {
		t.Errorf("Unexpected media: %+v", got.Media)
	}
	if len(got.Folders) != 1 || got.Folders[0].ImageCount != 4 {
		t.Errorf("Unexpected folders: %+v", got.Folders)
	}
	if got.Page != 2 || got.PageSize != 50 {
		t.Errorf("Unexpected paging: page=%d pageSize=%d", got.Page, got.PageSize)
	}
}

func TestGetFolderDefaults(t *testing.T) {
	h, _, library, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.GetFolder(w, httptest.NewRequest(http.MethodGet, "/api/folder?page=-3&reverse=maybe", nil))

	q := library.lastQuery
	if q.Dir != "/" || q.Sort != mediatypes.SortByName || q.Reverse || q.Page != 1 {
		t.Errorf("Unexpected defaults: %+v", q)
	}
	if body := w.Body.String(); !json.Valid([]byte(body)) {
		t.Fatalf("invalid JSON: %s", body)
	}
	var raw map[string]json.RawMessage
	decode(t, w, &raw)
	if string(raw["folders"]) != "[]" {
		t.Errorf("Expected empty folders array, got %s", raw["folders"])
	}
}

func TestGetFolderRecursive(t *testing.T) {
	h, _, library, _ := newTestHandlers(t)
	library.items = []database.MediaItem{{Path: "/a/b/c.jpg"}, {Path: "/a/d.jpg"}}

	w := httptest.NewRecorder()
	h.GetFolderRecursive(w, httptest.NewRequest(http.MethodGet, "/api/folderRecursive?path=/a", nil))

	if !library.recursive {
		t.Error("Expected the recursive query to be used")
	}
	var raw map[string]json.RawMessage
	decode(t, w, &raw)
	if _, ok := raw["folders"]; ok {
		t.Error("Recursive listing should not include folders")
	}
	var got MediaResponse
	decode(t, w, &got)
	if got.TotalItems != 2 {
		t.Errorf("Expected 2 items, got %d", got.TotalItems)
	}
}

func TestGetFolderStorageError(t *testing.T) {
	h, _, library, _ := newTestHandlers(t)
	library.err = errors.New("database is locked")

	w := httptest.NewRecorder()
	h.GetFolder(w, httptest.NewRequest(http.MethodGet, "/api/folder", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestGetThumb(t *testing.T) {
	h, _, _, thumbs := newTestHandlers(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	thumbs["/trips/a.jpg"] = png

	w := httptest.NewRecorder()
	h.GetThumb(w, httptest.NewRequest(http.MethodGet, "/api/thumb?path=trips/a.jpg", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	if w.Body.String() != string(png) {
		t.Error("Body does not match stored thumbnail")
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("Expected an ETag")
	}
	req := httptest.NewRequest(http.MethodGet, "/api/thumb?path=/trips/a.jpg", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	h.GetThumb(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("Expected 304 for matching ETag, got %d", w.Code)
	}
}

func TestGetThumbErrors(t *testing.T) {
	h, _, _, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.GetThumb(w, httptest.NewRequest(http.MethodGet, "/api/thumb", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without path, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.GetThumb(w, httptest.NewRequest(http.MethodGet, "/api/thumb?path=/missing.jpg", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing thumbnail, got %d", w.Code)
	}
}

func TestGetRaw(t *testing.T) {
	h, _, _, _ := newTestHandlers(t)
	if err := os.MkdirAll(filepath.Join(h.mediaDir, "trips"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(h.mediaDir, "trips", "a.jpg"), []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(h.mediaDir, "notes.txt"), []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		code int
	}{
		{"media file", "/trips/a.jpg", http.StatusOK},
		{"missing file", "/trips/b.jpg", http.StatusNotFound},
		{"not media", "/notes.txt", http.StatusNotFound},
		{"directory", "/trips", http.StatusNotFound},
		{"no path", "", http.StatusBadRequest},
		{"traversal is clamped to root", "../../trips/a.jpg", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/raw", nil)
			q := req.URL.Query()
			if tt.path != "" {
				q.Set("path", tt.path)
			}
			req.URL.RawQuery = q.Encode()

			w := httptest.NewRecorder()
			h.GetRaw(w, req)
			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, w.Code)
			}
			if tt.code == http.StatusOK {
				if w.Body.String() != "jpeg bytes" {
					t.Errorf("Unexpected body %q", w.Body.String())
				}
				if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
					t.Errorf("Expected image/jpeg, got %q", ct)
				}
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		status indexer.Status
		code   int
		want   string
	}{
		{"ready", indexer.Status{State: "idle", Ready: true}, http.StatusOK, statusHealthy},
		{"first cycle running", indexer.Status{State: "scanning"}, http.StatusServiceUnavailable, statusStarting},
		{"error state", indexer.Status{State: "error", Error: "storage_error", Ready: true}, http.StatusOK, statusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, scanner, _, _ := newTestHandlers(t)
			scanner.status = tt.status

			w := httptest.NewRecorder()
			h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, w.Code)
			}
			var got HealthResponse
			decode(t, w, &got)
			if got.Status != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got.Status)
			}
			if got.GoVersion == "" || got.NumCPU < 1 {
				t.Error("Expected runtime information")
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	h, _, _, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.LivenessCheck(w, httptest.NewRequest(http.MethodHead, "/livez", nil))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD: expected 200 without body, got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.LivenessCheck(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	var got map[string]string
	decode(t, w, &got)
	if got["status"] != "alive" {
		t.Errorf("Expected alive, got %v", got)
	}
}

func TestReadinessCheck(t *testing.T) {
	h, scanner, _, _ := newTestHandlers(t)

	scanner.status.Ready = false
	w := httptest.NewRecorder()
	h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the first cycle, got %d", w.Code)
	}

	scanner.status.Ready = true
	w = httptest.NewRecorder()
	h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 when ready, got %d", w.Code)
	}
}

func TestGetVersion(t *testing.T) {
	h, _, _, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var got startup.BuildInfo
	decode(t, w, &got)
	if got.Version != startup.Version || got.GoVersion == "" {
		t.Errorf("Unexpected build info: %+v", got)
	}
}
