package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/media"
	"github.com/kalambet/botanic/internal/news"
	"github.com/kalambet/botanic/internal/storage"
	"github.com/kalambet/botanic/internal/workflow"
)

const testToken = "test-token-12345"

// --- mocks ---

type mockRunner struct {
	candidate collection.Candidate
	err       error
	gotURI    string
}

func (m *mockRunner) Run(_ context.Context, uri string) (collection.Candidate, error) {
	m.gotURI = uri
	if m.err != nil {
		return collection.Candidate{}, m.err
	}
	c := m.candidate
	c.Image = uri
	return c, nil
}

type mockNews struct {
	items   []news.Item
	err     error
	gotURLs []string
	gotN    int
}

func (m *mockNews) Latest(_ context.Context, urls []string, limit int) ([]news.Item, error) {
	m.gotURLs, m.gotN = urls, limit
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.items) > limit {
		return m.items[:limit], nil
	}
	return m.items, nil
}

// --- helpers ---

func newTestDeps(t *testing.T) (AppDeps, *collection.Store) {
	t.Helper()
	ns, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { ns.Close() })
	store := collection.New(ns)

	return AppDeps{
		Store: store,
		Pipeline: &mockRunner{candidate: collection.Candidate{
			Name: "Swiss cheese plant", Family: "Araceae", Care: "Light: bright, indirect",
		}},
		Permissions: media.Policy{AllowGallery: true},
		News:        &mockNews{},
		Feeds:       []string{"https://www.1garden.com/feed/"},
		DataDir:     t.TempDir(),
		Token:       testToken,
	}, store
}

func authReq(method, url string, body io.Reader, token string) *http.Request {
	req := httptest.NewRequest(method, url, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Error.Type, body.Error.Message
}

func seedPlants(t *testing.T, store *collection.Store, names ...string) []collection.Plant {
	t.Helper()
	var out []collection.Plant
	for _, n := range names {
		p, err := store.SavePlant(context.Background(), collection.Candidate{Name: n, Family: "F", Care: "C", Image: "file:///" + n + ".jpg"})
		if err != nil {
			t.Fatalf("SavePlant: %v", err)
		}
		out = append(out, p)
	}
	return out
}

// --- tests ---

func TestHealth_NoAuth(t *testing.T) {
	deps, _ := newTestDeps(t)
	rr := serve(NewHandler(deps), httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestAuth(t *testing.T) {
	deps, _ := newTestDeps(t)
	h := NewHandler(deps)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + testToken, http.StatusUnauthorized},
		{"valid", "Bearer " + testToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/plants", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := serve(h, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if typ, _ := decodeError(t, rr); typ != "authentication_error" {
					t.Errorf("error type = %q", typ)
				}
			}
		})
	}
}

func TestAuth_EmptyTokenRejectsAll(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Token = ""
	rr := serve(NewHandler(deps), authReq(http.MethodGet, "/plants", nil, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestListPlants(t *testing.T) {
	deps, store := newTestDeps(t)
	h := NewHandler(deps)

	rr := serve(h, authReq(http.MethodGet, "/plants", nil, testToken))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("empty list: %d %s", rr.Code, rr.Body.String())
	}

	seeded := seedPlants(t, store, "Fern", "Ivy")
	rr = serve(h, authReq(http.MethodGet, "/plants", nil, testToken))
	var got []collection.Plant
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0] != seeded[0] || got[1] != seeded[1] {
		t.Errorf("plants = %+v", got)
	}
}

func TestGetPlant(t *testing.T) {
	deps, store := newTestDeps(t)
	h := NewHandler(deps)
	seeded := seedPlants(t, store, "Fern", "Ivy")

	rr := serve(h, authReq(http.MethodGet, "/plants/"+seeded[1].ID, nil, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var got collection.Plant
	json.NewDecoder(rr.Body).Decode(&got)
	if got != seeded[1] {
		t.Errorf("plant = %+v", got)
	}

	rr = serve(h, authReq(http.MethodGet, "/plants/missing", nil, testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rr.Code)
	}
	if typ, _ := decodeError(t, rr); typ != "not_found" {
		t.Errorf("error type = %q", typ)
	}
}

func TestDeletePlant(t *testing.T) {
	deps, store := newTestDeps(t)
	h := NewHandler(deps)
	seeded := seedPlants(t, store, "Fern", "Ivy", "Moss")

	rr := serve(h, authReq(http.MethodDelete, "/plants/"+seeded[1].ID, nil, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	plants, _ := store.ListPlants(context.Background())
	if len(plants) != 2 || plants[0].ID != seeded[0].ID || plants[1].ID != seeded[2].ID {
		t.Errorf("remaining = %+v", plants)
	}

	// Unknown ids are a no-op.
	rr = serve(h, authReq(http.MethodDelete, "/plants/missing", nil, testToken))
	if rr.Code != http.StatusOK {
		t.Errorf("missing delete status = %d", rr.Code)
	}
}

func TestListImages(t *testing.T) {
	deps, store := newTestDeps(t)
	ctx := context.Background()
	store.AppendImageURI(ctx, "file:///a.jpg")
	store.AppendImageURI(ctx, "file:///a.jpg")

	rr := serve(NewHandler(deps), authReq(http.MethodGet, "/images", nil, testToken))
	var got []string
	json.NewDecoder(rr.Body).Decode(&got)
	if len(got) != 2 {
		t.Errorf("images = %v, want duplicates kept", got)
	}
}

func TestNews(t *testing.T) {
	deps, _ := newTestDeps(t)
	src := &mockNews{items: []news.Item{
		{Title: "Roses", Link: "https://x/roses", Published: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), Description: "Prune"},
		{Title: "Bulbs", Link: "https://x/bulbs"},
		{Title: "Moss", Link: "https://x/moss"},
	}}
	deps.News = src

	rr := serve(NewHandler(deps), authReq(http.MethodGet, "/news?limit=2", nil, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var got []map[string]string
	json.NewDecoder(rr.Body).Decode(&got)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0]["published"] != "2026-10-01T00:00:00Z" {
		t.Errorf("published = %q", got[0]["published"])
	}
	if got[1]["description"] != news.NoDescription {
		t.Errorf("description = %q", got[1]["description"])
	}
	if src.gotN != 2 || len(src.gotURLs) != 1 {
		t.Errorf("source called with %v, %d", src.gotURLs, src.gotN)
	}
}

func TestNews_Errors(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.News = &mockNews{err: news.ErrAllFeedsFailed}
	rr := serve(NewHandler(deps), authReq(http.MethodGet, "/news", nil, testToken))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}

	deps.News = nil
	rr = serve(NewHandler(deps), authReq(http.MethodGet, "/news", nil, testToken))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func multipartImage(t *testing.T, field, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	} else {
		mw.WriteField("note", "no file")
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func identifyReq(t *testing.T, url, field string) *http.Request {
	t.Helper()
	body, ct := multipartImage(t, field, "leaf.png", []byte("\x89PNG\r\n\x1a\nfake"))
	req := authReq(http.MethodPost, url, body, testToken)
	req.Header.Set("Content-Type", ct)
	return req
}

func TestIdentify_NoSave(t *testing.T) {
	deps, store := newTestDeps(t)
	rr := serve(NewHandler(deps), identifyReq(t, "/identify", "image"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var got identifyResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Candidate.Name != "Swiss cheese plant" || got.Saved != nil {
		t.Errorf("response = %+v", got)
	}
	if !strings.HasPrefix(got.Image, "file://") || !strings.HasSuffix(got.Image, ".png") {
		t.Errorf("image uri = %q", got.Image)
	}

	ctx := context.Background()
	images, _ := store.ListImageURIs(ctx)
	if len(images) != 1 || images[0] != got.Image {
		t.Errorf("images = %v", images)
	}
	plants, _ := store.ListPlants(ctx)
	if len(plants) != 0 {
		t.Errorf("plants = %v, want none without save", plants)
	}
	if runner := deps.Pipeline.(*mockRunner); runner.gotURI != got.Image {
		t.Errorf("pipeline got %q", runner.gotURI)
	}
}

func TestIdentify_Save(t *testing.T) {
	deps, store := newTestDeps(t)
	rr := serve(NewHandler(deps), identifyReq(t, "/identify?save=true", "image"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var got identifyResponse
	json.NewDecoder(rr.Body).Decode(&got)
	if got.Saved == nil || got.Saved.ID == "" || got.Saved.Image != got.Image {
		t.Fatalf("saved = %+v", got.Saved)
	}
	plants, _ := store.ListPlants(context.Background())
	if len(plants) != 1 || plants[0] != *got.Saved {
		t.Errorf("plants = %+v", plants)
	}
}

func TestIdentify_Errors(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		runErr   error
		wantCode int
		wantType string
	}{
		{"missing file", "", nil, http.StatusBadRequest, "invalid_request_error"},
		{"no plant", "image", workflow.ErrNoCandidates, http.StatusUnprocessableEntity, "no_plant_found"},
		{"upstream", "image", errors.Join(workflow.ErrIdentification, errors.New("timeout")), http.StatusBadGateway, "api_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, store := newTestDeps(t)
			deps.Pipeline = &mockRunner{err: tt.runErr}

			rr := serve(NewHandler(deps), identifyReq(t, "/identify?save=true", tt.field))
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if typ, _ := decodeError(t, rr); typ != tt.wantType {
				t.Errorf("error type = %q, want %q", typ, tt.wantType)
			}
			plants, _ := store.ListPlants(context.Background())
			if len(plants) != 0 {
				t.Errorf("plants = %v, want none", plants)
			}
		})
	}
}

func TestIdentify_GalleryDisabled(t *testing.T) {
	deps, store := newTestDeps(t)
	deps.Permissions = media.Policy{AllowCamera: true}

	rr := serve(NewHandler(deps), identifyReq(t, "/identify?save=true", "image"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", rr.Code, rr.Body.String())
	}
	if typ, _ := decodeError(t, rr); typ != "permission_error" {
		t.Errorf("error type = %q", typ)
	}
	if runner := deps.Pipeline.(*mockRunner); runner.gotURI != "" {
		t.Errorf("pipeline ran on %q", runner.gotURI)
	}
	images, _ := store.ListImageURIs(context.Background())
	if len(images) != 0 {
		t.Errorf("images = %v, want none", images)
	}
	if left, _ := os.ReadDir(media.ImageDir(deps.DataDir)); len(left) != 0 {
		t.Errorf("upload kept on disk after denial: %v", left)
	}
}

func TestIdentify_NotMultipart(t *testing.T) {
	deps, _ := newTestDeps(t)
	req := authReq(http.MethodPost, "/identify", strings.NewReader(`{"image":"x"}`), testToken)
	req.Header.Set("Content-Type", "application/json")

	rr := serve(NewHandler(deps), req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
