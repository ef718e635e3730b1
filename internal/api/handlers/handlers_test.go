package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xason0/ultraxas-go/internal/models"
	"github.com/xason0/ultraxas-go/internal/services/relay"
	"github.com/xason0/ultraxas-go/internal/services/resolver"
	"github.com/xason0/ultraxas-go/internal/services/search"
	"github.com/xason0/ultraxas-go/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSearcher struct {
	items     []models.MediaItem
	details   *models.VideoDetails
	err       error
	lastQuery string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]models.MediaItem, error) {
	f.lastQuery = query
	return f.items, f.err
}

func (f *fakeSearcher) Trending(ctx context.Context) ([]models.MediaItem, error) {
	return f.items, f.err
}

func (f *fakeSearcher) Recommended(ctx context.Context) ([]models.MediaItem, error) {
	return f.items, f.err
}

func (f *fakeSearcher) TrendingMusic(ctx context.Context) ([]models.MediaItem, error) {
	return f.items, f.err
}

func (f *fakeSearcher) Lookup(ctx context.Context, videoID string) (*models.VideoDetails, error) {
	if f.details == nil && f.err == nil {
		return nil, search.ErrNotFound
	}
	return f.details, f.err
}

type fakeChain struct {
	result  *resolver.ResolutionResult
	err     error
	lastReq resolver.ResolutionRequest
}

func (f *fakeChain) Resolve(ctx context.Context, req resolver.ResolutionRequest) (*resolver.ResolutionResult, error) {
	f.lastReq = req
	return f.result, f.err
}

type fakeDeliverer struct {
	lastMode relay.Mode
	err      error
}

func (f *fakeDeliverer) Deliver(c *gin.Context, result *resolver.ResolutionResult, mode relay.Mode) error {
	f.lastMode = mode
	if f.err != nil {
		return f.err
	}
	c.Data(http.StatusOK, result.MimeType, []byte("media-bytes"))
	return nil
}

func performRequest(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func discoveryEngine(searcher Searcher) *gin.Engine {
	handler := NewDiscoveryHandler(searcher, nil)
	engine := gin.New()
	engine.GET("/api/search", handler.Search)
	engine.GET("/api/trending", handler.Trending)
	engine.GET("/api/video-info/:videoId", handler.VideoInfo)
	engine.GET("/api/download-options/:videoId", handler.DownloadOptions)
	return engine
}

func downloadEngine(chain Resolving, deliverer Deliverer) *gin.Engine {
	handler := NewDownloadHandler(chain, deliverer, nil, nil, nil, 10*time.Minute)
	engine := gin.New()
	engine.POST("/api/download", handler.Download)
	engine.POST("/api/video-link", handler.VideoLink)
	engine.POST("/api/direct-video", handler.DirectVideo)
	return engine
}

func TestSearchEndpoint(t *testing.T) {
	searcher := &fakeSearcher{items: []models.MediaItem{
		{ID: "dQw4w9WgXcQ", Title: "Hit Song", Type: "video"},
	}}
	engine := discoveryEngine(searcher)

	rec := performRequest(engine, http.MethodGet, "/api/search?q=hit+song", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if searcher.lastQuery != "hit song" {
		t.Errorf("Unexpected query forwarded: %q", searcher.lastQuery)
	}

	var items []models.MediaItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if len(items) != 1 || items[0].ID != "dQw4w9WgXcQ" {
		t.Errorf("Unexpected items: %+v", items)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	engine := discoveryEngine(&fakeSearcher{})

	rec := performRequest(engine, http.MethodGet, "/api/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing query, got %d", rec.Code)
	}
}

func TestSearchUpstreamFailure(t *testing.T) {
	engine := discoveryEngine(&fakeSearcher{err: errors.New("all instances down")})

	rec := performRequest(engine, http.MethodGet, "/api/search?q=x", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid error JSON: %v", err)
	}
	if body["error"] == nil {
		t.Error("Expected error object in response")
	}
}

func TestVideoInfoAcceptsURLs(t *testing.T) {
	searcher := &fakeSearcher{details: &models.VideoDetails{
		ID:    "dQw4w9WgXcQ",
		Title: "Looked Up",
	}}
	engine := discoveryEngine(searcher)

	rec := performRequest(engine, http.MethodGet, "/api/video-info/dQw4w9WgXcQ", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var details models.VideoDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &details); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if details.Title != "Looked Up" {
		t.Errorf("Unexpected title: %q", details.Title)
	}
}

func TestVideoInfoInvalidID(t *testing.T) {
	engine := discoveryEngine(&fakeSearcher{})

	rec := performRequest(engine, http.MethodGet, "/api/video-info/short", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestVideoInfoNotFound(t *testing.T) {
	engine := discoveryEngine(&fakeSearcher{})

	rec := performRequest(engine, http.MethodGet, "/api/video-info/dQw4w9WgXcQ", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestDownloadOptionsListsFormats(t *testing.T) {
	engine := discoveryEngine(&fakeSearcher{})

	rec := performRequest(engine, http.MethodGet, "/api/download-options/dQw4w9WgXcQ", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var options models.DownloadOptions
	if err := json.Unmarshal(rec.Body.Bytes(), &options); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if len(options.Video) == 0 || len(options.Audio) == 0 {
		t.Errorf("Expected both video and audio options, got %+v", options)
	}
}

func TestDownloadRelaysMedia(t *testing.T) {
	chain := &fakeChain{result: resolver.NewDirectURL(resolver.MediaKindAudio, "https://cdn/x.mp3", "audio/mpeg", "x.mp3")}
	deliverer := &fakeDeliverer{}
	engine := downloadEngine(chain, deliverer)

	rec := performRequest(engine, http.MethodPost, "/api/download",
		`{"videoId": "https://youtu.be/dQw4w9WgXcQ", "format": "audio", "quality": "128kbps"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if chain.lastReq.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected extracted video id, got %q", chain.lastReq.VideoID)
	}
	if chain.lastReq.Kind != resolver.MediaKindAudio {
		t.Errorf("Expected audio kind, got %q", chain.lastReq.Kind)
	}
	if deliverer.lastMode != relay.ModeStream {
		t.Errorf("Download endpoint must stream, got mode %q", deliverer.lastMode)
	}
	if rec.Body.String() != "media-bytes" {
		t.Error("Expected relayed media bytes")
	}
}

func TestDownloadValidatesBody(t *testing.T) {
	engine := downloadEngine(&fakeChain{}, &fakeDeliverer{})

	testCases := []struct {
		name string
		body string
	}{
		{"Missing format", `{"videoId": "dQw4w9WgXcQ", "quality": "720p"}`},
		{"Bad format value", `{"videoId": "dQw4w9WgXcQ", "format": "gif", "quality": "720p"}`},
		{"Not JSON", `not-json`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(engine, http.MethodPost, "/api/download", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestDownloadInvalidVideoID(t *testing.T) {
	engine := downloadEngine(&fakeChain{}, &fakeDeliverer{})

	rec := performRequest(engine, http.MethodPost, "/api/download",
		`{"videoId": "nope", "format": "video", "quality": "720p"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad id, got %d", rec.Code)
	}
}

func TestDownloadExhaustedChain(t *testing.T) {
	chain := &fakeChain{err: utils.NewResolversExhaustedError()}
	engine := downloadEngine(chain, &fakeDeliverer{})

	rec := performRequest(engine, http.MethodPost, "/api/download",
		`{"videoId": "dQw4w9WgXcQ", "format": "video", "quality": "720p"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid error JSON: %v", err)
	}
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected error object, got %v", body["error"])
	}
	if errObj["code"] != "ALL_RESOLVERS_EXHAUSTED" {
		t.Errorf("Unexpected error code: %v", errObj["code"])
	}
	// Per-resolver details must never leak to the client.
	if strings.Contains(rec.Body.String(), "savetube") {
		t.Error("Resolver names must not appear in client responses")
	}
}

func TestVideoLinkReturnsDirectURL(t *testing.T) {
	result := resolver.NewDirectURL(resolver.MediaKindVideo, "https://cdn/x.mp4", "video/mp4", "x.mp4")
	result.Title = "Test Clip"
	result.Quality = "720p"
	chain := &fakeChain{result: result}
	engine := downloadEngine(chain, &fakeDeliverer{})

	rec := performRequest(engine, http.MethodPost, "/api/video-link",
		`{"videoId": "dQw4w9WgXcQ"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var link models.DownloadLinkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &link); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if !link.Success || link.DownloadURL != "https://cdn/x.mp4" {
		t.Errorf("Unexpected link response: %+v", link)
	}
	if chain.lastReq.Quality != "720p" {
		t.Errorf("Expected default quality 720p, got %q", chain.lastReq.Quality)
	}
}

func TestVideoLinkMaterializedWithoutRemote(t *testing.T) {
	result := resolver.NewMaterializedFile(resolver.MediaKindVideo, "/tmp/does-not-matter.mp4", 10, "video/mp4", "x.mp4")
	engine := downloadEngine(&fakeChain{result: result}, &fakeDeliverer{})

	rec := performRequest(engine, http.MethodPost, "/api/video-link",
		`{"videoId": "dQw4w9WgXcQ"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 when no remote storage is configured, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(utils.ErrorCodeLinkUnavailable)) {
		t.Errorf("Expected %s error code, got %s", utils.ErrorCodeLinkUnavailable, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), string(utils.ErrorCodeStreamingFailure)) {
		t.Error("Link failures before the response starts must not report a streaming failure")
	}
}

func TestDirectVideoUsesRedirectMode(t *testing.T) {
	chain := &fakeChain{result: resolver.NewDirectURL(resolver.MediaKindVideo, "https://cdn/x.mp4", "video/mp4", "x.mp4")}
	deliverer := &fakeDeliverer{}
	engine := downloadEngine(chain, deliverer)

	rec := performRequest(engine, http.MethodPost, "/api/direct-video",
		`{"videoId": "dQw4w9WgXcQ", "quality": "1080p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if deliverer.lastMode != relay.ModeRedirect {
		t.Errorf("Direct video endpoint must use redirect mode, got %q", deliverer.lastMode)
	}
	if chain.lastReq.Quality != "1080p" {
		t.Errorf("Expected requested quality forwarded, got %q", chain.lastReq.Quality)
	}
}
