package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/models"
	"github.com/xason0/ultraxas-go/internal/services/artifacts"
	"github.com/xason0/ultraxas-go/internal/utils"
)

// titleLookup confirms the video exists and supplies its title before the
// scrape starts. Backed by the search service in production.
type titleLookup interface {
	Lookup(ctx context.Context, videoID string) (*models.VideoDetails, error)
}

// materializer writes fetched media bytes to managed temp storage.
type materializer interface {
	Save(ctx context.Context, body io.Reader, title, extHint string) (*artifacts.Artifact, error)
}

// Y2SaveResolver scrapes a session-based converter: a page GET yields a CSRF
// token and session cookie, a search POST yields conversion keys, a convert
// POST yields the link. The link host rejects direct client fetches, so the
// media is fetched here and materialized to local storage.
type Y2SaveResolver struct {
	cfg    *config.UpstreamConfig
	client *http.Client
	lookup titleLookup
	store  materializer
}

// The converter serves its CSRF token on the locale landing page, not on a
// per-video path.
const y2saveTokenPath = "/id"

func NewY2Save(cfg *config.UpstreamConfig, lookup titleLookup, store materializer) *Y2SaveResolver {
	jar, _ := cookiejar.New(nil)
	return &Y2SaveResolver{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
			Jar:     jar,
		},
		lookup: lookup,
		store:  store,
	}
}

func (r *Y2SaveResolver) Name() string {
	return "y2save"
}

func (r *Y2SaveResolver) Supports(kind MediaKind) bool {
	return kind == MediaKindAudio
}

type y2saveSearchResponse struct {
	Status string `json:"status"`
	Data   struct {
		Vid          string `json:"vid"`
		Title        string `json:"title"`
		ConvertLinks struct {
			Audio []y2saveConvertLink `json:"audio"`
			Video []y2saveConvertLink `json:"video"`
		} `json:"convert_links"`
	} `json:"data"`
}

type y2saveConvertLink struct {
	Quality string `json:"quality"`
	Key     string `json:"key"`
}

type y2saveConvertResponse struct {
	Status string `json:"status"`
	Data   struct {
		DLink string `json:"dlink"`
	} `json:"data"`
}

func (r *Y2SaveResolver) Resolve(ctx context.Context, req ResolutionRequest) (*ResolutionResult, error) {
	details, err := r.lookup.Lookup(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, NewVideoNotFoundError(r.Name(), req.VideoID)
	}

	token, err := r.fetchCSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	search, err := r.search(ctx, token, req.WatchURL())
	if err != nil {
		return nil, err
	}

	links := search.Data.ConvertLinks.Audio
	if len(links) == 0 {
		return nil, NewNoURLError(r.Name(), "search response carried no audio conversion links")
	}
	key := links[0].Key
	if key == "" {
		return nil, NewNoURLError(r.Name(), "conversion link carried no key")
	}

	vid := search.Data.Vid
	if vid == "" {
		vid = req.VideoID
	}

	dlink, err := r.convert(ctx, token, vid, key)
	if err != nil {
		return nil, err
	}

	artifact, err := r.fetchMedia(ctx, dlink, details.Title)
	if err != nil {
		return nil, err
	}

	result := NewMaterializedFile(req.Kind, artifact.Path, artifact.Size, artifact.MimeType, artifact.Filename)
	result.Quality = links[0].Quality
	result.Title = details.Title
	return result, nil
}

// fetchCSRFToken loads the converter landing page and pulls the token from
// the csrf-token meta tag. The page visit also sets the session cookie the
// form endpoints require.
func (r *Y2SaveResolver) fetchCSRFToken(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.Y2SaveBaseURL+y2saveTokenPath, nil)
	if err != nil {
		return "", NewUpstreamError(r.Name(), err)
	}
	httpReq.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return "", NewUpstreamError(r.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", NewUpstreamError(r.Name(), errUnexpectedStatus(resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", NewUpstreamError(r.Name(), err)
	}

	token, ok := doc.Find(`meta[name="csrf-token"]`).Attr("content")
	if !ok || token == "" {
		return "", NewNoURLError(r.Name(), "page carried no CSRF token")
	}
	return token, nil
}

func (r *Y2SaveResolver) search(ctx context.Context, token, watchURL string) (*y2saveSearchResponse, error) {
	form := url.Values{}
	form.Set("_token", token)
	form.Set("query", watchURL)

	raw, err := r.postForm(ctx, r.cfg.Y2SaveBaseURL+"/search", form)
	if err != nil {
		return nil, err
	}

	var resp y2saveSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, NewNoURLError(r.Name(), "search response is not valid JSON")
	}
	return &resp, nil
}

func (r *Y2SaveResolver) convert(ctx context.Context, token, vid, key string) (string, error) {
	form := url.Values{}
	form.Set("_token", token)
	form.Set("vid", vid)
	form.Set("key", key)

	raw, err := r.postForm(ctx, r.cfg.Y2SaveBaseURL+"/searchConvert", form)
	if err != nil {
		return "", err
	}

	var resp y2saveConvertResponse
	if err := json.Unmarshal(raw, &resp); err == nil && resp.Data.DLink != "" {
		return resp.Data.DLink, nil
	}
	if downloadURL, ok := ExtractURL(raw); ok {
		return downloadURL, nil
	}

	return "", NewNoURLError(r.Name(), "convert response carried no download link")
}

// fetchMedia pulls the converted bytes and hands them to the artifact store.
func (r *Y2SaveResolver) fetchMedia(ctx context.Context, dlink, title string) (*artifacts.Artifact, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, dlink, nil)
	if err != nil {
		return nil, NewUpstreamError(r.Name(), err)
	}
	httpReq.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, NewUpstreamError(r.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewUpstreamError(r.Name(), errUnexpectedStatus(resp.StatusCode))
	}

	artifact, err := r.store.Save(ctx, resp.Body, title, "mp3")
	if err != nil {
		utils.LogError(ctx, "Failed to materialize converted media", err, utils.Fields{
			"resolver": r.Name(),
		})
		return nil, NewUpstreamError(r.Name(), err)
	}
	return artifact, nil
}

func (r *Y2SaveResolver) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, NewUpstreamError(r.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("Origin", r.cfg.Y2SaveBaseURL)
	httpReq.Header.Set("Referer", r.cfg.Y2SaveBaseURL+y2saveTokenPath)
	httpReq.Header.Set("User-Agent", r.cfg.UserAgent)

	return doRequest(r.client, r.Name(), httpReq)
}

var _ Resolver = (*Y2SaveResolver)(nil)
