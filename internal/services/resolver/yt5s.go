package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/xason0/ultraxas-go/internal/config"
)

// YT5SResolver drives the ajaxSearch/ajaxConvert form API. The search step
// answers with format-keyed link objects (mp4a720, mp4a480, ...) each
// carrying an opaque conversion token; the convert step turns the token into
// the final link.
type YT5SResolver struct {
	cfg    *config.UpstreamConfig
	client *http.Client
}

func NewYT5S(cfg *config.UpstreamConfig) *YT5SResolver {
	return &YT5SResolver{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

func (r *YT5SResolver) Name() string {
	return "yt5s"
}

func (r *YT5SResolver) Supports(kind MediaKind) bool {
	return kind == MediaKindVideo
}

type yt5sLink struct {
	K string `json:"k"`
}

type yt5sSearchResponse struct {
	Vid   string              `json:"vid"`
	Title string              `json:"title"`
	Links map[string]yt5sLink `json:"links"`
}

type yt5sConvertResponse struct {
	DLink string `json:"dlink"`
}

func (r *YT5SResolver) Resolve(ctx context.Context, req ResolutionRequest) (*ResolutionResult, error) {
	search, err := r.search(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(search.Links) == 0 {
		return nil, NewNoURLError(r.Name(), "search response carried no format links")
	}

	formatKey := r.selectFormat(search.Links, req.Quality)
	link := search.Links[formatKey]
	if link.K == "" {
		return nil, NewNoURLError(r.Name(), "selected format carried no conversion token")
	}

	downloadURL, err := r.convert(ctx, search.Vid, link.K)
	if err != nil {
		return nil, err
	}

	filename := DefaultFilename(req)
	if search.Title != "" {
		filename = search.Title
	}

	result := NewDirectURL(req.Kind, downloadURL, MimeTypeFor(req.Kind), filename)
	result.Quality = formatKey
	result.Title = search.Title
	return result, nil
}

// selectFormat picks the requested quality when present, otherwise steps down
// through the known qualities and finally takes the first key in sorted order
// so the choice is deterministic.
func (r *YT5SResolver) selectFormat(links map[string]yt5sLink, quality string) string {
	preferred := []string{"mp4a480"}
	switch quality {
	case "1080p":
		preferred = []string{"mp4a1080", "mp4a720", "mp4a480"}
	case "720p":
		preferred = []string{"mp4a720", "mp4a480"}
	}

	for _, key := range preferred {
		if _, ok := links[key]; ok {
			return key
		}
	}

	keys := make([]string, 0, len(links))
	for key := range links {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys[0]
}

func (r *YT5SResolver) search(ctx context.Context, req ResolutionRequest) (*yt5sSearchResponse, error) {
	form := url.Values{}
	form.Set("q", req.WatchURL())
	form.Set("vt", "mp4")

	raw, err := r.postForm(ctx, r.cfg.YT5SBaseURL+"/api/ajaxSearch", form)
	if err != nil {
		return nil, err
	}

	var resp yt5sSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, NewNoURLError(r.Name(), "search response is not valid JSON")
	}
	return &resp, nil
}

func (r *YT5SResolver) convert(ctx context.Context, vid, token string) (string, error) {
	form := url.Values{}
	form.Set("vid", vid)
	form.Set("k", token)

	raw, err := r.postForm(ctx, r.cfg.YT5SBaseURL+"/api/ajaxConvert", form)
	if err != nil {
		return "", err
	}

	var resp yt5sConvertResponse
	if err := json.Unmarshal(raw, &resp); err == nil && resp.DLink != "" {
		return resp.DLink, nil
	}
	if downloadURL, ok := ExtractURL(raw); ok {
		return downloadURL, nil
	}

	return "", NewNoURLError(r.Name(), "convert response carried no download link")
}

func (r *YT5SResolver) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, NewUpstreamError(r.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", r.cfg.UserAgent)

	return doRequest(r.client, r.Name(), httpReq)
}

var _ Resolver = (*YT5SResolver)(nil)
