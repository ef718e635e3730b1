package resolver

import (
	"context"
	"net/http"
	"net/url"

	"github.com/xason0/ultraxas-go/internal/config"
)

// ConverterAPIResolver talks to a hosted converter API that exposes several
// GET endpoints with slightly different envelopes. Each endpoint is probed in
// order; the tolerant field extraction handles the per-endpoint shapes.
type ConverterAPIResolver struct {
	cfg    *config.UpstreamConfig
	client *http.Client
}

func NewConverterAPI(cfg *config.UpstreamConfig) *ConverterAPIResolver {
	return &ConverterAPIResolver{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

func (r *ConverterAPIResolver) Name() string {
	return "converterapi"
}

func (r *ConverterAPIResolver) Supports(kind MediaKind) bool {
	return kind == MediaKindAudio || kind == MediaKindVideo
}

func (r *ConverterAPIResolver) endpoints(req ResolutionRequest) []string {
	base := r.cfg.ConverterBaseURL
	watch := url.QueryEscape(req.WatchURL())

	if req.Kind == MediaKindAudio {
		return []string{
			base + "/song?query=" + url.QueryEscape(req.VideoID),
			base + "/youtube/mp3?url=" + watch,
		}
	}
	return []string{
		base + "/play?query=" + url.QueryEscape(req.VideoID),
		base + "/download/ytmp4?url=" + watch,
	}
}

func (r *ConverterAPIResolver) Resolve(ctx context.Context, req ResolutionRequest) (*ResolutionResult, error) {
	var lastErr error
	reachedUpstream := false

	for _, endpoint := range r.endpoints(req) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, NewUpstreamError(r.Name(), err)
		}
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("User-Agent", r.cfg.UserAgent)

		raw, err := doRequest(r.client, r.Name(), httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, NewUpstreamError(r.Name(), ctx.Err())
			}
			lastErr = err
			continue
		}

		reachedUpstream = true
		if downloadURL, ok := ExtractURL(raw); ok {
			result := NewDirectURL(req.Kind, downloadURL, MimeTypeFor(req.Kind), DefaultFilename(req))
			result.Quality = req.Quality
			return result, nil
		}
	}

	// If at least one endpoint answered but none yielded a URL the mismatch
	// is structural; only report an upstream failure when nothing answered.
	if reachedUpstream {
		return nil, NewNoURLError(r.Name(), "no endpoint response carried a download URL")
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, NewNoURLError(r.Name(), "no endpoints configured")
}

var _ Resolver = (*ConverterAPIResolver)(nil)
