package resolver

import (
	"context"
	"net/http"
	"net/url"

	"github.com/xason0/ultraxas-go/internal/config"
)

// GiftedResolver is the simplest strategy: one GET with the watch URL and an
// API key as query parameters, answer under result.url.
type GiftedResolver struct {
	cfg    *config.UpstreamConfig
	client *http.Client
}

func NewGifted(cfg *config.UpstreamConfig) *GiftedResolver {
	return &GiftedResolver{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

func (r *GiftedResolver) Name() string {
	return "gifted"
}

func (r *GiftedResolver) Supports(kind MediaKind) bool {
	return kind == MediaKindVideo
}

func (r *GiftedResolver) Resolve(ctx context.Context, req ResolutionRequest) (*ResolutionResult, error) {
	endpoint := r.cfg.GiftedBaseURL + "/api/download/ytv?apikey=" + url.QueryEscape(r.cfg.GiftedAPIKey) +
		"&url=" + url.QueryEscape(req.WatchURL())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewUpstreamError(r.Name(), err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", r.cfg.UserAgent)

	raw, err := doRequest(r.client, r.Name(), httpReq)
	if err != nil {
		return nil, err
	}

	downloadURL, ok := ExtractURL(raw)
	if !ok {
		return nil, NewNoURLError(r.Name(), "response carried no download URL")
	}

	result := NewDirectURL(req.Kind, downloadURL, MimeTypeFor(req.Kind), DefaultFilename(req))
	result.Quality = req.Quality
	return result, nil
}

var _ Resolver = (*GiftedResolver)(nil)
