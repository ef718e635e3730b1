package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/xason0/ultraxas-go/internal/config"
)

// Y2MateResolver submits a JSON convert request and expects the final URL
// under result.download. Video only; the service's audio path is unreliable.
type Y2MateResolver struct {
	cfg    *config.UpstreamConfig
	client *http.Client
}

func NewY2Mate(cfg *config.UpstreamConfig) *Y2MateResolver {
	return &Y2MateResolver{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

func (r *Y2MateResolver) Name() string {
	return "y2mate"
}

func (r *Y2MateResolver) Supports(kind MediaKind) bool {
	return kind == MediaKindVideo
}

func (r *Y2MateResolver) Resolve(ctx context.Context, req ResolutionRequest) (*ResolutionResult, error) {
	quality := "480"
	switch req.Quality {
	case "1080p":
		quality = "1080"
	case "720p":
		quality = "720"
	}

	body, err := json.Marshal(map[string]interface{}{
		"url":     req.WatchURL(),
		"mp3":     false,
		"mp4":     true,
		"quality": quality,
		"server":  r.cfg.Y2MateServer,
	})
	if err != nil {
		return nil, NewUpstreamError(r.Name(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Y2MateConvertURL, bytes.NewReader(body))
	if err != nil {
		return nil, NewUpstreamError(r.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", r.cfg.UserAgent)

	raw, err := doRequest(r.client, r.Name(), httpReq)
	if err != nil {
		return nil, err
	}

	downloadURL, ok := ExtractURL(raw)
	if !ok {
		return nil, NewNoURLError(r.Name(), "convert response carried no download URL")
	}

	result := NewDirectURL(req.Kind, downloadURL, MimeTypeFor(req.Kind), DefaultFilename(req))
	result.Quality = req.Quality
	return result, nil
}

var _ Resolver = (*Y2MateResolver)(nil)
