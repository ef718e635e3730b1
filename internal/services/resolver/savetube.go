package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/utils"
)

// SavetubeResolver implements the two-step key/convert protocol: the source
// URL is submitted to the info endpoint for an opaque key, then the key plus
// desired type/quality is submitted to the download endpoint for the final
// URL. Both hosts expect a browser-like header set.
type SavetubeResolver struct {
	cfg    *config.UpstreamConfig
	client *http.Client
}

func NewSavetube(cfg *config.UpstreamConfig) *SavetubeResolver {
	return &SavetubeResolver{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

func (r *SavetubeResolver) Name() string {
	return "savetube"
}

func (r *SavetubeResolver) Supports(kind MediaKind) bool {
	return kind == MediaKindAudio || kind == MediaKindVideo
}

var savetubeVideoQualities = map[string]string{
	"240p":  "240",
	"360p":  "360",
	"480p":  "480",
	"720p":  "720",
	"1080p": "1080",
}

type savetubeInfoResponse struct {
	Data struct {
		Key string `json:"key"`
	} `json:"data"`
	Key string `json:"key"`
}

type savetubeDownloadResponse struct {
	Data struct {
		DownloadURL string `json:"downloadUrl"`
	} `json:"data"`
	DownloadURL string `json:"downloadUrl"`
}

func (r *SavetubeResolver) Resolve(ctx context.Context, req ResolutionRequest) (*ResolutionResult, error) {
	key, err := r.fetchKey(ctx, req)
	if err != nil {
		return nil, err
	}

	url, err := r.fetchDownloadURL(ctx, key, req)
	if err != nil {
		return nil, err
	}

	utils.LogDebug(ctx, "Savetube resolved download URL", utils.Fields{
		"video_id": req.VideoID,
		"kind":     string(req.Kind),
	})

	result := NewDirectURL(req.Kind, url, MimeTypeFor(req.Kind), DefaultFilename(req))
	result.Quality = req.Quality
	return result, nil
}

func (r *SavetubeResolver) fetchKey(ctx context.Context, req ResolutionRequest) (string, error) {
	body, err := json.Marshal(map[string]string{"url": req.WatchURL()})
	if err != nil {
		return "", NewUpstreamError(r.Name(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.SavetubeInfoURL, bytes.NewReader(body))
	if err != nil {
		return "", NewUpstreamError(r.Name(), err)
	}
	r.setHeaders(httpReq)

	raw, err := doRequest(r.client, r.Name(), httpReq)
	if err != nil {
		return "", err
	}

	var info savetubeInfoResponse
	if err := json.Unmarshal(raw, &info); err != nil {
		return "", NewNoURLError(r.Name(), "info response is not valid JSON")
	}

	key := info.Data.Key
	if key == "" {
		key = info.Key
	}
	if key == "" {
		return "", NewNoURLError(r.Name(), "info response carried no conversion key")
	}

	return key, nil
}

func (r *SavetubeResolver) fetchDownloadURL(ctx context.Context, key string, req ResolutionRequest) (string, error) {
	quality := "128"
	if req.Kind == MediaKindVideo {
		quality = savetubeVideoQualities[req.Quality]
		if quality == "" {
			quality = "720"
		}
	}

	body, err := json.Marshal(map[string]string{
		"downloadType": string(req.Kind),
		"quality":      quality,
		"key":          key,
	})
	if err != nil {
		return "", NewUpstreamError(r.Name(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.SavetubeDownloadURL, bytes.NewReader(body))
	if err != nil {
		return "", NewUpstreamError(r.Name(), err)
	}
	r.setHeaders(httpReq)

	raw, err := doRequest(r.client, r.Name(), httpReq)
	if err != nil {
		return "", err
	}

	var download savetubeDownloadResponse
	if err := json.Unmarshal(raw, &download); err == nil {
		if download.Data.DownloadURL != "" {
			return download.Data.DownloadURL, nil
		}
		if download.DownloadURL != "" {
			return download.DownloadURL, nil
		}
	}

	// The download host occasionally changes its envelope; fall back to the
	// tolerant field probe before giving up.
	if url, ok := ExtractURL(raw); ok {
		return url, nil
	}

	return "", NewNoURLError(r.Name(), "download response carried no URL")
}

func (r *SavetubeResolver) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", r.cfg.SavetubeOrigin)
	req.Header.Set("Referer", r.cfg.SavetubeOrigin+"/")
	req.Header.Set("User-Agent", r.cfg.UserAgent)
}

var _ Resolver = (*SavetubeResolver)(nil)
