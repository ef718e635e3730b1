// Package search looks up video metadata and listings through
// Invidious-compatible API instances. Instances are uncontrolled third
// parties, so every call fails over across the configured list.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/models"
	"github.com/xason0/ultraxas-go/internal/utils"
)

// ErrNotFound means every instance answered but none knows the video.
var ErrNotFound = errors.New("video not found")

const (
	searchResultLimit   = 10
	trendingResultLimit = 8
	recommendedLimit    = 6
	maxResponseBytes    = 4 * 1024 * 1024
)

type Service struct {
	instances []string
	client    *http.Client
}

func NewService(cfg *config.SearchConfig) *Service {
	return &Service{
		instances: cfg.Instances,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type instanceVideo struct {
	Type            string `json:"type"`
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ViewCount       int64  `json:"viewCount"`
	LengthSeconds   int64  `json:"lengthSeconds"`
	VideoThumbnails []struct {
		Quality string `json:"quality"`
		URL     string `json:"url"`
	} `json:"videoThumbnails"`
}

func (v *instanceVideo) thumbnail() string {
	for _, t := range v.VideoThumbnails {
		if t.Quality == "medium" {
			return t.URL
		}
	}
	if len(v.VideoThumbnails) > 0 {
		return v.VideoThumbnails[0].URL
	}
	return ""
}

func (v *instanceVideo) toMediaItem(kind string) models.MediaItem {
	return models.MediaItem{
		ID:        v.VideoID,
		Title:     v.Title,
		Thumbnail: v.thumbnail(),
		Author:    v.Author,
		Views:     FormatViewCount(v.ViewCount),
		Duration:  FormatDuration(v.LengthSeconds),
		Type:      kind,
	}
}

// Search queries the instances for videos matching the free-form query.
func (s *Service) Search(ctx context.Context, query string) ([]models.MediaItem, error) {
	return s.searchAs(ctx, query, "video", searchResultLimit)
}

// Trending returns a listing for a rotating trending category.
func (s *Service) Trending(ctx context.Context) ([]models.MediaItem, error) {
	category := trendingCategories[rand.Intn(len(trendingCategories))]
	return s.searchAs(ctx, category, "video", trendingResultLimit)
}

// Recommended is a shorter trending selection from a different random
// category draw.
func (s *Service) Recommended(ctx context.Context) ([]models.MediaItem, error) {
	category := trendingCategories[rand.Intn(len(trendingCategories))]
	return s.searchAs(ctx, category, "video", recommendedLimit)
}

// TrendingMusic returns a music listing; items are tagged audio so the
// client renders them in the music surface.
func (s *Service) TrendingMusic(ctx context.Context) ([]models.MediaItem, error) {
	category := musicCategories[rand.Intn(len(musicCategories))]
	return s.searchAs(ctx, category, "audio", trendingResultLimit)
}

func (s *Service) searchAs(ctx context.Context, query, kind string, limit int) ([]models.MediaItem, error) {
	path := "/api/v1/search?type=video&q=" + url.QueryEscape(query)

	var lastErr error
	for _, instance := range s.instances {
		raw, err := s.get(ctx, instance+path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		var videos []instanceVideo
		if err := json.Unmarshal(raw, &videos); err != nil {
			lastErr = fmt.Errorf("%s: invalid search response: %w", instance, err)
			continue
		}

		items := make([]models.MediaItem, 0, limit)
		for _, v := range videos {
			if v.Type != "" && v.Type != "video" {
				continue
			}
			items = append(items, v.toMediaItem(kind))
			if len(items) == limit {
				break
			}
		}
		return items, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no search instances configured")
	}
	return nil, lastErr
}

// Lookup fetches full metadata for one video id. Returns ErrNotFound when
// the instances answer but none knows the id.
func (s *Service) Lookup(ctx context.Context, videoID string) (*models.VideoDetails, error) {
	notFound := false
	var lastErr error

	for _, instance := range s.instances {
		endpoint := instance + "/api/v1/videos/" + url.PathEscape(videoID)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			notFound = true
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = fmt.Errorf("%s: unexpected status %d", instance, resp.StatusCode)
			continue
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}

		var v instanceVideo
		if err := json.Unmarshal(body, &v); err != nil {
			lastErr = fmt.Errorf("%s: invalid video response: %w", instance, err)
			continue
		}
		if v.VideoID == "" {
			notFound = true
			continue
		}

		return &models.VideoDetails{
			ID:        v.VideoID,
			Title:     v.Title,
			Thumbnail: v.thumbnail(),
			Duration:  FormatDuration(v.LengthSeconds),
			Author:    v.Author,
			Views:     FormatViewCount(v.ViewCount),
			URL:       "https://www.youtube.com/watch?v=" + v.VideoID,
		}, nil
	}

	if notFound {
		return nil, ErrNotFound
	}
	if lastErr == nil {
		lastErr = errors.New("no search instances configured")
	}
	utils.LogWarn(ctx, "Video lookup failed on all instances", utils.Fields{
		"video_id": videoID,
	})
	return nil, lastErr
}

func (s *Service) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// FormatViewCount renders a raw view count the way the listing UI shows it
// (1.2K, 3.4M, 1.1B).
func FormatViewCount(views int64) string {
	switch {
	case views >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(views)/1_000_000_000)
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK", float64(views)/1_000)
	default:
		return fmt.Sprintf("%d", views)
	}
}

// FormatDuration renders seconds as m:ss or h:mm:ss.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
