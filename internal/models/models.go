package models

import "time"

// MediaItem is one entry in a search/trending/recommended listing.
type MediaItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Author    string `json:"author"`
	Views     string `json:"views"`
	Duration  string `json:"duration"`
	Type      string `json:"type"`
}

// VideoDetails is the full metadata for a single video.
type VideoDetails struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"`
	Author    string `json:"author"`
	Views     string `json:"views"`
	URL       string `json:"url"`
}

type DownloadRequest struct {
	VideoID string `json:"videoId" binding:"required"`
	Format  string `json:"format" binding:"required,oneof=audio video"`
	Quality string `json:"quality" binding:"required"`
}

type DirectVideoRequest struct {
	VideoID string `json:"videoId" binding:"required"`
	Quality string `json:"quality"`
}

type DownloadLinkResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"downloadUrl"`
	Title       string `json:"title"`
	Quality     string `json:"quality"`
}

type FormatOption struct {
	Quality string `json:"quality"`
	Format  string `json:"format"`
	Size    string `json:"size"`
}

type DownloadOptions struct {
	Video []FormatOption `json:"video"`
	Audio []FormatOption `json:"audio"`
}

// ResolutionRecord is the optional best-effort cache ledger entry written
// after a successful resolution. Purely diagnostic; never read on the
// request path for correctness.
type ResolutionRecord struct {
	VideoID    string    `bson:"video_id" json:"video_id"`
	Resolver   string    `bson:"resolver" json:"resolver"`
	Kind       string    `bson:"kind" json:"kind"`
	Quality    string    `bson:"quality" json:"quality"`
	Direct     bool      `bson:"direct" json:"direct"`
	ResolvedAt time.Time `bson:"resolved_at" json:"resolved_at"`
	ExpiresAt  time.Time `bson:"expires_at" json:"-"`
}

// CachedVideoDetails wraps VideoDetails with cache bookkeeping.
type CachedVideoDetails struct {
	VideoDetails `bson:",inline"`
	CachedAt     time.Time `bson:"cached_at" json:"-"`
	ExpiresAt    time.Time `bson:"expires_at" json:"-"`
}
