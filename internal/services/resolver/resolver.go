// Package resolver contains the integrations with third-party media
// resolution services. Each resolver turns a (video id, kind, quality hint)
// request into either a directly fetchable media URL or a file already
// materialized to local temp storage. Resolvers are stateless beyond their
// HTTP client and never mutate shared state.
package resolver

import (
	"context"
	"errors"
	"fmt"
)

type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// ResolutionRequest is constructed per incoming download call and discarded
// after the response completes.
type ResolutionRequest struct {
	VideoID   string
	Kind      MediaKind
	Quality   string
	TitleHint string
}

func (r ResolutionRequest) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + r.VideoID
}

// ResolutionResult is either a direct URL (FilePath empty) or a materialized
// file on local disk. Both variants carry enough metadata to set response
// headers.
type ResolutionResult struct {
	Kind     MediaKind
	URL      string
	FilePath string
	FileSize int64
	MimeType string
	Filename string
	Quality  string
	Title    string
	// Resolver is stamped by the orchestrator with the winning strategy.
	Resolver string
}

func (r *ResolutionResult) Materialized() bool {
	return r.FilePath != ""
}

func NewDirectURL(kind MediaKind, url, mimeType, filename string) *ResolutionResult {
	return &ResolutionResult{
		Kind:     kind,
		URL:      url,
		MimeType: mimeType,
		Filename: filename,
	}
}

func NewMaterializedFile(kind MediaKind, path string, size int64, mimeType, filename string) *ResolutionResult {
	return &ResolutionResult{
		Kind:     kind,
		FilePath: path,
		FileSize: size,
		MimeType: mimeType,
		Filename: filename,
	}
}

// Resolver is one integration with a specific third-party resolution service.
type Resolver interface {
	Name() string
	Supports(kind MediaKind) bool
	Resolve(ctx context.Context, req ResolutionRequest) (*ResolutionResult, error)
}

type ErrorKind string

const (
	// ErrorKindUpstream covers network failures, timeouts and non-2xx
	// statuses. Worth retrying against the same resolver.
	ErrorKindUpstream ErrorKind = "upstream_unavailable"
	// ErrorKindNoURL means the upstream answered but no known field path
	// yielded a usable URL. Retrying cannot fix a structural mismatch.
	ErrorKindNoURL ErrorKind = "no_url_found"
	// ErrorKindVideoNotFound is reported by search-first strategies when the
	// upstream search finds no match for the identifier.
	ErrorKindVideoNotFound ErrorKind = "video_not_found"
)

type ResolveError struct {
	Resolver string
	Kind     ErrorKind
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Resolver, e.Kind, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(resolver string, err error) *ResolveError {
	return &ResolveError{Resolver: resolver, Kind: ErrorKindUpstream, Err: err}
}

func NewNoURLError(resolver, message string) *ResolveError {
	return &ResolveError{Resolver: resolver, Kind: ErrorKindNoURL, Err: errors.New(message)}
}

func NewVideoNotFoundError(resolver, videoID string) *ResolveError {
	return &ResolveError{Resolver: resolver, Kind: ErrorKindVideoNotFound, Err: fmt.Errorf("no video found for %s", videoID)}
}

// KindOf classifies an error for the orchestrator. Unknown errors are treated
// as upstream failures so they stay retryable.
func KindOf(err error) ErrorKind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ErrorKindUpstream
}

// Retryable reports whether retrying the same resolver can plausibly change
// the outcome.
func Retryable(err error) bool {
	return KindOf(err) == ErrorKindUpstream
}

// MimeTypeFor returns the response content type used when an upstream does
// not declare one.
func MimeTypeFor(kind MediaKind) string {
	if kind == MediaKindAudio {
		return "audio/mpeg"
	}
	return "video/mp4"
}

// DefaultFilename derives a download filename from the request when no title
// is known.
func DefaultFilename(req ResolutionRequest) string {
	if req.TitleHint != "" {
		return req.TitleHint
	}
	return req.VideoID
}
