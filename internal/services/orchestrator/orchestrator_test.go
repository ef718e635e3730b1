package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/services/resolver"
	"github.com/xason0/ultraxas-go/internal/utils"
)

type fakeResolver struct {
	name    string
	kinds   map[resolver.MediaKind]bool
	calls   int
	results []func() (*resolver.ResolutionResult, error)
}

func (f *fakeResolver) Name() string {
	return f.name
}

func (f *fakeResolver) Supports(kind resolver.MediaKind) bool {
	if f.kinds == nil {
		return true
	}
	return f.kinds[kind]
}

func (f *fakeResolver) Resolve(ctx context.Context, req resolver.ResolutionRequest) (*resolver.ResolutionResult, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx]()
}

func succeedWith(url string) func() (*resolver.ResolutionResult, error) {
	return func() (*resolver.ResolutionResult, error) {
		return resolver.NewDirectURL(resolver.MediaKindVideo, url, "video/mp4", "file"), nil
	}
}

func failUpstream(name string) func() (*resolver.ResolutionResult, error) {
	return func() (*resolver.ResolutionResult, error) {
		return nil, resolver.NewUpstreamError(name, errors.New("connection refused"))
	}
}

func failNoURL(name string) func() (*resolver.ResolutionResult, error) {
	return func() (*resolver.ResolutionResult, error) {
		return nil, resolver.NewNoURLError(name, "no url in response")
	}
}

func testDownloadConfig() *config.DownloadConfig {
	return &config.DownloadConfig{
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	}
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	first := &fakeResolver{name: "first", results: []func() (*resolver.ResolutionResult, error){succeedWith("https://a/x.mp4")}}
	second := &fakeResolver{name: "second", results: []func() (*resolver.ResolutionResult, error){succeedWith("https://b/y.mp4")}}

	chain := NewChain(testDownloadConfig(), []resolver.Resolver{first, second})
	result, err := chain.Resolve(context.Background(), resolver.ResolutionRequest{
		VideoID: "dQw4w9WgXcQ",
		Kind:    resolver.MediaKindVideo,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.URL != "https://a/x.mp4" {
		t.Errorf("Expected first resolver's URL, got %q", result.URL)
	}
	if result.Resolver != "first" {
		t.Errorf("Expected winning resolver stamped, got %q", result.Resolver)
	}
	if second.calls != 0 {
		t.Errorf("Second resolver should never run, got %d calls", second.calls)
	}
}

func TestChainRetriesUpstreamFailures(t *testing.T) {
	flaky := &fakeResolver{name: "flaky", results: []func() (*resolver.ResolutionResult, error){
		failUpstream("flaky"),
		failUpstream("flaky"),
		succeedWith("https://a/x.mp4"),
	}}
	fallback := &fakeResolver{name: "fallback", results: []func() (*resolver.ResolutionResult, error){succeedWith("https://b/y.mp4")}}

	chain := NewChain(testDownloadConfig(), []resolver.Resolver{flaky, fallback})
	result, err := chain.Resolve(context.Background(), resolver.ResolutionRequest{
		VideoID: "dQw4w9WgXcQ",
		Kind:    resolver.MediaKindVideo,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if flaky.calls != 3 {
		t.Errorf("Expected three attempts against flaky resolver, got %d", flaky.calls)
	}
	if result.URL != "https://a/x.mp4" {
		t.Errorf("Expected flaky resolver to eventually win, got %q", result.URL)
	}
	if fallback.calls != 0 {
		t.Errorf("Fallback should never run, got %d calls", fallback.calls)
	}
}

func TestChainAdvancesImmediatelyOnStructuralFailure(t *testing.T) {
	structural := &fakeResolver{name: "structural", results: []func() (*resolver.ResolutionResult, error){failNoURL("structural")}}
	fallback := &fakeResolver{name: "fallback", results: []func() (*resolver.ResolutionResult, error){succeedWith("https://b/y.mp4")}}

	chain := NewChain(testDownloadConfig(), []resolver.Resolver{structural, fallback})
	result, err := chain.Resolve(context.Background(), resolver.ResolutionRequest{
		VideoID: "dQw4w9WgXcQ",
		Kind:    resolver.MediaKindVideo,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if structural.calls != 1 {
		t.Errorf("Structural failure must not be retried, got %d attempts", structural.calls)
	}
	if result.URL != "https://b/y.mp4" {
		t.Errorf("Expected fallback to win, got %q", result.URL)
	}
}

func TestChainExhaustionReturnsGenericError(t *testing.T) {
	first := &fakeResolver{name: "first", results: []func() (*resolver.ResolutionResult, error){failNoURL("first")}}
	second := &fakeResolver{name: "second", results: []func() (*resolver.ResolutionResult, error){failNoURL("second")}}

	chain := NewChain(testDownloadConfig(), []resolver.Resolver{first, second})
	_, err := chain.Resolve(context.Background(), resolver.ResolutionRequest{
		VideoID: "dQw4w9WgXcQ",
		Kind:    resolver.MediaKindVideo,
	})
	if err == nil {
		t.Fatal("Expected error after exhaustion")
	}

	appErr, ok := err.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Code != utils.ErrorCodeResolversExhausted {
		t.Errorf("Expected ALL_RESOLVERS_EXHAUSTED, got %s", appErr.Code)
	}
	if appErr.Message != "Could not download media from any source" {
		t.Errorf("Unexpected client-facing message: %q", appErr.Message)
	}
}

func TestChainFiltersByKind(t *testing.T) {
	videoOnly := &fakeResolver{
		name:    "video-only",
		kinds:   map[resolver.MediaKind]bool{resolver.MediaKindVideo: true},
		results: []func() (*resolver.ResolutionResult, error){succeedWith("https://v/x.mp4")},
	}
	both := &fakeResolver{name: "both", results: []func() (*resolver.ResolutionResult, error){succeedWith("https://b/y.mp4")}}

	chain := NewChain(testDownloadConfig(), []resolver.Resolver{videoOnly, both})
	result, err := chain.Resolve(context.Background(), resolver.ResolutionRequest{
		VideoID: "dQw4w9WgXcQ",
		Kind:    resolver.MediaKindAudio,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if videoOnly.calls != 0 {
		t.Errorf("Video-only resolver must not run for audio, got %d calls", videoOnly.calls)
	}
	if result.URL != "https://b/y.mp4" {
		t.Errorf("Unexpected URL: %q", result.URL)
	}
}

func TestChainHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hanging := &fakeResolver{name: "hanging", results: []func() (*resolver.ResolutionResult, error){
		func() (*resolver.ResolutionResult, error) {
			cancel()
			return nil, resolver.NewUpstreamError("hanging", errors.New("timeout"))
		},
	}}
	fallback := &fakeResolver{name: "fallback", results: []func() (*resolver.ResolutionResult, error){succeedWith("https://b/y.mp4")}}

	chain := NewChain(testDownloadConfig(), []resolver.Resolver{hanging, fallback})
	_, err := chain.Resolve(ctx, resolver.ResolutionRequest{
		VideoID: "dQw4w9WgXcQ",
		Kind:    resolver.MediaKindVideo,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("Chain must stop after cancellation, fallback ran %d times", fallback.calls)
	}
}
