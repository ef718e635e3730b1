// Package orchestrator runs the ranked resolver chain for a download
// request: each strategy is tried in order with per-strategy retries, and
// the first usable result wins.
package orchestrator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/services/resolver"
	"github.com/xason0/ultraxas-go/internal/utils"
)

// Attempt records one resolver's outcome for server-side diagnostics. Never
// exposed to clients.
type Attempt struct {
	Resolver  string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

type Chain struct {
	audio []resolver.Resolver
	video []resolver.Resolver
	cfg   *config.DownloadConfig
}

// NewChain fixes the resolver ordering at construction. Resolvers that do not
// support a kind are filtered here so Resolve never has to skip.
func NewChain(cfg *config.DownloadConfig, resolvers []resolver.Resolver) *Chain {
	c := &Chain{cfg: cfg}
	for _, r := range resolvers {
		if r.Supports(resolver.MediaKindAudio) {
			c.audio = append(c.audio, r)
		}
		if r.Supports(resolver.MediaKindVideo) {
			c.video = append(c.video, r)
		}
	}
	return c
}

// Resolve walks the chain for the request's media kind. Upstream failures are
// retried against the same resolver; structural failures (no URL in the
// response, video unknown to the service) advance immediately since retrying
// cannot change them. Callers only ever see a single generic error when the
// whole chain is exhausted.
func (c *Chain) Resolve(ctx context.Context, req resolver.ResolutionRequest) (*resolver.ResolutionResult, error) {
	chain := c.video
	if req.Kind == resolver.MediaKindAudio {
		chain = c.audio
	}

	attempts := make([]Attempt, 0, len(chain))
	for _, r := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		result, err := c.tryResolver(ctx, r, req)
		attempt := Attempt{
			Resolver:  r.Name(),
			StartedAt: start,
			Duration:  time.Since(start),
			Err:       err,
		}
		attempts = append(attempts, attempt)

		if err == nil {
			result.Resolver = r.Name()
			utils.LogInfo(ctx, "Resolution succeeded", utils.Fields{
				"resolver":    r.Name(),
				"video_id":    req.VideoID,
				"kind":        string(req.Kind),
				"duration_ms": attempt.Duration.Milliseconds(),
			})
			return result, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		utils.LogWarn(ctx, "Resolver failed, advancing to next", utils.Fields{
			"resolver":    r.Name(),
			"video_id":    req.VideoID,
			"error_kind":  string(resolver.KindOf(err)),
			"error":       err.Error(),
			"duration_ms": attempt.Duration.Milliseconds(),
		})
	}

	c.logExhausted(ctx, req, attempts)
	return nil, utils.NewResolversExhaustedError()
}

// tryResolver runs one resolver with the configured retry policy. Structural
// errors are wrapped Permanent so backoff stops immediately.
func (c *Chain) tryResolver(ctx context.Context, r resolver.Resolver, req resolver.ResolutionRequest) (*resolver.ResolutionResult, error) {
	var result *resolver.ResolutionResult

	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(c.cfg.RetryBackoff),
			uint64(attempts-1),
		),
		ctx,
	)

	operation := func() error {
		res, err := r.Resolve(ctx, req)
		if err != nil {
			if !resolver.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Chain) logExhausted(ctx context.Context, req resolver.ResolutionRequest, attempts []Attempt) {
	summary := make([]map[string]interface{}, 0, len(attempts))
	for _, a := range attempts {
		entry := map[string]interface{}{
			"resolver":    a.Resolver,
			"duration_ms": a.Duration.Milliseconds(),
		}
		if a.Err != nil {
			entry["error"] = a.Err.Error()
		}
		summary = append(summary, entry)
	}

	utils.LogError(ctx, "All resolvers exhausted", nil, utils.Fields{
		"video_id": req.VideoID,
		"kind":     string(req.Kind),
		"quality":  req.Quality,
		"attempts": summary,
	})
}
