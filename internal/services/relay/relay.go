// Package relay moves resolved media to the caller: either streaming the
// bytes through this process or redirecting the client to the upstream URL.
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/xason0/ultraxas-go/internal/services/resolver"
	"github.com/xason0/ultraxas-go/internal/utils"
)

type Mode string

const (
	// ModeStream pipes the media bytes through this process. Default: keeps
	// upstream hosts that reject browser clients working.
	ModeStream Mode = "stream"
	// ModeRedirect answers 302 to the upstream URL. Cheaper, but only valid
	// for direct-URL results from hosts that accept arbitrary clients.
	ModeRedirect Mode = "redirect"
)

type Relay struct {
	client *http.Client
}

func New(client *http.Client) *Relay {
	if client == nil {
		client = &http.Client{}
	}
	return &Relay{client: client}
}

// Deliver writes the resolved media to the response. Materialized files are
// always streamed from disk regardless of mode; direct URLs honor the mode.
func (r *Relay) Deliver(c *gin.Context, result *resolver.ResolutionResult, mode Mode) error {
	if result.Materialized() {
		return r.streamFile(c, result)
	}
	if mode == ModeRedirect {
		c.Redirect(http.StatusFound, result.URL)
		return nil
	}
	return r.streamURL(c, result)
}

func (r *Relay) streamFile(c *gin.Context, result *resolver.ResolutionResult) error {
	f, err := os.Open(result.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open materialized file: %w", err)
	}
	defer f.Close()

	setDownloadHeaders(c, result.MimeType, result.Filename)
	c.Header("Content-Length", fmt.Sprintf("%d", result.FileSize))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, f); err != nil {
		// Headers are already out; nothing to send the client but the
		// abort still needs to land in the logs.
		logMidStreamFailure(c.Request.Context(), err, result)
	}
	return nil
}

func (r *Relay) streamURL(c *gin.Context, result *resolver.ResolutionResult) error {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, result.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build upstream fetch: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch upstream media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upstream media fetch returned status %d", resp.StatusCode)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = result.MimeType
	}
	setDownloadHeaders(c, mimeType, result.Filename)
	if length := resp.Header.Get("Content-Length"); length != "" {
		c.Header("Content-Length", length)
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logMidStreamFailure(c.Request.Context(), err, result)
	}
	return nil
}

func setDownloadHeaders(c *gin.Context, mimeType, filename string) {
	c.Header("Content-Type", mimeType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, utils.SanitizeFilename(filename)))
	c.Header("Cache-Control", "no-store")
}

func logMidStreamFailure(ctx context.Context, err error, result *resolver.ResolutionResult) {
	utils.LogWarn(ctx, "Media stream aborted mid-transfer", utils.Fields{
		"kind":  string(result.Kind),
		"error": err.Error(),
	})
}
