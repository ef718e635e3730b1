package resolver

import (
	"fmt"
	"io"
	"net/http"
)

const maxResponseBytes = 8 * 1024 * 1024

func errUnexpectedStatus(code int) error {
	return fmt.Errorf("unexpected status %d", code)
}

// doRequest executes an upstream call and classifies transport-level
// failures (network errors, timeouts, non-2xx statuses) as upstream errors.
func doRequest(client *http.Client, name string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, NewUpstreamError(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, NewUpstreamError(name, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewUpstreamError(name, fmt.Errorf("failed to read response: %w", err))
	}

	return body, nil
}
