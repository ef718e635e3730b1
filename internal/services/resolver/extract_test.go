package resolver

import (
	"testing"
)

func TestExtractURL(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
		found    bool
	}{
		{
			name:     "Nested result download_url",
			raw:      `{"result": {"download_url": "https://cdn.example.com/file.mp3"}}`,
			expected: "https://cdn.example.com/file.mp3",
			found:    true,
		},
		{
			name:     "Nested result download",
			raw:      `{"result": {"download": "https://cdn.example.com/clip.mp4"}}`,
			expected: "https://cdn.example.com/clip.mp4",
			found:    true,
		},
		{
			name:     "Camel case data downloadUrl",
			raw:      `{"data": {"downloadUrl": "https://cdn.example.com/a.mp4"}}`,
			expected: "https://cdn.example.com/a.mp4",
			found:    true,
		},
		{
			name:     "Top level dlink",
			raw:      `{"dlink": "https://dl.example.com/x.mp4"}`,
			expected: "https://dl.example.com/x.mp4",
			found:    true,
		},
		{
			name:     "Format keyed nested object",
			raw:      `{"result": {"mp4a720": {"url": "https://cdn.example.com/720.mp4"}}}`,
			expected: "https://cdn.example.com/720.mp4",
			found:    true,
		},
		{
			name:     "Shallow match wins over deep",
			raw:      `{"url": "https://cdn.example.com/top.mp4", "nested": {"url": "https://cdn.example.com/deep.mp4"}}`,
			expected: "https://cdn.example.com/top.mp4",
			found:    true,
		},
		{
			name:     "HTML anchor with media href",
			raw:      `<html><body><a href="/relative">no</a><a href="https://host.example.com/media/z.mp4">download</a></body></html>`,
			expected: "https://host.example.com/media/z.mp4",
			found:    true,
		},
		{
			name:     "HTML anchor with query string",
			raw:      `<a href="https://host.example.com/z.mp3?token=abc">get</a>`,
			expected: "https://host.example.com/z.mp3?token=abc",
			found:    true,
		},
		{
			name:  "URL field carries non-URL value",
			raw:   `{"url": "not-a-url"}`,
			found: false,
		},
		{
			name:  "JSON without any URL",
			raw:   `{"status": "ok", "message": "queued"}`,
			found: false,
		},
		{
			name:  "Empty body",
			raw:   ``,
			found: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			url, ok := ExtractURL([]byte(tc.raw))
			if ok != tc.found {
				t.Fatalf("Expected found=%v, got %v (url %q)", tc.found, ok, url)
			}
			if tc.found && url != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, url)
			}
		})
	}
}
