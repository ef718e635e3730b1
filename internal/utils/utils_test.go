package utils

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain title",
			input:    "my_song",
			expected: "my_song",
		},
		{
			name:     "Spaces and punctuation",
			input:    "Never Gonna Give You Up (Official Video)",
			expected: "Never_Gonna_Give_You_Up__Official_Video_",
		},
		{
			name:     "Header injection attempt",
			input:    "evil\"; filename=\"x.exe",
			expected: "evil___filename__x.exe",
		},
		{
			name:     "Extension preserved",
			input:    "track one.mp3",
			expected: "track_one.mp3",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "download",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeFilename(tc.input)
			if got != tc.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	long := strings.Repeat("a", 500) + ".mp4"
	got := SanitizeFilename(long)
	if len(got) > 200 {
		t.Errorf("expected sanitized filename capped at 200 chars, got %d", len(got))
	}
	if !strings.HasSuffix(got, ".mp4") {
		t.Errorf("expected extension preserved, got %q", got)
	}
}

func TestGenerateIDs(t *testing.T) {
	correlationID := GenerateCorrelationID()
	if correlationID == "" {
		t.Error("Expected non-empty correlation ID")
	}

	requestID := GenerateRequestID()
	if requestID == "" {
		t.Error("Expected non-empty request ID")
	}

	// Check that IDs are different
	if correlationID == requestID {
		t.Error("Correlation ID and request ID should be different")
	}
}
