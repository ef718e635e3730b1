package resolver

import (
	"regexp"
	"strings"

	"github.com/xason0/ultraxas-go/internal/utils"
)

var (
	bareVideoID  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoIDInURL = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*?[?&])?v=|embed/|shorts/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
)

// ExtractVideoID parses a free-form URL or raw identifier into the canonical
// 11-character video id. Pure and idempotent: extracting from an already
// extracted id returns the same id.
func ExtractVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if bareVideoID.MatchString(input) {
		return input, nil
	}

	if matches := videoIDInURL.FindStringSubmatch(input); len(matches) > 1 {
		return matches[1], nil
	}

	return "", utils.NewInvalidInputError(input)
}
