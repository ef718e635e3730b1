package utils

import (
	"path/filepath"
	"strings"
)

const maxFilenameLength = 200

// SanitizeFilename reduces a title hint to a header- and filesystem-safe
// name: alphanumerics and underscores only, bounded length. The extension, if
// any, is preserved.
func SanitizeFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext != "" {
		ext = "." + replaceUnsafe(ext[1:])
	}

	sanitized := replaceUnsafe(base)
	if sanitized == "" {
		sanitized = "download"
	}
	if len(sanitized) > maxFilenameLength-len(ext) {
		sanitized = sanitized[:maxFilenameLength-len(ext)]
	}

	return sanitized + ext
}

func replaceUnsafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
