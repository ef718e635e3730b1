package resolver

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Upstream response shapes are not standardized: the same logical field shows
// up as result.download_url, downloadUrl, dlink, data.url, or buried inside
// format-keyed objects like result.mp4a720.url. ExtractURL probes a
// prioritized list of known field paths, then falls back to HTML anchors and
// finally a bare URL pattern. New upstream shapes are added to the tables,
// not to control flow.

var urlFieldPaths = [][]string{
	{"result", "download_url"},
	{"result", "download"},
	{"result", "url"},
	{"data", "downloadUrl"},
	{"data", "download_url"},
	{"data", "url"},
	{"downloadUrl"},
	{"download_url"},
	{"dlink"},
	{"url"},
}

var urlLeafKeys = []string{"download_url", "downloadUrl", "dlink", "url"}

var (
	mediaHrefPattern = regexp.MustCompile(`\.(mp3|mp4|m4a|webm|opus)(\?.*)?$`)
	bareURLPattern   = regexp.MustCompile(`https?://[^\s"'<>\\]+`)
)

// ExtractURL pulls a download URL out of a raw upstream response body.
// Returns false when no known shape matches.
func ExtractURL(raw []byte) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		var doc interface{}
		if err := json.Unmarshal(trimmed, &doc); err == nil {
			if url, ok := probeJSON(doc); ok {
				return url, true
			}
		}
	}

	if url, ok := extractFromHTML(trimmed); ok {
		return url, true
	}

	if match := bareURLPattern.Find(trimmed); match != nil {
		return string(match), true
	}

	return "", false
}

func probeJSON(doc interface{}) (string, bool) {
	for _, path := range urlFieldPaths {
		if url, ok := lookupPath(doc, path); ok {
			return url, true
		}
	}
	// Nested format-keyed objects (e.g. result.mp4a720.url): breadth-first so
	// shallow matches win over deep ones.
	return scanForURL(doc, 4)
}

func lookupPath(doc interface{}, path []string) (string, bool) {
	current := doc
	for _, key := range path {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return "", false
		}
		current, ok = obj[key]
		if !ok {
			return "", false
		}
	}
	return asURL(current)
}

func scanForURL(doc interface{}, maxDepth int) (string, bool) {
	level := []interface{}{doc}
	for depth := 0; depth < maxDepth && len(level) > 0; depth++ {
		var next []interface{}
		for _, node := range level {
			switch v := node.(type) {
			case map[string]interface{}:
				for _, key := range urlLeafKeys {
					if url, ok := asURL(v[key]); ok {
						return url, true
					}
				}
				for _, child := range v {
					next = append(next, child)
				}
			case []interface{}:
				next = append(next, v...)
			}
		}
		level = next
	}
	return "", false
}

func asURL(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s, true
	}
	return "", false
}

func extractFromHTML(raw []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", false
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return true
		}
		if mediaHrefPattern.MatchString(href) {
			found = href
			return false
		}
		return true
	})

	if found != "" {
		return found, true
	}
	return "", false
}
