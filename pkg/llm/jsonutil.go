package llm

import (
	"regexp"
	"strings"
)

var (
	fencedObjectPattern  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls the first JSON object out of a model reply. Code fences
// and trailing commas are tolerated. Returns "" when no object is found.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	if m := fencedObjectPattern.FindStringSubmatch(content); len(m) > 1 {
		return trailingCommaPattern.ReplaceAllString(m[1], "$1")
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(content[start:end+1], "$1")
}
