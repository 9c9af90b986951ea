package store

import "strings"

func normalizeKey(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "⇧", ""))
	return strings.ToLower(s)
}
