package autosave

import (
	"strings"
	"unicode"
)

var reasonOverrides = map[string]string{
	"enabled":       "the master toggle",
	"baseFolder":    "the base folder",
	"variants":      "your variants",
	"triggers":      "your triggers",
	"profiles":      "your profiles",
	"activeProfile": "the active profile",
}

// FormatReason turns a change key into the phrase used in save notices.
// Unknown camelCase keys are split into lower-case words.
func FormatReason(key string) string {
	if key == "" {
		return "changes"
	}
	if r, ok := reasonOverrides[key]; ok {
		return r
	}
	var b strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(strings.TrimSpace(b.String()))
}

// Summarize joins reasons as "a, b and c". An empty list is "changes".
func Summarize(reasons []string) string {
	list := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r != "" {
			list = append(list, r)
		}
	}
	switch len(list) {
	case 0:
		return "changes"
	case 1:
		return list[0]
	}
	return strings.Join(list[:len(list)-1], ", ") + " and " + list[len(list)-1]
}
