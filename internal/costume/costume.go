// Package costume canonicalizes costume folder paths as the host's
// /costume command expects them: forward slashes, no empty segments,
// no leading or trailing separators.
package costume

import (
	"strings"
	"unicode/utf8"
)

// NormalizeFolder trims raw, converts backslashes to forward slashes,
// collapses repeated separators and strips leading and trailing ones.
// Blank input yields "".
func NormalizeFolder(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\\", "/")

	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for _, r := range s {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "/")
}

// ComposePath joins a profile base folder and an entry folder.
// Both sides are normalized first; an empty side yields the other.
func ComposePath(base, relative string) string {
	b := NormalizeFolder(base)
	r := NormalizeFolder(relative)
	switch {
	case r == "":
		return b
	case b == "":
		return r
	default:
		return b + "/" + r
	}
}

// RelativeFolder converts a folder picked by the host into a path relative
// to base. The prefix comparison is case-insensitive; a pick that does not
// start with base is returned normalized.
func RelativeFolder(base, picked string) string {
	p := NormalizeFolder(picked)
	if p == "" {
		return ""
	}
	b := NormalizeFolder(base)
	if b == "" {
		return p
	}
	rest, ok := cutFoldPrefix(p, b)
	if !ok {
		return p
	}
	return strings.TrimLeft(rest, "/")
}

// cutFoldPrefix reports whether s starts with prefix under Unicode case
// folding and returns the remainder of s. The cut is at a rune boundary of s;
// folded runes may differ in byte length.
func cutFoldPrefix(s, prefix string) (string, bool) {
	i := 0
	for _, pr := range prefix {
		if i >= len(s) {
			return "", false
		}
		sr, size := utf8.DecodeRuneInString(s[i:])
		if sr != pr && !strings.EqualFold(string(sr), string(pr)) {
			return "", false
		}
		i += size
	}
	return s[i:], true
}

// DirectoryOf returns the directory portion of a picked file's relative
// path, e.g. "Alice/winter/idle.png" yields "Alice/winter". A path with a
// single segment is returned as is.
func DirectoryOf(relPath string) string {
	if relPath == "" {
		return ""
	}
	i := strings.LastIndex(relPath, "/")
	if i < 0 {
		return relPath
	}
	return relPath[:i]
}
