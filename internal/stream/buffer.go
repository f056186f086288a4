// Package stream keeps the tail of streamed token text for re-matching.
package stream

import "unicode/utf8"

// DefaultLimit bounds the buffer in characters.
const DefaultLimit = 2000

// BuildBuffer appends token to previous and keeps at most limit characters
// from the end. A non-positive limit yields "".
func BuildBuffer(previous, token string, limit int) string {
	if limit <= 0 {
		return ""
	}
	combined := previous + token
	n := utf8.RuneCountInString(combined)
	if n <= limit {
		return combined
	}
	skip := n - limit
	for i := range combined {
		if skip == 0 {
			return combined[i:]
		}
		skip--
	}
	return ""
}
