package profile

import (
	"strconv"
	"strings"
)

// NormalizeName collapses whitespace runs to single spaces and trims.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// UniqueName returns desired (normalized) if no profile uses it, otherwise
// the first free "desired N" with N >= 2. Blank input becomes the default
// profile name. Comparison is exact.
func UniqueName(set *ProfileSet, desired string) string {
	name := NormalizeName(desired)
	if name == "" {
		name = DefaultProfileName
	}
	if set == nil || !set.Has(name) {
		return name
	}
	for n := 2; ; n++ {
		candidate := name + " " + strconv.Itoa(n)
		if !set.Has(candidate) {
			return candidate
		}
	}
}
