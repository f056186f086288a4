// Package trigger decides which costume a piece of text asks for.
//
// A trigger string is either a case-insensitive keyword, matched as a
// substring, or a /pattern/ (optionally /pattern/flags) regular expression,
// always matched case-insensitively. Entries are tried in stored order and
// the first hit wins; there is no longest-match tie-break.
package trigger

import (
	"regexp"
	"strings"
	"sync"

	"github.com/neboloop/outfitswitch/internal/costume"
	"github.com/neboloop/outfitswitch/internal/profile"
)

// Kind tags how a trigger string is matched.
type Kind int

const (
	Literal Kind = iota
	Pattern
	// Invalid is a /pattern/ that failed to compile. It never matches.
	Invalid
)

// Trigger is a parsed trigger string.
type Trigger struct {
	Raw  string
	Kind Kind

	needle string
	re     *regexp.Regexp
}

const maxCachedPatterns = 256

// patternCache holds compiled expressions, nil for ones that failed to
// compile. When full, the oldest entry is evicted.
type patternCache struct {
	mu      sync.Mutex
	entries map[string]*regexp.Regexp
	order   [maxCachedPatterns]string
	head    int
}

var patterns = &patternCache{entries: make(map[string]*regexp.Regexp)}

func (c *patternCache) load(expr string) (*regexp.Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	re, ok := c.entries[expr]
	return re, ok
}

func (c *patternCache) store(expr string, re *regexp.Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[expr]; ok {
		return
	}
	if len(c.entries) >= maxCachedPatterns {
		delete(c.entries, c.order[c.head])
	}
	c.entries[expr] = re
	c.order[c.head] = expr
	c.head = (c.head + 1) % maxCachedPatterns
}

func (c *patternCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Compile parses raw into a Literal or Pattern trigger.
func Compile(raw string) Trigger {
	t := Trigger{Raw: raw}
	trimmed := strings.TrimSpace(raw)

	source, flags, ok := splitPattern(trimmed)
	if !ok {
		t.Kind = Literal
		t.needle = strings.ToLower(trimmed)
		return t
	}

	expr := "(?i" + flags + ")" + source
	if re, hit := patterns.load(expr); hit {
		return withPattern(t, re)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	patterns.store(expr, re)
	return withPattern(t, re)
}

func withPattern(t Trigger, re *regexp.Regexp) Trigger {
	if re == nil {
		t.Kind = Invalid
		return t
	}
	t.Kind = Pattern
	t.re = re
	return t
}

// splitPattern recognizes "/source/" and "/source/flags". Flags may be any
// of gimsuy; m and s carry over, the rest have no effect on a single test.
func splitPattern(s string) (source, flags string, ok bool) {
	if len(s) < 2 || s[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(s, '/')
	if end <= 0 {
		return "", "", false
	}
	var fl strings.Builder
	for _, r := range s[end+1:] {
		switch r {
		case 'm', 's':
			if !strings.ContainsRune(fl.String(), r) {
				fl.WriteRune(r)
			}
		case 'g', 'i', 'u', 'y':
		default:
			return "", "", false
		}
	}
	return s[1:end], fl.String(), true
}

// match reports whether text satisfies the trigger. lowered must be
// strings.ToLower(text); callers matching many triggers lower it once.
func (t Trigger) match(text, lowered string) bool {
	switch t.Kind {
	case Literal:
		return t.needle != "" && strings.Contains(lowered, t.needle)
	case Pattern:
		return t.re.MatchString(text)
	}
	return false
}

// Matches reports whether text satisfies the trigger.
func (t Trigger) Matches(text string) bool {
	return t.match(text, strings.ToLower(text))
}

// Match is the outcome of a successful lookup.
type Match struct {
	Costume string `json:"costume"`
	Trigger string `json:"trigger"`
}

// FindCostumeForText returns the first trigger in p that text satisfies,
// with the costume path composed from the profile base folder.
func FindCostumeForText(p *profile.Profile, text string) (Match, bool) {
	if p == nil || len(p.Triggers) == 0 || strings.TrimSpace(text) == "" {
		return Match{}, false
	}
	lowered := strings.ToLower(text)
	for _, entry := range p.Triggers {
		for _, raw := range entry.Strings() {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			if Compile(raw).match(text, lowered) {
				return Match{
					Costume: costume.ComposePath(p.BaseFolder, entry.Folder),
					Trigger: raw,
				}, true
			}
		}
	}
	return Match{}, false
}

// FindCostumeForTrigger looks a trigger up by name in the active profile,
// ignoring case, and returns the composed costume path.
func FindCostumeForTrigger(s *profile.Settings, name string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return "", false
	}
	p := s.Active()
	if p == nil {
		return "", false
	}
	for _, entry := range p.Triggers {
		for _, raw := range entry.Strings() {
			if strings.ToLower(strings.TrimSpace(raw)) == want {
				return costume.ComposePath(p.BaseFolder, entry.Folder), true
			}
		}
	}
	return "", false
}

// ParseList splits editor input on newlines and commas into trimmed,
// de-duplicated trigger strings.
func ParseList(text string) []string {
	out := []string{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	seen := map[string]bool{}
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == ',' })
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
