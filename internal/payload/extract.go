package payload

import (
	"strings"
)

// Details is what a rendered-message event tells us about the message.
type Details struct {
	Text   string
	IsUser bool
	Key    string
	ID     float64
	HasID  bool
}

// Signature identifies a logical message for de-duplication. Preference is
// the host key, then the numeric id, then the trimmed text. Empty means the
// message cannot be identified.
func (d Details) Signature() string {
	if d.Key != "" {
		return d.Key
	}
	if d.HasID {
		return "id:" + FormatNumber(d.ID)
	}
	return strings.TrimSpace(d.Text)
}

var (
	textFields   = []string{"mes", "text", "message"}
	keyFields    = []string{"key", "bufKey", "messageKey"}
	idFields     = []string{"id", "mesId", "messageId"}
	nestedFields = []string{"message", "data", "payload", "detail", "result", "output", "content", "response", "entry"}

	refStringFields = []string{"bufKey", "key", "messageKey", "generationType", "streamKey"}
	refNumberFields = []string{"messageId", "mesId", "id"}
	tokenFields     = []string{"token", "text", "value"}
)

// ExtractMessage searches args in order for the first message-like value
// carrying non-blank text. The boolean is false when nothing qualifies.
func ExtractMessage(args []*Value) (Details, bool) {
	visited := map[*Value]bool{}
	for _, arg := range args {
		if d, ok := findMessage(arg, visited); ok && strings.TrimSpace(d.Text) != "" {
			return d, true
		}
	}
	return Details{}, false
}

func findMessage(v *Value, visited map[*Value]bool) (Details, bool) {
	switch v.Kind() {
	case String:
		if strings.TrimSpace(v.s) == "" {
			return Details{}, false
		}
		return Details{Text: v.s}, true
	case Array, Object:
	default:
		return Details{}, false
	}

	if visited[v] {
		return Details{}, false
	}
	visited[v] = true

	if v.kind == Array {
		for _, item := range v.items {
			if d, ok := findMessage(item, visited); ok && d.Text != "" {
				return d, true
			}
		}
		return Details{}, false
	}

	own := Details{
		Text:   firstString(v, textFields),
		IsUser: isUser(v),
		Key:    firstString(v, keyFields),
	}
	own.ID, own.HasID = firstFinite(v, idFields)

	if strings.TrimSpace(own.Text) != "" {
		return own, true
	}

	for _, name := range nestedFields {
		nested := v.Field(name)
		if !traversable(nested) {
			continue
		}
		d, ok := findMessage(nested, visited)
		if !ok || d.Text == "" {
			continue
		}
		// The nested message decides is-user; key and id fall back to the
		// enclosing object.
		if d.Key == "" {
			d.Key = own.Key
		}
		if !d.HasID {
			d.ID, d.HasID = own.ID, own.HasID
		}
		return d, true
	}

	for _, k := range v.keys {
		nested := v.fields[k]
		if !traversable(nested) {
			continue
		}
		if d, ok := findMessage(nested, visited); ok && d.Text != "" {
			return d, true
		}
	}
	return Details{}, false
}

// traversable rejects null, falsy scalars and opaque host values.
func traversable(v *Value) bool {
	return v.Kind() != Opaque && v.Truthy()
}

func isUser(v *Value) bool {
	for _, name := range []string{"is_user", "isUser"} {
		if f := v.Field(name); !f.IsNull() {
			return f.Truthy()
		}
	}
	role, ok := v.Field("role").Str()
	return ok && strings.ToLower(role) == "user"
}

// firstString returns the first field in names holding a string, even an
// empty one.
func firstString(v *Value, names []string) string {
	for _, name := range names {
		if s, ok := v.Field(name).Str(); ok {
			return s
		}
	}
	return ""
}

func firstFinite(v *Value, names []string) (float64, bool) {
	for _, name := range names {
		if n, ok := v.Field(name).FiniteNum(); ok {
			return n, true
		}
	}
	return 0, false
}

// StreamReference derives the key of the stream an event belongs to.
// Numbers become "m<n>", non-blank strings are trimmed, objects are probed
// for string keys, then numeric ids, then a nested message object.
func StreamReference(args []*Value) string {
	for _, arg := range args {
		if ref := streamRef(arg, map[*Value]bool{}); ref != "" {
			return ref
		}
	}
	return ""
}

// TokenReference derives the stream key for a token event. Bare string
// arguments are token text there, never a reference, so only numbers and
// objects are considered.
func TokenReference(args []*Value) string {
	for _, arg := range args {
		if arg.Kind() == String {
			continue
		}
		if ref := streamRef(arg, map[*Value]bool{}); ref != "" {
			return ref
		}
	}
	return ""
}

func streamRef(v *Value, visited map[*Value]bool) string {
	switch v.Kind() {
	case Number:
		if n, ok := v.FiniteNum(); ok {
			return "m" + FormatNumber(n)
		}
	case String:
		return strings.TrimSpace(v.s)
	case Object:
		if visited[v] {
			return ""
		}
		visited[v] = true
		for _, name := range refStringFields {
			if s, ok := v.Field(name).Str(); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		for _, name := range refNumberFields {
			if n, ok := v.Field(name).FiniteNum(); ok {
				return "m" + FormatNumber(n)
			}
		}
		if msg := v.Field("message"); msg.Kind() == Object {
			return streamRef(msg, visited)
		}
	}
	return ""
}

// TokenText pulls the streamed token out of a token event. Hosts send
// either (index, token), an object with token/text/value, or the bare
// token string somewhere in the argument list.
func TokenText(args []*Value) string {
	if len(args) == 0 {
		return ""
	}
	first := args[0]
	switch first.Kind() {
	case Number:
		if len(args) < 2 || args[1].IsNull() {
			return ""
		}
		return args[1].Text()
	case Object, Array:
		for _, name := range tokenFields {
			if f := first.Field(name); !f.IsNull() {
				return f.Text()
			}
		}
	}
	for _, arg := range args {
		if s, ok := arg.Str(); ok && s != "" {
			return s
		}
	}
	return ""
}
