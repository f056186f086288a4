package profile

import (
	"encoding/json"
	"strings"

	"github.com/neboloop/outfitswitch/internal/payload"
)

const (
	// DefaultProfileName names the profile created when none exist.
	DefaultProfileName = "Default"

	// SchemaVersion is the current settings schema tag.
	SchemaVersion = 2
)

// DefaultSettings returns disabled settings holding one empty profile.
func DefaultSettings() *Settings {
	s := &Settings{ActiveProfile: DefaultProfileName, Version: SchemaVersion}
	s.Profiles.Set(DefaultProfileName, EnsureProfileShape(nil))
	return s
}

// toValue accepts anything settings may have been stored as: raw JSON,
// a decoded tree, typed settings or plain Go maps. Undecodable JSON reads
// as null.
func toValue(candidate any) *payload.Value {
	switch c := candidate.(type) {
	case nil:
		return payload.NewNull()
	case *payload.Value:
		if c == nil {
			return payload.NewNull()
		}
		return c
	case []byte:
		return parseOrNull(c)
	case json.RawMessage:
		return parseOrNull(c)
	case *Settings:
		if c == nil {
			return payload.NewNull()
		}
		return settingsValue(c)
	case Settings:
		return settingsValue(&c)
	case *Profile:
		if c == nil {
			return payload.NewNull()
		}
		return profileValue(c)
	case Profile:
		return profileValue(&c)
	}
	return payload.FromAny(candidate)
}

func parseOrNull(data []byte) *payload.Value {
	v, err := payload.Parse(data)
	if err != nil {
		return payload.NewNull()
	}
	return v
}

func settingsValue(s *Settings) *payload.Value {
	data, err := json.Marshal(s)
	if err != nil {
		return payload.NewNull()
	}
	return parseOrNull(data)
}

func profileValue(p *Profile) *payload.Value {
	data, err := json.Marshal(p)
	if err != nil {
		return payload.NewNull()
	}
	return parseOrNull(data)
}

// EnsureProfileShape returns a well-formed profile built from candidate.
// Missing or malformed fields take their empty defaults and every variant
// and trigger entry is normalized rather than dropped.
func EnsureProfileShape(candidate any) *Profile {
	v := toValue(candidate)
	p := &Profile{
		Variants: []Variant{},
		Triggers: []TriggerEntry{},
	}
	if v.Kind() != payload.Object {
		return p
	}
	if base, ok := v.Field("baseFolder").Str(); ok {
		p.BaseFolder = strings.TrimSpace(base)
	}
	for _, item := range v.Field("variants").Items() {
		p.Variants = append(p.Variants, NormalizeVariantEntry(item))
	}
	for _, item := range v.Field("triggers").Items() {
		p.Triggers = append(p.Triggers, NormalizeTriggerEntry(item))
	}
	return p
}

// EnsureSettingsShape coerces any input into valid settings. It never
// fails: garbage degrades to DefaultSettings, and running it on its own
// output changes nothing.
func EnsureSettingsShape(candidate any) *Settings {
	v := toValue(candidate)
	s := &Settings{Version: SchemaVersion}
	if v.Kind() != payload.Object {
		return DefaultSettings()
	}

	if enabled, ok := v.Field("enabled").BoolVal(); ok {
		s.Enabled = enabled
	}

	if profiles := v.Field("profiles"); profiles.Kind() == payload.Object {
		for _, raw := range profiles.Keys() {
			name := NormalizeName(raw)
			if name == "" {
				continue
			}
			s.Profiles.Set(UniqueName(&s.Profiles, name), EnsureProfileShape(profiles.Field(raw)))
		}
	}
	if s.Profiles.Len() == 0 {
		s.Profiles.Set(DefaultProfileName, EnsureProfileShape(nil))
	}

	active, _ := v.Field("activeProfile").Str()
	active = NormalizeName(active)
	if !s.Profiles.Has(active) {
		active = s.Profiles.First()
	}
	s.ActiveProfile = active
	return s
}

// NormalizeTriggerEntry accepts a single trigger string, a triggers list,
// or both, and returns an entry whose Triggers are trimmed, non-blank and
// free of exact duplicates. Folder is kept as written. A bare string entry
// is read as a trigger with no folder.
func NormalizeTriggerEntry(entry any) TriggerEntry {
	v := toValue(entry)
	out := TriggerEntry{Triggers: []string{}}

	var candidates []*payload.Value
	switch v.Kind() {
	case payload.String:
		candidates = []*payload.Value{v}
	case payload.Object:
		list := v.Field("triggers")
		switch list.Kind() {
		case payload.Array:
			candidates = list.Items()
		case payload.String:
			candidates = []*payload.Value{list}
		}
		if len(triggerStrings(candidates)) == 0 {
			candidates = []*payload.Value{v.Field("trigger")}
		}
		out.Folder = scalarText(v.Field("folder"))
	}

	out.Triggers = triggerStrings(candidates)
	if len(out.Triggers) > 0 {
		out.Trigger = out.Triggers[0]
	}
	return out
}

func triggerStrings(values []*payload.Value) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, item := range values {
		var s string
		switch item.Kind() {
		case payload.String, payload.Number:
			s = strings.TrimSpace(item.Text())
		default:
			continue
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// NormalizeVariantEntry coerces name and folder to strings.
func NormalizeVariantEntry(entry any) Variant {
	v := toValue(entry)
	return Variant{
		Name:   scalarText(v.Field("name")),
		Folder: scalarText(v.Field("folder")),
	}
}

// scalarText stringifies strings, numbers and booleans; anything else is "".
func scalarText(v *payload.Value) string {
	switch v.Kind() {
	case payload.String, payload.Number, payload.Bool:
		return v.Text()
	}
	return ""
}
