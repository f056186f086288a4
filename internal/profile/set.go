package profile

import (
	"bytes"
	"encoding/json"

	"github.com/neboloop/outfitswitch/internal/payload"
)

// ProfileSet is an insertion-ordered name → profile mapping. The zero value
// is an empty set ready to use.
type ProfileSet struct {
	names    []string
	profiles map[string]*Profile
}

// Len reports the number of profiles.
func (ps *ProfileSet) Len() int { return len(ps.names) }

// Names returns profile names in order.
func (ps *ProfileSet) Names() []string {
	return append([]string(nil), ps.names...)
}

// First returns the first profile name, or "".
func (ps *ProfileSet) First() string {
	if len(ps.names) == 0 {
		return ""
	}
	return ps.names[0]
}

func (ps *ProfileSet) Has(name string) bool {
	_, ok := ps.profiles[name]
	return ok
}

func (ps *ProfileSet) Get(name string) *Profile {
	return ps.profiles[name]
}

// Set stores p under name. A new name is appended; an existing one keeps
// its position.
func (ps *ProfileSet) Set(name string, p *Profile) {
	if ps.profiles == nil {
		ps.profiles = map[string]*Profile{}
	}
	if _, ok := ps.profiles[name]; !ok {
		ps.names = append(ps.names, name)
	}
	ps.profiles[name] = p
}

// Delete removes name. It reports whether anything was removed.
func (ps *ProfileSet) Delete(name string) bool {
	if _, ok := ps.profiles[name]; !ok {
		return false
	}
	delete(ps.profiles, name)
	for i, n := range ps.names {
		if n == name {
			ps.names = append(ps.names[:i:i], ps.names[i+1:]...)
			break
		}
	}
	return true
}

// Clone deep-copies every profile.
func (ps *ProfileSet) Clone() ProfileSet {
	out := ProfileSet{
		names:    append([]string(nil), ps.names...),
		profiles: make(map[string]*Profile, len(ps.profiles)),
	}
	for name, p := range ps.profiles {
		out.profiles[name] = p.Clone()
	}
	return out
}

// MarshalJSON writes the set as a JSON object in insertion order.
func (ps ProfileSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range ps.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(ps.profiles[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order and repairing each
// profile. Non-object input yields an empty set.
func (ps *ProfileSet) UnmarshalJSON(data []byte) error {
	v, err := payload.Parse(data)
	if err != nil {
		return err
	}
	*ps = ProfileSet{}
	for _, name := range v.Keys() {
		ps.Set(name, EnsureProfileShape(v.Field(name)))
	}
	return nil
}
