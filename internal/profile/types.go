package profile

// Variant is a user-labeled quick-switch folder. Names need not be unique.
type Variant struct {
	Name   string `json:"name"`
	Folder string `json:"folder"`
}

// TriggerEntry maps one or more trigger strings to a folder relative to the
// profile base folder. Trigger mirrors Triggers[0] when Triggers is non-empty.
type TriggerEntry struct {
	Trigger  string   `json:"trigger"`
	Triggers []string `json:"triggers"`
	Folder   string   `json:"folder"`
}

// Strings returns the trigger strings the entry matches on: Triggers when
// non-empty, otherwise the single Trigger, otherwise nothing.
func (e TriggerEntry) Strings() []string {
	if len(e.Triggers) > 0 {
		return e.Triggers
	}
	if e.Trigger != "" {
		return []string{e.Trigger}
	}
	return nil
}

// Profile is a named bundle of base folder, variants and triggers.
// Trigger order is match priority.
type Profile struct {
	BaseFolder string         `json:"baseFolder"`
	Variants   []Variant      `json:"variants"`
	Triggers   []TriggerEntry `json:"triggers"`
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := &Profile{
		BaseFolder: p.BaseFolder,
		Variants:   make([]Variant, len(p.Variants)),
		Triggers:   make([]TriggerEntry, len(p.Triggers)),
	}
	copy(out.Variants, p.Variants)
	for i, t := range p.Triggers {
		t.Triggers = append([]string(nil), t.Triggers...)
		if t.Triggers == nil {
			t.Triggers = []string{}
		}
		out.Triggers[i] = t
	}
	return out
}

// Settings is the persisted configuration.
type Settings struct {
	Enabled       bool       `json:"enabled"`
	Profiles      ProfileSet `json:"profiles"`
	ActiveProfile string     `json:"activeProfile"`
	Version       int        `json:"version"`
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	return &Settings{
		Enabled:       s.Enabled,
		Profiles:      s.Profiles.Clone(),
		ActiveProfile: s.ActiveProfile,
		Version:       s.Version,
	}
}

// Active returns the active profile, or nil when the settings were not
// passed through EnsureSettingsShape.
func (s *Settings) Active() *Profile {
	if s == nil {
		return nil
	}
	return s.Profiles.Get(s.ActiveProfile)
}

// UnmarshalJSON repairs whatever it is given into valid settings.
func (s *Settings) UnmarshalJSON(data []byte) error {
	*s = *EnsureSettingsShape(data)
	return nil
}
