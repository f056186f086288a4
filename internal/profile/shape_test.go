package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestEnsureSettingsShapeDefaults(t *testing.T) {
	for _, in := range []any{nil, "garbage", 42, []any{1, 2}, []byte(`{not json`), []byte(`{}`), map[string]any{}} {
		s := EnsureSettingsShape(in)
		assert.False(t, s.Enabled)
		assert.Equal(t, SchemaVersion, s.Version)
		assert.Equal(t, []string{DefaultProfileName}, s.Profiles.Names())
		assert.Equal(t, DefaultProfileName, s.ActiveProfile)
		require.NotNil(t, s.Active())
		assert.Empty(t, s.Active().Triggers)
	}
}

func TestEnsureSettingsShapeRepairs(t *testing.T) {
	t.Run("profiles as array", func(t *testing.T) {
		s := EnsureSettingsShape([]byte(`{"enabled":true,"profiles":[{"baseFolder":"x"}],"activeProfile":"x"}`))
		assert.True(t, s.Enabled)
		assert.Equal(t, []string{DefaultProfileName}, s.Profiles.Names())
		assert.Equal(t, DefaultProfileName, s.ActiveProfile)
	})

	t.Run("invalid enabled", func(t *testing.T) {
		s := EnsureSettingsShape([]byte(`{"enabled":"yes"}`))
		assert.False(t, s.Enabled)
	})

	t.Run("active falls back to first key", func(t *testing.T) {
		s := EnsureSettingsShape([]byte(`{"profiles":{"Zed":{},"Amy":{}},"activeProfile":"Gone"}`))
		assert.Equal(t, []string{"Zed", "Amy"}, s.Profiles.Names())
		assert.Equal(t, "Zed", s.ActiveProfile)
	})

	t.Run("active name is normalized", func(t *testing.T) {
		s := EnsureSettingsShape([]byte(`{"profiles":{"My  Look":{}},"activeProfile":"  My Look "}`))
		assert.Equal(t, []string{"My Look"}, s.Profiles.Names())
		assert.Equal(t, "My Look", s.ActiveProfile)
	})

	t.Run("blank and colliding names", func(t *testing.T) {
		s := EnsureSettingsShape([]byte(`{"profiles":{"   ":{},"A":{}," A ":{"baseFolder":"b"}}}`))
		assert.Equal(t, []string{"A", "A 2"}, s.Profiles.Names())
		assert.Equal(t, "b", s.Profiles.Get("A 2").BaseFolder)
	})

	t.Run("empty profile map", func(t *testing.T) {
		s := EnsureSettingsShape([]byte(`{"profiles":{},"activeProfile":"x","version":1}`))
		assert.Equal(t, []string{DefaultProfileName}, s.Profiles.Names())
		assert.Equal(t, SchemaVersion, s.Version)
	})

	t.Run("malformed profile bodies", func(t *testing.T) {
		s := EnsureSettingsShape([]byte(`{"profiles":{"P":{"baseFolder":5,"variants":"nope","triggers":[7,{"trigger":"  x "},null]}}}`))
		p := s.Profiles.Get("P")
		require.NotNil(t, p)
		assert.Equal(t, "", p.BaseFolder)
		assert.Empty(t, p.Variants)
		require.Len(t, p.Triggers, 3)
		assert.Equal(t, TriggerEntry{Trigger: "", Triggers: []string{}}, p.Triggers[0])
		assert.Equal(t, []string{"x"}, p.Triggers[1].Triggers)
		assert.Equal(t, TriggerEntry{Triggers: []string{}}, p.Triggers[2])
	})
}

func TestEnsureSettingsShapeIdempotent(t *testing.T) {
	inputs := []any{
		nil,
		[]byte(`{}`),
		[]byte(`{"enabled":null,"profiles":null,"activeProfile":null}`),
		[]byte(`{"enabled":true,"profiles":{"B":{"baseFolder":" looks ","triggers":[{"triggers":["a","a"," b "],"folder":" f "}],"variants":[{"name":1,"folder":true}]},"A":{}},"activeProfile":"A"}`),
		map[string]any{"profiles": map[string]any{"x": map[string]any{"triggers": []any{"solo"}}}},
		DefaultSettings(),
	}
	for _, in := range inputs {
		once := EnsureSettingsShape(in)
		twice := EnsureSettingsShape(once)
		assert.Equal(t, mustJSON(t, once), mustJSON(t, twice))
	}
}

func TestSettingsJSONRoundTrip(t *testing.T) {
	src := []byte(`{"enabled":true,"profiles":{"Second":{"baseFolder":"b","variants":[],"triggers":[]},"First":{"baseFolder":"a","variants":[],"triggers":[]}},"activeProfile":"First","version":2}`)
	var s Settings
	require.NoError(t, json.Unmarshal(src, &s))
	assert.Equal(t, []string{"Second", "First"}, s.Profiles.Names())
	assert.JSONEq(t, string(src), mustJSON(t, &s))
	assert.Equal(t, string(src), mustJSON(t, &s))
}

func TestNormalizeTriggerEntry(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want TriggerEntry
	}{
		{"single trigger", map[string]any{"trigger": "winter", "folder": "cold"},
			TriggerEntry{Trigger: "winter", Triggers: []string{"winter"}, Folder: "cold"}},
		{"list wins", map[string]any{"trigger": "old", "triggers": []any{"new", "other"}},
			TriggerEntry{Trigger: "new", Triggers: []string{"new", "other"}}},
		{"empty list falls back", map[string]any{"trigger": "old", "triggers": []any{" ", ""}},
			TriggerEntry{Trigger: "old", Triggers: []string{"old"}}},
		{"dedup is case sensitive", map[string]any{"triggers": []any{"A", "a", "A", " a "}},
			TriggerEntry{Trigger: "A", Triggers: []string{"A", "a"}}},
		{"folder untouched", map[string]any{"trigger": "x", "folder": ` \odd//path `},
			TriggerEntry{Trigger: "x", Triggers: []string{"x"}, Folder: ` \odd//path `}},
		{"bare string", "rain",
			TriggerEntry{Trigger: "rain", Triggers: []string{"rain"}}},
		{"nothing", nil, TriggerEntry{Triggers: []string{}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeTriggerEntry(tc.in))
		})
	}
}

func TestNormalizeVariantEntry(t *testing.T) {
	assert.Equal(t, Variant{Name: "Winter", Folder: "w"}, NormalizeVariantEntry(map[string]any{"name": "Winter", "folder": "w"}))
	assert.Equal(t, Variant{Name: "3", Folder: ""}, NormalizeVariantEntry(map[string]any{"name": 3, "folder": []any{}}))
	assert.Equal(t, Variant{}, NormalizeVariantEntry("nope"))
}

func TestUniqueName(t *testing.T) {
	var set ProfileSet
	set.Set("Default", &Profile{})
	assert.Equal(t, "Default 2", UniqueName(&set, "Default"))
	set.Set("Default 2", &Profile{})
	assert.Equal(t, "Default 3", UniqueName(&set, " Default "))
	assert.Equal(t, "default", UniqueName(&set, "default"))
	assert.Equal(t, "Default 3", UniqueName(&set, ""))
	assert.Equal(t, "New Look", UniqueName(&set, "New \t  Look"))
}

func TestProfileClone(t *testing.T) {
	p := &Profile{
		BaseFolder: "b",
		Variants:   []Variant{{Name: "v", Folder: "f"}},
		Triggers:   []TriggerEntry{{Trigger: "t", Triggers: []string{"t"}, Folder: "x"}},
	}
	c := p.Clone()
	c.Variants[0].Name = "changed"
	c.Triggers[0].Triggers[0] = "changed"
	assert.Equal(t, "v", p.Variants[0].Name)
	assert.Equal(t, "t", p.Triggers[0].Triggers[0])
}
