package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/status"
)

type staticSettings struct{ s *profile.Settings }

func (st staticSettings) View(fn func(*profile.Settings)) { fn(st.s) }

type fakeIssuer struct {
	paths   []string
	sources []issuer.Source
}

func (f *fakeIssuer) Issue(_ context.Context, folder string, source issuer.Source) status.Message {
	f.paths = append(f.paths, folder)
	f.sources = append(f.sources, source)
	return status.New(status.KindSuccess, "ok "+folder)
}

func newSettings(enabled bool) *profile.Settings {
	s := profile.DefaultSettings()
	s.Enabled = enabled
	p := s.Active()
	p.BaseFolder = "Alice"
	p.Variants = []profile.Variant{{Name: "Rain", Folder: "rain"}}
	p.Triggers = []profile.TriggerEntry{
		{Trigger: "cold", Triggers: []string{"cold", "freezing"}, Folder: "winter"},
		{Trigger: "empty", Triggers: []string{"empty"}, Folder: ""},
	}
	return s
}

func TestSlashConfig(t *testing.T) {
	cfg := SlashConfig()
	assert.Equal(t, "outfitswitch", cfg.Name)
	require.Len(t, cfg.Args, 1)
	assert.Equal(t, "trigger", cfg.Args[0].Name)
	assert.Empty(t, cfg.Aliases)
	assert.NotEmpty(t, cfg.Description)
}

func TestIsActionVerb(t *testing.T) {
	for _, w := range []string{"switch", "Change", " swap "} {
		assert.True(t, IsActionVerb(w), w)
	}
	assert.False(t, IsActionVerb("wear"))
}

func TestRunTriggerByName(t *testing.T) {
	t.Run("known trigger", func(t *testing.T) {
		iss := &fakeIssuer{}
		flushed := 0
		r := NewRunner(staticSettings{newSettings(true)}, iss, func() { flushed++ })

		msg := r.RunTriggerByName(context.Background(), "FREEZING", issuer.SourceUI)
		assert.True(t, msg.OK())
		assert.Equal(t, []string{"Alice/winter"}, iss.paths)
		assert.Equal(t, 1, flushed)
	})

	t.Run("disabled", func(t *testing.T) {
		iss := &fakeIssuer{}
		r := NewRunner(staticSettings{newSettings(false)}, iss, nil)

		msg := r.RunTriggerByName(context.Background(), "cold", issuer.SourceUI)
		assert.Equal(t, "Outfit Switcher is disabled for the focus character.", msg.Text)
		assert.Empty(t, iss.paths)
	})

	t.Run("unknown", func(t *testing.T) {
		iss := &fakeIssuer{}
		r := NewRunner(staticSettings{newSettings(true)}, iss, nil)

		msg := r.RunTriggerByName(context.Background(), "  sunny ", issuer.SourceUI)
		assert.Equal(t, `No outfit trigger named "sunny".`, msg.Text)
		assert.False(t, msg.OK())
	})
}

func TestHandleSlashJoinsArgs(t *testing.T) {
	iss := &fakeIssuer{}
	s := newSettings(true)
	s.Active().Triggers = append(s.Active().Triggers, profile.TriggerEntry{
		Trigger: "red dress", Triggers: []string{"red dress"}, Folder: "red",
	})
	r := NewRunner(staticSettings{s}, iss, nil)

	text := r.HandleSlash(context.Background(), []string{"red", "dress"})
	assert.Equal(t, "ok Alice/red", text)
	assert.Equal(t, []issuer.Source{issuer.SourceSlash}, iss.sources)

	assert.Contains(t, r.HandleSlash(context.Background(), nil), "Usage")
}

func TestRunVariantAndBase(t *testing.T) {
	iss := &fakeIssuer{}
	r := NewRunner(staticSettings{newSettings(true)}, iss, nil)

	assert.True(t, r.RunVariant(context.Background(), 0).OK())
	assert.False(t, r.RunVariant(context.Background(), 5).OK())
	assert.True(t, r.RunBase(context.Background()).OK())
	assert.Equal(t, []string{"Alice/rain", "Alice"}, iss.paths)
}
