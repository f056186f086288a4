// Package command handles manual costume switches: the outfitswitch slash
// command, named triggers, variants and the bare base folder.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/neboloop/outfitswitch/internal/costume"
	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/status"
	"github.com/neboloop/outfitswitch/internal/trigger"
)

const (
	disabledText = "Outfit Switcher is disabled for the focus character."
	unknownText  = "No outfit trigger named %q."
)

// SlashArg describes one slash command argument.
type SlashArg struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// Slash is the registration metadata for the slash command.
type Slash struct {
	Name        string     `json:"name"`
	Args        []SlashArg `json:"args"`
	Description string     `json:"description"`
	Aliases     []string   `json:"aliases"`
}

// SlashConfig returns the metadata the host registers.
func SlashConfig() Slash {
	return Slash{
		Name:        "outfitswitch",
		Args:        []SlashArg{{Name: "trigger", Required: true}},
		Description: "Manually activate an Outfit Switcher trigger by name.",
		Aliases:     []string{},
	}
}

var actionVerbs = map[string]bool{"switch": true, "change": true, "swap": true}

// IsActionVerb reports whether word is one of the verbs that read as a
// request to change outfits.
func IsActionVerb(word string) bool {
	return actionVerbs[strings.ToLower(strings.TrimSpace(word))]
}

// SettingsSource gives read access to the live settings.
type SettingsSource interface {
	View(fn func(*profile.Settings))
}

// Issuer sends a costume path to the host.
type Issuer interface {
	Issue(ctx context.Context, folder string, source issuer.Source) status.Message
}

// Runner runs manual switches. Each run flushes pending saves first so the
// switch sees the settings the user just edited.
type Runner struct {
	settings SettingsSource
	issuer   Issuer
	flush    func()
}

// NewRunner builds a runner. flush may be nil.
func NewRunner(settings SettingsSource, iss Issuer, flush func()) *Runner {
	if flush == nil {
		flush = func() {}
	}
	return &Runner{settings: settings, issuer: iss, flush: flush}
}

// RunTriggerByName looks name up in the active profile and issues its
// costume.
func (r *Runner) RunTriggerByName(ctx context.Context, name string, source issuer.Source) status.Message {
	r.flush()

	var (
		enabled bool
		path    string
		found   bool
	)
	r.settings.View(func(s *profile.Settings) {
		enabled = s.Enabled
		if enabled {
			path, found = trigger.FindCostumeForTrigger(s, name)
		}
	})

	if !enabled {
		return status.New(status.KindError, disabledText)
	}
	if !found || path == "" {
		return status.New(status.KindError, fmt.Sprintf(unknownText, strings.TrimSpace(name)))
	}
	return r.issuer.Issue(ctx, path, source)
}

// RunVariant issues the variant at index in the active profile.
func (r *Runner) RunVariant(ctx context.Context, index int) status.Message {
	r.flush()

	var (
		enabled bool
		path    string
		ok      bool
	)
	r.settings.View(func(s *profile.Settings) {
		enabled = s.Enabled
		p := s.Active()
		if p == nil || index < 0 || index >= len(p.Variants) {
			return
		}
		path = costume.ComposePath(p.BaseFolder, p.Variants[index].Folder)
		ok = true
	})

	if !enabled {
		return status.New(status.KindError, disabledText)
	}
	if !ok {
		return status.New(status.KindError, fmt.Sprintf("No variant at position %d.", index+1))
	}
	return r.issuer.Issue(ctx, path, issuer.SourceUI)
}

// RunBase issues the active profile's base folder.
func (r *Runner) RunBase(ctx context.Context) status.Message {
	r.flush()

	var (
		enabled bool
		base    string
	)
	r.settings.View(func(s *profile.Settings) {
		enabled = s.Enabled
		if p := s.Active(); p != nil {
			base = p.BaseFolder
		}
	})

	if !enabled {
		return status.New(status.KindError, disabledText)
	}
	return r.issuer.Issue(ctx, base, issuer.SourceUI)
}

// HandleSlash runs the slash command. Arguments are joined with spaces to
// form the trigger name. It returns the outcome text and never panics.
func (r *Runner) HandleSlash(ctx context.Context, args []string) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			text = fmt.Sprintf("Outfit Switcher failed: %v", rec)
		}
	}()

	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return "Usage: /outfitswitch <trigger>"
	}
	return r.RunTriggerByName(ctx, name, issuer.SourceSlash).Text
}
