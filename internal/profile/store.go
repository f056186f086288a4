package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/neboloop/outfitswitch/internal/payload"
)

var (
	ErrLastProfile     = errors.New("keep at least one profile available")
	ErrProfileNotFound = errors.New("profile not found")
	ErrNameTaken       = errors.New("a profile with that name already exists")
	ErrEmptyName       = errors.New("enter a profile name to continue")
	ErrNameUnchanged   = errors.New("profile name unchanged")
	ErrInvalidImport   = errors.New("unable to import that profile file")
	ErrIndexOutOfRange = errors.New("entry index out of range")
)

// Change keys, also used as auto-save reasons.
const (
	KeyEnabled       = "enabled"
	KeyBaseFolder    = "baseFolder"
	KeyVariants      = "variants"
	KeyTriggers      = "triggers"
	KeyProfiles      = "profiles"
	KeyActiveProfile = "activeProfile"
	KeySettings      = "settings"
)

// Backend persists settings.
type Backend interface {
	Load(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// Change describes a mutation. Persisted is true when the store already
// wrote the result to the backend; otherwise a save is still owed.
type Change struct {
	Key       string
	Persisted bool
}

// ChangeCallback is called after each mutation.
type ChangeCallback func(Change)

// Store owns the live settings. Structural operations (switching, creating,
// renaming, deleting profiles) flush pending edits, mutate and persist
// immediately; field edits only notify so an auto-saver can batch them.
type Store struct {
	backend Backend

	mu        sync.RWMutex
	settings  *Settings
	flusher   func()
	callbacks []ChangeCallback
}

// NewStore wraps backend, starting from default settings until Load is called.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, settings: DefaultSettings()}
}

// Load replaces the live settings with the backend's copy.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	s.Replace(loaded)
	return nil
}

// Replace swaps in new settings, repairing them first.
func (s *Store) Replace(settings *Settings) {
	repaired := EnsureSettingsShape(settings)
	s.mu.Lock()
	s.settings = repaired
	s.mu.Unlock()
	s.notify(Change{Key: KeySettings, Persisted: true})
}

// Persist writes a repaired copy of the live settings to the backend.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	s.settings = EnsureSettingsShape(s.settings)
	snapshot := s.settings.Clone()
	s.mu.Unlock()

	if err := s.backend.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SetFlusher installs the hook run before any operation that changes which
// profile is active, so pending edits land on the profile they were made to.
func (s *Store) SetFlusher(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flusher = fn
}

// OnChange registers a callback fired after every mutation.
func (s *Store) OnChange(cb ChangeCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	cbs := make([]ChangeCallback, len(s.callbacks))
	copy(cbs, s.callbacks)
	s.mu.RUnlock()

	for _, cb := range cbs {
		cb(c)
	}
}

func (s *Store) flushPending() {
	s.mu.RLock()
	fn := s.flusher
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// View runs fn with read access to the live settings. fn must not retain
// or modify them.
func (s *Store) View(fn func(*Settings)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.settings)
}

// Snapshot returns a deep copy of the live settings.
func (s *Store) Snapshot() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

func (s *Store) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Enabled
}

// ActiveName returns the active profile name.
func (s *Store) ActiveName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.ActiveProfile
}

// ActiveProfile returns a copy of the active profile.
func (s *Store) ActiveProfile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Active().Clone()
}

// Names lists profile names in stored order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Profiles.Names()
}

// Profile returns a copy of the named profile.
func (s *Store) Profile(name string) (*Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.settings.Profiles.Get(name)
	return p.Clone(), p != nil
}

// SetActive switches to the named profile. It reports false when the
// profile was already active.
func (s *Store) SetActive(ctx context.Context, name string) (bool, error) {
	normalized := NormalizeName(name)

	s.mu.RLock()
	exists := normalized != "" && s.settings.Profiles.Has(normalized)
	current := s.settings.ActiveProfile
	s.mu.RUnlock()

	if !exists {
		return false, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	if current == normalized {
		return false, nil
	}

	s.flushPending()
	s.mu.Lock()
	s.settings.ActiveProfile = normalized
	s.mu.Unlock()
	return true, s.commit(ctx, KeyActiveProfile)
}

// Create adds a profile built from template (nil for an empty one) under a
// unique variant of name and makes it active. It returns the name used.
func (s *Store) Create(ctx context.Context, name string, template *Profile) (string, error) {
	s.flushPending()

	profile := EnsureProfileShape(template)
	s.mu.Lock()
	unique := UniqueName(&s.settings.Profiles, name)
	s.settings.Profiles.Set(unique, profile)
	s.settings.ActiveProfile = unique
	s.mu.Unlock()

	return unique, s.commit(ctx, KeyProfiles)
}

// DuplicateName is the suggested name for a copy of the active profile.
func (s *Store) DuplicateName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return UniqueName(&s.settings.Profiles, s.settings.ActiveProfile+" Copy")
}

// Duplicate deep-copies the active profile under name, or under
// "<active> Copy" when name is blank, and switches to the copy.
func (s *Store) Duplicate(ctx context.Context, name string) (string, error) {
	if NormalizeName(name) == "" {
		name = s.DuplicateName()
	}
	return s.Create(ctx, name, s.ActiveProfile())
}

// Rename gives the active profile a new name. The renamed profile moves to
// the end of the stored order.
func (s *Store) Rename(ctx context.Context, newName string) (string, error) {
	desired := NormalizeName(newName)
	if desired == "" {
		return "", ErrEmptyName
	}

	s.mu.RLock()
	active := s.settings.ActiveProfile
	taken := s.settings.Profiles.Has(desired)
	s.mu.RUnlock()

	if desired == active {
		return active, ErrNameUnchanged
	}
	if taken {
		return "", fmt.Errorf("%w: %q", ErrNameTaken, desired)
	}

	s.flushPending()
	s.mu.Lock()
	p := s.settings.Profiles.Get(active)
	s.settings.Profiles.Delete(active)
	s.settings.Profiles.Set(desired, p)
	s.settings.ActiveProfile = desired
	s.mu.Unlock()

	return desired, s.commit(ctx, KeyProfiles)
}

// Delete removes the active profile and activates the first remaining one.
// It refuses to remove the last profile and leaves the settings untouched
// in that case.
func (s *Store) Delete(ctx context.Context) (deleted, active string, err error) {
	s.mu.RLock()
	count := s.settings.Profiles.Len()
	deleted = s.settings.ActiveProfile
	s.mu.RUnlock()

	if count <= 1 {
		return "", deleted, ErrLastProfile
	}

	s.flushPending()
	s.mu.Lock()
	s.settings.Profiles.Delete(deleted)
	s.settings.ActiveProfile = s.settings.Profiles.First()
	active = s.settings.ActiveProfile
	s.mu.Unlock()

	return deleted, active, s.commit(ctx, KeyProfiles)
}

// Export is the portable form of a single profile.
type Export struct {
	Name    string   `json:"name"`
	Profile *Profile `json:"profile"`
	Version int      `json:"version"`
}

// Export serializes the active profile after flushing pending edits.
func (s *Store) Export() (Export, []byte, error) {
	s.flushPending()

	s.mu.RLock()
	exp := Export{
		Name:    s.settings.ActiveProfile,
		Profile: s.settings.Active().Clone(),
		Version: s.settings.Version,
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return exp, nil, fmt.Errorf("export profile: %w", err)
	}
	return exp, data, nil
}

var unsafeFileChars = regexp.MustCompile(`(?i)[^a-z0-9\-_]+`)

// ExportFileName derives a download file name from a profile name.
func ExportFileName(name string) string {
	safe := unsafeFileChars.ReplaceAllString(name, "_")
	if safe == "" {
		safe = "outfit_profile"
	}
	return safe + ".json"
}

// Import creates a profile from an exported file. The profile is read from
// a "profile" or "data" wrapper, or the document itself; its name from
// "name", "profileName", then fileName without extension. The imported
// profile becomes active.
func (s *Store) Import(ctx context.Context, data []byte, fileName string) (string, error) {
	doc, err := payload.Parse(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	body := doc
	for _, wrapper := range []string{"profile", "data"} {
		if f := doc.Field(wrapper); f.Truthy() {
			body = f
			break
		}
	}
	if k := body.Kind(); k != payload.Object && k != payload.Array {
		return "", ErrInvalidImport
	}

	name := ""
	for _, field := range []string{"name", "profileName"} {
		if f := doc.Field(field); f.Truthy() && f.Kind() != payload.Object && f.Kind() != payload.Array {
			name = f.Text()
			break
		}
	}
	if name == "" && fileName != "" {
		base := filepath.Base(fileName)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if NormalizeName(name) == "" {
		name = "Imported Profile"
	}

	return s.Create(ctx, name, EnsureProfileShape(body))
}

// commit persists after a structural change and notifies listeners.
func (s *Store) commit(ctx context.Context, key string) error {
	err := s.Persist(ctx)
	s.notify(Change{Key: key, Persisted: err == nil})
	return err
}

// edit applies fn to the active profile under the write lock and announces
// an unsaved change.
func (s *Store) edit(key string, fn func(p *Profile) error) error {
	s.mu.Lock()
	p := s.settings.Active()
	if p == nil {
		s.settings = EnsureSettingsShape(s.settings)
		p = s.settings.Active()
	}
	err := fn(p)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify(Change{Key: key})
	return nil
}

// SetEnabled toggles automatic switching.
func (s *Store) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.settings.Enabled = enabled
	s.mu.Unlock()
	s.notify(Change{Key: KeyEnabled})
}

// SetBaseFolder sets the active profile's base folder (trimmed).
func (s *Store) SetBaseFolder(folder string) {
	_ = s.edit(KeyBaseFolder, func(p *Profile) error {
		p.BaseFolder = strings.TrimSpace(folder)
		return nil
	})
}

// AddTrigger appends a normalized entry and returns its index.
func (s *Store) AddTrigger(entry TriggerEntry) int {
	idx := 0
	_ = s.edit(KeyTriggers, func(p *Profile) error {
		p.Triggers = append(p.Triggers, NormalizeTriggerEntry(entry))
		idx = len(p.Triggers) - 1
		return nil
	})
	return idx
}

// UpdateTrigger replaces the entry at index.
func (s *Store) UpdateTrigger(index int, entry TriggerEntry) error {
	return s.edit(KeyTriggers, func(p *Profile) error {
		if index < 0 || index >= len(p.Triggers) {
			return fmt.Errorf("%w: trigger %d", ErrIndexOutOfRange, index)
		}
		p.Triggers[index] = NormalizeTriggerEntry(entry)
		return nil
	})
}

// RemoveTrigger deletes the entry at index.
func (s *Store) RemoveTrigger(index int) error {
	return s.edit(KeyTriggers, func(p *Profile) error {
		if index < 0 || index >= len(p.Triggers) {
			return fmt.Errorf("%w: trigger %d", ErrIndexOutOfRange, index)
		}
		p.Triggers = append(p.Triggers[:index], p.Triggers[index+1:]...)
		return nil
	})
}

// SetTriggers replaces the active profile's trigger list.
func (s *Store) SetTriggers(entries []TriggerEntry) {
	_ = s.edit(KeyTriggers, func(p *Profile) error {
		p.Triggers = make([]TriggerEntry, 0, len(entries))
		for _, e := range entries {
			p.Triggers = append(p.Triggers, NormalizeTriggerEntry(e))
		}
		return nil
	})
}

// AddVariant appends a variant and returns its index.
func (s *Store) AddVariant(v Variant) int {
	idx := 0
	_ = s.edit(KeyVariants, func(p *Profile) error {
		p.Variants = append(p.Variants, v)
		idx = len(p.Variants) - 1
		return nil
	})
	return idx
}

// UpdateVariant replaces the variant at index.
func (s *Store) UpdateVariant(index int, v Variant) error {
	return s.edit(KeyVariants, func(p *Profile) error {
		if index < 0 || index >= len(p.Variants) {
			return fmt.Errorf("%w: variant %d", ErrIndexOutOfRange, index)
		}
		p.Variants[index] = v
		return nil
	})
}

// RemoveVariant deletes the variant at index.
func (s *Store) RemoveVariant(index int) error {
	return s.edit(KeyVariants, func(p *Profile) error {
		if index < 0 || index >= len(p.Variants) {
			return fmt.Errorf("%w: variant %d", ErrIndexOutOfRange, index)
		}
		p.Variants = append(p.Variants[:index], p.Variants[index+1:]...)
		return nil
	})
}

// SetVariants replaces the active profile's variant list.
func (s *Store) SetVariants(variants []Variant) {
	_ = s.edit(KeyVariants, func(p *Profile) error {
		p.Variants = append([]Variant{}, variants...)
		return nil
	})
}
