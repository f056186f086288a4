package profile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	mu      sync.Mutex
	saved   *Settings
	saves   int
	saveErr error
}

func (m *memBackend) Load(context.Context) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return DefaultSettings(), nil
	}
	return m.saved.Clone(), nil
}

func (m *memBackend) Save(_ context.Context, s *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = s.Clone()
	m.saves++
	return nil
}

func newTestStore(t *testing.T, doc string) (*Store, *memBackend) {
	t.Helper()
	backend := &memBackend{}
	if doc != "" {
		backend.saved = EnsureSettingsShape([]byte(doc))
	}
	store := NewStore(backend)
	require.NoError(t, store.Load(context.Background()))
	return store, backend
}

func TestStoreDeleteGuard(t *testing.T) {
	store, backend := newTestStore(t, `{"profiles":{"Only":{"baseFolder":"x"}},"activeProfile":"Only"}`)
	flushed := 0
	store.SetFlusher(func() { flushed++ })

	_, active, err := store.Delete(context.Background())
	require.ErrorIs(t, err, ErrLastProfile)
	assert.Equal(t, "Only", active)
	assert.Equal(t, []string{"Only"}, store.Names())
	assert.Equal(t, 0, flushed)
	assert.Equal(t, 0, backend.saves)
}

func TestStoreDeleteSwitchesToFirst(t *testing.T) {
	store, backend := newTestStore(t, `{"profiles":{"A":{},"B":{},"C":{}},"activeProfile":"B"}`)
	deleted, active, err := store.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B", deleted)
	assert.Equal(t, "A", active)
	assert.Equal(t, []string{"A", "C"}, store.Names())
	assert.Equal(t, []string{"A", "C"}, backend.saved.Profiles.Names())
}

func TestStoreCreateUniqueNames(t *testing.T) {
	store, _ := newTestStore(t, "")
	ctx := context.Background()

	name, err := store.Create(ctx, "Default", nil)
	require.NoError(t, err)
	assert.Equal(t, "Default 2", name)

	name, err = store.Create(ctx, "Default", nil)
	require.NoError(t, err)
	assert.Equal(t, "Default 3", name)
	assert.Equal(t, "Default 3", store.ActiveName())
}

func TestStoreFlushesBeforeSwitching(t *testing.T) {
	store, _ := newTestStore(t, `{"profiles":{"A":{},"B":{}},"activeProfile":"A"}`)
	ctx := context.Background()

	var order []string
	store.SetFlusher(func() { order = append(order, "flush:"+store.ActiveName()) })
	store.OnChange(func(c Change) { order = append(order, c.Key) })

	changed, err := store.SetActive(ctx, " B ")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.SetActive(ctx, "B")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = store.SetActive(ctx, "Missing")
	require.ErrorIs(t, err, ErrProfileNotFound)

	assert.Equal(t, []string{"flush:A", KeyActiveProfile}, order)
}

func TestStoreDuplicate(t *testing.T) {
	store, _ := newTestStore(t, `{"profiles":{"Main":{"baseFolder":"looks","triggers":[{"trigger":"winter","folder":"cold"}]}},"activeProfile":"Main"}`)
	ctx := context.Background()

	name, err := store.Duplicate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Main Copy", name)

	store.SetBaseFolder("changed")
	original, ok := store.Profile("Main")
	require.True(t, ok)
	assert.Equal(t, "looks", original.BaseFolder)
	assert.Equal(t, "winter", original.Triggers[0].Trigger)

	_, err = store.SetActive(ctx, "Main")
	require.NoError(t, err)
	assert.Equal(t, "Main Copy 2", store.DuplicateName())
}

func TestStoreRename(t *testing.T) {
	store, _ := newTestStore(t, `{"profiles":{"A":{"baseFolder":"a"},"B":{}},"activeProfile":"A"}`)
	ctx := context.Background()

	_, err := store.Rename(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = store.Rename(ctx, "A")
	assert.ErrorIs(t, err, ErrNameUnchanged)

	_, err = store.Rename(ctx, "B")
	assert.ErrorIs(t, err, ErrNameTaken)

	name, err := store.Rename(ctx, "  Alpha   One ")
	require.NoError(t, err)
	assert.Equal(t, "Alpha One", name)
	assert.Equal(t, []string{"B", "Alpha One"}, store.Names())
	assert.Equal(t, "a", store.ActiveProfile().BaseFolder)
}

func TestStoreExportImport(t *testing.T) {
	store, _ := newTestStore(t, `{"profiles":{"Winter Set!":{"baseFolder":"looks","triggers":[{"trigger":"snow","folder":"cold"}]}},"activeProfile":"Winter Set!"}`)
	ctx := context.Background()

	exp, data, err := store.Export()
	require.NoError(t, err)
	assert.Equal(t, "Winter Set!", exp.Name)
	assert.Equal(t, SchemaVersion, exp.Version)
	assert.Equal(t, "Winter_Set_.json", ExportFileName(exp.Name))

	name, err := store.Import(ctx, data, "ignored.json")
	require.NoError(t, err)
	assert.Equal(t, "Winter Set! 2", name)
	assert.Equal(t, "looks", store.ActiveProfile().BaseFolder)

	t.Run("data wrapper and profileName", func(t *testing.T) {
		name, err := store.Import(ctx, []byte(`{"profileName":"Beach","data":{"baseFolder":"sun"}}`), "")
		require.NoError(t, err)
		assert.Equal(t, "Beach", name)
		assert.Equal(t, "sun", store.ActiveProfile().BaseFolder)
	})

	t.Run("bare profile uses file name", func(t *testing.T) {
		name, err := store.Import(ctx, []byte(`{"baseFolder":"rain"}`), "/tmp/Rainy Day.json")
		require.NoError(t, err)
		assert.Equal(t, "Rainy Day", name)
	})

	t.Run("fallback name", func(t *testing.T) {
		name, err := store.Import(ctx, []byte(`{}`), "")
		require.NoError(t, err)
		assert.Equal(t, "Imported Profile", name)
	})

	t.Run("rejects non-objects", func(t *testing.T) {
		before := store.Names()
		_, err := store.Import(ctx, []byte(`"text"`), "x.json")
		assert.ErrorIs(t, err, ErrInvalidImport)
		_, err = store.Import(ctx, []byte(`{broken`), "x.json")
		assert.ErrorIs(t, err, ErrInvalidImport)
		assert.Equal(t, before, store.Names())
	})
}

func TestStoreEditsNotifyWithoutSaving(t *testing.T) {
	store, backend := newTestStore(t, "")
	var changes []Change
	store.OnChange(func(c Change) { changes = append(changes, c) })

	store.SetEnabled(true)
	store.SetBaseFolder("  Alice  ")
	idx := store.AddTrigger(TriggerEntry{Triggers: []string{"winter", "winter"}, Folder: "cold"})
	require.NoError(t, store.UpdateTrigger(idx, TriggerEntry{Trigger: "snow", Folder: "cold"}))
	assert.ErrorIs(t, store.UpdateTrigger(5, TriggerEntry{}), ErrIndexOutOfRange)
	store.AddVariant(Variant{Name: "Coat", Folder: "coat"})
	require.NoError(t, store.RemoveVariant(0))
	assert.ErrorIs(t, store.RemoveTrigger(-1), ErrIndexOutOfRange)

	assert.Equal(t, 0, backend.saves)
	assert.True(t, store.Enabled())
	p := store.ActiveProfile()
	assert.Equal(t, "Alice", p.BaseFolder)
	require.Len(t, p.Triggers, 1)
	assert.Equal(t, []string{"snow"}, p.Triggers[0].Triggers)
	assert.Empty(t, p.Variants)

	keys := make([]string, 0, len(changes))
	for _, c := range changes {
		assert.False(t, c.Persisted)
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{KeyEnabled, KeyBaseFolder, KeyTriggers, KeyTriggers, KeyVariants, KeyVariants}, keys)

	require.NoError(t, store.Persist(context.Background()))
	assert.Equal(t, 1, backend.saves)
	assert.True(t, backend.saved.Enabled)
}

func TestStoreSaveFailure(t *testing.T) {
	store, backend := newTestStore(t, `{"profiles":{"A":{},"B":{}},"activeProfile":"A"}`)
	backend.saveErr = errors.New("disk full")

	var persisted []bool
	store.OnChange(func(c Change) { persisted = append(persisted, c.Persisted) })

	_, err := store.SetActive(context.Background(), "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "B", store.ActiveName())
	assert.Equal(t, []bool{false}, persisted)
}

func TestStoreSnapshotIsIsolated(t *testing.T) {
	store, _ := newTestStore(t, "")
	snap := store.Snapshot()
	snap.Active().BaseFolder = "mutated"
	assert.Equal(t, "", store.ActiveProfile().BaseFolder)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"activeProfile":"Default"`)
}
