// Package local keeps settings in a JSON file in the data directory.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/profile"
)

const watchDebounce = 100 * time.Millisecond

// FileStore is a profile.Backend over a settings.json file.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu       sync.Mutex
	lastData []byte
}

// NewFileStore stores settings at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the settings file location.
func (f *FileStore) Path() string { return f.path }

// Load reads the settings file. A missing file, or one that is not valid
// JSON, yields repaired defaults.
func (f *FileStore) Load(_ context.Context) (*profile.Settings, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return profile.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if !json.Valid(data) {
		f.logger.Warn("settings file is not valid JSON, using defaults", zap.String("path", f.path))
		return profile.DefaultSettings(), nil
	}
	return profile.EnsureSettingsShape(data), nil
}

// Save writes settings through a temp file and rename.
func (f *FileStore) Save(_ context.Context, settings *profile.Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}

	f.mu.Lock()
	f.lastData = data
	f.mu.Unlock()

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// Watch calls onChange with freshly loaded settings whenever the file is
// edited by someone else. Writes made by Save are ignored. Watch returns
// once the watcher is running; it stops when ctx is done.
func (f *FileStore) Watch(ctx context.Context, onChange func(*profile.Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory: rename-based saves replace the file's inode.
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	name := filepath.Base(f.path)
	go func() {
		defer watcher.Close()
		var debounceTimer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(watchDebounce, func() {
					f.reload(ctx, onChange)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("settings watcher error", zap.Error(err))
			}
		}
	}()

	f.logger.Debug("watching settings file", zap.String("path", f.path))
	return nil
}

func (f *FileStore) reload(ctx context.Context, onChange func(*profile.Settings)) {
	if ctx.Err() != nil {
		return
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return
	}

	f.mu.Lock()
	own := bytes.Equal(data, f.lastData)
	if !own {
		f.lastData = data
	}
	f.mu.Unlock()
	if own {
		return
	}

	settings, err := f.Load(ctx)
	if err != nil {
		f.logger.Warn("settings reload failed", zap.Error(err))
		return
	}
	f.logger.Info("settings file changed, reloaded", zap.String("path", f.path))
	onChange(settings)
}
