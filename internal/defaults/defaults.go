// Package defaults locates the data directory and seeds it with the
// embedded default files on first run.
//
// Platform paths:
//
//	macOS:   ~/Library/Application Support/OutfitSwitch/
//	Windows: %AppData%\OutfitSwitch\
//	Linux:   ~/.config/outfitswitch/
//
// Override with the OUTFITSWITCH_DATA_DIR environment variable.
package defaults

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DataDirEnv overrides the platform data directory.
const DataDirEnv = "OUTFITSWITCH_DATA_DIR"

const (
	ConfigFile   = "config.yaml"
	SettingsFile = "settings.json"
	DatabaseFile = "outfitswitch.db"
)

//go:embed dotoutfit/*
var defaultFiles embed.FS

// DataDir returns the platform-appropriate data directory.
func DataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}

	// Linux: lowercase per XDG convention
	if runtime.GOOS == "linux" {
		return filepath.Join(configDir, "outfitswitch"), nil
	}
	return filepath.Join(configDir, "OutfitSwitch"), nil
}

// EnsureDataDir creates the data directory if needed and copies in any
// missing default files.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := copyDefaults(dir, false); err != nil {
		return "", err
	}
	return dir, nil
}

// Reset overwrites the default files in dir. Settings and the database
// are left alone.
func Reset(dir string) error {
	return copyDefaults(dir, true)
}

func copyDefaults(dir string, overwrite bool) error {
	return fs.WalkDir(defaultFiles, "dotoutfit", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "dotoutfit" {
			return nil
		}

		// embed.FS always uses forward slashes
		relPath := strings.TrimPrefix(path, "dotoutfit/")
		destPath := filepath.Join(dir, relPath)

		if d.IsDir() {
			return os.MkdirAll(destPath, 0755)
		}
		if !overwrite {
			if _, err := os.Stat(destPath); err == nil {
				return nil
			}
		}

		data, err := defaultFiles.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", path, err)
		}
		if err := os.WriteFile(destPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", destPath, err)
		}
		return nil
	})
}

// GetDefault returns the content of a default file by name.
func GetDefault(name string) ([]byte, error) {
	return defaultFiles.ReadFile("dotoutfit/" + name)
}

// ListDefaults returns the names of all default files.
func ListDefaults() ([]string, error) {
	var files []string
	err := fs.WalkDir(defaultFiles, "dotoutfit", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, strings.TrimPrefix(path, "dotoutfit/"))
		}
		return nil
	})
	return files, err
}
