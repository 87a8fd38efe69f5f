// Package config loads, migrates, and persists the hotkey bindings and
// free-form settings backing the daemon. The persisted form is a single
// JSON file at a per-user location; writes are atomic (temp file + rename)
// to avoid truncated configs on crash.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle quickly.
	// Use a short linear backoff: baseDelay * (1..maxRenameRetry).
	renameRetryBaseDelay = 10 * time.Millisecond
)

// Setting keys the daemon itself reads. Settings is a free-form map, so the
// UI may store additional keys without the daemon caring.
const (
	SettingStartMinimized    = "start_minimized"
	SettingShowNotifications = "show_notifications"
	SettingUIPort            = "ui_port"
)

// defaultConfigDirFn is a test seam; tests override it to simulate
// directory-resolution failures in validateConfigPath.
var defaultConfigDirFn = defaultConfigDir
var userHomeDirFn = os.UserHomeDir

var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during DefaultPath() calls.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// Config is the persisted daemon configuration: the hotkey binding list and
// the free-form settings map.
type Config struct {
	Hotkeys  []Hotkey       `json:"hotkeys"`
	Settings map[string]any `json:"settings"`
}

// DefaultConfig returns the bundled default configuration written on first
// run.
func DefaultConfig() Config {
	return Config{
		Hotkeys: []Hotkey{
			{Combination: "ctrl+shift+h", Action: "toggle_main_window", Enabled: true},
			{Combination: "ctrl+alt+m", Action: "toggle_system_mute", Enabled: true},
		},
		Settings: map[string]any{
			SettingStartMinimized:    true,
			SettingShowNotifications: true,
			// 0 lets the OS assign the settings-UI port, which avoids
			// conflicts with other local servers.
			SettingUIPort: 0,
		},
	}
}

// DefaultPath resolves the config file path, preferring LOCALAPPDATA over
// APPDATA, falling back to ~/.config when both are unset, and then to
// os.TempDir() if the home directory cannot be resolved.
// The temp-dir fallback is not a stable persistence location and may vary
// between sessions depending on environment configuration.
func DefaultPath() string {
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			// Keep config path resolvable even in restricted environments.
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
			recordDefaultPathWarning(
				"Config path fallback: failed to resolve LOCALAPPDATA/APPDATA/home directory. Using temp directory; settings persistence may be limited.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, "hotkeyd", "config.json")
}

// Load reads the config file. A missing file yields defaults without error.
// A corrupt file yields defaults plus the parse error; callers treat that
// as a warning, never fatal, and must not overwrite the corrupt file on
// this path. The migrated return reports whether a legacy-format file was
// converted and should be re-persisted.
func Load(path string) (Config, bool, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, false, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, false, nil
		}
		return cfg, false, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, false, nil
	}

	parsed, migrated, err := Parse(raw)
	if err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), false, err
	}
	return parsed, migrated, nil
}

// rawConfig defers hotkeys decoding so the legacy map form and the current
// list form can share one entry point.
type rawConfig struct {
	Hotkeys  json.RawMessage `json:"hotkeys"`
	Settings map[string]any  `json:"settings"`
	Actions  json.RawMessage `json:"actions"`
}

// Parse decodes raw JSON into a Config, migrating the legacy shape where
// hotkeys was a combination -> action mapping and a top-level "actions"
// section existed. Migration fabricates enabled=true for every legacy entry
// and drops the "actions" key. Applying Parse to already-migrated content
// is a no-op beyond decoding. The migrated return is true when the legacy
// shape was detected.
func Parse(raw []byte) (Config, bool, error) {
	var rc rawConfig
	if err := json.Unmarshal(raw, &rc); err != nil {
		return Config{}, false, fmt.Errorf("parse config: %w", err)
	}

	cfg := Config{Settings: rc.Settings}
	migrated := len(rc.Actions) > 0 && !bytes.Equal(bytes.TrimSpace(rc.Actions), []byte("null"))

	trimmed := bytes.TrimSpace(rc.Hotkeys)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		cfg.Hotkeys = nil
	case trimmed[0] == '{':
		legacy := map[string]string{}
		if err := json.Unmarshal(rc.Hotkeys, &legacy); err != nil {
			return Config{}, false, fmt.Errorf("parse config: legacy hotkeys: %w", err)
		}
		combos := make([]string, 0, len(legacy))
		for combo := range legacy {
			combos = append(combos, combo)
		}
		// Deterministic order keeps migration output stable across runs.
		sort.Strings(combos)
		for _, combo := range combos {
			cfg.Hotkeys = append(cfg.Hotkeys, Hotkey{
				Combination: normalizeCombination(combo),
				Action:      legacy[combo],
				Enabled:     true,
			})
		}
		migrated = true
	default:
		if err := json.Unmarshal(rc.Hotkeys, &cfg.Hotkeys); err != nil {
			return Config{}, false, fmt.Errorf("parse config: hotkeys: %w", err)
		}
	}

	if migrated {
		slog.Info("[config] migrated legacy config format", "hotkeys", len(cfg.Hotkeys))
	}
	return cfg, migrated, nil
}

// EnsureFile loads path and, when no file exists yet, persists the defaults
// so later runs and external editors see a concrete file. A legacy-format
// file is re-persisted in the migrated shape.
func EnsureFile(path string) (Config, error) {
	cfg, migrated, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if migrated {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Clone returns a deep copy of cfg.
// Use this when sharing config snapshots across goroutines or package
// boundaries.
func Clone(src Config) Config {
	dst := src
	if src.Hotkeys != nil {
		dst.Hotkeys = make([]Hotkey, len(src.Hotkeys))
		copy(dst.Hotkeys, src.Hotkeys)
	}
	if src.Settings != nil {
		dst.Settings = make(map[string]any, len(src.Settings))
		maps.Copy(dst.Settings, src.Settings)
	}
	return dst
}

// Save normalizes cfg, fills defaults, and atomically writes it to path as
// pretty-printed JSON. Returns the normalized config that was actually
// written to disk.
func Save(path string, cfg Config) (Config, error) {
	normalizedPath, err := validateConfigPath(path)
	if err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)

	raw, err := Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", path, "hotkeys", len(cfg.Hotkeys))
	return cfg, nil
}

// Marshal renders cfg in the persisted form: two-space indent with a
// trailing newline.
func Marshal(cfg Config) ([]byte, error) {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

// applyDefaults fills missing defaults in-place.
// MUTATES: cfg is directly modified.
// Used by Save so a round trip through the store never strips the settings
// the daemon depends on.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if isZeroConfig(*cfg) {
		*cfg = defaults
		return
	}
	if cfg.Hotkeys == nil {
		cfg.Hotkeys = []Hotkey{}
	}
	if cfg.Settings == nil {
		cfg.Settings = map[string]any{}
	}
	for key, value := range defaults.Settings {
		if _, ok := cfg.Settings[key]; !ok {
			cfg.Settings[key] = value
		}
	}
}

// atomicWrite writes config data using temp-file + rename to avoid partial
// writes and retries rename on Windows to tolerate transient file locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	// Atomic write: temp file + rename in same directory ensures
	// same-filesystem rename and prevents partial writes on crash.
	tmpFile, err := os.CreateTemp(dir, ".config.json.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[WARN-CONFIG] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// validateConfigPath normalizes path and enforces that config writes stay
// inside the default config directory when that directory is resolvable.
func validateConfigPath(path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", errors.New("config path required")
	}
	absolutePath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}

	expectedDir, err := defaultConfigDirFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	absoluteExpectedDir, err := filepath.Abs(expectedDir)
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	if !pathWithinDir(absolutePath, absoluteExpectedDir) {
		return "", fmt.Errorf("save config: path outside config directory: %q", absolutePath)
	}

	return absolutePath, nil
}

func defaultConfigDir() (string, error) {
	return filepath.Dir(DefaultPath()), nil
}

// pathWithinDir blocks directory traversal by ensuring path is under dir.
// It also rejects Windows cross-drive escapes because filepath.Rel returns
// an absolute path when roots differ.
func pathWithinDir(path string, dir string) bool {
	relativePath, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(relativePath)
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func isZeroConfig(cfg Config) bool {
	// reflect.DeepEqual guards against field-addition drift that manual checks miss.
	return reflect.DeepEqual(cfg, Config{})
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := 0; attempt < maxRenameRetry; attempt++ {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
