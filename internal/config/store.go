package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrNotFound is returned by Update, Remove, and SetEnabled when no entry
// exists for the given combination.
var ErrNotFound = errors.New("hotkey not found")

// Store owns the in-memory config snapshot and its backing file. Every
// mutating operation enforces the one-entry-per-combination invariant and
// persists immediately; the file on disk is the source of truth, so a
// failed write leaves the in-memory snapshot unchanged.
type Store struct {
	path string

	// mu guards cfg and lastWriteSum. File writes happen while holding mu,
	// which keeps remove-before-insert sequences atomic without a separate
	// save lock.
	mu           sync.Mutex
	cfg          Config
	lastWriteSum [sha256.Size]byte
	hasWriteSum  bool
}

// NewStore returns a store bound to path. Call Load before first use.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the backing file, writing defaults when it is missing and
// re-persisting migrated legacy content. A parse failure is returned after
// installing defaults in memory; callers treat it as a warning and keep
// running.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := EnsureFile(s.path)
	applyDefaults(&cfg)
	s.cfg = cfg
	s.recordDiskStateLocked()
	return err
}

// Reload re-reads the backing file after an external change. Unlike Load it
// never writes: a legacy-format file edited externally is migrated in
// memory only. Returns the fresh snapshot.
func (s *Store) Reload() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, _, err := Load(s.path)
	applyDefaults(&cfg)
	s.cfg = cfg
	s.recordDiskStateLocked()
	return Clone(cfg), err
}

// recordDiskStateLocked remembers the checksum of the file as it currently
// exists so the watcher can tell this store's own writes apart from
// external edits. Callers hold mu.
func (s *Store) recordDiskStateLocked() {
	raw, err := readLimitedFile(s.path, maxConfigFileBytes)
	if err != nil {
		s.hasWriteSum = false
		return
	}
	s.lastWriteSum = sha256.Sum256(raw)
	s.hasWriteSum = true
}

// IsSelfWrite reports whether raw matches the last content this store wrote
// or observed, letting the file watcher suppress reload echoes.
func (s *Store) IsSelfWrite(raw []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasWriteSum && sha256.Sum256(raw) == s.lastWriteSum
}

// Snapshot returns a deep copy of the current config.
func (s *Store) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clone(s.cfg)
}

// Hotkeys returns the stored bindings that pass storage validation.
// Invalid entries are logged and skipped, never fatal, so one malformed
// entry cannot hide the rest.
func (s *Store) Hotkeys() []Hotkey {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Hotkey, 0, len(s.cfg.Hotkeys))
	for _, h := range s.cfg.Hotkeys {
		if err := h.Validate(); err != nil {
			slog.Warn("[config] skipping invalid hotkey entry",
				"combination", h.Combination, "action", h.Action, "error", err)
			continue
		}
		out = append(out, h)
	}
	return out
}

// Add inserts h, replacing any existing entry with the same combination
// (remove-before-insert), and persists.
func (s *Store) Add(h Hotkey) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("add hotkey: %w", err)
	}
	h.Combination = normalizeCombination(h.Combination)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := Clone(s.cfg)
	next.Hotkeys = removeCombination(next.Hotkeys, h.Combination)
	next.Hotkeys = append(next.Hotkeys, h)
	return s.saveLocked(next)
}

// Update replaces the entry stored under oldCombination with h. The new
// combination may differ from the old one; any third entry already holding
// the new combination is removed so the uniqueness invariant survives the
// rename. Returns ErrNotFound when oldCombination is absent.
func (s *Store) Update(oldCombination string, h Hotkey) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("update hotkey: %w", err)
	}
	oldKey := normalizeCombination(oldCombination)
	h.Combination = normalizeCombination(h.Combination)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !containsCombination(s.cfg.Hotkeys, oldKey) {
		return fmt.Errorf("update hotkey %q: %w", oldCombination, ErrNotFound)
	}
	next := Clone(s.cfg)
	next.Hotkeys = removeCombination(next.Hotkeys, oldKey)
	next.Hotkeys = removeCombination(next.Hotkeys, h.Combination)
	next.Hotkeys = append(next.Hotkeys, h)
	return s.saveLocked(next)
}

// Remove deletes the entry for combination and persists. Returns
// ErrNotFound when no such entry exists.
func (s *Store) Remove(combination string) error {
	key := normalizeCombination(combination)
	if key == "" {
		return errors.New("remove hotkey: combination is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !containsCombination(s.cfg.Hotkeys, key) {
		return fmt.Errorf("remove hotkey %q: %w", combination, ErrNotFound)
	}
	next := Clone(s.cfg)
	next.Hotkeys = removeCombination(next.Hotkeys, key)
	return s.saveLocked(next)
}

// SetEnabled flips the enabled flag of the entry for combination in place
// and persists. Returns ErrNotFound when no such entry exists.
func (s *Store) SetEnabled(combination string, enabled bool) error {
	key := normalizeCombination(combination)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := Clone(s.cfg)
	found := false
	for i := range next.Hotkeys {
		if normalizeCombination(next.Hotkeys[i].Combination) == key {
			next.Hotkeys[i].Enabled = enabled
			found = true
		}
	}
	if !found {
		return fmt.Errorf("toggle hotkey %q: %w", combination, ErrNotFound)
	}
	return s.saveLocked(next)
}

// Setting returns the raw settings value for key.
func (s *Store) Setting(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cfg.Settings[key]
	return v, ok
}

// SettingBool returns the boolean setting for key, or def when the key is
// absent or holds a non-boolean value.
func (s *Store) SettingBool(key string, def bool) bool {
	v, ok := s.Setting(key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// SettingInt returns the integer setting for key, tolerating the float64
// encoding JSON decoding produces, or def when absent or mistyped.
func (s *Store) SettingInt(key string, def int) int {
	v, ok := s.Setting(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

// UpdateSetting merges key=value into the settings map and persists.
func (s *Store) UpdateSetting(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("update setting: key is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := Clone(s.cfg)
	if next.Settings == nil {
		next.Settings = map[string]any{}
	}
	next.Settings[key] = value
	return s.saveLocked(next)
}

// saveLocked persists next and installs it as the current snapshot only
// after the write succeeded. Callers hold mu.
func (s *Store) saveLocked(next Config) error {
	saved, err := Save(s.path, next)
	if err != nil {
		return err
	}
	s.cfg = saved
	if raw, merr := Marshal(saved); merr == nil {
		s.lastWriteSum = sha256.Sum256(raw)
		s.hasWriteSum = true
	}
	return nil
}

func removeCombination(hotkeys []Hotkey, normalizedKey string) []Hotkey {
	out := hotkeys[:0]
	for _, h := range hotkeys {
		if normalizeCombination(h.Combination) == normalizedKey {
			continue
		}
		out = append(out, h)
	}
	return out
}

func containsCombination(hotkeys []Hotkey, normalizedKey string) bool {
	for _, h := range hotkeys {
		if normalizeCombination(h.Combination) == normalizedKey {
			return true
		}
	}
	return false
}
