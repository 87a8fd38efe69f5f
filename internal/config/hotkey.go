package config

import (
	"errors"
	"strings"
)

// Hotkey is one persisted binding: a canonical key combination, the id of
// the action it triggers, and an enabled flag. Identity is the combination;
// the store keeps at most one entry per combination.
type Hotkey struct {
	Combination string `json:"hotkey"`
	Action      string `json:"action"`
	Enabled     bool   `json:"enabled"`
}

// Validate checks the storage-level invariants. Combination syntax and
// action-id resolution are registration-time concerns, not storage concerns;
// an entry referencing an unknown action stays in the file and is skipped
// when hotkeys are registered.
func (h Hotkey) Validate() error {
	if strings.TrimSpace(h.Combination) == "" {
		return errors.New("hotkey combination is empty")
	}
	if strings.TrimSpace(h.Action) == "" {
		return errors.New("hotkey action is empty")
	}
	return nil
}

// normalizeCombination lowercases and trims a combination for use as the
// identity key. Full grammar parsing happens at registration time.
func normalizeCombination(combination string) string {
	return strings.ToLower(strings.TrimSpace(combination))
}
