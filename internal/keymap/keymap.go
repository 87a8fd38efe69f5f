// Package keymap defines the canonical key-combination grammar and the
// conversion between the internal lowercase form ("ctrl+shift+h") and the
// display token form (["Ctrl", "Shift", "H"]) used at the UI boundary.
package keymap

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical modifier tokens in normalization order. A combination's canonical
// string always lists its modifiers in this order regardless of input order.
var canonicalModifierOrder = []string{"ctrl", "alt", "shift", "windows"}

// modifierAliases maps accepted modifier spellings to the canonical token.
var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"shift":   "shift",
	"windows": "windows",
	"win":     "windows",
	"super":   "windows",
	"meta":    "windows",
	"cmd":     "windows",
}

// keyAliases maps accepted key spellings to the canonical key token.
// Canonical named keys are the map values; see displayByInternal for the
// full supported set.
var keyAliases = map[string]string{
	"return":     "enter",
	"escape":     "esc",
	"del":        "delete",
	"ins":        "insert",
	"pageup":     "page up",
	"pgup":       "page up",
	"pagedown":   "page down",
	"pgdn":       "page down",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	"spacebar":   "space",
}

// displayByInternal maps every canonical named token (modifiers included) to
// its display spelling. Single-character keys and f<N> keys are handled
// programmatically and are not listed here.
var displayByInternal = map[string]string{
	"ctrl":      "Ctrl",
	"alt":       "Alt",
	"shift":     "Shift",
	"windows":   "Meta",
	"space":     "Space",
	"tab":       "Tab",
	"enter":     "Enter",
	"esc":       "Escape",
	"delete":    "Delete",
	"backspace": "Backspace",
	"insert":    "Insert",
	"home":      "Home",
	"end":       "End",
	"up":        "ArrowUp",
	"down":      "ArrowDown",
	"left":      "ArrowLeft",
	"right":     "ArrowRight",
	"page up":   "PageUp",
	"page down": "PageDown",
}

// internalByDisplay is the exact inverse of displayByInternal, built at init.
var internalByDisplay = func() map[string]string {
	m := make(map[string]string, len(displayByInternal))
	for internal, display := range displayByInternal {
		m[display] = internal
	}
	return m
}()

// Combination is a parsed key chord: one or more modifiers plus exactly one
// non-modifier key. Construct only via ParseCombination.
type Combination struct {
	modifiers []string
	key       string
}

// Modifiers returns the canonical modifier tokens in normalization order.
func (c Combination) Modifiers() []string {
	out := make([]string, len(c.modifiers))
	copy(out, c.modifiers)
	return out
}

// Key returns the canonical non-modifier key token.
func (c Combination) Key() string { return c.key }

// String returns the canonical lowercase form, e.g. "ctrl+shift+f1".
func (c Combination) String() string {
	parts := make([]string, 0, len(c.modifiers)+1)
	parts = append(parts, c.modifiers...)
	parts = append(parts, c.key)
	return strings.Join(parts, "+")
}

// IsModifier reports whether token (any accepted spelling, case-insensitive)
// names a modifier key.
func IsModifier(token string) bool {
	_, ok := modifierAliases[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// normalizeKey resolves a lowercase token to its canonical key form, or
// returns an error for tokens outside the supported set.
func normalizeKey(token string) (string, error) {
	if alias, ok := keyAliases[token]; ok {
		token = alias
	}
	if _, ok := displayByInternal[token]; ok {
		// Named keys double as display sources; modifiers never reach here.
		return token, nil
	}
	if isFunctionKey(token) {
		return token, nil
	}
	if len(token) == 1 && token[0] > ' ' && token[0] < 0x7f {
		return token, nil
	}
	return "", fmt.Errorf("unsupported key %q", token)
}

// isFunctionKey reports whether token is f1..f24.
func isFunctionKey(token string) bool {
	if len(token) < 2 || token[0] != 'f' {
		return false
	}
	n, err := strconv.Atoi(token[1:])
	if err != nil {
		return false
	}
	return n >= 1 && n <= 24
}

// ParseCombination parses a combination descriptor into its canonical form.
// Input is case-insensitive and whitespace-tolerant around the "+" separators;
// modifiers may appear in any order and are deduplicated. At least one
// modifier and exactly one trailing non-modifier key are required.
func ParseCombination(raw string) (Combination, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Combination{}, fmt.Errorf("empty combination")
	}

	parts := strings.Split(trimmed, "+")
	seen := map[string]bool{}
	var key string
	for i, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			return Combination{}, fmt.Errorf("empty token in combination %q", raw)
		}
		if mod, ok := modifierAliases[token]; ok {
			seen[mod] = true
			continue
		}
		if i != len(parts)-1 {
			return Combination{}, fmt.Errorf("key %q must be the final token in %q", token, raw)
		}
		normalized, err := normalizeKey(token)
		if err != nil {
			return Combination{}, fmt.Errorf("combination %q: %w", raw, err)
		}
		key = normalized
	}
	if key == "" {
		return Combination{}, fmt.Errorf("combination %q has no non-modifier key", raw)
	}
	if len(seen) == 0 {
		return Combination{}, fmt.Errorf("combination %q has no modifier", raw)
	}

	mods := make([]string, 0, len(seen))
	for _, mod := range canonicalModifierOrder {
		if seen[mod] {
			mods = append(mods, mod)
		}
	}
	return Combination{modifiers: mods, key: key}, nil
}

// Normalize parses raw and returns its canonical string form.
func Normalize(raw string) (string, error) {
	c, err := ParseCombination(raw)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// InternalToDisplay converts a canonical combination string into display
// tokens, e.g. "ctrl+shift+f1" -> ["Ctrl", "Shift", "F1"].
func InternalToDisplay(combination string) ([]string, error) {
	c, err := ParseCombination(combination)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(c.modifiers)+1)
	for _, mod := range c.modifiers {
		tokens = append(tokens, displayByInternal[mod])
	}
	tokens = append(tokens, displayKeyToken(c.key))
	return tokens, nil
}

// displayKeyToken renders one canonical key token in display form.
func displayKeyToken(key string) string {
	if display, ok := displayByInternal[key]; ok {
		return display
	}
	if isFunctionKey(key) {
		return "F" + key[1:]
	}
	return strings.ToUpper(key)
}

// DisplayToInternal converts display tokens back to the canonical combination
// string. It is the exact inverse of InternalToDisplay for every supported
// token.
func DisplayToInternal(tokens []string) (string, error) {
	if len(tokens) == 0 {
		return "", fmt.Errorf("no display tokens")
	}
	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if internal, ok := internalByDisplay[token]; ok {
			parts = append(parts, internal)
			continue
		}
		lower := strings.ToLower(token)
		if isFunctionKey(lower) {
			parts = append(parts, lower)
			continue
		}
		if len(token) == 1 {
			parts = append(parts, lower)
			continue
		}
		return "", fmt.Errorf("unsupported display token %q", token)
	}
	return Normalize(strings.Join(parts, "+"))
}

// FormatDisplay joins display tokens with "+" for one-line presentation.
func FormatDisplay(tokens []string) string {
	return strings.Join(tokens, "+")
}
