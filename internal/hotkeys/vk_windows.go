//go:build windows

package hotkeys

import (
	"fmt"
	"strconv"

	"hotkeyd/internal/keymap"
)

const (
	modAlt      = 0x0001
	modControl  = 0x0002
	modShift    = 0x0004
	modWin      = 0x0008
	modNoRepeat = 0x4000
)

const (
	vkBack   = 0x08
	vkTab    = 0x09
	vkReturn = 0x0D
	vkEscape = 0x1B
	vkSpace  = 0x20
	vkPrior  = 0x21
	vkNext   = 0x22
	vkEnd    = 0x23
	vkHome   = 0x24
	vkLeft   = 0x25
	vkUp     = 0x26
	vkRight  = 0x27
	vkDown   = 0x28
	vkInsert = 0x2D
	vkDelete = 0x2E
	vkF1     = 0x70
)

var winModifierByToken = map[string]uint32{
	"ctrl":    modControl,
	"alt":     modAlt,
	"shift":   modShift,
	"windows": modWin,
}

var winKeyByToken = map[string]uint32{
	"space":     vkSpace,
	"tab":       vkTab,
	"enter":     vkReturn,
	"esc":       vkEscape,
	"delete":    vkDelete,
	"backspace": vkBack,
	"insert":    vkInsert,
	"home":      vkHome,
	"end":       vkEnd,
	"up":        vkUp,
	"down":      vkDown,
	"left":      vkLeft,
	"right":     vkRight,
	"page up":   vkPrior,
	"page down": vkNext,
}

// winOemByChar maps US-layout punctuation to its OEM virtual key.
var winOemByChar = map[byte]uint32{
	'`':  0xC0,
	';':  0xBA,
	'=':  0xBB,
	',':  0xBC,
	'-':  0xBD,
	'.':  0xBE,
	'/':  0xBF,
	'[':  0xDB,
	'\\': 0xDC,
	']':  0xDD,
	'\'': 0xDE,
}

// bindingCode translates a combination descriptor into the modifier bitmask
// and virtual-key code RegisterHotKey expects.
func bindingCode(combination string) (uint32, uint32, error) {
	c, err := keymap.ParseCombination(combination)
	if err != nil {
		return 0, 0, err
	}
	var modifiers uint32
	for _, mod := range c.Modifiers() {
		bits, ok := winModifierByToken[mod]
		if !ok {
			return 0, 0, fmt.Errorf("modifier %q has no Win32 mapping", mod)
		}
		modifiers |= bits
	}
	key, err := keyCode(c.Key())
	if err != nil {
		return 0, 0, err
	}
	return modifiers, key, nil
}

func keyCode(token string) (uint32, error) {
	if key, ok := winKeyByToken[token]; ok {
		return key, nil
	}
	if key, ok := functionKeyCode(token); ok {
		return key, nil
	}
	if len(token) == 1 {
		ch := token[0]
		switch {
		case ch >= 'a' && ch <= 'z':
			return uint32(ch - 'a' + 'A'), nil
		case ch >= '0' && ch <= '9':
			return uint32(ch), nil
		}
		if key, ok := winOemByChar[ch]; ok {
			return key, nil
		}
	}
	return 0, fmt.Errorf("key %q has no virtual-key mapping", token)
}

// functionKeyCode resolves f1..f24 to VK_F1..VK_F24.
func functionKeyCode(token string) (uint32, bool) {
	if len(token) < 2 || token[0] != 'f' {
		return 0, false
	}
	n, err := strconv.Atoi(token[1:])
	if err != nil || n < 1 || n > 24 {
		return 0, false
	}
	return uint32(vkF1 + n - 1), true
}
