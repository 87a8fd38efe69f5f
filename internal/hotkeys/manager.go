// Package hotkeys owns the live global-hotkey registrations: it maps
// combination descriptors to OS-level hooks and dispatches key presses to
// per-binding callbacks.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"hotkeyd/internal/keymap"
)

// ErrAlreadyRegistered is returned when a combination already has a live
// registration.
var ErrAlreadyRegistered = errors.New("hotkey combination is already registered")

// maxHotkeyID is the top of the id range RegisterHotKey accepts from
// applications (0x0000..0xBFFF).
const maxHotkeyID = 0xBFFF

// Binding is the registration-request form of a persisted hotkey entry.
type Binding struct {
	Combination string
	ActionID    string
	Enabled     bool
}

// hookService is the OS global-hotkey facility behind Manager. Start brings
// up the OS event loop and must be called before Register; each press is
// delivered as an onTrigger(id) call on its own goroutine, so implementations
// never block their event loop on a callback. Stop tears the loop down and
// releases any hooks still installed.
type hookService interface {
	Start(onTrigger func(id int)) error
	Register(id int, combination string) error
	Unregister(id int) error
	Stop() error
}

// registration is one live hook entry.
type registration struct {
	id          int
	combination string
	actionID    string
	callback    func()
}

// Manager owns the live registration set. It never diffs that set against a
// desired state: consistency with persisted configuration comes from full
// clear-and-rebuild cycles (Reload).
type Manager struct {
	svc hookService

	// mu guards every field below. The hook service never calls back into
	// Manager from its event-loop thread, so holding mu across service calls
	// cannot deadlock.
	mu            sync.Mutex
	running       bool
	nextID        int
	byCombination map[string]*registration
	byID          map[int]*registration
}

// NewManager creates a manager backed by the platform hotkey service.
func NewManager() *Manager {
	return newManagerWithService(newHookService())
}

func newManagerWithService(svc hookService) *Manager {
	return &Manager{
		svc:           svc,
		byCombination: make(map[string]*registration),
		byID:          make(map[int]*registration),
	}
}

// Register installs a global hook for combination bound to callback. The
// combination is canonicalized first, so "Ctrl+Shift+H" and "shift+ctrl+h"
// name the same registration. Registering a combination that is already live
// fails with ErrAlreadyRegistered. On any failure the registration set is
// unchanged.
func (m *Manager) Register(combination, actionID string, callback func()) error {
	if callback == nil {
		return errors.New("callback is required")
	}
	if strings.TrimSpace(actionID) == "" {
		return errors.New("action id is required")
	}
	normalized, err := keymap.Normalize(combination)
	if err != nil {
		return fmt.Errorf("invalid combination %q: %w", combination, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byCombination[normalized]; exists {
		return fmt.Errorf("%q: %w", normalized, ErrAlreadyRegistered)
	}
	if err := m.ensureListenerLocked(); err != nil {
		return fmt.Errorf("start hotkey listener: %w", err)
	}
	if m.nextID >= maxHotkeyID {
		return fmt.Errorf("hotkey id space exhausted (max 0x%X)", maxHotkeyID)
	}
	id := m.nextID + 1

	if err := m.svc.Register(id, normalized); err != nil {
		return fmt.Errorf("register %q: %w", normalized, err)
	}
	m.nextID = id
	reg := &registration{id: id, combination: normalized, actionID: actionID, callback: callback}
	m.byCombination[normalized] = reg
	m.byID[id] = reg
	slog.Debug("[hotkey] registered", "combination", normalized, "action", actionID, "id", id)
	return nil
}

// Unregister removes the hook for combination. Unknown, already-removed, and
// unparseable combinations are a no-op so that teardown paths can call this
// unconditionally.
func (m *Manager) Unregister(combination string) {
	normalized, err := keymap.Normalize(combination)
	if err != nil {
		// Nothing unparseable can ever have been registered.
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.byCombination[normalized]
	if !ok {
		return
	}
	if err := m.svc.Unregister(reg.id); err != nil {
		slog.Warn("[hotkey] unregister failed; dropping registration anyway", "combination", normalized, "error", err)
	}
	delete(m.byCombination, reg.combination)
	delete(m.byID, reg.id)
	if len(m.byID) == 0 {
		// Ids restart only once every registration is gone.
		m.nextID = 0
	}
	slog.Debug("[hotkey] unregistered", "combination", normalized)
}

// RegisterFromBindings registers every enabled binding, each dispatching its
// own action id. A binding that fails to register is logged and skipped; the
// remaining bindings are still attempted. Returns the number registered.
func (m *Manager) RegisterFromBindings(bindings []Binding, dispatch func(actionID string)) int {
	if dispatch == nil {
		slog.Error("[hotkey] dispatch function is required; no bindings registered")
		return 0
	}
	registered := 0
	for _, b := range bindings {
		if !b.Enabled {
			slog.Debug("[hotkey] skipping disabled binding", "combination", b.Combination)
			continue
		}
		actionID := b.ActionID
		if err := m.Register(b.Combination, actionID, func() { dispatch(actionID) }); err != nil {
			slog.Warn("[hotkey] skipping binding", "combination", b.Combination, "action", b.ActionID, "error", err)
			continue
		}
		registered++
	}
	slog.Info("[hotkey] bindings registered", "registered", registered, "total", len(bindings))
	return registered
}

// ClearAll unregisters every live combination.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearAllLocked()
}

func (m *Manager) clearAllLocked() {
	for _, reg := range m.byCombination {
		if err := m.svc.Unregister(reg.id); err != nil {
			slog.Warn("[hotkey] unregister failed during clear", "combination", reg.combination, "error", err)
		}
	}
	m.byCombination = make(map[string]*registration)
	m.byID = make(map[int]*registration)
	m.nextID = 0
}

// Reload replaces the entire registration set with the supplied bindings.
func (m *Manager) Reload(bindings []Binding, dispatch func(actionID string)) int {
	m.ClearAll()
	return m.RegisterFromBindings(bindings, dispatch)
}

// StartListener brings up the OS event loop. Registering a hotkey starts the
// listener implicitly; an explicit call is useful to surface platform
// failures early. Idempotent while the listener is running.
func (m *Manager) StartListener() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureListenerLocked()
}

func (m *Manager) ensureListenerLocked() error {
	if m.running {
		return nil
	}
	if err := m.svc.Start(m.dispatch); err != nil {
		return err
	}
	m.running = true
	slog.Debug("[hotkey] listener started")
	return nil
}

// StopListener removes every live hook and tears down the OS event loop.
// Idempotent; safe to call from any goroutine.
func (m *Manager) StopListener() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	m.clearAllLocked()
	err := m.svc.Stop()
	m.running = false
	slog.Debug("[hotkey] listener stopped")
	return err
}

// Len returns the number of live registrations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byCombination)
}

// Active returns the live combinations in sorted order.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	combos := make([]string, 0, len(m.byCombination))
	for combo := range m.byCombination {
		combos = append(combos, combo)
	}
	sort.Strings(combos)
	return combos
}

// Running reports whether the OS event loop is up.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// dispatch runs on a per-press goroutine spawned by the hook service.
func (m *Manager) dispatch(id int) {
	m.mu.Lock()
	reg, ok := m.byID[id]
	m.mu.Unlock()
	if !ok {
		// A press can still be queued when its registration is removed.
		slog.Debug("[hotkey] ignoring press for retired id", "id", id)
		return
	}
	slog.Debug("[hotkey] pressed", "combination", reg.combination, "action", reg.actionID)
	reg.callback()
}
