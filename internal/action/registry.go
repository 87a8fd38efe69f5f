package action

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
)

// ErrDuplicateAction is returned by Register when an action id is already
// taken. Duplicate ids indicate a wiring bug and must fail loudly at
// startup rather than silently shadowing an earlier registration.
var ErrDuplicateAction = errors.New("duplicate action id")

// Registry owns every executable action, keyed by action id. Actions are
// registered explicitly at startup; there is no runtime scanning. Lookup and
// execution are safe for concurrent use; Execute never panics across the
// registry boundary.
type Registry struct {
	// mu guards actions. Held only for map access, never across an
	// action's Execute call.
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds a to the registry under id. Ids are the stable snake_case
// identifiers stored in hotkey bindings ("lock_screen"); a.Name() is the
// human-facing title. An empty id or an already-registered id is an error
// and leaves the registry unchanged.
func (r *Registry) Register(id string, a Action) error {
	if a == nil {
		return errors.New("nil action")
	}
	if id == "" {
		return errors.New("empty action id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, id)
	}
	r.actions[id] = a
	slog.Debug("[action] registered", "id", id)
	return nil
}

// Get returns the action registered under id.
func (r *Registry) Get(id string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[id]
	return a, ok
}

// List returns a copy of the id -> action map. Mutating the returned map
// does not affect the registry.
func (r *Registry) List() map[string]Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Action, len(r.actions))
	for id, a := range r.actions {
		out[id] = a
	}
	return out
}

// IDs returns all registered action ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.actions))
	for id := range r.actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Describe returns the UI-facing description of every registered action,
// sorted by id.
func (r *Registry) Describe() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.actions))
	for id, a := range r.actions {
		infos = append(infos, Info{
			ID:          id,
			Name:        a.Name(),
			Description: a.Description(),
			Parameters:  a.Parameters(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Execute runs the action registered under id with the supplied parameters.
// It returns false, never an error or panic, when the id is unknown, when
// parameter validation fails, when the action itself panics, or when the
// action reports failure. Every failure branch logs its reason; hotkey
// dispatch and UI quick actions rely on this fail-soft contract.
func (r *Registry) Execute(id string, params map[string]any) (ok bool) {
	a, found := r.Get(id)
	if !found {
		slog.Warn("[action] execute requested for unknown action", "id", id)
		return false
	}

	if params == nil {
		params = map[string]any{}
	}
	if valid, msg := Validate(a, params); !valid {
		slog.Warn("[action] parameter validation failed", "id", id, "reason", msg)
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[action] recovered from panic during execute",
				"id", id,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			ok = false
		}
	}()

	if !a.Execute(params) {
		slog.Warn("[action] execution reported failure", "id", id)
		return false
	}
	slog.Debug("[action] executed", "id", id)
	return true
}

// Reload clears the registry and rebuilds it through build, which registers
// actions via Register. Partial failures leave the successfully registered
// subset in place; the build error is returned for logging.
func (r *Registry) Reload(build func(*Registry) error) error {
	r.mu.Lock()
	r.actions = make(map[string]Action)
	r.mu.Unlock()
	if build == nil {
		return nil
	}
	return build(r)
}
