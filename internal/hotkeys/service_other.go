//go:build !windows

package hotkeys

import (
	"errors"
	"log/slog"
	"sync"
)

// inertHookService accepts registrations without installing OS hooks; global
// hotkeys are implemented only for Windows. Bindings still validate and the
// rest of the application runs, but no press is ever delivered.
type inertHookService struct {
	mu      sync.Mutex
	started bool
}

func newHookService() hookService {
	return &inertHookService{}
}

func (s *inertHookService) Start(onTrigger func(id int)) error {
	if onTrigger == nil {
		return errors.New("onTrigger callback is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	slog.Warn("[hotkey] global hotkeys are not supported on this platform; bindings are accepted but will never fire")
	return nil
}

func (s *inertHookService) Register(id int, combination string) error {
	slog.Debug("[hotkey] inert registration", "id", id, "combination", combination)
	return nil
}

func (s *inertHookService) Unregister(id int) error {
	return nil
}

func (s *inertHookService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}
