//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPeekMessageW       = user32.NewProc("PeekMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessageW   = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")
)

const (
	wmHotkey = 0x0312
	wmQuit   = 0x0012
	wmApp    = 0x8000
	// wmHookRequest wakes the loop thread to drain pending hook requests.
	// WM_APP range, so it cannot collide with system messages.
	wmHookRequest = wmApp + 1

	pmNoRemove = 0x0000

	stopTimeout = 2 * time.Second
)

type point struct {
	x int32
	y int32
}

// winMsg mirrors the Win32 MSG struct layout.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type loopReady struct {
	threadID uint32
	err      error
}

// hookRequest is one register/unregister operation marshaled onto the loop
// thread. RegisterHotKey and UnregisterHotKey only work from the thread that
// runs the message loop.
type hookRequest struct {
	unregister bool
	id         int
	modifiers  uint32
	key        uint32
	reply      chan error
}

// winHookService runs a single message-loop thread that owns every
// RegisterHotKey registration in the process.
type winHookService struct {
	mu       sync.Mutex // guards the loop lifecycle fields below
	running  bool
	threadID uint32
	doneCh   chan struct{}
	requests chan hookRequest
}

func newHookService() hookService {
	return &winHookService{}
}

// Start launches the message-loop thread. Idempotent while the loop is alive.
func (s *winHookService) Start(onTrigger func(id int)) error {
	if onTrigger == nil {
		return errors.New("onTrigger callback is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	// Load both DLLs up front so failures surface as clean errors instead of
	// panics inside LazyProc.Call.
	if err := user32.Load(); err != nil {
		return fmt.Errorf("failed to load user32.dll: %w", err)
	}
	if err := kernel32.Load(); err != nil {
		return fmt.Errorf("failed to load kernel32.dll: %w", err)
	}

	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})
	// Capacity 1 is enough: the manager serializes hook requests, and the
	// buffer lets a sender enqueue before posting the wake message.
	requests := make(chan hookRequest, 1)

	go s.runLoop(onTrigger, readyCh, doneCh, requests)

	ready := <-readyCh
	if ready.err != nil {
		return ready.err
	}
	if ready.threadID == 0 {
		return errors.New("hotkey loop reported thread id 0")
	}

	s.running = true
	s.threadID = ready.threadID
	s.doneCh = doneCh
	s.requests = requests
	return nil
}

// Register installs a hook for combination under id. The RegisterHotKey call
// itself runs on the loop thread.
func (s *winHookService) Register(id int, combination string) error {
	modifiers, key, err := bindingCode(combination)
	if err != nil {
		return err
	}
	// modNoRepeat keeps keyboard auto-repeat from refiring the binding while
	// the chord is held down.
	return s.submit(hookRequest{id: id, modifiers: modifiers | modNoRepeat, key: key})
}

// Unregister removes the hook for id on the loop thread.
func (s *winHookService) Unregister(id int) error {
	return s.submit(hookRequest{unregister: true, id: id})
}

func (s *winHookService) submit(req hookRequest) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errors.New("hotkey loop is not running")
	}
	threadID := s.threadID
	doneCh := s.doneCh
	requests := s.requests
	s.mu.Unlock()

	req.reply = make(chan error, 1)
	select {
	case requests <- req:
	case <-doneCh:
		return errors.New("hotkey loop exited")
	}
	if err := postThreadMessage(threadID, wmHookRequest); err != nil {
		return fmt.Errorf("wake hotkey loop: %w", err)
	}
	select {
	case err := <-req.reply:
		return err
	case <-doneCh:
		return errors.New("hotkey loop exited before the request completed")
	}
}

// Stop posts WM_QUIT to the loop thread and waits for it to exit. The loop's
// shutdown path releases any hooks still installed.
func (s *winHookService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	var stopErr error
	if err := postThreadMessage(s.threadID, wmQuit); err != nil {
		stopErr = fmt.Errorf("post WM_QUIT to hotkey loop: %w", err)
		slog.Warn("[hotkey] failed to post WM_QUIT to hotkey loop", "error", err)
	}

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case <-s.doneCh:
	case <-timer.C:
		stopErr = errors.Join(stopErr, fmt.Errorf("hotkey loop did not exit within %s", stopTimeout))
	}

	s.running = false
	s.threadID = 0
	s.doneCh = nil
	s.requests = nil
	return stopErr
}

func (s *winHookService) runLoop(onTrigger func(id int), readyCh chan<- loopReady, doneCh chan struct{}, requests chan hookRequest) {
	// RegisterHotKey binds registrations to the calling thread, and
	// GetMessageW must run on that same thread.
	runtime.LockOSThread()
	defer close(doneCh)

	threadID, err := getCurrentThreadID()
	if err != nil {
		readyCh <- loopReady{err: fmt.Errorf("resolve hotkey loop thread id: %w", err)}
		return
	}

	// The thread message queue does not exist until the thread's first USER
	// call. Create it before publishing the thread id so a racing
	// PostThreadMessageW cannot be lost.
	var msg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, wmHookRequest, wmHookRequest, pmNoRemove)

	hooks := make(map[int]struct{})
	defer func() {
		for id := range hooks {
			if err := unregisterHotKey(id); err != nil {
				slog.Error("[hotkey] failed to release hotkey during shutdown; the registration may leak until process exit",
					"id", id, "error", err)
			}
		}
	}()

	readyCh <- loopReady{threadID: threadID}

	for {
		res, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(res) {
		case -1:
			slog.Warn("[hotkey] GetMessageW failed; hotkey loop exiting", "error", callErr)
			return
		case 0:
			slog.Info("[hotkey] hotkey loop received WM_QUIT")
			return
		}

		switch msg.message {
		case wmHotkey:
			id := int(msg.wParam)
			if _, ok := hooks[id]; ok {
				go onTrigger(id)
			} else {
				slog.Debug("[hotkey] ignoring press for unknown hotkey id", "id", id)
			}
		case wmHookRequest:
			drainHookRequests(requests, hooks)
		default:
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
		}
	}
}

// drainHookRequests services every queued request on the loop thread.
func drainHookRequests(requests chan hookRequest, hooks map[int]struct{}) {
	for {
		select {
		case req := <-requests:
			req.reply <- serveHookRequest(req, hooks)
		default:
			return
		}
	}
}

func serveHookRequest(req hookRequest, hooks map[int]struct{}) error {
	if req.unregister {
		// Teardown is unconditional: the entry is dropped even if the OS
		// call fails.
		err := unregisterHotKey(req.id)
		delete(hooks, req.id)
		return err
	}
	if err := registerHotKey(req.id, req.modifiers, req.key); err != nil {
		return err
	}
	hooks[req.id] = struct{}{}
	return nil
}

func registerHotKey(id int, modifiers, key uint32) error {
	res, _, err := procRegisterHotKey.Call(0, uintptr(id), uintptr(modifiers), uintptr(key))
	if res != 0 {
		return nil
	}
	if err == nil || err == syscall.Errno(0) {
		return fmt.Errorf("RegisterHotKey failed for id 0x%X (modifiers=0x%X, key=0x%X)", id, modifiers, key)
	}
	return fmt.Errorf("RegisterHotKey failed for id 0x%X (modifiers=0x%X, key=0x%X): %w", id, modifiers, key, err)
}

func unregisterHotKey(id int) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(id))
	if res != 0 {
		return nil
	}
	if err == nil || err == syscall.Errno(0) {
		return fmt.Errorf("UnregisterHotKey failed for id 0x%X", id)
	}
	return fmt.Errorf("UnregisterHotKey failed for id 0x%X: %w", id, err)
}

func postThreadMessage(threadID, message uint32) error {
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), uintptr(message), 0, 0)
	if res != 0 {
		return nil
	}
	if err == nil || err == syscall.Errno(0) {
		return fmt.Errorf("PostThreadMessageW(0x%X) failed", message)
	}
	return fmt.Errorf("PostThreadMessageW(0x%X) failed: %w", message, err)
}

func getCurrentThreadID() (uint32, error) {
	res, _, err := procGetCurrentThreadID.Call()
	if res != 0 {
		return uint32(res), nil
	}
	if err == nil || err == syscall.Errno(0) {
		return 0, errors.New("GetCurrentThreadId returned 0")
	}
	return 0, fmt.Errorf("GetCurrentThreadId failed: %w", err)
}
