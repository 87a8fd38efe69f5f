package config

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestWatchRelevant(t *testing.T) {
	base := filepath.Join("dir", "config.json")
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{name: "write to config", event: fsnotify.Event{Name: base, Op: fsnotify.Write}, want: true},
		{name: "create config", event: fsnotify.Event{Name: base, Op: fsnotify.Create}, want: true},
		{name: "rename onto config", event: fsnotify.Event{Name: base, Op: fsnotify.Rename}, want: true},
		{name: "chmod ignored", event: fsnotify.Event{Name: base, Op: fsnotify.Chmod}, want: false},
		{name: "remove ignored", event: fsnotify.Event{Name: base, Op: fsnotify.Remove}, want: false},
		{name: "other file ignored", event: fsnotify.Event{Name: filepath.Join("dir", ".config.json.tmp.123"), Op: fsnotify.Write}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := watchRelevant(tt.event, "config.json"); got != tt.want {
				t.Errorf("watchRelevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestHandleFileChangeSkipsSelfWrite(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	s.handleFileChange(func() { calls++ })
	if calls != 0 {
		t.Errorf("onChange ran %d times for the store's own content, want 0", calls)
	}

	if err := s.UpdateSetting("external_marker", true); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	// Forge an external edit by resetting the fingerprint.
	s.mu.Lock()
	s.hasWriteSum = false
	s.mu.Unlock()
	s.handleFileChange(func() { calls++ })
	if calls != 1 {
		t.Errorf("onChange ran %d times for external content, want 1", calls)
	}
}
