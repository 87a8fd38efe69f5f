package action

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("lock_screen", &fakeAction{name: "Lock Screen"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	err := r.Register("lock_screen", &fakeAction{name: "Another Lock Screen"})
	if !errors.Is(err, ErrDuplicateAction) {
		t.Fatalf("duplicate Register error = %v, want ErrDuplicateAction", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len after rejected duplicate = %d, want 1", r.Len())
	}

	if err := r.Register("", &fakeAction{name: "No ID"}); err == nil {
		t.Error("Register with empty id succeeded, want error")
	}
	if err := r.Register("nil_action", nil); err == nil {
		t.Error("Register(nil) succeeded, want error")
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	want := &fakeAction{name: "Toggle System Audio Mute"}
	if err := r.Register("toggle_system_mute", want); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	got, ok := r.Get("toggle_system_mute")
	if !ok || got != Action(want) {
		t.Errorf("Get = (%v, %v), want the registered action", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) reported found")
	}
}

func TestRegistryListIsACopy(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("lock_screen", &fakeAction{name: "Lock Screen"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	list := r.List()
	delete(list, "lock_screen")
	if r.Len() != 1 {
		t.Error("mutating List() result affected the registry")
	}
}

func TestRegistryIDsSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"toggle_system_mute", "lock_screen", "mute_app"} {
		if err := r.Register(id, &fakeAction{name: id}); err != nil {
			t.Fatalf("Register(%q) returned error: %v", id, err)
		}
	}
	want := []string{"lock_screen", "mute_app", "toggle_system_mute"}
	if got := r.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry()
	a := &fakeAction{
		name:        "Set App Volume",
		description: "Set the volume of a specific application",
		params:      []Parameter{{Name: "app_name", Type: TypeString, Required: true}},
	}
	if err := r.Register("set_app_volume", a); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := r.Register("lock_screen", &fakeAction{name: "Lock Screen"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	infos := r.Describe()
	if len(infos) != 2 {
		t.Fatalf("Describe returned %d infos, want 2", len(infos))
	}
	if infos[0].ID != "lock_screen" || infos[1].ID != "set_app_volume" {
		t.Errorf("Describe order = %q, %q; want sorted by id", infos[0].ID, infos[1].ID)
	}
	if infos[1].Name != "Set App Volume" {
		t.Errorf("Name = %q, want the display title", infos[1].Name)
	}
	if infos[1].Description != a.description {
		t.Errorf("Description = %q, want %q", infos[1].Description, a.description)
	}
	if len(infos[1].Parameters) != 1 || infos[1].Parameters[0].Name != "app_name" {
		t.Errorf("Parameters not carried through: %+v", infos[1].Parameters)
	}
}

func TestRegistryExecute(t *testing.T) {
	t.Run("unknown id returns false", func(t *testing.T) {
		r := NewRegistry()
		if r.Execute("nonexistent_action", map[string]any{}) {
			t.Error("Execute of unknown id returned true")
		}
	})

	t.Run("validation failure returns false", func(t *testing.T) {
		r := NewRegistry()
		ran := false
		a := volumeAction()
		a.execute = func(map[string]any) bool { ran = true; return true }
		if err := r.Register("set_app_volume", a); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if r.Execute("set_app_volume", map[string]any{"app_name": "x", "volume": 2.0}) {
			t.Error("Execute with out-of-range volume returned true")
		}
		if ran {
			t.Error("action ran despite failed validation")
		}
	})

	t.Run("action failure returns false", func(t *testing.T) {
		r := NewRegistry()
		a := &fakeAction{name: "Lock Screen", execute: func(map[string]any) bool { return false }}
		if err := r.Register("lock_screen", a); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if r.Execute("lock_screen", nil) {
			t.Error("Execute returned true for a failing action")
		}
	})

	t.Run("panic is recovered", func(t *testing.T) {
		r := NewRegistry()
		a := &fakeAction{name: "Lock Screen", execute: func(map[string]any) bool { panic("boom") }}
		if err := r.Register("lock_screen", a); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if r.Execute("lock_screen", nil) {
			t.Error("Execute returned true for a panicking action")
		}
	})

	t.Run("success passes params through", func(t *testing.T) {
		r := NewRegistry()
		var seen map[string]any
		a := volumeAction()
		a.execute = func(p map[string]any) bool { seen = p; return true }
		if err := r.Register("set_app_volume", a); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		params := map[string]any{"app_name": "spotify.exe", "volume": 0.5}
		if !r.Execute("set_app_volume", params) {
			t.Fatal("Execute returned false, want true")
		}
		if !reflect.DeepEqual(seen, params) {
			t.Errorf("action saw params %v, want %v", seen, params)
		}
	})

	t.Run("nil params become empty map", func(t *testing.T) {
		r := NewRegistry()
		a := &fakeAction{name: "Lock Screen", execute: func(p map[string]any) bool { return p != nil }}
		if err := r.Register("lock_screen", a); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if !r.Execute("lock_screen", nil) {
			t.Error("Execute(nil params) returned false")
		}
	})
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("old_action", &fakeAction{name: "Old"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	err := r.Reload(func(reg *Registry) error {
		return reg.Register("new_action", &fakeAction{name: "New"})
	})
	if err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if _, ok := r.Get("old_action"); ok {
		t.Error("old action survived Reload")
	}
	if _, ok := r.Get("new_action"); !ok {
		t.Error("new action missing after Reload")
	}

	if err := r.Reload(nil); err != nil {
		t.Fatalf("Reload(nil) returned error: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len after Reload(nil) = %d, want 0", r.Len())
	}
}
