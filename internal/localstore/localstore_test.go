package localstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadMissingFileIsZeroState(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Snapshot(); !isZero(got) {
		t.Errorf("state = %+v, want zero", got)
	}
}

func isZero(s State) bool {
	return s.UserID == "" && s.Token == "" && s.PendingProvider == "" && s.PendingPermissions == nil
}

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path)
	if err := s.SetSession("u42", "tok"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	// A fresh Store over the same file sees the persisted identity.
	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.Snapshot()
	if got.UserID != "u42" || got.Token != "tok" {
		t.Errorf("state = %+v", got)
	}
}

func TestPendingConsentSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path)
	if err := s.SetPending("github", []string{"Access repositories"}); err != nil {
		t.Fatalf("SetPending: %v", err)
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.Snapshot()
	if got.PendingProvider != "github" {
		t.Errorf("provider = %q", got.PendingProvider)
	}
	if len(got.PendingPermissions) != 1 || got.PendingPermissions[0] != "Access repositories" {
		t.Errorf("permissions = %v", got.PendingPermissions)
	}

	if err := reloaded.ClearPending(); err != nil {
		t.Fatalf("ClearPending: %v", err)
	}
	if got := reloaded.Snapshot(); got.PendingProvider != "" || got.PendingPermissions != nil {
		t.Errorf("state after clear = %+v", got)
	}
}

func TestClearWipesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path)
	if err := s.SetSession("u1", "tok"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if err := s.SetPending("slack", nil); err != nil {
		t.Fatalf("SetPending: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := s.Snapshot(); !isZero(got) {
		t.Errorf("state = %+v, want zero", got)
	}
}

func TestStateFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := New(path)
	if err := s.SetSession("u1", "tok"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
}
