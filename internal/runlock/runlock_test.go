package runlock

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireIsExclusive(t *testing.T) {
	lockDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "out")

	first, err := Acquire(lockDir, target)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	if _, err := Acquire(lockDir, target); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked for second acquire, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release should be a no-op, got %v", err)
	}

	again, err := Acquire(lockDir, target)
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	defer again.Release()
}

func TestDifferentTargetsDoNotConflict(t *testing.T) {
	lockDir := t.TempDir()
	base := t.TempDir()

	a, err := Acquire(lockDir, filepath.Join(base, "a"))
	if err != nil {
		t.Fatalf("Acquire a failed: %v", err)
	}
	defer a.Release()
	b, err := Acquire(lockDir, filepath.Join(base, "b"))
	if err != nil {
		t.Fatalf("Acquire b failed: %v", err)
	}
	defer b.Release()

	if a.Path() == b.Path() {
		t.Fatalf("expected distinct lock files, both %s", a.Path())
	}
}

func TestPathForIsStable(t *testing.T) {
	lockDir := "/var/lib/mediakit/locks"
	p1 := PathFor(lockDir, "/home/user/Downloads/Videos")
	p2 := PathFor(lockDir, "/home/user/Downloads/Videos/")
	if p1 != p2 {
		t.Fatalf("expected trailing slash to be ignored: %s vs %s", p1, p2)
	}
	if filepath.Dir(p1) != lockDir {
		t.Fatalf("expected lock inside %s, got %s", lockDir, p1)
	}
	if !strings.HasPrefix(filepath.Base(p1), "videos-") || !strings.HasSuffix(p1, ".lock") {
		t.Fatalf("unexpected lock name %s", p1)
	}
}

func TestNilLockRelease(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("expected nil release to succeed, got %v", err)
	}
	if l.Path() != "" {
		t.Fatal("expected empty path for nil lock")
	}
}
