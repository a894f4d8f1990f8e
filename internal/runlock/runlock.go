// Package runlock serializes runs that write into the same output directory.
//
// Locks are advisory flock files kept under the data directory, one per
// output directory, so two bgremove or vidget processes never interleave
// writes into one place.
package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"mediakit/internal/textutil"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("output directory is in use by another run")

// Lock is a held advisory lock on an output directory.
type Lock struct {
	path   string
	target string
	flock  *flock.Flock
}

// PathFor returns the lock file used for target inside lockDir.
func PathFor(lockDir, target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = filepath.Clean(target)
	}
	sum := sha256.Sum256([]byte(abs))
	name := textutil.SanitizeToken(filepath.Base(abs)) + "-" + hex.EncodeToString(sum[:6]) + ".lock"
	return filepath.Join(lockDir, name)
}

// Acquire takes the lock for target without blocking. It fails with ErrLocked
// when another process already holds it.
func Acquire(lockDir, target string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path := PathFor(lockDir, target)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (lock %s)", ErrLocked, target, path)
	}
	return &Lock{path: path, target: target, flock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks and closes the lock file. It is safe to call on a nil lock
// and more than once.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
