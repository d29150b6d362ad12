package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DBLock serializes writers to one SQLite file across sentiview processes.
// The lock lives in a sibling "<db>.lock" file.
type DBLock struct {
	lock *flock.Flock
	path string
}

func NewDBLock(dbPath string) (*DBLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	lockPath := absPath + ".lock"
	return &DBLock{lock: flock.New(lockPath), path: lockPath}, nil
}

// WithLock runs fn while holding the lock, blocking until it is free.
func (l *DBLock) WithLock(fn func() error) error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	if !ok {
		Log.Debugf("Another sentiview process is writing, waiting for %s", l.path)
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("lock %s: %w", l.path, err)
		}
	}

	fnErr := fn()
	if err := l.lock.Unlock(); err != nil && !os.IsNotExist(err) {
		Log.Warnf("Could not release %s: %v", l.path, err)
	}
	return fnErr
}

func (l *DBLock) Path() string {
	return l.path
}

// GetAbsDBPath resolves the database path.
// An empty path means ~/.config/sentiview/sentiview.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "sentiview", "sentiview.sqlite"), nil
	}
	return filepath.Abs(dbPath)
}
