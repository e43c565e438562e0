package bpffs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock holds an exclusive advisory lock on a directory. The lock is released
// and the underlying descriptor closed by Unlock.
type Lock struct {
	f *os.File
}

// AcquireLock takes the exclusive advisory lock on the managed XDP
// directory, blocking until it becomes available. Acquisitions must not be
// nested within one process.
func AcquireLock() (*Lock, error) {
	dir, err := ManagedDir()
	if err != nil {
		return nil, err
	}

	return lockDir(dir)
}

// lockDir opens dir and flocks it. It does not retry on EINTR so that a
// signal can interrupt the wait.
func lockDir(dir string) (*Lock, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("Failed to open %q: %w", dir, err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("Failed to lock %q: %w", dir, err)
	}

	return &Lock{f: f}, nil
}

// Unlock releases the lock and closes its descriptor. It is safe to call on
// an already released lock.
func (l *Lock) Unlock() {
	if l == nil || l.f == nil {
		return
	}

	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	_ = l.f.Close()
	l.f = nil
}
