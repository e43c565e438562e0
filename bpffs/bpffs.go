// Package bpffs locates the BPF filesystem and mediates access to the
// managed XDP state directory kept on it.
package bpffs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultPath is the usual bpffs mount point, used when XDP_BPFFS isn't set.
const DefaultPath = "/sys/fs/bpf"

// envRoot overrides the bpffs search path.
const envRoot = "XDP_BPFFS"

// managedDirName is the sub-directory of the bpffs root holding all XDP
// dispatcher state.
const managedDirName = "xdp"

// ErrNotMounted is returned when no bpffs mount could be found.
var ErrNotMounted = errors.New("No bpffs filesystem found")

var (
	rootOnce sync.Once
	rootPath string
	rootErr  error

	managedOnce sync.Once
	managedPath string
	managedErr  error
)

// isBpffs checks whether the filesystem backing path reports the bpffs magic.
func isBpffs(path string) bool {
	var st unix.Statfs_t

	err := unix.Statfs(path, &st)
	if err != nil {
		return false
	}

	return uint32(st.Type) == uint32(unix.BPF_FS_MAGIC)
}

// FindRoot returns the mount point of the BPF filesystem. The XDP_BPFFS
// environment variable takes precedence over the default mount point. The
// result is memoized for the lifetime of the process.
func FindRoot() (string, error) {
	rootOnce.Do(func() {
		candidates := []string{}

		envPath := os.Getenv(envRoot)
		if envPath != "" {
			candidates = append(candidates, envPath)
		}

		candidates = append(candidates, DefaultPath)

		for _, candidate := range candidates {
			if isBpffs(candidate) {
				rootPath = candidate
				return
			}
		}

		rootErr = ErrNotMounted
	})

	return rootPath, rootErr
}

// ManagedDir returns the managed XDP directory on the BPF filesystem,
// creating it if missing. The result is memoized for the lifetime of the
// process.
func ManagedDir() (string, error) {
	managedOnce.Do(func() {
		root, err := FindRoot()
		if err != nil {
			managedErr = err
			return
		}

		dir := filepath.Join(root, managedDirName)
		err = os.Mkdir(dir, 0700)
		if err != nil && !os.IsExist(err) {
			managedErr = fmt.Errorf("Failed to create %q: %w", dir, err)
			return
		}

		managedPath = dir
	})

	return managedPath, managedErr
}
