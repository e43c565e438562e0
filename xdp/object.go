package xdp

import (
	"fmt"
	"os"
	"path/filepath"
)

// envObjectPath overrides the search path for shipped BPF objects such as
// the dispatcher template.
const envObjectPath = "XDP_OBJECT_PATH"

var defaultObjectDirs = []string{
	"/usr/local/lib/bpf",
	"/usr/lib/bpf",
}

// findObjectFile locates a shipped BPF object file by name, preferring the
// XDP_OBJECT_PATH directory over the built-in locations.
func findObjectFile(name string) (string, error) {
	dirs := []string{}

	envDir := os.Getenv(envObjectPath)
	if envDir != "" {
		dirs = append(dirs, envDir)
	}

	dirs = append(dirs, defaultObjectDirs...)

	for _, dir := range dirs {
		path := filepath.Join(dir, name)

		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("Couldn't find BPF object %q in %v: %w", name, dirs, os.ErrNotExist)
}
