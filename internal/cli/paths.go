package cli

import (
	"os"
	"path/filepath"
)

// dataRoot resolves the data-root directory per spec §6:
// XDG_DATA_HOME, then HOME, determine the root under which the
// default rule store lives.
func dataRoot() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}
