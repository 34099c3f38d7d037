package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataRoot_PrefersXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	t.Setenv("HOME", "/home/user")
	assert.Equal(t, "/xdg/data", dataRoot())
}

func TestDataRoot_FallsBackToHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/user")
	assert.Equal(t, filepath.Join("/home/user", ".local", "share"), dataRoot())
}

func TestDataRoot_FallsBackToCurrentDirWhenUnset(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")
	assert.Equal(t, ".", dataRoot())
}

func TestDefaultStorePath_NestsUnderClithemeDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	assert.Equal(t, filepath.Join("/xdg/data", "clitheme", "subst-data.db"), defaultStorePath())
}
