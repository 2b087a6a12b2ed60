// Package dotdir manages the .pensieve/ and ~/.pensieve directories.
//
// The dot directory holds config.toml, the sqlite state databases, and the
// default verbatim archive directory. Resolution prefers a project-local
// .pensieve/ over the home directory one so a repo can carry its own memory.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the pensieve directory.
	dirName = ".pensieve"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .pensieve/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.pensieve/ dir
//  3. Home ~/.pensieve/ dir
//  4. If none found, attempt to create ~/.pensieve/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating pensieve directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// ArchiveDir returns the verbatim archive directory under the resolved
// .pensieve/ directory, creating it if needed.
func (m *Manager) ArchiveDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, "archive")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive directory %s: %w", dir, err)
	}

	return dir, nil
}

// localDirExists checks whether a .pensieve/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
