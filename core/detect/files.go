// Package detect provides utilities for locating project roots and classifying
// workspace files. The language server selector and the workspace indexer both
// rely on these helpers.
package detect

import (
	"errors"
	"os"
	"path/filepath"
)

var (
	ErrInvalidPath      = errors.New("invalid path provided")
	ErrFileNotFound     = errors.New("file not found")
	ErrNoFilesSpecified = errors.New("no files specified")
)

// FileExists checks if any of the specified files exist under the root directory.
func FileExists(root string, files ...string) bool {
	if root == "" || len(files) == 0 {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	for _, file := range files {
		if fileExistsAt(absRoot, file) {
			return true
		}
	}
	return false
}

func fileExistsAt(absRoot, file string) bool {
	fullPath := file
	if !filepath.IsAbs(file) {
		fullPath = filepath.Join(absRoot, file)
	}
	info, err := os.Stat(fullPath)
	return err == nil && !info.IsDir()
}

// FindUp searches upward from startDir for any of the specified filenames and
// returns the path of the first hit. It is used to locate workspace roots by
// marker files such as go.mod or package.json.
func FindUp(startDir string, filenames ...string) (string, error) {
	if startDir == "" {
		return "", ErrInvalidPath
	}
	if len(filenames) == 0 {
		return "", ErrNoFilesSpecified
	}

	currentDir, err := resolveStartDir(startDir)
	if err != nil {
		return "", err
	}

	for {
		if path := findFileInDir(currentDir, filenames); path != "" {
			return path, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrFileNotFound
		}
		currentDir = parentDir
	}
}

// WorkspaceRoot returns the directory containing the nearest root marker above
// startDir, or startDir itself when no marker is found.
func WorkspaceRoot(startDir string, markers ...string) string {
	path, err := FindUp(startDir, markers...)
	if err != nil {
		return startDir
	}
	return filepath.Dir(path)
}

func resolveStartDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", ErrInvalidPath
	}

	info, err := os.Stat(absDir)
	if err != nil {
		return "", ErrInvalidPath
	}
	if !info.IsDir() {
		absDir = filepath.Dir(absDir)
	}
	return absDir, nil
}

func findFileInDir(dir string, filenames []string) string {
	for _, filename := range filenames {
		candidate := filepath.Join(dir, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
