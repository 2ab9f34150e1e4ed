package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRepoRoot resolves the module root (the directory holding go.mod) by
// walking parent directories from the working directory. Anchors .env and
// the resource/migration paths when the binary runs from a subdirectory.
func FindRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		if filepath.Dir(dir) == dir {
			return "", fmt.Errorf("no go.mod in %s or any parent", wd)
		}
	}
}
