// SPDX-License-Identifier: MPL-2.0

package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// CachedVersion is a reference asset folder found in the work directory.
type CachedVersion struct {
	Version string
	Path    string
}

// CachedVersions lists the assets-<version> folders in workDir, sorted
// newest first. A missing workDir yields no entries.
func CachedVersions(workDir string) ([]CachedVersion, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing work directory: %w", err)
	}

	var rows []VersionEntry
	for _, e := range entries {
		version, ok := strings.CutPrefix(e.Name(), CachePrefix)
		if !ok || version == "" || !e.IsDir() {
			continue
		}
		rows = append(rows, VersionEntry{ID: version})
	}
	SortVersionsDesc(rows)

	out := make([]CachedVersion, 0, len(rows))
	for _, r := range rows {
		out = append(out, CachedVersion{Version: r.ID, Path: filepath.Join(workDir, CachePrefix+r.ID)})
	}
	return out, nil
}

// RemoveCached deletes the cached folders for versions, or every cached
// folder when versions is empty. It returns the versions actually removed.
func RemoveCached(workDir string, versions ...string) ([]string, error) {
	cached, err := CachedVersions(workDir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, c := range cached {
		if len(versions) > 0 && !slices.Contains(versions, c.Version) {
			continue
		}
		if err := os.RemoveAll(c.Path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", c.Path, err)
		}
		removed = append(removed, c.Version)
	}
	return removed, nil
}
