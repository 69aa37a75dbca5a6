// SPDX-License-Identifier: MPL-2.0

// Package stage copies a resource pack source directory into the scratch
// directory that later pipeline stages mutate.
package stage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrSourceNotFound indicates the pack source path does not exist.
	ErrSourceNotFound = errors.New("resource pack source not found")
	// ErrSourceNotDir indicates the pack source path is not a directory.
	ErrSourceNotDir = errors.New("resource pack source is not a directory")
	// ErrOverlap indicates the staging directory would coincide with or
	// contain the source pack.
	ErrOverlap = errors.New("staging directory overlaps resource pack source")
)

// Dir returns the staging directory for a pack: workDir joined with the
// pack's basename.
func Dir(packPath, workDir string) string {
	return filepath.Join(workDir, filepath.Base(filepath.Clean(packPath)))
}

// Stage copies packPath into Dir(packPath, workDir) and returns that path.
// A staging directory left behind by an earlier run is removed first.
func Stage(packPath, workDir string) (string, error) {
	info, err := os.Stat(packPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceNotFound, packPath)
		}
		return "", fmt.Errorf("stat %s: %w", packPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrSourceNotDir, packPath)
	}

	src, err := filepath.Abs(packPath)
	if err != nil {
		return "", fmt.Errorf("resolving pack path: %w", err)
	}
	dst, err := filepath.Abs(Dir(packPath, workDir))
	if err != nil {
		return "", fmt.Errorf("resolving staging path: %w", err)
	}
	if within(src, dst) || within(dst, src) {
		return "", fmt.Errorf("%w: %s", ErrOverlap, dst)
	}

	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("removing stale staging directory: %w", err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}

	if err := CopyDir(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// within reports whether path equals root or lies below it.
func within(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// CopyDir recursively copies src into dst. Regular files keep their
// permission bits, symlinks are recreated as symlinks, and other special
// files are skipped.
func CopyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("creating %s: %w", target, err)
			}
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("reading link %s: %w", path, err)
			}
			if err := os.Symlink(link, target); err != nil {
				return fmt.Errorf("creating link %s: %w", target, err)
			}
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := copyFile(path, target, info.Mode().Perm()); err != nil {
				return fmt.Errorf("copying %s: %w", rel, err)
			}
		}
		return nil
	})
}

func copyFile(src, dst string, perm fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		// Read-only file handle.
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm|0o600)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
