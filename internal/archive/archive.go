// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/pathrules"
)

// maxEntryBytes caps a single extracted entry (512 MiB) so a malformed or
// hostile bundle cannot fill the disk.
const maxEntryBytes = 512 << 20

var (
	// ErrUnsafePath indicates an archive entry that would land outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")
	// ErrEntryTooLarge indicates an entry larger than maxEntryBytes.
	ErrEntryTooLarge = errors.New("archive entry exceeds size limit")
	// ErrInvalidExclude indicates an exclude pattern pathrules could not compile.
	ErrInvalidExclude = errors.New("invalid exclude pattern")
)

type (
	compressConfig struct {
		exclude []string
	}

	// CompressOption configures Compress.
	CompressOption func(*compressConfig)

	extractConfig struct {
		prefix string
	}

	// ExtractOption configures Extract.
	ExtractOption func(*extractConfig)
)

// WithExclude skips entries matching gitignore-style patterns, evaluated
// against slash-separated paths relative to the source directory.
func WithExclude(patterns ...string) CompressOption {
	return func(c *compressConfig) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// WithPrefix restricts extraction to entries whose name starts with prefix.
// Entry paths are kept as-is, prefix included.
func WithPrefix(prefix string) ExtractOption {
	return func(c *extractConfig) {
		c.prefix = prefix
	}
}

// Compress writes the contents of srcDir into a new zip at archivePath.
// Entries are relative to srcDir, so srcDir itself is not a path component.
// An existing file at archivePath is truncated. On failure the partial
// archive is removed.
func Compress(srcDir, archivePath string, opts ...CompressOption) (err error) {
	var cfg compressConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	matcher, err := newExcludeMatcher(cfg.exclude)
	if err != nil {
		return err
	}

	absArchive, err := filepath.Abs(archivePath)
	if err != nil {
		return fmt.Errorf("resolving archive path: %w", err)
	}

	zipFile, err := os.Create(absArchive)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if err != nil {
			// Best-effort removal of the partial archive.
			_ = os.Remove(absArchive)
		}
	}()
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(zipFile)
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("finalizing archive: %w", closeErr)
		}
	}()

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(srcDir, path)
		if relErr != nil {
			return fmt.Errorf("relative path for %s: %w", path, relErr)
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if abs, absErr := filepath.Abs(path); absErr == nil && abs == absArchive {
			return nil
		}

		if matcher != nil && !matcher.Included(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if _, createErr := zw.Create(rel + "/"); createErr != nil {
				return fmt.Errorf("creating directory entry %s: %w", rel, createErr)
			}
			return nil
		}

		// Symlinks contribute their target's content; links to anything but
		// a regular file are dropped.
		info, statErr := os.Stat(path)
		if statErr != nil {
			return fmt.Errorf("stat %s: %w", path, statErr)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		return addFile(zw, path, rel, info)
	})
	if walkErr != nil {
		return fmt.Errorf("compressing %s: %w", srcDir, walkErr)
	}

	return nil
}

func addFile(zw *zip.Writer, path, name string, info fs.FileInfo) (err error) {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("creating header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		// Read-only file handle.
		_ = f.Close()
	}()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	return nil
}

// Extract unpacks the zip at archivePath into destDir, creating destDir if
// needed. Entries escaping destDir fail the extraction with ErrUnsafePath.
func Extract(archivePath, destDir string, opts ...ExtractOption) (err error) {
	var cfg extractConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}
	if err := os.MkdirAll(absDest, 0o755); err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, file := range zr.File {
		if cfg.prefix != "" && !strings.HasPrefix(file.Name, cfg.prefix) {
			continue
		}

		destPath := filepath.Join(absDest, filepath.FromSlash(file.Name))
		relPath, relErr := filepath.Rel(absDest, destPath)
		if relErr != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, file.Name)
		}

		if file.FileInfo().IsDir() {
			if mkdirErr := os.MkdirAll(destPath, 0o755); mkdirErr != nil {
				return fmt.Errorf("creating directory %s: %w", file.Name, mkdirErr)
			}
			continue
		}

		if mkdirErr := os.MkdirAll(filepath.Dir(destPath), 0o755); mkdirErr != nil {
			return fmt.Errorf("creating parent of %s: %w", file.Name, mkdirErr)
		}

		if extractErr := extractFile(file, destPath); extractErr != nil {
			return fmt.Errorf("extracting %s: %w", file.Name, extractErr)
		}
	}

	return nil
}

// extractFile copies one entry to destPath, keeping the entry's permission
// bits but always leaving the file owner-writable so it can be cleaned up.
func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	perm := file.Mode().Perm() | 0o600
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(destFile, io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return err
	}
	if n > maxEntryBytes {
		return ErrEntryTooLarge
	}
	return nil
}

// newExcludeMatcher compiles exclude patterns into a matcher that includes
// everything not excluded. It returns nil when there is nothing to exclude.
func newExcludeMatcher(patterns []string) (*pathrules.Matcher, error) {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionExclude,
			Pattern: p,
		})
	}
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionInclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExclude, err)
	}
	return matcher, nil
}
