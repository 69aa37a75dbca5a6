// SPDX-License-Identifier: MPL-2.0

// Package reconcile strips a staged resource pack of every override that has
// no counterpart in the reference asset tree.
//
// The walk is depth-first and pre-order. Each directory listing is
// snapshotted before any entry is visited, so deleting entries never
// disturbs the iteration. A staged directory whose reference counterpart is
// also a directory is descended into and is never itself deleted, even when
// every child is removed.
//
// Keep-list exemptions are evaluated against the reference side: a literal
// keep pattern is compared with the reference path of the entry, written
// slash-separated and relative to the directory that holds the reference
// root (for example "assets-1.20.1/minecraft/textures/custom.png"). An
// any-depth pattern "*/name" exempts every entry with that basename.
package reconcile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rpbuild/rpbuild/internal/pathpattern"
)

// ErrReferenceMissing is returned when the reference root does not exist or
// is not a directory.
var ErrReferenceMissing = errors.New("reference asset directory not found")

type (
	// Option configures a Reconcile call.
	Option func(*reconciler)

	// Result lists what a reconciliation did, as slash-separated paths
	// relative to the staged root.
	Result struct {
		Removed []string
		// Kept holds entries absent from the reference that the keep-list
		// exempted.
		Kept []string
		// Skipped is set when the staged root did not exist.
		Skipped bool
	}

	reconciler struct {
		stagedRoot string
		refBase    string
		keep       pathpattern.List
		logger     *log.Logger
		result     *Result
	}
)

// WithLogger sets the logger that receives the Scanning/Removing trace.
func WithLogger(l *log.Logger) Option {
	return func(r *reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// Reconcile removes every entry under stagedRoot that has no counterpart at
// the same relative location under referenceRoot, unless keep exempts it.
// A missing stagedRoot is logged and yields an empty, skipped Result.
func Reconcile(stagedRoot, referenceRoot string, keep pathpattern.List, opts ...Option) (*Result, error) {
	r := &reconciler{
		stagedRoot: stagedRoot,
		refBase:    filepath.Dir(filepath.Clean(referenceRoot)),
		keep:       keep,
		logger:     log.New(io.Discard),
		result:     &Result{},
	}
	for _, opt := range opts {
		opt(r)
	}

	if info, err := os.Stat(stagedRoot); err != nil || !info.IsDir() {
		r.logger.Warn("Nothing to compare, pack has no asset folder", "path", stagedRoot)
		r.result.Skipped = true
		return r.result, nil
	}
	if info, err := os.Stat(referenceRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrReferenceMissing, referenceRoot)
	}

	if err := r.walk(stagedRoot, referenceRoot, 0); err != nil {
		return r.result, err
	}
	return r.result, nil
}

func (r *reconciler) walk(stagedDir, refDir string, depth int) error {
	if depth > 0 {
		r.logger.Info(indent(depth-1) + "Scanning " + r.display(stagedDir))
	}

	entries, err := os.ReadDir(stagedDir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", stagedDir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		stagedPath := filepath.Join(stagedDir, name)
		refPath := filepath.Join(refDir, name)

		refInfo, refErr := os.Stat(refPath)
		if refErr != nil && !errors.Is(refErr, fs.ErrNotExist) {
			return fmt.Errorf("inspecting %s: %w", refPath, refErr)
		}

		if entry.IsDir() {
			if refErr == nil && refInfo.IsDir() {
				if err := r.walk(stagedPath, refPath, depth+1); err != nil {
					return err
				}
				continue
			}
		} else if refErr == nil {
			continue
		}

		if r.exempt(refPath, name) {
			r.result.Kept = append(r.result.Kept, r.relative(stagedPath))
			continue
		}

		r.logger.Info(indent(depth) + "Removing " + r.display(stagedPath))
		if err := os.RemoveAll(stagedPath); err != nil {
			return fmt.Errorf("removing %s: %w", stagedPath, err)
		}
		r.result.Removed = append(r.result.Removed, r.relative(stagedPath))
	}
	return nil
}

func (r *reconciler) exempt(refPath, name string) bool {
	if len(r.keep) == 0 {
		return false
	}
	keyPath, err := filepath.Rel(r.refBase, refPath)
	if err != nil {
		keyPath = refPath
	}
	return r.keep.Exempts(filepath.ToSlash(keyPath), name)
}

func (r *reconciler) relative(path string) string {
	rel, err := filepath.Rel(r.stagedRoot, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// display renders path the way the trace shows it: rooted at the staged
// asset folder with a leading slash.
func (r *reconciler) display(path string) string {
	return "/" + r.relative(path)
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
