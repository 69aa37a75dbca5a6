// SPDX-License-Identifier: MPL-2.0

// Package prune removes user-listed files and directories from a staged
// resource pack before it is reconciled against the reference assets.
package prune

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rpbuild/rpbuild/internal/pathpattern"
)

type (
	// Option configures a Prune call.
	Option func(*pruner)

	// Result reports what a Prune call deleted, as slash-separated paths
	// relative to the pruned root.
	Result struct {
		Removed []string
		// Skipped holds literal patterns refused because they escape the
		// root or name the root itself.
		Skipped []string
	}

	pruner struct {
		root   string
		logger *log.Logger
		result *Result
	}
)

// WithLogger sets the logger used to report removals.
func WithLogger(l *log.Logger) Option {
	return func(p *pruner) {
		if l != nil {
			p.logger = l
		}
	}
}

// Prune deletes every entry under root matched by patterns. Literal
// patterns name a path relative to root; a missing literal target is not an
// error. Any-depth patterns delete every entry with that name at any depth;
// a matching directory is deleted whole and not descended into.
func Prune(root string, patterns pathpattern.List, opts ...Option) (*Result, error) {
	p := &pruner{
		root:   root,
		logger: log.New(io.Discard),
		result: &Result{},
	}
	for _, opt := range opts {
		opt(p)
	}

	if len(patterns) == 0 {
		return p.result, nil
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("prune root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prune root %s is not a directory", root)
	}

	var names []string
	for _, pat := range patterns {
		switch pat.Kind() {
		case pathpattern.KindLiteral:
			if err := p.removeLiteral(pat.Value()); err != nil {
				return p.result, err
			}
		case pathpattern.KindAnyDepth:
			names = append(names, pat.Value())
		}
	}

	if len(names) > 0 {
		if err := p.removeNamed(root, names); err != nil {
			return p.result, err
		}
	}
	return p.result, nil
}

func (p *pruner) removeLiteral(rel string) error {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		p.logger.Warn("Ignoring remove pattern outside the pack", "pattern", rel)
		p.result.Skipped = append(p.result.Skipped, rel)
		return nil
	}

	target := filepath.Join(p.root, clean)
	if _, err := os.Lstat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("inspecting %s: %w", rel, err)
	}
	return p.remove(target)
}

// removeNamed walks dir depth-first over a snapshot of each listing.
func (p *pruner) removeNamed(dir string, names []string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if slices.Contains(names, entry.Name()) {
			if err := p.remove(path); err != nil {
				return err
			}
			continue
		}
		if entry.IsDir() {
			if err := p.removeNamed(path, names); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pruner) remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	p.logger.Debug("Removed", "path", rel)
	p.result.Removed = append(p.result.Removed, rel)
	return nil
}
