// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs one resource pack build: resolve the reference
// assets, stage the pack, prune it, reconcile it against the reference, and
// archive it. Stages run strictly in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/rpbuild/rpbuild/internal/archive"
	"github.com/rpbuild/rpbuild/internal/assets"
	"github.com/rpbuild/rpbuild/internal/buildopts"
	"github.com/rpbuild/rpbuild/internal/issue"
	"github.com/rpbuild/rpbuild/internal/prune"
	"github.com/rpbuild/rpbuild/internal/reconcile"
	"github.com/rpbuild/rpbuild/internal/stage"
)

// ErrNoWorkDir is returned by New when Config.WorkDir is empty.
var ErrNoWorkDir = errors.New("work directory is required")

type (
	// AssetResolver yields the reference asset folder for a version.
	AssetResolver interface {
		Resolve(ctx context.Context, requested string) (*assets.Resolution, error)
	}

	// Config holds the filesystem layout of a build.
	Config struct {
		// WorkDir holds the staging copy and cached asset folders.
		WorkDir string
		// OutputDir receives <pack>.zip. Empty means WorkDir.
		OutputDir string
		// AssetsFolder is the pack's asset folder that gets reconciled.
		AssetsFolder string
		// CleanupOnFailure removes the staging copy when a stage fails.
		CleanupOnFailure bool
		// ArchiveExclude holds gitignore-style patterns kept out of the archive.
		ArchiveExclude []string
	}

	// Result summarizes a finished build.
	Result struct {
		Version     string
		FellBack    bool
		Cached      bool
		ArchivePath string
		Pruned      []string
		Reconciled  *reconcile.Result
	}

	// Builder runs builds against one resolver and layout.
	Builder struct {
		cfg      Config
		resolver AssetResolver
		logger   *log.Logger
	}

	// Option configures a Builder.
	Option func(*Builder)
)

// WithLogger sets the logger every stage reports to.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Builder.
func New(cfg Config, resolver AssetResolver, opts ...Option) (*Builder, error) {
	if cfg.WorkDir == "" {
		return nil, ErrNoWorkDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.WorkDir
	}
	if cfg.AssetsFolder == "" {
		cfg.AssetsFolder = assets.DefaultAssetsFolder
	}
	b := &Builder{
		cfg:      cfg,
		resolver: resolver,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ArchivePath returns where the archive for packPath is written.
func (b *Builder) ArchivePath(packPath string) string {
	return filepath.Join(b.cfg.OutputDir, filepath.Base(filepath.Clean(packPath))+".zip")
}

// Run builds packPath into an archive. On failure past staging, the staging
// copy is removed only when CleanupOnFailure is set; otherwise its location
// is logged for inspection.
func (b *Builder) Run(ctx context.Context, packPath string, opts buildopts.Options) (_ *Result, err error) {
	if err := checkPack(packPath); err != nil {
		return nil, err
	}

	resolution, err := b.resolver.Resolve(ctx, opts.Version)
	if err != nil {
		return nil, resolveError(err)
	}
	res := &Result{
		Version:  resolution.Version,
		FellBack: resolution.FellBack,
		Cached:   resolution.Cached,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	packName := filepath.Base(filepath.Clean(packPath))
	b.logger.Info("Copying resourcepack: " + packName)
	staged, err := stage.Stage(packPath, b.cfg.WorkDir)
	if err != nil {
		return nil, stageError(packPath, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if b.cfg.CleanupOnFailure {
			_ = os.RemoveAll(staged)
			return
		}
		b.logger.Warn("Staging directory left for inspection", "path", staged)
	}()

	if len(opts.RemoveList) > 0 {
		b.logger.Info("Removing files: " + opts.RemoveList.String())
		pruned, pruneErr := prune.Prune(staged, opts.RemoveList, prune.WithLogger(b.logger))
		if pruneErr != nil {
			return nil, fsError("prune resource pack", staged, pruneErr)
		}
		res.Pruned = pruned.Removed
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.logger.Info("Comparing " + packName + " to " + filepath.Base(resolution.AssetDir))
	reconciled, err := reconcile.Reconcile(
		filepath.Join(staged, b.cfg.AssetsFolder),
		resolution.AssetDir,
		opts.KeepList,
		reconcile.WithLogger(b.logger),
	)
	if err != nil {
		return nil, fsError("compare resource pack to reference assets", resolution.AssetDir, err)
	}
	res.Reconciled = reconciled

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.ArchivePath = b.ArchivePath(packPath)
	b.logger.Info("Zipping " + packName)
	if err := b.archive(staged, res.ArchivePath); err != nil {
		return nil, err
	}

	if err := os.RemoveAll(staged); err != nil {
		return nil, fsError("remove staging directory", staged, err)
	}
	return res, nil
}

func (b *Builder) archive(staged, archivePath string) error {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return fsError("create output directory", filepath.Dir(archivePath), err)
	}
	if err := os.Remove(archivePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fsError("remove previous archive", archivePath, err)
	}
	if err := archive.Compress(staged, archivePath, archive.WithExclude(b.cfg.ArchiveExclude...)); err != nil {
		return issue.NewErrorContext().
			WithOperation("create archive").
			WithResource(archivePath).
			WithSuggestion("Check free disk space and write permissions for the output directory").
			WithSuggestion("Check the archive.exclude patterns in your configuration").
			WithIssue(issue.ArchiveFailedId).
			Wrap(err).
			BuildError()
	}
	return nil
}

// checkPack fails fast on a missing pack before any network access.
func checkPack(packPath string) error {
	info, err := os.Stat(packPath)
	if err == nil && info.IsDir() {
		return nil
	}
	cause := err
	if cause == nil {
		cause = fmt.Errorf("%w: %s", stage.ErrSourceNotDir, packPath)
	} else if errors.Is(err, fs.ErrNotExist) {
		cause = fmt.Errorf("%w: %s", stage.ErrSourceNotFound, packPath)
	}
	return stageError(packPath, cause)
}
