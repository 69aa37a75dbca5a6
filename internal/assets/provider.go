// SPDX-License-Identifier: MPL-2.0

package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/rpbuild/rpbuild/internal/archive"
)

const (
	// CachePrefix prefixes every cached reference asset folder.
	CachePrefix = "assets-"

	// DefaultAssetsFolder is the folder inside a bundle that holds the assets.
	DefaultAssetsFolder = "assets"
)

var (
	// ErrVersionNotFound indicates neither the requested version nor the
	// latest release is listed in the manifest.
	ErrVersionNotFound = errors.New("version not found in manifest")
	// ErrAssetsFolderMissing indicates the extracted bundle has no assets folder.
	ErrAssetsFolderMissing = errors.New("bundle has no assets folder")
	// ErrInvalidVersionID indicates a version id that cannot be used as a
	// folder name.
	ErrInvalidVersionID = errors.New("invalid version id")
)

type (
	// Resolution describes a resolved reference asset tree.
	Resolution struct {
		// AssetDir is the assets-<Version> folder.
		AssetDir string
		Version  string
		// Cached is true when AssetDir already existed and no bundle was
		// downloaded or extracted.
		Cached bool
		// FellBack is true when the requested version was missing from the
		// manifest and the latest release was used instead.
		FellBack bool
	}

	// Provider resolves versions to reference asset folders inside workDir.
	Provider struct {
		workDir      string
		client       *Client
		logger       *log.Logger
		assetsFolder string
		progress     io.Writer
	}

	// ProviderOption configures a Provider during construction.
	ProviderOption func(*Provider)
)

// WithClient sets the upstream client.
func WithClient(c *Client) ProviderOption {
	return func(p *Provider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l *log.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithAssetsFolder overrides the name of the bundle's asset folder.
func WithAssetsFolder(name string) ProviderOption {
	return func(p *Provider) {
		if name != "" {
			p.assetsFolder = name
		}
	}
}

// WithProgress renders a download progress bar to w. A nil writer disables it.
func WithProgress(w io.Writer) ProviderOption {
	return func(p *Provider) {
		p.progress = w
	}
}

// NewProvider creates a Provider storing bundles and cached asset folders in workDir.
func NewProvider(workDir string, opts ...ProviderOption) *Provider {
	p := &Provider{
		workDir:      workDir,
		logger:       log.New(io.Discard),
		assetsFolder: DefaultAssetsFolder,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = NewClient()
	}
	return p
}

// Resolve returns the reference asset folder for requested, or for the latest
// release when requested is empty or not in the manifest. An existing
// assets-<version> folder is reused as is. The downloaded bundle and its
// extraction folder are removed before Resolve returns, whichever path was taken.
func (p *Provider) Resolve(ctx context.Context, requested string) (_ *Resolution, err error) {
	p.logger.Info("Fetching assets...")

	manifest, err := p.client.FetchManifest(ctx)
	if err != nil {
		return nil, err
	}

	entry, fellBack, err := pickVersion(manifest, requested)
	if err != nil {
		return nil, err
	}
	if fellBack {
		p.logger.Warn(fmt.Sprintf("Version %s not found. Defaulting to latest version (%s)", requested, entry.ID))
	}
	if err := validateVersionID(entry.ID); err != nil {
		return nil, err
	}

	descriptor, err := p.client.FetchDescriptor(ctx, entry.URL)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}

	res := &Resolution{
		AssetDir: filepath.Join(p.workDir, CachePrefix+entry.ID),
		Version:  entry.ID,
		FellBack: fellBack,
	}

	bundlePath := filepath.Join(p.workDir, entry.ID+".jar")
	extractDir := filepath.Join(p.workDir, entry.ID)
	defer func() {
		if rmErr := os.Remove(bundlePath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
			err = fmt.Errorf("removing bundle: %w", rmErr)
		}
		if rmErr := os.RemoveAll(extractDir); rmErr != nil && err == nil {
			err = fmt.Errorf("removing extraction folder: %w", rmErr)
		}
	}()

	if isDir(res.AssetDir) {
		p.logger.Debug("Using cached assets", "path", res.AssetDir)
		res.Cached = true
		return res, nil
	}

	if err := p.ensureBundle(ctx, descriptor.Downloads.Client, bundlePath); err != nil {
		return nil, err
	}

	if !isDir(extractDir) {
		p.logger.Info("  Unzipping: " + filepath.Base(bundlePath))
		if err := archive.Extract(bundlePath, extractDir, archive.WithPrefix(p.assetsFolder+"/")); err != nil {
			return nil, fmt.Errorf("extracting bundle: %w", err)
		}
	}

	p.logger.Info("  Copying assets...")
	src := filepath.Join(extractDir, p.assetsFolder)
	if !isDir(src) {
		return nil, fmt.Errorf("%w: %s", ErrAssetsFolderMissing, p.assetsFolder)
	}
	if err := os.Rename(src, res.AssetDir); err != nil {
		return nil, fmt.Errorf("moving assets into place: %w", err)
	}
	return res, nil
}

// ensureBundle leaves a bundle matching dl.SHA1 at path, reusing an existing
// file when its hash already matches.
func (p *Provider) ensureBundle(ctx context.Context, dl *Download, path string) error {
	if _, err := os.Stat(path); err == nil {
		if VerifyFile(path, dl.SHA1) == nil {
			p.logger.Debug("Reusing downloaded bundle", "path", path)
			return nil
		}
		p.logger.Debug("Discarding stale bundle", "path", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing stale bundle: %w", err)
		}
	}

	p.logger.Info("  Downloading: " + redactURL(dl.URL))
	tmp, err := p.downloadToTempFile(ctx, dl.URL, filepath.Dir(path))
	if err != nil {
		return err
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp)
		}
	}()

	if err := VerifyFile(tmp, dl.SHA1); err != nil {
		return fmt.Errorf("verifying bundle: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storing bundle: %w", err)
	}
	renamed = true
	return nil
}

// downloadToTempFile writes the body at url into a temp file in dir and
// returns its path. The caller removes the file.
func (p *Provider) downloadToTempFile(ctx context.Context, url, dir string) (_ string, err error) {
	body, size, err := p.client.Download(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	tmp, err := os.CreateTemp(dir, "rpbuild-download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	var dst io.Writer = tmp
	if p.progress != nil {
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(p.progress),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
		dst = io.MultiWriter(tmp, bar)
	}

	if _, err := io.Copy(dst, body); err != nil {
		return "", fmt.Errorf("writing to temp file: %w", err)
	}
	return tmp.Name(), nil
}

// pickVersion finds requested in the manifest or falls back to the latest
// release. fellBack is only reported when a version was actually requested.
func pickVersion(m *Manifest, requested string) (entry VersionEntry, fellBack bool, err error) {
	e, ok := VersionEntry{}, false
	if requested != "" {
		e, ok = m.Lookup(requested)
	}
	if !ok {
		if e, ok = m.Lookup(m.Latest.Release); !ok {
			return VersionEntry{}, false, &VersionNotFoundError{Requested: requested, Latest: m.Latest.Release}
		}
		fellBack = requested != ""
	}
	if e.URL == "" {
		return VersionEntry{}, false, fmt.Errorf("%w: version %s has no url", ErrMalformedManifest, e.ID)
	}
	return e, fellBack, nil
}

// VersionNotFoundError reports a failed version resolution.
type VersionNotFoundError struct {
	Requested string
	Latest    string
}

// Error implements error.
func (e *VersionNotFoundError) Error() string {
	if e.Requested == "" || e.Requested == e.Latest {
		return fmt.Sprintf("latest release %q is not listed in the manifest", e.Latest)
	}
	return fmt.Sprintf("neither %q nor latest release %q is listed in the manifest", e.Requested, e.Latest)
}

// Unwrap returns ErrVersionNotFound so callers can use errors.Is.
func (e *VersionNotFoundError) Unwrap() error { return ErrVersionNotFound }

// validateVersionID rejects ids that would escape the work directory when
// used as a file name.
func validateVersionID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || !filepath.IsLocal(id) {
		return fmt.Errorf("%w: %q", ErrInvalidVersionID, id)
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
