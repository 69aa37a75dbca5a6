// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"io/fs"

	"github.com/rpbuild/rpbuild/internal/assets"
	"github.com/rpbuild/rpbuild/internal/issue"
	"github.com/rpbuild/rpbuild/internal/stage"
)

// resolveError attaches catalog context to an asset resolution failure.
func resolveError(err error) error {
	ctx := issue.NewErrorContext().WithOperation("resolve reference assets").Wrap(err)

	switch {
	case errors.Is(err, assets.ErrVersionNotFound):
		ctx.WithIssue(issue.VersionNotFoundId).
			WithSuggestions(
				"Run 'rpbuild versions' to list available versions",
				"Check manifest_url in your configuration",
			)
	case errors.Is(err, assets.ErrChecksumMismatch):
		ctx.WithIssue(issue.ChecksumMismatchId).
			WithSuggestion("Retry the build; the download may have been corrupted")
	case errors.Is(err, assets.ErrAssetsFolderMissing):
		ctx.WithIssue(issue.AssetsMissingId).
			WithSuggestion("Check assets_folder in your configuration")
	case errors.Is(err, fs.ErrPermission):
		ctx.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Choose a writable work directory with --work-dir")
	default:
		ctx.WithIssue(issue.UpstreamUnavailableId).
			WithSuggestions(
				"Check your network connection",
				"Check manifest_url in your configuration",
			)
	}
	return ctx.BuildError()
}

// stageError attaches catalog context to a staging failure.
func stageError(packPath string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("stage resource pack").
		WithResource(packPath).
		Wrap(err)

	switch {
	case errors.Is(err, stage.ErrSourceNotFound), errors.Is(err, stage.ErrSourceNotDir):
		ctx.WithIssue(issue.PackNotFoundId).
			WithSuggestion("Pass the path of the resource pack folder, not a zip")
	case errors.Is(err, stage.ErrOverlap):
		ctx.WithSuggestion("Use a work directory outside the resource pack with --work-dir")
	case errors.Is(err, fs.ErrPermission):
		ctx.WithIssue(issue.PermissionDeniedId)
	}
	return ctx.BuildError()
}

// fsError wraps a filesystem failure in a later stage.
func fsError(operation, resource string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)
	if errors.Is(err, fs.ErrPermission) {
		ctx.WithIssue(issue.PermissionDeniedId)
	}
	return ctx.BuildError()
}
