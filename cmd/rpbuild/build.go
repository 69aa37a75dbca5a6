// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpbuild/rpbuild/internal/assets"
	"github.com/rpbuild/rpbuild/internal/buildopts"
	"github.com/rpbuild/rpbuild/internal/pipeline"
	"github.com/rpbuild/rpbuild/pkg/types"
)

// errNoPack is returned when the pack path argument is missing.
var errNoPack = errors.New("missing resource pack path; usage: rpbuild <resourcepack> [key=value ...]")

// buildParams bundles the dependencies and inputs of one build, so runBuild
// can be tested without a Cobra command.
type buildParams struct {
	stdout   io.Writer
	builder  *pipeline.Builder
	packPath string
	// tokens are the key=value arguments after the pack path.
	tokens []string
}

func (a *app) runBuildCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &ExitError{Code: types.ExitUsage, Err: errNoPack}
	}

	s, err := a.settings(cmd.Context())
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), s.verbose)
	providerOpts := []assets.ProviderOption{
		assets.WithClient(s.client()),
		assets.WithLogger(logger),
		assets.WithAssetsFolder(s.cfg.AssetsFolder),
	}
	if s.progress {
		providerOpts = append(providerOpts, assets.WithProgress(cmd.ErrOrStderr()))
	}

	builder, err := pipeline.New(pipeline.Config{
		WorkDir:          s.workDir,
		OutputDir:        s.outputDir,
		AssetsFolder:     s.cfg.AssetsFolder,
		CleanupOnFailure: s.cfg.CleanupOnFailure,
		ArchiveExclude:   s.cfg.Archive.Exclude,
	}, assets.NewProvider(s.workDir, providerOpts...), pipeline.WithLogger(logger))
	if err != nil {
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	p := buildParams{
		stdout:   cmd.OutOrStdout(),
		builder:  builder,
		packPath: args[0],
		tokens:   args[1:],
	}
	if _, err := runBuild(cmd.Context(), p); err != nil {
		return &ExitError{Code: classifyExitCode(err), Err: err}
	}
	return nil
}

// runBuild parses the option tokens, runs the pipeline, and prints a summary.
func runBuild(ctx context.Context, p buildParams) (*pipeline.Result, error) {
	opts := buildopts.Parse(p.tokens)

	res, err := p.builder.Run(ctx, p.packPath, opts)
	if err != nil {
		return nil, err
	}
	printSummary(p.stdout, res)
	return res, nil
}

func printSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w, SuccessStyle.Render("✓ Built ")+CmdStyle.Render(filepath.Base(res.ArchivePath)))

	version := res.Version
	switch {
	case res.Cached:
		version += " (cached)"
	case res.FellBack:
		version += " (latest release)"
	}

	rows := [][2]string{
		{"version", version},
		{"archive", res.ArchivePath},
	}
	if len(res.Pruned) > 0 {
		rows = append(rows, [2]string{"pruned", strconv.Itoa(len(res.Pruned))})
	}
	if r := res.Reconciled; r != nil {
		rows = append(rows, [2]string{"removed", strconv.Itoa(len(r.Removed)) + " without reference"})
		if len(r.Kept) > 0 {
			rows = append(rows, [2]string{"kept", strconv.Itoa(len(r.Kept)) + " by keep-list"})
		}
	}

	for _, row := range rows {
		fmt.Fprintln(w, "  "+summaryLabelStyle.Render(row[0])+row[1])
	}
}
