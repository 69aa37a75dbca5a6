// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/rpbuild/rpbuild/internal/assets"
	"github.com/rpbuild/rpbuild/pkg/types"
)

func (a *app) newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached reference assets",
		Long: `Manage the assets-<version> folders kept in the work directory.

Cached folders are reused as-is by later builds for the same version.`,
	}

	var asYAML bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings(cmd.Context())
			if err != nil {
				return err
			}
			return wrapFailure(runCacheList(cmd.OutOrStdout(), s.workDir, asYAML))
		},
	}
	listCmd.Flags().BoolVar(&asYAML, "yaml", false, "print the list as YAML")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "clean [version...]",
		Short: "Remove cached versions (all when none are named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings(cmd.Context())
			if err != nil {
				return err
			}
			return wrapFailure(runCacheClean(cmd.OutOrStdout(), s.workDir, args))
		},
	})

	return cmd
}

// cacheRow is the YAML shape of one cached version.
type cacheRow struct {
	Version string `yaml:"version"`
	Path    string `yaml:"path"`
}

func runCacheList(w io.Writer, workDir string, asYAML bool) error {
	cached, err := assets.CachedVersions(workDir)
	if err != nil {
		return err
	}
	if asYAML {
		rows := make([]cacheRow, 0, len(cached))
		for _, c := range cached {
			rows = append(rows, cacheRow{Version: c.Version, Path: c.Path})
		}
		out, err := yaml.Marshal(map[string][]cacheRow{"cached": rows})
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	if len(cached) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("No cached versions in "+workDir))
		return nil
	}
	for _, c := range cached {
		fmt.Fprintf(w, "%-24s%s\n", c.Version, CmdStyle.Render(c.Path))
	}
	return nil
}

func runCacheClean(w io.Writer, workDir string, versions []string) error {
	removed, err := assets.RemoveCached(workDir, versions...)
	for _, v := range removed {
		fmt.Fprintln(w, SuccessStyle.Render("Removed ")+assets.CachePrefix+v)
	}
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("Nothing to remove"))
	}
	return nil
}

// wrapFailure turns a plain error into an ExitError with ExitFailure.
func wrapFailure(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: types.ExitFailure, Err: err}
}
