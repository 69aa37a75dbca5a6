// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpbuild/rpbuild/internal/config"
	"github.com/rpbuild/rpbuild/pkg/types"
)

// newConfigCommand creates the `rpbuild config` command tree.
func (a *app) newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage rpbuild configuration",
		Long: `Manage rpbuild configuration.

Configuration is stored in:
  - Linux: ~/.config/rpbuild/config.cue
  - macOS: ~/Library/Application Support/rpbuild/config.cue
  - Windows: %APPDATA%\rpbuild\config.cue

Every key can also be set from the environment with the RPBUILD_ prefix,
for example RPBUILD_WORK_DIR or RPBUILD_UI_PROGRESS.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings(cmd.Context())
			if err != nil {
				return err
			}
			showConfig(cmd.OutOrStdout(), s)
			return nil
		},
	})

	var force, printOnly bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly {
				return dumpConfig(cmd.OutOrStdout(), config.DefaultConfig(), false)
			}
			return initConfig(cmd.OutOrStdout(), a.flags.configFile, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	initCmd.Flags().BoolVar(&printOnly, "print", false, "print the default configuration instead of writing it")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.flags.configFile
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return wrapFailure(err)
				}
				path = p
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	var asYAML bool
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings(cmd.Context())
			if err != nil {
				return err
			}
			return wrapFailure(dumpConfig(cmd.OutOrStdout(), s.cfg, asYAML))
		},
	}
	dumpCmd.Flags().BoolVar(&asYAML, "yaml", false, "output YAML instead of CUE")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(w io.Writer, s *settings) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	value := func(v any) string { return valueStyle.Render(fmt.Sprint(v)) }

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if s.configPath != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), s.configPath)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	cfg := s.cfg
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("manifest_url"), value(cfg.ManifestURL))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("work_dir"), value(s.workDir))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("output_dir"), value(s.outputDir))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("assets_folder"), value(cfg.AssetsFolder))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("cleanup_on_failure"), value(cfg.CleanupOnFailure))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("archive"))
	if len(cfg.Archive.Exclude) == 0 {
		fmt.Fprintf(w, "  exclude: %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		fmt.Fprintf(w, "  exclude: %s\n", value(strings.Join(cfg.Archive.Exclude, " ")))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("http"))
	fmt.Fprintf(w, "  user_agent: %s\n", value(cfg.UserAgent(Version)))
	fmt.Fprintf(w, "  timeout_seconds: %s\n", value(cfg.HTTP.TimeoutSeconds))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", value(s.verbose))
	fmt.Fprintf(w, "  progress: %s\n", value(s.progress))
}

func initConfig(w io.Writer, path string, force bool) error {
	written, err := config.CreateDefaultConfig(path, force)
	if errors.Is(err, config.ErrConfigExists) {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("Config file already exists:"), written)
		fmt.Fprintln(w, SubtitleStyle.Render("Use --force to overwrite it."))
		return nil
	}
	if err != nil {
		return &ExitError{Code: types.ExitFailure, Err: err}
	}
	fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Created config file:"), written)
	return nil
}

func dumpConfig(w io.Writer, cfg *config.Config, asYAML bool) error {
	if !asYAML {
		_, err := io.WriteString(w, config.GenerateCUE(cfg))
		return err
	}
	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
