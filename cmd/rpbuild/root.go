// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/rpbuild/rpbuild/internal/assets"
	"github.com/rpbuild/rpbuild/internal/config"
	"github.com/rpbuild/rpbuild/internal/issue"
	"github.com/rpbuild/rpbuild/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// rootFlags holds the persistent flags shared by every command.
	rootFlags struct {
		configFile  string
		workDir     string
		outputDir   string
		manifestURL string
		verbose     bool
		noProgress  bool
	}

	// settings is the effective configuration after flags are applied.
	settings struct {
		cfg        *config.Config
		configPath string
		workDir    string
		outputDir  string
		verbose    bool
		progress   bool
	}

	// app owns the flag values for one command tree.
	app struct {
		flags rootFlags
	}
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// newRootCommand builds the command tree.
func (a *app) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rpbuild <resourcepack> [key=value ...]",
		Short: "Build a resource pack archive trimmed to a game version's assets",
		Long: TitleStyle.Render("rpbuild") + SubtitleStyle.Render(" - resource pack builder") + `

rpbuild downloads the reference assets for a game version, copies your
resource pack, removes files you list, drops every override that has no
counterpart in the reference assets, and zips the result.

` + SubtitleStyle.Render("Options (key=value after the pack path):") + `
  mcver=<version>          Target version (default: latest release)
  removefiles="<p> <p>"    Paths to delete first; */name matches at any depth
  keepfiles="<p> <p>"      Overrides to keep even without a reference counterpart

A pack folder named like a subcommand (cache, config, issues, versions)
must be given as a path, for example: rpbuild ./cache`,
		Example: `  # Build against the latest release
  rpbuild ./my-pack

  # Build for a specific version, dropping editor files
  rpbuild ./my-pack mcver=1.20.1 "removefiles=*/.DS_Store src"

  # Keep OptiFine overrides that vanilla assets do not have
  rpbuild ./my-pack "keepfiles=*/optifine"`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runBuildCommand,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default is <user config dir>/rpbuild/config.cue)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&a.flags.workDir, "work-dir", "", "directory for downloads, cached assets, and staging")
	pf.StringVar(&a.flags.outputDir, "output-dir", "", "directory for the finished archive (default: work dir)")
	pf.StringVar(&a.flags.manifestURL, "manifest-url", "", "version manifest URL")
	pf.BoolVar(&a.flags.noProgress, "no-progress", false, "disable the download progress bar")

	root.AddCommand(a.newVersionsCommand())
	root.AddCommand(a.newCacheCommand())
	root.AddCommand(a.newConfigCommand())
	root.AddCommand(newIssuesCommand())

	return root
}

// settings loads configuration and applies flag overrides. Config errors
// are returned as ExitErrors with ExitUsage.
func (a *app) settings(ctx context.Context) (*settings, error) {
	loaded, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configFile})
	if err != nil {
		return nil, &ExitError{Code: types.ExitUsage, Err: err}
	}
	cfg := loaded.Config

	if a.flags.workDir != "" {
		cfg.WorkDir = a.flags.workDir
	}
	if a.flags.outputDir != "" {
		cfg.OutputDir = a.flags.outputDir
	}
	if a.flags.manifestURL != "" {
		cfg.ManifestURL = a.flags.manifestURL
	}

	s := &settings{
		cfg:        cfg,
		configPath: loaded.Path,
		verbose:    a.flags.verbose || cfg.UI.Verbose,
		progress:   cfg.UI.Progress && !a.flags.noProgress,
	}
	if s.workDir, err = cfg.ResolvedWorkDir(); err != nil {
		return nil, err
	}
	if s.outputDir, err = cfg.ResolvedOutputDir(); err != nil {
		return nil, err
	}
	return s, nil
}

// client builds the upstream client from the effective settings.
func (s *settings) client() *assets.Client {
	return assets.NewClient(
		assets.WithHTTPClient(&http.Client{Timeout: s.cfg.Timeout()}),
		assets.WithManifestURL(s.cfg.ManifestURL),
		assets.WithUserAgent(s.cfg.UserAgent(Version)),
	)
}

// newLogger creates the stage logger. Debug output appears only in verbose mode.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "rpbuild",
		Level:  level,
	})
}

// Execute runs the CLI and exits with the classified exit code on failure.
// This is called by main.main().
func Execute() {
	a := &app{}
	if err := fang.Execute(
		context.Background(),
		a.newRootCommand(),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(a.handleError),
	); err != nil {
		os.Exit(int(exitCodeOf(err)))
	}
}

// exitCodeOf returns the process exit code for a failed run. Failures never
// exit with status 0.
func exitCodeOf(err error) types.ExitCode {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return types.ExitFailure
	}
	if exitErr.Code.Validate() != nil || exitErr.Code.IsSuccess() {
		return types.ExitFailure
	}
	return exitErr.Code
}

// handleError prints err, its suggestions, and the matching catalog entry.
func (a *app) handleError(w io.Writer, _ fang.Styles, err error) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.flags.verbose))

	id := issue.IssueOf(err)
	if id == 0 {
		return
	}
	if entry := issue.Get(id); entry != nil {
		if rendered, renderErr := entry.Render(glamourStyle(w)); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

// glamourStyle picks the catalog rendering style for w, looking through the
// color profile writer fang hands to error handlers.
func glamourStyle(w io.Writer) string {
	if cw, ok := w.(*colorprofile.Writer); ok {
		w = cw.Forward
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(f.Fd()) {
		return "dark"
	}
	return "notty"
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
