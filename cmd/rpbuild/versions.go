// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/rpbuild/rpbuild/internal/assets"
	"github.com/rpbuild/rpbuild/internal/issue"
)

type (
	// versionsParams bundles the inputs of the versions command.
	versionsParams struct {
		stdout io.Writer
		client *assets.Client
		all    bool
		asYAML bool
	}

	// versionRow is the YAML shape of one listed version.
	versionRow struct {
		ID          string `yaml:"id"`
		Type        string `yaml:"type"`
		ReleaseTime string `yaml:"release_time,omitempty"`
		Latest      bool   `yaml:"latest,omitempty"`
	}

	// versionList is the YAML document printed by versions --yaml.
	versionList struct {
		Latest   string       `yaml:"latest"`
		Versions []versionRow `yaml:"versions"`
	}
)

func (a *app) newVersionsCommand() *cobra.Command {
	var all, asYAML bool

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List versions published in the version manifest",
		Long: `List versions published in the version manifest, newest first.

Only releases are listed unless --all is given. Versions that are not
semantic versions (snapshots, old betas) follow the releases in manifest order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings(cmd.Context())
			if err != nil {
				return err
			}
			p := versionsParams{
				stdout: cmd.OutOrStdout(),
				client: s.client(),
				all:    all,
				asYAML: asYAML,
			}
			if err := runVersions(cmd.Context(), p); err != nil {
				return &ExitError{Code: classifyExitCode(err), Err: err}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include snapshots and historical versions")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the list as YAML")
	return cmd
}

func runVersions(ctx context.Context, p versionsParams) error {
	manifest, err := p.client.FetchManifest(ctx)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("fetch version manifest").
			WithResource(p.client.ManifestURL()).
			WithSuggestion("Check your network connection").
			WithIssue(issue.UpstreamUnavailableId).
			Wrap(err).
			BuildError()
	}

	entries := manifest.Releases(p.all)
	rows := make([]versionRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, versionRow{
			ID:          e.ID,
			Type:        e.Type,
			ReleaseTime: e.ReleaseTime,
			Latest:      e.ID == manifest.Latest.Release,
		})
	}

	if p.asYAML {
		out, err := yaml.Marshal(versionList{Latest: manifest.Latest.Release, Versions: rows})
		if err != nil {
			return fmt.Errorf("encoding versions: %w", err)
		}
		_, err = p.stdout.Write(out)
		return err
	}

	for _, r := range rows {
		line := fmt.Sprintf("%-24s", r.ID) + SubtitleStyle.Render(r.Type)
		if r.Latest {
			line += " " + SuccessStyle.Render("(latest)")
		}
		fmt.Fprintln(p.stdout, line)
	}
	return nil
}
