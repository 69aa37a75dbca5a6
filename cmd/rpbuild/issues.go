// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rpbuild/rpbuild/internal/issue"
	"github.com/rpbuild/rpbuild/pkg/types"
)

// issuesParams bundles the inputs of the issues command.
type issuesParams struct {
	stdout io.Writer
	key    string // name or id; empty lists the catalog
	style  string // glamour style
}

func newIssuesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "issues [name|id]",
		Short: "List known build problems or show the help for one",
		Long: `Without arguments, list every known build problem with its id and name.
With a name or id, print the full troubleshooting text for that problem.`,
		Example: `  rpbuild issues
  rpbuild issues version-not-found`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := issuesParams{stdout: cmd.OutOrStdout(), style: glamourStyle(cmd.OutOrStdout())}
			if len(args) == 1 {
				p.key = args[0]
			}
			return runIssues(p)
		},
	}
}

func runIssues(p issuesParams) error {
	if p.key == "" {
		for _, i := range issue.Values() {
			fmt.Fprintf(p.stdout, "%2d  %-22s %s\n", i.Id(), i.Name(), i.Title())
		}
		return nil
	}

	i, ok := issue.Lookup(p.key)
	if !ok {
		return &ExitError{
			Code: types.ExitUsage,
			Err:  fmt.Errorf("unknown issue %q; run 'rpbuild issues' to list them", p.key),
		}
	}
	rendered, err := i.Render(p.style)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(p.stdout, rendered)
	return err
}
