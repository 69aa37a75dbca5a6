// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/fang"

	"github.com/rpbuild/rpbuild/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-03-01T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-03-01T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		// Test binaries report Main.Version == "(devel)".
		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such file or directory")
	ae := issue.NewErrorContext().
		WithOperation("stage resource pack").
		WithResource("./my-pack").
		WithSuggestion("Check the path").
		Wrap(cause).
		Build()

	tests := []struct {
		name     string
		err      error
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "plain error",
			err:      errors.New("boom"),
			contains: []string{"boom"},
		},
		{
			name:     "actionable error with suggestion",
			err:      ae,
			contains: []string{"stage resource pack", "./my-pack", "• Check the path"},
			excludes: []string{"Error chain:"},
		},
		{
			name:     "verbose shows chain",
			err:      ae,
			verbose:  true,
			contains: []string{"Error chain:", "no such file or directory"},
		},
		{
			name:     "wrapped in exit error",
			err:      &ExitError{Code: 2, Err: ae},
			contains: []string{"• Check the path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := formatErrorForDisplay(tt.err, tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatErrorForDisplay() = %q, want it to contain %q", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("formatErrorForDisplay() = %q, should not contain %q", got, unwanted)
				}
			}
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	t.Run("renders catalog entry for issue", func(t *testing.T) {
		t.Parallel()
		a := &app{}
		err := issue.NewErrorContext().
			WithOperation("stage resource pack").
			WithIssue(issue.PackNotFoundId).
			Wrap(errors.New("missing")).
			BuildError()

		var buf bytes.Buffer
		a.handleError(&buf, fang.Styles{}, err)

		out := buf.String()
		if !strings.Contains(out, "Error: ") {
			t.Errorf("output missing error prefix:\n%s", out)
		}
		if !strings.Contains(out, "Resource pack not found") {
			t.Errorf("output missing catalog entry:\n%s", out)
		}
	})

	t.Run("plain error prints only the message", func(t *testing.T) {
		t.Parallel()
		a := &app{}
		var buf bytes.Buffer
		a.handleError(&buf, fang.Styles{}, errors.New("boom"))

		out := strings.TrimSpace(buf.String())
		if !strings.HasSuffix(out, "boom") || strings.Contains(out, "Things you can try") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestGlamourStyle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if got := glamourStyle(&buf); got != "notty" {
		t.Errorf("glamourStyle(buffer) = %q, want notty", got)
	}
	wrapped := &colorprofile.Writer{Forward: &buf, Profile: colorprofile.NoTTY}
	if got := glamourStyle(wrapped); got != "notty" {
		t.Errorf("glamourStyle(wrapped buffer) = %q, want notty", got)
	}
}
