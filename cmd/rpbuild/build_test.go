// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpbuild/rpbuild/internal/assets"
	"github.com/rpbuild/rpbuild/internal/config"
	"github.com/rpbuild/rpbuild/internal/pipeline"
	"github.com/rpbuild/rpbuild/internal/testutil"
	"github.com/rpbuild/rpbuild/pkg/types"
)

var vanilla = map[string]string{
	"minecraft/textures/foo.png": "vanilla foo",
	"minecraft/lang/en_us.json":  "{}",
	"minecraft/sounds/click.ogg": "click",
	"realms/textures/realms.png": "realms",
}

func writePack(t *testing.T) string {
	t.Helper()
	pack := filepath.Join(t.TempDir(), "my-pack")
	testutil.WriteTree(t, pack, map[string]string{
		"pack.mcmeta":                         "{}",
		"assets/minecraft/textures/foo.png":   "mine",
		"assets/minecraft/textures/stale.png": "stale",
		"assets/minecraft/optifine/sky.png":   "sky",
		"notes.txt":                           "todo",
	})
	return pack
}

// executeRoot runs the full command tree with an isolated config directory.
// Not safe for parallel tests: the config directory override is global.
func executeRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	config.SetConfigDirOverride(t.TempDir())
	t.Cleanup(config.Reset)

	var out, errOut bytes.Buffer
	a := &app{}
	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunBuild(t *testing.T) {
	t.Parallel()

	up := testutil.StartUpstream(t, "1.20.1",
		testutil.Release{ID: "1.20.1", Assets: vanilla},
		testutil.Release{ID: "1.19.4", Assets: vanilla},
	)
	work := t.TempDir()
	client := assets.NewClient(assets.WithHTTPClient(up.Client()), assets.WithManifestURL(up.ManifestURL()))
	builder, err := pipeline.New(pipeline.Config{WorkDir: work, AssetsFolder: "assets"}, assets.NewProvider(work, assets.WithClient(client)))
	if err != nil {
		t.Fatalf("pipeline.New() error: %v", err)
	}

	var out bytes.Buffer
	res, err := runBuild(context.Background(), buildParams{
		stdout:   &out,
		builder:  builder,
		packPath: writePack(t),
		tokens:   []string{"mcver=1.19.4", "removefiles=notes.txt", "keepfiles=*/optifine"},
	})
	if err != nil {
		t.Fatalf("runBuild() error: %v", err)
	}

	if res.Version != "1.19.4" || res.FellBack {
		t.Errorf("Version = %q, FellBack = %v", res.Version, res.FellBack)
	}
	if got := filepath.Base(res.ArchivePath); got != "my-pack.zip" {
		t.Errorf("archive = %q, want my-pack.zip", got)
	}
	summary := out.String()
	for _, want := range []string{"Built", "my-pack.zip", "1.19.4", "pruned", "removed", "kept"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestPrintSummary_VersionAnnotations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  pipeline.Result
		want string
	}{
		{"cached", pipeline.Result{Version: "1.20.1", Cached: true}, "1.20.1 (cached)"},
		{"fell back", pipeline.Result{Version: "1.20.1", FellBack: true}, "1.20.1 (latest release)"},
		{"plain", pipeline.Result{Version: "1.20.1"}, "1.20.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.res.ArchivePath = filepath.Join("out", "pack.zip")
			var buf bytes.Buffer
			printSummary(&buf, &tt.res)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("summary missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestRootCommand_NoPackIsUsageError(t *testing.T) {
	_, _, err := executeRoot(t)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.Code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", exitErr.Code, types.ExitUsage)
	}
	if !errors.Is(err, errNoPack) {
		t.Errorf("error = %v, want errNoPack", err)
	}
}

func TestRootCommand_MissingPackSkipsNetwork(t *testing.T) {
	up := testutil.StartUpstream(t, "1.20.1", testutil.Release{ID: "1.20.1", Assets: vanilla})
	missing := filepath.Join(t.TempDir(), "nope")

	_, _, err := executeRoot(t, missing,
		"--work-dir", t.TempDir(),
		"--manifest-url", up.ManifestURL(),
		"--no-progress",
	)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != types.ExitUsage {
		t.Fatalf("error = %v, want ExitError with code %d", err, types.ExitUsage)
	}
	if hits := up.ManifestHits(); hits != 0 {
		t.Errorf("manifest hits = %d, want 0", hits)
	}
}

func TestRootCommand_Build(t *testing.T) {
	up := testutil.StartUpstream(t, "1.20.1", testutil.Release{ID: "1.20.1", Assets: vanilla})
	work := t.TempDir()
	outDir := t.TempDir()
	pack := writePack(t)

	stdout, stderr, err := executeRoot(t, pack, "mcver=9.9.9",
		"--work-dir", work,
		"--output-dir", outDir,
		"--manifest-url", up.ManifestURL(),
		"--no-progress",
	)
	if err != nil {
		t.Fatalf("execute error: %v\nstderr:\n%s", err, stderr)
	}

	if !strings.Contains(stdout, "my-pack.zip") {
		t.Errorf("stdout missing archive name:\n%s", stdout)
	}
	if !strings.Contains(stderr, "Version 9.9.9 not found") {
		t.Errorf("stderr missing fallback warning:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(outDir, "my-pack.zip")); err != nil {
		t.Errorf("archive not written to output dir: %v", err)
	}
	if testutil.Exists(filepath.Join(work, "my-pack")) {
		t.Error("staging directory should be removed after a successful build")
	}
	if !testutil.Exists(filepath.Join(work, "assets-1.20.1")) {
		t.Error("reference assets should stay cached in the work dir")
	}
}

func TestRootCommand_ConfigErrorIsUsageError(t *testing.T) {
	_, _, err := executeRoot(t, "versions", "--config", filepath.Join(t.TempDir(), "missing.cue"))

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != types.ExitUsage {
		t.Fatalf("error = %v, want ExitError with code %d", err, types.ExitUsage)
	}
}

func TestRootCommand_PackNamedLikeSubcommand(t *testing.T) {
	up := testutil.StartUpstream(t, "1.20.1", testutil.Release{ID: "1.20.1", Assets: vanilla})
	outDir := t.TempDir()
	pack := filepath.Join(t.TempDir(), "versions")
	testutil.WriteTree(t, pack, map[string]string{
		"pack.mcmeta":                       "{}",
		"assets/minecraft/textures/foo.png": "mine",
	})

	stdout, stderr, err := executeRoot(t, pack,
		"--work-dir", t.TempDir(),
		"--output-dir", outDir,
		"--manifest-url", up.ManifestURL(),
		"--no-progress",
	)
	if err != nil {
		t.Fatalf("execute error: %v\nstderr:\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "versions.zip") {
		t.Errorf("stdout missing archive name:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(outDir, "versions.zip")); err != nil {
		t.Errorf("archive not written to output dir: %v", err)
	}

	var a app
	if long := a.newRootCommand().Long; !strings.Contains(long, "rpbuild ./cache") {
		t.Error("root help should explain how to build a pack named like a subcommand")
	}
}
