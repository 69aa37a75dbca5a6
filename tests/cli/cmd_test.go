// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// Each script runs the rpbuild command in-process against a fake upstream
// serving the version manifest, descriptors, and client bundles.
package cli

import (
	"archive/zip"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	cmd "github.com/rpbuild/rpbuild/cmd/rpbuild"
	"github.com/rpbuild/rpbuild/internal/testutil"
)

var vanilla = map[string]string{
	"minecraft/textures/foo.png":         "vanilla foo",
	"minecraft/textures/block/stone.png": "stone",
	"minecraft/lang/en_us.json":          "{}",
}

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"rpbuild": cmd.Execute,
	})
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			up, err := testutil.NewUpstream("1.20.1",
				testutil.Release{ID: "23w31a", Type: "snapshot", Assets: vanilla},
				testutil.Release{ID: "1.20.1", Assets: vanilla},
				testutil.Release{ID: "1.19.4", Assets: vanilla},
			)
			if err != nil {
				return err
			}
			env.Defer(up.Close)

			env.Setenv("HOME", filepath.Join(env.WorkDir, "home"))
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(env.WorkDir, "home", ".config"))
			env.Setenv("RPBUILD_MANIFEST_URL", up.ManifestURL())
			env.Setenv("RPBUILD_WORK_DIR", filepath.Join(env.WorkDir, "cache"))
			env.Setenv("RPBUILD_UI_PROGRESS", "false")
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"zipls": zipls,
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}

// zipls prints the file entries of a zip archive, one per line.
func zipls(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! zipls")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: zipls archive")
	}

	zr, err := zip.OpenReader(ts.MkAbs(args[0]))
	ts.Check(err)
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		fmt.Fprintln(ts.Stdout(), f.Name)
	}
}
