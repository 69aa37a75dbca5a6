// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpbuild/rpbuild/internal/config"
)

func TestInitConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")

	var out bytes.Buffer
	if err := initConfig(&out, path, false); err != nil {
		t.Fatalf("initConfig() error: %v", err)
	}
	if !strings.Contains(out.String(), "Created config file") {
		t.Errorf("unexpected output: %s", out.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	if string(data) != config.GenerateCUE(config.DefaultConfig()) {
		t.Errorf("written config differs from defaults:\n%s", data)
	}

	// A second run leaves the file alone and points at --force.
	if err := os.WriteFile(path, []byte("ui: verbose: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := initConfig(&out, path, false); err != nil {
		t.Fatalf("initConfig() on existing file error: %v", err)
	}
	if !strings.Contains(out.String(), "--force") {
		t.Errorf("expected --force hint, got: %s", out.String())
	}
	if data, _ := os.ReadFile(path); string(data) != "ui: verbose: true\n" {
		t.Errorf("existing config was overwritten:\n%s", data)
	}

	out.Reset()
	if err := initConfig(&out, path, true); err != nil {
		t.Fatalf("initConfig(force) error: %v", err)
	}
	if data, _ := os.ReadFile(path); strings.Contains(string(data), "ui: verbose: true") {
		t.Error("--force should overwrite the existing config")
	}
}

func TestDumpConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Archive.Exclude = []string{"*/.DS_Store"}

	var cue bytes.Buffer
	if err := dumpConfig(&cue, cfg, false); err != nil {
		t.Fatalf("dumpConfig(cue) error: %v", err)
	}
	if !strings.Contains(cue.String(), `"*/.DS_Store",`) || !strings.Contains(cue.String(), "archive: {") {
		t.Errorf("unexpected CUE output:\n%s", cue.String())
	}

	var yml bytes.Buffer
	if err := dumpConfig(&yml, cfg, true); err != nil {
		t.Fatalf("dumpConfig(yaml) error: %v", err)
	}
	for _, want := range []string{"manifest_url: " + config.DefaultManifestURL, "- '*/.DS_Store'", "progress: true"} {
		if !strings.Contains(yml.String(), want) {
			t.Errorf("YAML output missing %q:\n%s", want, yml.String())
		}
	}
}

func TestShowConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configPath string
		want       string
	}{
		{"defaults", "", "(using defaults)"},
		{"from file", "/etc/rpbuild/config.cue", "/etc/rpbuild/config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &settings{
				cfg:        config.DefaultConfig(),
				configPath: tt.configPath,
				workDir:    "/tmp/rpbuild",
				outputDir:  "/tmp/out",
				progress:   true,
			}
			var out bytes.Buffer
			showConfig(&out, s)

			got := out.String()
			for _, want := range []string{"Current Configuration", tt.want, "/tmp/rpbuild", "/tmp/out", "(none configured)"} {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestConfigCommand_Path(t *testing.T) {
	dir := t.TempDir()
	config.SetConfigDirOverride(dir)
	t.Cleanup(config.Reset)

	var out bytes.Buffer
	a := &app{}
	root := a.newRootCommand()
	root.SetArgs([]string{"config", "path"})
	root.SetOut(&out)
	if err := root.Execute(); err != nil {
		t.Fatalf("config path error: %v", err)
	}
	if got, want := strings.TrimSpace(out.String()), filepath.Join(dir, "config.cue"); got != want {
		t.Errorf("config path = %q, want %q", got, want)
	}
}
