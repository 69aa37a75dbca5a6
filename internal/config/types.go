// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/rpbuild/rpbuild/internal/assets"
)

const (
	DefaultManifestURL  = assets.DefaultManifestURL
	DefaultAssetsFolder = assets.DefaultAssetsFolder
)

type (
	// Config holds the application configuration.
	Config struct {
		ManifestURL      string        `json:"manifest_url" yaml:"manifest_url" mapstructure:"manifest_url"`
		WorkDir          string        `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`
		OutputDir        string        `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
		AssetsFolder     string        `json:"assets_folder" yaml:"assets_folder" mapstructure:"assets_folder"`
		CleanupOnFailure bool          `json:"cleanup_on_failure" yaml:"cleanup_on_failure" mapstructure:"cleanup_on_failure"`
		Archive          ArchiveConfig `json:"archive" yaml:"archive" mapstructure:"archive"`
		HTTP             HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
		UI               UIConfig      `json:"ui" yaml:"ui" mapstructure:"ui"`
	}

	// ArchiveConfig controls what goes into the finished archive.
	ArchiveConfig struct {
		Exclude []string `json:"exclude" yaml:"exclude" mapstructure:"exclude"`
	}

	// HTTPConfig configures upstream requests.
	HTTPConfig struct {
		UserAgent      string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
		TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose  bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
		Progress bool `json:"progress" yaml:"progress" mapstructure:"progress"`
	}
)

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		ManifestURL:  DefaultManifestURL,
		AssetsFolder: DefaultAssetsFolder,
		Archive:      ArchiveConfig{Exclude: []string{}},
		UI:           UIConfig{Progress: true},
	}
}

// ResolvedWorkDir returns WorkDir, or <user cache dir>/rpbuild when it is empty.
func (c *Config) ResolvedWorkDir() (string, error) {
	if c.WorkDir != "" {
		return c.WorkDir, nil
	}
	return DefaultWorkDir()
}

// ResolvedOutputDir returns OutputDir, or the resolved work directory when
// it is empty.
func (c *Config) ResolvedOutputDir() (string, error) {
	if c.OutputDir != "" {
		return c.OutputDir, nil
	}
	return c.ResolvedWorkDir()
}

// UserAgent returns the configured User-Agent, or rpbuild/<version>.
func (c *Config) UserAgent(version string) string {
	if c.HTTP.UserAgent != "" {
		return c.HTTP.UserAgent
	}
	return AppName + "/" + version
}

// Timeout returns the HTTP timeout. Zero means no timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	return out, nil
}

// DefaultWorkDir returns <user cache dir>/rpbuild.
func DefaultWorkDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}
