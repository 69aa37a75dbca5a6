// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for rpbuild.
//
// The root command builds a resource pack. Subcommands list upstream
// versions (versions), manage cached reference assets (cache), inspect
// or create the configuration file (config), and explain known build
// problems (issues). Each command keeps its core
// logic in a run function that takes a params struct, so it can be tested
// without a Cobra command or network access.
package cmd
