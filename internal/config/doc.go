// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is looked up in the file given by --config, then in
// <user config dir>/rpbuild/config.cue, then in ./config.cue. Missing files
// are not an error: defaults apply. Every key can also be set through an
// RPBUILD_ environment variable, with dots replaced by underscores
// (RPBUILD_MANIFEST_URL, RPBUILD_UI_VERBOSE).
//
// Configuration files are validated against the embedded CUE schema
// (config_schema.cue), so typos and wrong types are reported with the
// offending path.
package config
