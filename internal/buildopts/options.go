// SPDX-License-Identifier: MPL-2.0

// Package buildopts turns the key=value tokens that follow the resource pack
// path on the command line into an Options record.
package buildopts

import (
	"strings"

	"github.com/rpbuild/rpbuild/internal/pathpattern"
)

const (
	// KeyVersion selects the game version whose assets are used as reference.
	KeyVersion = "mcver"
	// KeyRemoveFiles lists patterns deleted from the staged pack before reconciliation.
	KeyRemoveFiles = "removefiles"
	// KeyKeepFiles lists patterns exempt from reconciliation.
	KeyKeepFiles = "keepfiles"
)

// Options is the parsed build request. The zero value requests the latest
// release with empty remove and keep lists.
type Options struct {
	// Version is the requested version id; empty means latest release.
	Version string
	// RemoveList is applied by the pruner before reconciliation.
	RemoveList pathpattern.List
	// KeepList exempts entries from reconciliation.
	KeepList pathpattern.List
}

// Parse builds Options from raw tokens. Tokens without "=", with an empty
// value, or with an unknown key are ignored; a repeated key overrides the
// earlier one. Parse never fails.
func Parse(tokens []string) Options {
	var opts Options
	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || value == "" {
			continue
		}

		switch key {
		case KeyVersion:
			opts.Version = value
		case KeyRemoveFiles:
			opts.RemoveList = pathpattern.ParseList(value)
		case KeyKeepFiles:
			opts.KeepList = pathpattern.ParseList(value)
		}
	}
	return opts
}

// HasVersion reports whether a specific version was requested.
func (o Options) HasVersion() bool { return o.Version != "" }
