// SPDX-License-Identifier: MPL-2.0

package assets

import (
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// TypeRelease is the manifest type of stable releases.
const TypeRelease = "release"

// Releases returns the manifest's stable releases, or every entry when all is
// true, sorted by SortVersionsDesc.
func (m *Manifest) Releases(all bool) []VersionEntry {
	out := make([]VersionEntry, 0, len(m.Versions))
	for _, v := range m.Versions {
		if all || v.Type == TypeRelease {
			out = append(out, v)
		}
	}
	SortVersionsDesc(out)
	return out
}

// SortVersionsDesc orders entries by semantic version, newest first. Ids that
// are not valid semver (snapshots, old alphas) follow in manifest order.
func SortVersionsDesc(entries []VersionEntry) {
	slices.SortStableFunc(entries, func(a, b VersionEntry) int {
		av, bv := canonical(a.ID), canonical(b.ID)
		switch {
		case av == "" && bv == "":
			return 0
		case av == "":
			return 1
		case bv == "":
			return -1
		}
		return semver.Compare(bv, av)
	})
}

// canonical maps a version id to its semver form, or "" when it has none.
// Two-part ids such as "1.21" are accepted.
func canonical(id string) string {
	v := id
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
