// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PackNotFoundId Id = iota + 1
	VersionNotFoundId
	UpstreamUnavailableId
	ChecksumMismatchId
	AssetsMissingId
	ArchiveFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id
	name     string      // stable slug accepted by Lookup
	mdMsg    MarkdownMsg // rendered by Render
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Name() string {
	return i.name
}

// Title is the text of the first markdown heading, without its trailing "!".
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSuffix(title, "!")
		}
	}
	return i.name
}

func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.extLinks) > 0 {
		md += "\n\n## See also:\n"
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	packNotFoundIssue = &Issue{
		id:   PackNotFoundId,
		name: "pack-not-found",
		mdMsg: `
# Resource pack not found!

The first argument must be the directory containing your resource pack
source (the folder with ` + "`pack.mcmeta`" + ` and ` + "`assets/`" + `).

## Things you can try:
- Check the path for typos
- Pass the directory, not a zip file:
~~~
$ rpbuild ./my-pack mcver=1.20.1
~~~

- If the pack lives inside the work directory, move it or use ` + "`--work-dir`",
	}

	versionNotFoundIssue = &Issue{
		id:   VersionNotFoundId,
		name: "version-not-found",
		mdMsg: `
# Version could not be resolved!

Neither the requested version nor the latest release listed in the version
manifest could be found.

## Things you can try:
- List the versions the manifest offers:
~~~
$ rpbuild versions
~~~

- Check ` + "`manifest_url`" + ` in your config points at a version manifest`,
		extLinks: []HttpLink{"https://minecraft.wiki/w/Version_manifest.json"},
	}

	upstreamUnavailableIssue = &Issue{
		id:   UpstreamUnavailableId,
		name: "upstream-unavailable",
		mdMsg: `
# Could not reach the version manifest!

Fetching the version manifest, the version descriptor, or the client bundle
failed. Nothing is retried automatically.

## Things you can try:
- Check your network connection and retry
- If you are behind a proxy, set ` + "`HTTPS_PROXY`" + `
- Set ` + "`RPBUILD_MANIFEST_URL`" + ` to a reachable mirror`,
	}

	checksumMismatchIssue = &Issue{
		id:   ChecksumMismatchId,
		name: "checksum-mismatch",
		mdMsg: `
# Client bundle checksum mismatch!

The downloaded client bundle does not match the SHA-1 published in the
version descriptor. The file was discarded.

## Things you can try:
- Retry the build; the download may have been truncated
- Run ` + "`rpbuild cache clean`" + ` and retry`,
	}

	assetsMissingIssue = &Issue{
		id:   AssetsMissingId,
		name: "assets-missing",
		mdMsg: `
# Client bundle has no assets folder!

The client bundle was extracted but does not contain the expected assets
folder, so no reference tree could be built.

## Things you can try:
- Check ` + "`assets_folder`" + ` in your config
- Run ` + "`rpbuild cache clean`" + ` and retry`,
	}

	archiveFailedIssue = &Issue{
		id:   ArchiveFailedId,
		name: "archive-failed",
		mdMsg: `
# Archive step failed!

Reading or writing a zip archive failed. The staging directory may have been
left in the work directory for inspection.

## Things you can try:
- Check free disk space in the work and output directories
- Inspect or delete the staging directory, then retry
- Set ` + "`cleanup_on_failure: true`" + ` to always remove it`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

Your rpbuild configuration file could not be loaded.

## Things you can try:
- Check the config file syntax (it must be valid CUE)
- Show where the config is read from:
~~~
$ rpbuild config path
~~~

- Regenerate a default configuration:
~~~
$ rpbuild config init
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id:   PermissionDeniedId,
		name: "permission-denied",
		mdMsg: `
# Permission denied!

rpbuild could not write to the work or output directory.

## Things you can try:
- Check the permissions of the work directory (` + "`--work-dir`" + `)
- Choose an output directory you own (` + "`--output-dir`" + `)`,
	}

	issues = map[Id]*Issue{
		packNotFoundIssue.Id():        packNotFoundIssue,
		versionNotFoundIssue.Id():     versionNotFoundIssue,
		upstreamUnavailableIssue.Id(): upstreamUnavailableIssue,
		checksumMismatchIssue.Id():    checksumMismatchIssue,
		assetsMissingIssue.Id():       assetsMissingIssue,
		archiveFailedIssue.Id():       archiveFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an entry by name or numeric id.
func Lookup(key string) (*Issue, bool) {
	if n, err := strconv.Atoi(key); err == nil {
		i, ok := issues[Id(n)]
		return i, ok
	}
	for _, i := range issues {
		if i.name == key {
			return i, true
		}
	}
	return nil, false
}
