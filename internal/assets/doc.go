// SPDX-License-Identifier: MPL-2.0

// Package assets resolves a game version to a local reference asset tree.
//
// A Client talks to the version manifest and per-version descriptor
// endpoints. A Provider drives the full resolution: pick the version (falling
// back to the latest release), reuse a cached assets-<version> folder or
// download the client bundle, verify its SHA-1, extract its assets/ folder and
// move it into place. Cached folders persist across runs and are managed with
// CachedVersions and RemoveCached.
package assets
