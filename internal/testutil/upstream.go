// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"crypto/sha1" //nolint:gosec // the upstream descriptor publishes SHA-1
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	// ManifestPath is the request path of the fake version manifest.
	ManifestPath = "/mc/game/version_manifest.json"

	descriptorPrefix = "/v1/packages/"
	bundlePrefix     = "/client/"
)

type (
	// Release describes one version served by an Upstream.
	Release struct {
		ID string
		// Type defaults to "release".
		Type string
		// Assets maps slash paths below the bundle's assets/ folder to content.
		Assets map[string]string
		// BadChecksum publishes a SHA-1 that does not match the bundle.
		BadChecksum bool
		// OmitClient drops downloads.client from the descriptor.
		OmitClient bool
	}

	// Upstream is an httptest server imitating the version manifest, version
	// descriptor, and client bundle endpoints.
	Upstream struct {
		srv    *httptest.Server
		latest string

		mu       sync.Mutex
		releases []Release
		bundles  map[string][]byte
		hits     map[string]int
	}
)

// NewUpstream starts a fake upstream whose manifest lists releases in the
// given order and reports latest as the latest release. The caller must Close it.
func NewUpstream(latest string, releases ...Release) (*Upstream, error) {
	u := &Upstream{
		latest:   latest,
		releases: releases,
		bundles:  make(map[string][]byte, len(releases)),
		hits:     make(map[string]int),
	}
	for _, r := range releases {
		b, err := BuildBundle(r.Assets)
		if err != nil {
			return nil, fmt.Errorf("building bundle for %s: %w", r.ID, err)
		}
		u.bundles[r.ID] = b
	}
	u.srv = httptest.NewServer(http.HandlerFunc(u.serve))
	return u, nil
}

// StartUpstream is NewUpstream for tests; the server is closed on cleanup.
func StartUpstream(t testing.TB, latest string, releases ...Release) *Upstream {
	t.Helper()
	u, err := NewUpstream(latest, releases...)
	if err != nil {
		t.Fatalf("starting fake upstream: %v", err)
	}
	t.Cleanup(u.Close)
	return u
}

// Close shuts the server down.
func (u *Upstream) Close() { u.srv.Close() }

// URL is the server base URL.
func (u *Upstream) URL() string { return u.srv.URL }

// ManifestURL is the full URL of the version manifest.
func (u *Upstream) ManifestURL() string { return u.srv.URL + ManifestPath }

// Client returns an HTTP client wired to the server.
func (u *Upstream) Client() *http.Client { return u.srv.Client() }

// ManifestHits returns how often the manifest was requested.
func (u *Upstream) ManifestHits() int { return u.hitCount(ManifestPath) }

// DescriptorHits returns how often the descriptor of id was requested.
func (u *Upstream) DescriptorHits(id string) int { return u.hitCount(descriptorPrefix + id + ".json") }

// BundleHits returns how often the bundle of id was downloaded.
func (u *Upstream) BundleHits(id string) int { return u.hitCount(bundlePrefix + id + ".jar") }

// Bundle returns the served bundle bytes for id.
func (u *Upstream) Bundle(id string) []byte { return u.bundles[id] }

// BundleSHA1 returns the hex SHA-1 of the bundle for id.
func (u *Upstream) BundleSHA1(id string) string {
	sum := sha1.Sum(u.bundles[id]) //nolint:gosec // matches the upstream format
	return hex.EncodeToString(sum[:])
}

func (u *Upstream) hitCount(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.Path]++
	u.mu.Unlock()

	switch {
	case r.URL.Path == ManifestPath:
		u.writeJSON(w, u.manifest())
	case strings.HasPrefix(r.URL.Path, descriptorPrefix):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, descriptorPrefix), ".json")
		rel, ok := u.release(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		u.writeJSON(w, u.descriptor(rel))
	case strings.HasPrefix(r.URL.Path, bundlePrefix):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, bundlePrefix), ".jar")
		b, ok := u.bundles[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/java-archive")
		w.Header().Set("Content-Length", strconv.Itoa(len(b)))
		_, _ = w.Write(b)
	default:
		http.NotFound(w, r)
	}
}

func (u *Upstream) release(id string) (Release, bool) {
	i := slices.IndexFunc(u.releases, func(r Release) bool { return r.ID == id })
	if i < 0 {
		return Release{}, false
	}
	return u.releases[i], true
}

func (u *Upstream) manifest() map[string]any {
	versions := make([]map[string]string, 0, len(u.releases))
	for _, r := range u.releases {
		typ := r.Type
		if typ == "" {
			typ = "release"
		}
		versions = append(versions, map[string]string{
			"id":   r.ID,
			"type": typ,
			"url":  u.srv.URL + descriptorPrefix + r.ID + ".json",
		})
	}
	return map[string]any{
		"latest":   map[string]string{"release": u.latest, "snapshot": u.latest},
		"versions": versions,
	}
}

func (u *Upstream) descriptor(r Release) map[string]any {
	if r.OmitClient {
		return map[string]any{"id": r.ID, "downloads": map[string]any{}}
	}
	sha := u.BundleSHA1(r.ID)
	if r.BadChecksum {
		sha = strings.Repeat("0", len(sha))
	}
	return map[string]any{
		"id": r.ID,
		"downloads": map[string]any{
			"client": map[string]any{
				"url":  u.srv.URL + bundlePrefix + r.ID + ".jar",
				"sha1": sha,
				"size": len(u.bundles[r.ID]),
			},
		},
	}
}

func (u *Upstream) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// BuildBundle returns a zip shaped like a client jar: the given files below
// assets/, plus class files and a root pack.mcmeta.
func BuildBundle(assets map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := []struct{ name, body string }{
		{"pack.mcmeta", `{"pack":{"pack_format":15,"description":"default"}}`},
		{"net/minecraft/client/Main.class", "\xca\xfe\xba\xbe"},
	}
	for _, name := range names {
		entries = append(entries, struct{ name, body string }{"assets/" + name, assets[name]})
	}

	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
