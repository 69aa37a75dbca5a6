// SPDX-License-Identifier: MPL-2.0

package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	// DefaultManifestURL is the public version manifest endpoint.
	DefaultManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	// maxJSONResponseBytes bounds manifest and descriptor bodies (10 MB).
	maxJSONResponseBytes = 10 << 20
)

var (
	// ErrMalformedManifest indicates the manifest lacks a field the
	// resolution needs.
	ErrMalformedManifest = errors.New("malformed version manifest")
	// ErrMalformedDescriptor indicates the version descriptor has no usable
	// client download.
	ErrMalformedDescriptor = errors.New("malformed version descriptor")
	// ErrUnexpectedStatus indicates an upstream endpoint answered with a
	// non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

type (
	// Manifest is the version manifest: the latest ids and every published
	// version in upstream order.
	Manifest struct {
		Latest   Latest         `json:"latest"`
		Versions []VersionEntry `json:"versions"`
	}

	// Latest names the newest release and snapshot.
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	}

	// VersionEntry is one manifest row.
	VersionEntry struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		URL         string `json:"url"`
		ReleaseTime string `json:"releaseTime"`
	}

	// Descriptor is the subset of a version descriptor used to fetch the
	// client bundle.
	Descriptor struct {
		ID        string    `json:"id"`
		Downloads Downloads `json:"downloads"`
	}

	// Downloads holds the descriptor's download table.
	Downloads struct {
		Client *Download `json:"client"`
	}

	// Download is one downloadable artifact.
	Download struct {
		URL  string `json:"url"`
		SHA1 string `json:"sha1"`
		Size int64  `json:"size"`
	}

	// Client fetches manifests, descriptors, and bundles over HTTP.
	Client struct {
		httpClient  *http.Client
		manifestURL string
		userAgent   string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithManifestURL overrides the manifest endpoint.
func WithManifestURL(u string) ClientOption {
	return func(cl *Client) {
		if u != "" {
			cl.manifestURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// NewClient creates a Client. Defaults: DefaultManifestURL, http.DefaultClient,
// userAgent "rpbuild/dev".
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  http.DefaultClient,
		manifestURL: DefaultManifestURL,
		userAgent:   "rpbuild/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ManifestURL returns the manifest endpoint the client queries.
func (c *Client) ManifestURL() string { return c.manifestURL }

// FetchManifest downloads and decodes the version manifest.
func (c *Client) FetchManifest(ctx context.Context) (*Manifest, error) {
	var m Manifest
	if err := c.getJSON(ctx, c.manifestURL, &m); err != nil {
		return nil, fmt.Errorf("fetching version manifest: %w", err)
	}
	if m.Latest.Release == "" {
		return nil, fmt.Errorf("%w: latest.release is empty", ErrMalformedManifest)
	}
	return &m, nil
}

// FetchDescriptor downloads the descriptor at descriptorURL and checks that
// it names a client bundle with a hash.
func (c *Client) FetchDescriptor(ctx context.Context, descriptorURL string) (*Descriptor, error) {
	var d Descriptor
	if err := c.getJSON(ctx, descriptorURL, &d); err != nil {
		return nil, fmt.Errorf("fetching version descriptor: %w", err)
	}
	if d.Downloads.Client == nil || d.Downloads.Client.URL == "" || d.Downloads.Client.SHA1 == "" {
		return nil, fmt.Errorf("%w: downloads.client.url and downloads.client.sha1 are required", ErrMalformedDescriptor)
	}
	return &d, nil
}

// Download opens the body at rawURL. The caller must close it. The returned
// length is the Content-Length, or -1 when unknown.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	resp, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return nil, 0, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, 0, fmt.Errorf("downloading %s: %w %d", redactURL(rawURL), ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	resp, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w %d", redactURL(rawURL), ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", redactURL(rawURL), err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// Lookup returns the manifest entry with exactly the given id.
func (m *Manifest) Lookup(id string) (VersionEntry, bool) {
	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return VersionEntry{}, false
}

// redactURL strips query parameters and fragments from a URL for safe
// inclusion in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
