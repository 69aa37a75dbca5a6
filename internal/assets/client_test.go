// SPDX-License-Identifier: MPL-2.0

package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpbuild/rpbuild/internal/testutil"
)

func TestClient_FetchManifest(t *testing.T) {
	t.Parallel()

	up := testutil.StartUpstream(t, "1.20.1",
		testutil.Release{ID: "1.20.1"},
		testutil.Release{ID: "23w31a", Type: "snapshot"},
	)
	c := NewClient(WithHTTPClient(up.Client()), WithManifestURL(up.ManifestURL()))

	m, err := c.FetchManifest(context.Background())
	if err != nil {
		t.Fatalf("FetchManifest() error: %v", err)
	}
	if m.Latest.Release != "1.20.1" {
		t.Errorf("Latest.Release = %q, want 1.20.1", m.Latest.Release)
	}
	if len(m.Versions) != 2 {
		t.Fatalf("len(Versions) = %d, want 2", len(m.Versions))
	}
	if e, ok := m.Lookup("23w31a"); !ok || e.Type != "snapshot" {
		t.Errorf("Lookup(23w31a) = %+v, %v", e, ok)
	}
	if _, ok := m.Lookup("1.20"); ok {
		t.Error("Lookup must match ids exactly")
	}
}

func TestClient_FetchDescriptor(t *testing.T) {
	t.Parallel()

	up := testutil.StartUpstream(t, "1.20.1",
		testutil.Release{ID: "1.20.1"},
		testutil.Release{ID: "broken", OmitClient: true},
	)
	c := NewClient(WithHTTPClient(up.Client()), WithManifestURL(up.ManifestURL()))
	m, err := c.FetchManifest(context.Background())
	if err != nil {
		t.Fatalf("FetchManifest() error: %v", err)
	}

	good, _ := m.Lookup("1.20.1")
	d, err := c.FetchDescriptor(context.Background(), good.URL)
	if err != nil {
		t.Fatalf("FetchDescriptor() error: %v", err)
	}
	if d.Downloads.Client.SHA1 != up.BundleSHA1("1.20.1") {
		t.Errorf("SHA1 = %q, want %q", d.Downloads.Client.SHA1, up.BundleSHA1("1.20.1"))
	}

	bad, _ := m.Lookup("broken")
	if _, err := c.FetchDescriptor(context.Background(), bad.URL); !errors.Is(err, ErrMalformedDescriptor) {
		t.Errorf("FetchDescriptor(broken) error = %v, want ErrMalformedDescriptor", err)
	}
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/garbage":
			_, _ = io.WriteString(w, "not json")
		case "/empty":
			_, _ = io.WriteString(w, `{"latest":{},"versions":[]}`)
		case "/ua":
			if r.Header.Get("User-Agent") != "rpbuild/test" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = io.WriteString(w, "ok")
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()

	_, err := NewClient(WithManifestURL(srv.URL + "/down?token=secret")).FetchManifest(ctx)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("status error = %v, want ErrUnexpectedStatus", err)
	}
	if err != nil && strings.Contains(err.Error(), "secret") {
		t.Errorf("error leaks query string: %v", err)
	}

	if _, err := NewClient(WithManifestURL(srv.URL + "/garbage")).FetchManifest(ctx); err == nil {
		t.Error("expected decode error")
	}

	if _, err := NewClient(WithManifestURL(srv.URL + "/empty")).FetchManifest(ctx); !errors.Is(err, ErrMalformedManifest) {
		t.Errorf("empty manifest error = %v, want ErrMalformedManifest", err)
	}

	body, _, err := NewClient(WithUserAgent("rpbuild/test")).Download(ctx, srv.URL+"/ua")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	_ = body.Close()
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"https://example.com/a.jar?sig=abc#frag", "https://example.com/a.jar"},
		{"https://user:pw@example.com/a.jar", "https://example.com/a.jar"},
		{"://bad", "<invalid-url>"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
