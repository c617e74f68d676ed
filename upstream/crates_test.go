package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
	"crates": [
		{"name": "reqwest", "max_version": "0.12.5", "description": "higher level HTTP client library", "downloads": 150000000, "repository": "https://github.com/seanmonstar/reqwest"},
		{"name": "hyper", "max_version": "1.4.1", "description": "A fast and correct HTTP library", "downloads": 250000000},
		{"name": "ureq", "max_version": "2.10.0", "description": "Simple, safe HTTP client", "downloads": 30000000},
		{"name": "curl", "max_version": "0.4.46", "description": "Rust bindings to libcurl", "downloads": 20000000},
		{"name": "isahc", "max_version": "1.7.2", "description": "The practical HTTP client", "downloads": 5000000}
	],
	"meta": {"total": 5}
}`

const crateFixture = `{
	"crate": {
		"name": "serde",
		"description": "A generic serialization/deserialization framework",
		"documentation": "https://docs.rs/serde",
		"homepage": "https://serde.rs",
		"repository": "https://github.com/serde-rs/serde",
		"downloads": 400000000,
		"created_at": "2014-12-05T20:20:39Z",
		"updated_at": "2024-06-01T10:00:00Z"
	},
	"versions": [
		{"num": "1.0.204", "created_at": "2024-07-01T00:00:00Z", "downloads": 100, "yanked": true, "license": "MIT OR Apache-2.0"},
		{"num": "1.0.203", "created_at": "2024-05-01T00:00:00Z", "downloads": 5000000, "yanked": false, "license": "MIT OR Apache-2.0"},
		{"num": "1.0.202", "created_at": "2024-04-01T00:00:00Z", "downloads": 4000000, "yanked": false, "license": "MIT OR Apache-2.0"}
	],
	"keywords": [{"keyword": "serde"}, {"keyword": "serialization"}],
	"categories": [{"category": "encoding"}]
}`

const dependenciesFixture = `{
	"dependencies": [
		{"crate_id": "serde_derive", "req": "^1.0", "optional": true, "default_features": true, "features": [], "kind": "normal"},
		{"crate_id": "serde_test", "req": "^1.0", "optional": false, "default_features": true, "features": [], "kind": "dev"}
	]
}`

func newCratesTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client := NewClient(
		WithHTTPClient(ts.Client()),
		WithCratesBaseURL(ts.URL),
	)
	return client, ts
}

func TestSearchCrates(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crates", r.URL.Path)
		assert.Equal(t, "http client", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	})

	results, err := client.SearchCrates(context.Background(), "http client", 5)
	require.NoError(t, err)
	require.Len(t, results, 5)

	// Upstream relevance order must survive normalization
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"reqwest", "hyper", "ureq", "curl", "isahc"}, names)

	assert.Equal(t, "0.12.5", results[0].MaxVersion)
	assert.Equal(t, uint64(150000000), results[0].Downloads)
	assert.Equal(t, "https://github.com/seanmonstar/reqwest", results[0].Repository)

	// Same query against the same upstream yields identical results
	again, err := client.SearchCrates(context.Background(), "http client", 5)
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestSearchCratesMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"crates": [`},
		{"missing name", `{"crates": [{"max_version": "1.0.0"}]}`},
		{"missing max_version", `{"crates": [{"name": "serde"}]}`},
		{"wrong type", `{"crates": [{"name": 42, "max_version": "1.0.0"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			_, err := client.SearchCrates(context.Background(), "serde", 10)
			var upErr *Error
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, KindMalformed, upErr.Kind)
		})
	}
}

func TestGetCrateInfo(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crates/serde", r.URL.Path)
		w.Write([]byte(crateFixture))
	})

	info, err := client.GetCrateInfo(context.Background(), "serde")
	require.NoError(t, err)

	assert.Equal(t, "serde", info.Name)
	// 1.0.204 is yanked, so the newest non-yanked release wins
	assert.Equal(t, "1.0.203", info.Version)
	assert.Equal(t, "MIT OR Apache-2.0", info.License)
	assert.Equal(t, []string{"serde", "serialization"}, info.Keywords)
	assert.Equal(t, []string{"encoding"}, info.Categories)
	assert.Equal(t, uint64(400000000), info.Downloads)
	assert.Equal(t, "https://serde.rs", info.Homepage)
}

func TestGetCrateInfoNotFound(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetCrateInfo(context.Background(), "no-such-crate")
	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, KindNotFound, upErr.Kind)
	assert.Equal(t, 404, upErr.StatusCode)
}

func TestGetCrateVersions(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(crateFixture))
	})

	versions, err := client.GetCrateVersions(context.Background(), "serde", 0)
	require.NoError(t, err)
	require.Len(t, versions, 3)

	// Registry order, never re-sorted: the yanked newest release stays first
	assert.Equal(t, "1.0.204", versions[0].Num)
	assert.True(t, versions[0].Yanked)
	assert.Equal(t, "1.0.203", versions[1].Num)
	assert.False(t, versions[1].Yanked)

	limited, err := client.GetCrateVersions(context.Background(), "serde", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, "1.0.204", limited[0].Num)
}

func TestLatestVersion(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(crateFixture))
	})

	latest, err := client.LatestVersion(context.Background(), "serde")
	require.NoError(t, err)
	assert.Equal(t, "1.0.203", latest)
}

func TestLatestVersionAllYanked(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"crate": {"name": "ghost", "downloads": 1, "created_at": "", "updated_at": ""},
			"versions": [
				{"num": "0.2.0", "created_at": "", "downloads": 0, "yanked": true},
				{"num": "0.1.0", "created_at": "", "downloads": 0, "yanked": true}
			]
		}`))
	})

	latest, err := client.LatestVersion(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", latest)
}

func TestGetCrateDependencies(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crates/serde/1.0.203/dependencies", r.URL.Path)
		w.Write([]byte(dependenciesFixture))
	})

	deps, err := client.GetCrateDependencies(context.Background(), "serde", "1.0.203")
	require.NoError(t, err)
	require.Len(t, deps, 2)

	assert.Equal(t, "serde_derive", deps[0].Name)
	assert.Equal(t, "^1.0", deps[0].Req)
	assert.Equal(t, "normal", deps[0].Kind)
	assert.True(t, deps[0].Optional)
	assert.Equal(t, "dev", deps[1].Kind)
}

func TestGetCrateDependenciesEmpty(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dependencies": []}`))
	})

	deps, err := client.GetCrateDependencies(context.Background(), "leaf", "1.0.0")
	require.NoError(t, err)
	// Zero dependencies is an empty set, not an absence
	require.NotNil(t, deps)
	assert.Len(t, deps, 0)
}

func TestUpstreamErrorStatus(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("registry is down"))
	})

	_, err := client.GetCrateInfo(context.Background(), "serde")
	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, KindUpstream, upErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, upErr.StatusCode)
	assert.Contains(t, upErr.Message, "registry is down")
}

func TestTransportError(t *testing.T) {
	// A server that is already closed refuses connections
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	client := NewClient(WithCratesBaseURL(url))

	_, err := client.SearchCrates(context.Background(), "serde", 10)
	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, KindTransport, upErr.Kind)
	assert.True(t, errors.Unwrap(upErr) != nil)
}

func TestVersionRoundTrip(t *testing.T) {
	client, _ := newCratesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(crateFixture))
	})

	versions, err := client.GetCrateVersions(context.Background(), "serde", 0)
	require.NoError(t, err)

	// The normalized record must serialize back to the raw version string
	data, err := json.Marshal(versions[1])
	require.NoError(t, err)

	var decoded CrateVersion
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "1.0.203", decoded.Num)
}
