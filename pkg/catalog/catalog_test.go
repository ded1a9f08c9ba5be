/*
Copyright The Distpull Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package catalog

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distpull/distpull/pkg/getter"
)

const testListing = `[
  {
    "itemId": 7,
    "releaseDate": "2026-01-10",
    "version": "1.5.0",
    "downloadURL": "https://dist.example.com/7/mod-1.5.0.zip",
    "fileSize": 1024,
    "filename": "mod-1.5.0.zip",
    "digest": {"algorithm": "sha256", "value": "abc123"}
  },
  {
    "itemId": 7,
    "releaseDate": "2026-03-02",
    "version": "2.0.0",
    "downloadURL": "https://dist.example.com/7/mod-2.0.0.zip",
    "fileSize": 2048,
    "filename": "mod-2.0.0.zip",
    "checksumManifestURL": "https://dist.example.com/7/digests.xml"
  },
  {
    "itemId": 7,
    "releaseDate": "2025-11-20",
    "version": "nightly",
    "downloadURL": "https://dist.example.com/7/mod-nightly.zip",
    "fileSize": 512,
    "filename": "mod-nightly.zip"
  }
]`

func listingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/7/releases" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, testListing)
	}))
}

func testClient(baseURL, cacheDir string) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   "k",
		Getter:   getter.NewHTTPFetcher(),
		CacheDir: cacheDir,
	}
}

func TestReleasesSortsNewestFirst(t *testing.T) {
	srv := listingServer(t)
	defer srv.Close()

	releases, err := testClient(srv.URL, "").Releases(7)
	require.NoError(t, err)
	require.Len(t, releases, 3)

	for i, v := range []string{"2.0.0", "1.5.0", "nightly"} {
		assert.Equal(t, v, releases[i].Version, "position %d", i)
	}

	newest := releases[0]
	assert.Equal(t, int64(2048), newest.Size)
	assert.Nil(t, newest.Digest)
	assert.NotEmpty(t, newest.DigestManifestURL)

	require.NotNil(t, releases[1].Digest)
	assert.Equal(t, "abc123", releases[1].Digest.Value)
}

func TestReleasesUnknownItem(t *testing.T) {
	srv := listingServer(t)
	defer srv.Close()

	_, err := testClient(srv.URL, "").Releases(99)
	assert.Error(t, err)
}

func TestLatest(t *testing.T) {
	srv := listingServer(t)
	defer srv.Close()

	got, err := testClient(srv.URL, "").Latest(7, "")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", got.Version)
}

func TestLatestWithConstraint(t *testing.T) {
	srv := listingServer(t)
	defer srv.Close()

	c := testClient(srv.URL, "")

	// Non-semver versions are skipped when a constraint is given.
	got, err := c.Latest(7, "^1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.5.0", got.Version)

	_, err = c.Latest(7, "^3.0")
	assert.Error(t, err, "no release satisfies the constraint")

	_, err = c.Latest(7, "not-a-constraint")
	assert.Error(t, err, "constraint does not parse")
}

func TestReleasesFallsBackToCachedListing(t *testing.T) {
	srv := listingServer(t)
	cacheDir := t.TempDir()

	c := testClient(srv.URL, cacheDir)
	want, err := c.Releases(7)
	require.NoError(t, err)

	// With the catalog gone, the cached listing keeps working.
	srv.Close()
	got, err := c.Releases(7)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Version, got[i].Version)
		assert.True(t, got[i].ReleaseDate.Equal(want[i].ReleaseDate))
	}
}

func TestReleasesNoCacheNoFallback(t *testing.T) {
	srv := listingServer(t)
	srv.Close()

	_, err := testClient(srv.URL, t.TempDir()).Releases(7)
	assert.Error(t, err)
}

func TestParseReleaseDate(t *testing.T) {
	for _, ok := range []string{"2026-03-02", "2026-03-02T15:04:05Z"} {
		_, err := parseReleaseDate(ok)
		assert.NoError(t, err, ok)
	}
	_, err := parseReleaseDate("03/02/2026")
	assert.Error(t, err)
}
