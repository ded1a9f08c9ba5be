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

// Package catalog is the client for the remote release catalog API.
//
// It produces release.Metadata records for the download cache manager
// and keeps an on-disk copy of the last listing per item, used as a
// fallback when the catalog is unreachable.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/distpull/distpull/pkg/getter"
	"github.com/distpull/distpull/pkg/release"
)

// Client talks to the release catalog service.
type Client struct {
	// BaseURL is the root of the catalog API.
	BaseURL string
	// APIKey authenticates listing requests.
	APIKey string
	// Getter performs the HTTP requests. Required.
	Getter getter.Getter
	// CacheDir, if set, enables the on-disk listing cache.
	CacheDir string
}

// listingEntry is the wire form of one release in a catalog listing.
// Unknown fields are ignored.
type listingEntry struct {
	ItemID              int             `json:"itemId"`
	ReleaseDate         string          `json:"releaseDate"`
	Version             string          `json:"version"`
	DownloadURL         string          `json:"downloadURL"`
	FileSize            int64           `json:"fileSize"`
	Filename            string          `json:"filename"`
	Digest              *release.Digest `json:"digest"`
	ChecksumManifestURL string          `json:"checksumManifestURL"`
}

// Releases lists all releases of the given item, newest first.
//
// On a network failure the last successfully cached listing is used
// instead, with a warning; the error is only surfaced when no cached
// listing exists either.
func (c *Client) Releases(item int) ([]release.Metadata, error) {
	u := fmt.Sprintf("%s/items/%d/releases", c.BaseURL, item)

	body, err := c.Getter.Get(u, getter.WithAPIKey(c.APIKey))
	if err != nil {
		if cached, cerr := c.loadListing(item); cerr == nil {
			logrus.WithFields(logrus.Fields{
				"item": item,
				"url":  u,
			}).WithError(err).Warn("catalog unreachable, using cached listing")
			return cached, nil
		}
		return nil, errors.Wrapf(err, "unable to list releases for item %d", item)
	}

	var entries []listingEntry
	if err := json.Unmarshal(body.Bytes(), &entries); err != nil {
		return nil, errors.Wrapf(err, "unable to parse listing for item %d", item)
	}

	releases := make([]release.Metadata, 0, len(entries))
	for _, e := range entries {
		date, err := parseReleaseDate(e.ReleaseDate)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d release %q", item, e.Filename)
		}
		releases = append(releases, release.Metadata{
			ItemID:            e.ItemID,
			ReleaseDate:       date,
			Version:           e.Version,
			URL:               e.DownloadURL,
			Size:              e.FileSize,
			Filename:          e.Filename,
			Digest:            e.Digest,
			DigestManifestURL: e.ChecksumManifestURL,
		})
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].ReleaseDate.After(releases[j].ReleaseDate)
	})

	if err := c.storeListing(item, releases); err != nil {
		logrus.WithField("item", item).WithError(err).Warn("unable to cache listing")
	}
	return releases, nil
}

// Latest returns the newest release of the item. A non-empty semver
// constraint restricts the candidates to releases whose version
// satisfies it; releases without a parseable version are skipped when
// a constraint is given.
func (c *Client) Latest(item int, constraint string) (*release.Metadata, error) {
	releases, err := c.Releases(item)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, errors.Errorf("item %d has no releases", item)
	}
	if constraint == "" {
		return &releases[0], nil
	}

	cons, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid version constraint %q", constraint)
	}
	for i := range releases {
		v, err := semver.NewVersion(releases[i].Version)
		if err != nil {
			continue
		}
		if cons.Check(v) {
			return &releases[i], nil
		}
	}
	return nil, errors.Errorf("no release of item %d satisfies %q", item, constraint)
}

func parseReleaseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unparseable release date %q", s)
}
