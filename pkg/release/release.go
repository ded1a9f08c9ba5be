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

// Package release describes one versioned publication of a distribution
// item as reported by the catalog service.
package release

import (
	"fmt"
	"strings"
	"time"
)

// Digest is an inline message digest attached to a release by the
// catalog service. Value is hex encoded.
type Digest struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// Normalized returns the canonical lower-case algorithm name with
// separator characters removed, so "SHA-256" and "sha256" compare equal.
func (d Digest) Normalized() string {
	alg := strings.ToLower(d.Algorithm)
	alg = strings.ReplaceAll(alg, "-", "")
	return strings.ReplaceAll(alg, "_", "")
}

// Metadata identifies one distribution artifact. All fields are
// supplied by the catalog client and treated as read-only input.
type Metadata struct {
	// ItemID is the numeric identifier of the distribution item.
	ItemID int `json:"itemId"`
	// ReleaseDate is the publication date of this release.
	ReleaseDate time.Time `json:"releaseDate"`
	// Version is an optional version string for this release.
	Version string `json:"version,omitempty"`
	// URL is the source location of the artifact.
	URL string `json:"downloadURL"`
	// Size is the expected byte size, 0 if unknown.
	Size int64 `json:"fileSize"`
	// Filename is the canonical name of the artifact.
	Filename string `json:"filename"`
	// Digest is the inline digest, if the release carries one.
	Digest *Digest `json:"digest,omitempty"`
	// DigestManifestURL points at a legacy external digest manifest,
	// if the release predates inline digests.
	DigestManifestURL string `json:"checksumManifestURL,omitempty"`
}

// CacheKey returns the deterministic filename used to address this
// release in the download cache. It encodes the item identifier and the
// release date ahead of the canonical filename so that distinct
// releases of the same item never collide, while repeated calls for the
// same release always produce the same key.
func (m Metadata) CacheKey() string {
	return fmt.Sprintf("%d-%s-%s", m.ItemID, m.ReleaseDate.Format("2006-01-02"), m.Filename)
}
