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

package verify

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/distpull/distpull/pkg/release"
)

// manifest is the legacy external digest document: a filename-keyed
// mapping of algorithm names to base64-encoded digest values.
//
//	<digests>
//	  <file name="item.zip">
//	    <digest algorithm="SHA-256">3q2+7w==...</digest>
//	  </file>
//	</digests>
type manifest struct {
	XMLName xml.Name       `xml:"digests"`
	Files   []manifestFile `xml:"file"`
}

type manifestFile struct {
	Name    string           `xml:"name,attr"`
	Digests []manifestDigest `xml:"digest"`
}

type manifestDigest struct {
	Algorithm string `xml:"algorithm,attr"`
	Value     string `xml:",chardata"`
}

func parseManifest(data []byte) (*manifest, error) {
	m := &manifest{}
	if err := xml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "unable to parse digest manifest")
	}
	return m, nil
}

// entry returns the per-algorithm digest values recorded for filename,
// keyed by normalized algorithm name, or nil if the manifest has no
// entry for it.
func (m *manifest) entry(filename string) map[string]string {
	for _, f := range m.Files {
		if f.Name != filename {
			continue
		}
		out := make(map[string]string, len(f.Digests))
		for _, d := range f.Digests {
			out[release.Digest{Algorithm: d.Algorithm}.Normalized()] = strings.TrimSpace(d.Value)
		}
		return out
	}
	return nil
}

// verifyManifest runs the legacy scheme: fetch the manifest, look up
// the entry for the release's canonical filename, and try the
// supported algorithms in priority order. Every degenerate case along
// the way (fetch failure, malformed document, missing entry, no
// supported algorithm, undecodable value) degrades to NotChecked.
func (v *Verifier) verifyManifest(meta release.Metadata, path string) (*Verification, error) {
	notChecked := &Verification{Status: NotChecked}
	warn := logrus.WithFields(logrus.Fields{
		"file":     meta.Filename,
		"manifest": meta.DigestManifestURL,
	})

	if v.Getter == nil {
		warn.Warn("no manifest getter configured, skipping digest check")
		return notChecked, nil
	}

	body, err := v.Getter.Get(meta.DigestManifestURL)
	if err != nil {
		warn.WithError(err).Warn("unable to fetch digest manifest, skipping digest check")
		return notChecked, nil
	}

	m, err := parseManifest(body.Bytes())
	if err != nil {
		warn.WithError(err).Warn("malformed digest manifest, skipping digest check")
		return notChecked, nil
	}

	entry := m.entry(meta.Filename)
	if entry == nil {
		warn.Warn("digest manifest has no entry for file, skipping digest check")
		return notChecked, nil
	}

	for _, alg := range supportedAlgorithms {
		encoded, ok := entry[alg]
		if !ok {
			continue
		}
		want, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			warn.WithField("algorithm", alg).Warn("undecodable digest value, trying next algorithm")
			continue
		}

		h, _ := hasherFor(alg)
		sum, err := fileDigest(h, path)
		if err != nil {
			return nil, err
		}
		if sum != hex.EncodeToString(want) {
			return &Verification{Status: Invalid, Reason: ReasonDigestMismatch, Algorithm: alg, FileHash: sum}, nil
		}
		return &Verification{Status: Valid, Algorithm: alg, FileHash: sum}, nil
	}

	warn.Warn("no supported algorithm in digest manifest, skipping digest check")
	return notChecked, nil
}
