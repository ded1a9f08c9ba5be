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

// Package verify checks a local file against release metadata.
//
// Two digest schemes are supported: a modern inline digest carried on
// the release itself, and a legacy external digest manifest fetched
// from a secondary URL. When neither scheme yields a usable digest the
// verdict is NotChecked, which is a soft pass: callers rely on
// NotChecked never blocking a pipeline, while Invalid always does.
package verify

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/distpull/distpull/pkg/getter"
	"github.com/distpull/distpull/pkg/release"
)

// Status is the verdict of a verification.
type Status int

const (
	// Valid means size and digest both check out.
	Valid Status = iota
	// Invalid means the file is present but untrustworthy; see Reason.
	Invalid
	// NotChecked means no usable digest scheme was present. This is a
	// successful-with-caveat outcome, never a failure.
	NotChecked
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case NotChecked:
		return "not-checked"
	}
	return "unknown"
}

// Reason qualifies an Invalid verdict.
type Reason string

const (
	// ReasonNotFound means the candidate file does not exist.
	ReasonNotFound Reason = "not-found"
	// ReasonSizeMismatch means the actual byte size differs from the
	// declared expected size.
	ReasonSizeMismatch Reason = "size-mismatch"
	// ReasonDigestMismatch means the computed digest differs from the
	// declared digest.
	ReasonDigestMismatch Reason = "digest-mismatch"
)

// Verification is the result of checking one file.
type Verification struct {
	// Status is the verdict.
	Status Status
	// Reason is set when Status is Invalid.
	Reason Reason
	// Algorithm is the digest algorithm that was checked, when one was.
	Algorithm string
	// FileHash is the locally computed hex digest, when one was.
	FileHash string
}

// supportedAlgorithms is the ordered priority list tried against a
// legacy digest manifest. The first entry the manifest also carries is
// the one that decides the verdict.
var supportedAlgorithms = []string{"sha512", "sha256", "sha1", "md5"}

func hasherFor(alg string) (hash.Hash, bool) {
	switch alg {
	case "md5":
		return md5.New(), true
	case "sha1":
		return sha1.New(), true
	case "sha256":
		return sha256.New(), true
	case "sha512":
		return sha512.New(), true
	}
	return nil, false
}

// Verifier checks candidate files against release metadata. The Getter
// is used only for the legacy digest manifest path.
type Verifier struct {
	// Getter fetches the external digest manifest. Required only when
	// releases carry a DigestManifestURL.
	Getter getter.Getter
}

// Verify checks the file at path against meta.
//
// The returned error is reserved for unexpected local I/O failures;
// every metadata-level outcome, including a missing file, is expressed
// as a Verification verdict.
func (v *Verifier) Verify(meta release.Metadata, path string) (*Verification, error) {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &Verification{Status: Invalid, Reason: ReasonNotFound}, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "unable to stat %s", path)
	}

	// A provably wrong size fails before any digest I/O is spent.
	if meta.Size > 0 && fi.Size() != meta.Size {
		return &Verification{Status: Invalid, Reason: ReasonSizeMismatch}, nil
	}

	if meta.Digest != nil && meta.Digest.Value != "" {
		if ver, ok, err := v.verifyInline(meta, path); err != nil {
			return nil, err
		} else if ok {
			return ver, nil
		}
		// Unsupported inline algorithm: fall through to the legacy
		// scheme rather than failing a release we cannot check.
	}

	if meta.DigestManifestURL != "" {
		return v.verifyManifest(meta, path)
	}

	return &Verification{Status: NotChecked}, nil
}

// verifyInline checks the modern inline digest. The second return is
// false when the algorithm is not locally supported.
func (v *Verifier) verifyInline(meta release.Metadata, path string) (*Verification, bool, error) {
	alg := meta.Digest.Normalized()
	h, ok := hasherFor(alg)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"file":      meta.Filename,
			"algorithm": meta.Digest.Algorithm,
		}).Warn("unsupported inline digest algorithm")
		return nil, false, nil
	}

	sum, err := fileDigest(h, path)
	if err != nil {
		return nil, false, err
	}
	if !strings.EqualFold(sum, meta.Digest.Value) {
		return &Verification{Status: Invalid, Reason: ReasonDigestMismatch, Algorithm: alg, FileHash: sum}, true, nil
	}
	return &Verification{Status: Valid, Algorithm: alg, FileHash: sum}, true, nil
}

// fileDigest computes the hex digest of the file at path using h.
func fileDigest(h hash.Hash, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "unable to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
