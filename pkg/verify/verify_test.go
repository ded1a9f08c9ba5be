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
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/distpull/distpull/pkg/release"
)

const testContent = "release artifact bytes"

func writeTestFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.zip")
	if err := os.WriteFile(path, []byte(testContent), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestVerifyNotFound(t *testing.T) {
	v := &Verifier{}
	ver, err := v.Verify(release.Metadata{}, filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if ver.Status != Invalid || ver.Reason != ReasonNotFound {
		t.Errorf("expected invalid/not-found, got %s/%s", ver.Status, ver.Reason)
	}
}

func TestVerifySizeMismatch(t *testing.T) {
	path := writeTestFile(t)
	v := &Verifier{}

	// The digest is correct; the size check must still fail first and
	// the digest must not rescue the verdict.
	meta := release.Metadata{
		Size:   int64(len(testContent)) + 1,
		Digest: &release.Digest{Algorithm: "sha256", Value: sha256Hex(testContent)},
	}
	ver, err := v.Verify(meta, path)
	if err != nil {
		t.Fatal(err)
	}
	if ver.Status != Invalid || ver.Reason != ReasonSizeMismatch {
		t.Errorf("expected invalid/size-mismatch, got %s/%s", ver.Status, ver.Reason)
	}
}

func TestVerifyInlineValid(t *testing.T) {
	path := writeTestFile(t)
	v := &Verifier{}

	meta := release.Metadata{
		Size: int64(len(testContent)),
		// Upper-case hex and dashed algorithm name must both be accepted.
		Digest: &release.Digest{Algorithm: "SHA-256", Value: strings.ToUpper(sha256Hex(testContent))},
	}
	ver, err := v.Verify(meta, path)
	if err != nil {
		t.Fatal(err)
	}
	if ver.Status != Valid {
		t.Errorf("expected valid, got %s/%s", ver.Status, ver.Reason)
	}
	if ver.Algorithm != "sha256" {
		t.Errorf("expected algorithm sha256, got %q", ver.Algorithm)
	}
}

func TestVerifyInlineMismatch(t *testing.T) {
	path := writeTestFile(t)
	v := &Verifier{}

	meta := release.Metadata{
		Size:   int64(len(testContent)),
		Digest: &release.Digest{Algorithm: "sha256", Value: sha256Hex("other bytes")},
	}
	ver, err := v.Verify(meta, path)
	if err != nil {
		t.Fatal(err)
	}
	if ver.Status != Invalid || ver.Reason != ReasonDigestMismatch {
		t.Errorf("expected invalid/digest-mismatch, got %s/%s", ver.Status, ver.Reason)
	}
}

func TestVerifyNotCheckedWithoutMetadata(t *testing.T) {
	path := writeTestFile(t)
	v := &Verifier{}

	ver, err := v.Verify(release.Metadata{}, path)
	if err != nil {
		t.Fatal(err)
	}
	if ver.Status != NotChecked {
		t.Errorf("expected not-checked, got %s", ver.Status)
	}
}

func TestVerifySizeMatchWithoutDigestIsNotChecked(t *testing.T) {
	path := writeTestFile(t)
	v := &Verifier{}

	ver, err := v.Verify(release.Metadata{Size: int64(len(testContent))}, path)
	if err != nil {
		t.Fatal(err)
	}
	if ver.Status != NotChecked {
		t.Errorf("expected not-checked, got %s", ver.Status)
	}
}

func TestVerifyUnsupportedInlineAlgorithmDegrades(t *testing.T) {
	path := writeTestFile(t)
	v := &Verifier{}

	meta := release.Metadata{
		Digest: &release.Digest{Algorithm: "whirlpool", Value: "abc123"},
	}
	ver, err := v.Verify(meta, path)
	if err != nil {
		t.Fatal(err)
	}
	if ver.Status != NotChecked {
		t.Errorf("expected not-checked for unsupported algorithm, got %s", ver.Status)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{Valid, "valid"},
		{Invalid, "invalid"},
		{NotChecked, "not-checked"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
