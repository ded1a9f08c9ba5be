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

package downloader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/distpull/distpull/pkg/getter"
	"github.com/distpull/distpull/pkg/verify"
)

// countingFetcher records fetch invocations and writes canned content.
type countingFetcher struct {
	calls   int
	content string
	err     error
}

func (f *countingFetcher) Fetch(_, dest string, _ ...getter.Option) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte(f.content), 0644)
}

func alwaysValid(string) (*verify.Verification, error) {
	return &verify.Verification{Status: verify.Valid}, nil
}

func alwaysNotChecked(string) (*verify.Verification, error) {
	return &verify.Verification{Status: verify.NotChecked}, nil
}

func testJob(verifier func(string) (*verify.Verification, error)) Job {
	return Job{
		URL:      "https://example.com/artifact.zip",
		Filename: "1-2026-01-01-artifact.zip",
		Verify:   verifier,
	}
}

func TestResolveFromCache(t *testing.T) {
	dir := t.TempDir()
	job := testJob(alwaysValid)
	if err := os.WriteFile(filepath.Join(dir, job.Filename), []byte("cached"), 0644); err != nil {
		t.Fatal(err)
	}

	f := &countingFetcher{}
	d := &Downloader{CacheDir: dir, Fetcher: f}

	res, err := d.Resolve(job)
	if err != nil {
		t.Fatal(err)
	}
	if !res.FromCache {
		t.Error("expected FromCache=true for a valid cached file")
	}
	if f.calls != 0 {
		t.Errorf("expected no fetch for a valid cached file, got %d", f.calls)
	}
	if res.Path != filepath.Join(dir, job.Filename) {
		t.Errorf("unexpected path %s", res.Path)
	}
}

func TestResolveFetchesOnce(t *testing.T) {
	dir := t.TempDir()
	f := &countingFetcher{content: "fresh bytes"}
	d := &Downloader{CacheDir: dir, Fetcher: f}

	res, err := d.Resolve(testJob(alwaysValid))
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Error("expected FromCache=false for a fresh fetch")
	}
	if f.calls != 1 {
		t.Errorf("expected exactly one fetch, got %d", f.calls)
	}

	got, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "fresh bytes" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestResolveRefetchesInvalidCacheEntry(t *testing.T) {
	dir := t.TempDir()
	job := testJob(nil)
	if err := os.WriteFile(filepath.Join(dir, job.Filename), []byte("corrupt"), 0644); err != nil {
		t.Fatal(err)
	}

	// First verification (cached file) fails, second (fresh file) passes.
	verdicts := []*verify.Verification{
		{Status: verify.Invalid, Reason: verify.ReasonDigestMismatch},
		{Status: verify.Valid},
	}
	job.Verify = func(string) (*verify.Verification, error) {
		v := verdicts[0]
		verdicts = verdicts[1:]
		return v, nil
	}

	f := &countingFetcher{content: "fresh"}
	out := &bytes.Buffer{}
	d := &Downloader{CacheDir: dir, Fetcher: f, Out: out}

	res, err := d.Resolve(job)
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Error("expected FromCache=false after refetch")
	}
	if f.calls != 1 {
		t.Errorf("expected one fetch, got %d", f.calls)
	}
	if !strings.Contains(out.String(), "failed verification") {
		t.Errorf("expected a refetch warning, got %q", out.String())
	}
}

func TestResolveFetchError(t *testing.T) {
	f := &countingFetcher{err: errors.New("connection refused")}
	d := &Downloader{CacheDir: t.TempDir(), Fetcher: f}

	_, err := d.Resolve(testJob(alwaysValid))
	fetchErr := &FetchError{}
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fetchErr.URL != "https://example.com/artifact.zip" {
		t.Errorf("unexpected URL %q", fetchErr.URL)
	}
}

func TestResolveValidationFailureKeepsFile(t *testing.T) {
	dir := t.TempDir()
	f := &countingFetcher{content: "corrupt bytes"}
	d := &Downloader{CacheDir: dir, Fetcher: f}

	job := testJob(func(string) (*verify.Verification, error) {
		return &verify.Verification{Status: verify.Invalid, Reason: verify.ReasonDigestMismatch}, nil
	})

	_, err := d.Resolve(job)
	valErr := &ValidationError{}
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if valErr.Reason != verify.ReasonDigestMismatch {
		t.Errorf("unexpected reason %s", valErr.Reason)
	}

	// The downloaded file must be retained for inspection.
	if _, err := os.Stat(filepath.Join(dir, job.Filename)); err != nil {
		t.Errorf("expected downloaded file to be kept: %v", err)
	}
}

func TestResolveNotCheckedWarns(t *testing.T) {
	out := &bytes.Buffer{}
	d := &Downloader{CacheDir: t.TempDir(), Fetcher: &countingFetcher{content: "x"}, Out: out}

	res, err := d.Resolve(testJob(alwaysNotChecked))
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Error("expected a fresh fetch")
	}
	if !strings.Contains(out.String(), "WARNING") {
		t.Errorf("expected a warning for an unverified artifact, got %q", out.String())
	}
}

func TestResolveBadJob(t *testing.T) {
	d := &Downloader{CacheDir: t.TempDir(), Fetcher: &countingFetcher{}}

	tests := []struct {
		name string
		job  Job
	}{
		{"missing URL", Job{Filename: "f", Verify: alwaysValid}},
		{"missing filename", Job{URL: "https://example.com/a", Verify: alwaysValid}},
		{"path separators", Job{URL: "https://example.com/a", Filename: "../evil", Verify: alwaysValid}},
		{"missing validator", Job{URL: "https://example.com/a", Filename: "f"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Resolve(tt.job)
			confErr := &ConfigurationError{}
			if !errors.As(err, &confErr) {
				t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
			}
		})
	}
}
