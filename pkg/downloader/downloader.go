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

// Package downloader turns a retrieval job into a cached, validated
// local file, fetching only when necessary.
package downloader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/distpull/distpull/pkg/getter"
	"github.com/distpull/distpull/pkg/release"
	"github.com/distpull/distpull/pkg/verify"
)

// Job identifies one fetch. It is immutable once submitted.
type Job struct {
	// URL is the source of the artifact.
	URL string
	// Filename is the cache key. Callers construct filenames that
	// already encode release identity, so distinct releases never
	// collide (see release.Metadata.CacheKey).
	Filename string
	// Size is the expected byte size, 0 if unknown.
	Size int64
	// Verify checks a candidate file. Required.
	Verify func(path string) (*verify.Verification, error)
}

// JobFor builds a Job for a release using v as the validator.
func JobFor(meta release.Metadata, v *verify.Verifier) Job {
	return Job{
		URL:      meta.URL,
		Filename: meta.CacheKey(),
		Size:     meta.Size,
		Verify: func(path string) (*verify.Verification, error) {
			return v.Verify(meta, path)
		},
	}
}

// CachedArtifact is the result of resolving a Job.
type CachedArtifact struct {
	// Path is the absolute local file path of the artifact.
	Path string
	// FromCache reports whether the file was already present and valid,
	// as opposed to freshly fetched.
	FromCache bool
}

// Downloader resolves jobs against a local cache directory.
//
// A single job is processed synchronously end to end. No lock is taken
// on the cache directory: two concurrent resolutions of the same
// still-missing key may both fetch and overwrite the same path. That is
// an accepted hazard, not a guaranteed exclusion; callers wanting
// stricter semantics must serialize per key themselves.
type Downloader struct {
	// CacheDir is the root of the download cache.
	CacheDir string
	// Fetcher retrieves artifacts. Required.
	Fetcher getter.Fetcher
	// Progress, if set, observes transfer progress during fetches.
	Progress getter.ProgressFunc
	// Out is the location to write warning messages.
	Out io.Writer
}

// Resolve returns a cached, validated local file for the job.
//
// If a file already exists at the job's cache path and passes the job's
// validator, it is returned immediately with FromCache=true and no
// network access occurs. Otherwise the artifact is fetched into place
// and re-validated. On validation failure the downloaded file is left
// on disk for inspection and a *ValidationError is returned; transport
// failures surface as *FetchError.
func (d *Downloader) Resolve(job Job) (*CachedArtifact, error) {
	if err := checkJob(job); err != nil {
		return nil, err
	}

	path, err := filepath.Abs(filepath.Join(d.CacheDir, job.Filename))
	if err != nil {
		return nil, errors.Wrap(err, "unable to resolve cache path")
	}

	if _, err := os.Stat(path); err == nil {
		ver, verr := job.Verify(path)
		if verr != nil {
			return nil, verr
		}
		switch ver.Status {
		case verify.Valid:
			return &CachedArtifact{Path: path, FromCache: true}, nil
		case verify.NotChecked:
			fmt.Fprintf(d.out(), "WARNING: reusing cached %s without digest verification\n", job.Filename)
			return &CachedArtifact{Path: path, FromCache: true}, nil
		default:
			fmt.Fprintf(d.out(), "WARNING: cached %s failed verification (%s), refetching\n", job.Filename, ver.Reason)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create cache directory %s", filepath.Dir(path))
	}

	opts := []getter.Option{getter.WithExpectedSize(job.Size)}
	if d.Progress != nil {
		opts = append(opts, getter.WithProgress(d.Progress))
	}
	if err := d.Fetcher.Fetch(job.URL, path, opts...); err != nil {
		return nil, &FetchError{URL: job.URL, Err: err}
	}

	ver, err := job.Verify(path)
	if err != nil {
		return nil, err
	}
	switch ver.Status {
	case verify.Invalid:
		// The file stays on disk so a persistent failure cannot be
		// mistaken for a transient one on retry.
		return nil, &ValidationError{Path: path, Reason: ver.Reason}
	case verify.NotChecked:
		fmt.Fprintf(d.out(), "WARNING: no digest information for %s, accepting unverified\n", job.Filename)
	}

	return &CachedArtifact{Path: path, FromCache: false}, nil
}

// checkJob fails fast on malformed jobs, before any I/O.
func checkJob(job Job) error {
	switch {
	case job.URL == "":
		return &ConfigurationError{Detail: "missing source URL"}
	case job.Filename == "":
		return &ConfigurationError{Detail: "missing target filename"}
	case filepath.Base(job.Filename) != job.Filename:
		return &ConfigurationError{Detail: "target filename must not contain path separators"}
	case job.Verify == nil:
		return &ConfigurationError{Detail: "missing validator"}
	}
	return nil
}

func (d *Downloader) out() io.Writer {
	if d.Out == nil {
		return io.Discard
	}
	return d.Out
}
