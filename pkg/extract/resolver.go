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

package extract

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
)

// ArchiveSuffix is the recognized archive extension, compared
// case-insensitively.
const ArchiveSuffix = ".zip"

// Resolver resolves extraction queries.
type Resolver struct {
	// Dir, if set, is the root directory for top-level extractions.
	// When empty, each Resolve call creates its own temporary root.
	Dir string
}

// Resolve walks q recursively and returns the matching resolved tree.
// base is the starting location for relative leaves and patterns; it
// may be empty for queries built from absolute paths.
//
// Extraction is idempotent: if an archive's target directory already
// exists, it is reused rather than overwritten.
func (r *Resolver) Resolve(q Query, base string) (Result, error) {
	run := &resolveRun{dir: r.Dir}
	return run.resolve(q, base)
}

// resolveRun carries the per-call extraction root. The root is created
// lazily, so queries that never touch an archive create no directory.
type resolveRun struct {
	dir string
}

func (run *resolveRun) resolve(q Query, base string) (Result, error) {
	switch q := q.(type) {
	case String:
		loc := string(q)
		if base != "" {
			loc = filepath.Join(base, loc)
		}
		return run.resolve(Location(loc), "")

	case Location:
		p := string(q)
		if base != "" && !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		if !isArchive(p) {
			return Path(p), nil
		}
		dest, err := run.destFor(p)
		if err != nil {
			return nil, err
		}
		if err := extractArchive(p, dest); err != nil {
			return nil, err
		}
		return Path(dest), nil

	case Pattern:
		if base == "" {
			return Empty{}, nil
		}
		return matchPattern(string(q), base)

	case Sequence:
		if len(q) == 0 {
			return Tree{}, nil
		}
		first, err := run.resolve(q[0], base)
		if err != nil {
			return nil, err
		}
		newBase := ""
		if p, ok := first.(Path); ok {
			newBase = string(p)
		}
		out := Tree{first}
		for _, child := range q[1:] {
			res, err := run.resolve(child, newBase)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
		return out, nil

	default:
		// Malformed fragments degrade gracefully.
		return Empty{}, nil
	}
}

// destFor picks the extraction directory for an archive. Archives that
// already live inside the run's root extract to a sibling directory
// named after them; anything else (the top-level artifact) extracts
// under the root.
func (run *resolveRun) destFor(archive string) (string, error) {
	root, err := run.root()
	if err != nil {
		return "", err
	}
	stripped := trimArchiveSuffix(archive)
	if strings.HasPrefix(archive, root+string(filepath.Separator)) {
		return stripped, nil
	}
	return filepath.Join(root, filepath.Base(stripped)), nil
}

func (run *resolveRun) root() (string, error) {
	if run.dir != "" {
		if err := os.MkdirAll(run.dir, 0755); err != nil {
			return "", errors.Wrapf(err, "unable to create extraction root %s", run.dir)
		}
		return run.dir, nil
	}
	dir, err := os.MkdirTemp("", "distpull-extract-")
	if err != nil {
		return "", errors.Wrap(err, "unable to create extraction root")
	}
	run.dir = dir
	return dir, nil
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ArchiveSuffix)
}

func trimArchiveSuffix(name string) string {
	return name[:len(name)-len(ArchiveSuffix)]
}

// matchPattern enumerates files under base depth-first and keeps those
// whose slash-relative path fully matches the expression.
func matchPattern(expr, base string) (Result, error) {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", expr)
	}

	var matches Paths
	err = filepath.Walk(base, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		if re.MatchString(filepath.ToSlash(rel)) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to scan %s", base)
	}
	return matches, nil
}

// extractArchive expands src into dest, preserving the archive's
// internal directory structure. An existing dest directory is reused.
func extractArchive(src, dest string) error {
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return nil
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return &ArchiveError{Archive: src, Err: err}
	}

	zr, err := zip.OpenReader(src)
	if err != nil {
		return &ArchiveError{Archive: src, Err: err}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := extractEntry(f, src, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, src, dest string) error {
	path, err := securejoin.SecureJoin(dest, f.Name)
	if err != nil {
		return &ArchiveError{Archive: src, Entry: f.Name, Err: err}
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(path, 0755); err != nil {
			return &ArchiveError{Archive: src, Entry: f.Name, Err: err}
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &ArchiveError{Archive: src, Entry: f.Name, Err: err}
	}

	rc, err := f.Open()
	if err != nil {
		return &ArchiveError{Archive: src, Entry: f.Name, Err: err}
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		rc.Close()
		return &ArchiveError{Archive: src, Entry: f.Name, Err: err}
	}

	_, cpErr := io.Copy(out, rc)
	rc.Close()
	if closeErr := out.Close(); cpErr == nil {
		cpErr = closeErr
	}
	if cpErr != nil {
		return &ArchiveError{Archive: src, Entry: f.Name, Err: cpErr}
	}
	return nil
}
