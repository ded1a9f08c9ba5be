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

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/distpull/distpull/pkg/downloader"
	"github.com/distpull/distpull/pkg/getter"
	"github.com/distpull/distpull/pkg/release"
	"github.com/distpull/distpull/pkg/verify"
)

// verification strategies, in the spirit of repositories that ship
// releases both with and without digest metadata.
const (
	verifyAlways     = "always"
	verifyIfPossible = "if-possible"
	verifyNever      = "never"
)

const fetchDesc = `Resolve the latest release of a catalog item and download it into the
local cache. A release already present and valid in the cache is reused
without network access.`

func newFetchCmd(settings *envSettings, out io.Writer) *cobra.Command {
	var (
		constraint string
		verifyMode string
	)

	cmd := &cobra.Command{
		Use:   "fetch ITEM",
		Short: "download a release into the cache",
		Long:  fetchDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			item, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Errorf("ITEM must be a numeric item identifier, got %q", args[0])
			}

			meta, err := settings.catalogClient().Latest(item, constraint)
			if err != nil {
				return err
			}

			job, err := buildJob(settings, *meta, verifyMode)
			if err != nil {
				return err
			}

			d := &downloader.Downloader{
				CacheDir: settings.cacheDir,
				Fetcher:  settings.fetcher(),
				Progress: renderProgress(out),
				Out:      out,
			}
			res, err := d.Resolve(job)
			if err != nil {
				return err
			}

			if res.FromCache {
				fmt.Fprintf(out, "%s (cached)\n", res.Path)
			} else {
				fmt.Fprintf(out, "%s\n", res.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&constraint, "version", "", "semver constraint on the release version")
	cmd.Flags().StringVar(&verifyMode, "verify", verifyIfPossible, "verification strategy: always, if-possible or never")
	return cmd
}

// buildJob wires the chosen verification strategy into the job's
// validator.
func buildJob(settings *envSettings, meta release.Metadata, mode string) (downloader.Job, error) {
	v := &verify.Verifier{Getter: settings.fetcher()}
	job := downloader.JobFor(meta, v)

	switch mode {
	case verifyIfPossible:
		return job, nil
	case verifyNever:
		job.Verify = func(string) (*verify.Verification, error) {
			return &verify.Verification{Status: verify.NotChecked}, nil
		}
		return job, nil
	case verifyAlways:
		inner := job.Verify
		job.Verify = func(path string) (*verify.Verification, error) {
			ver, err := inner(path)
			if err != nil {
				return nil, err
			}
			if ver.Status == verify.NotChecked {
				return nil, errors.Errorf("release %s carries no digest metadata and --verify=always was requested", meta.Filename)
			}
			return ver, nil
		}
		return job, nil
	}
	return downloader.Job{}, errors.Errorf("unknown verification strategy %q", mode)
}

// renderProgress prints a single self-overwriting progress line:
// a percentage when the total is known, a byte count otherwise.
func renderProgress(out io.Writer) getter.ProgressFunc {
	return func(p getter.Progress) {
		if p.TotalBytes > 0 {
			fmt.Fprintf(out, "\r%3d%% (%d/%d bytes)", p.BytesTransferred*100/p.TotalBytes, p.BytesTransferred, p.TotalBytes)
		} else {
			fmt.Fprintf(out, "\r%d bytes", p.BytesTransferred)
		}
		if p.TotalBytes > 0 && p.BytesTransferred >= p.TotalBytes {
			fmt.Fprintln(out)
		}
	}
}
