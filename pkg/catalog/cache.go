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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/distpull/distpull/internal/fileutil"
	"github.com/distpull/distpull/pkg/release"
)

// listingLockTimeout bounds how long a writer waits for the listing
// lock before giving up.
const listingLockTimeout = 30 * time.Second

func (c *Client) listingPath(item int) string {
	return filepath.Join(c.CacheDir, fmt.Sprintf("listing-%d.yaml", item))
}

// storeListing writes the listing cache file for an item. The write is
// atomic and serialized with a file lock so concurrent clients never
// interleave partial listings.
func (c *Client) storeListing(item int, releases []release.Metadata) error {
	if c.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.CacheDir, 0755); err != nil {
		return errors.Wrapf(err, "unable to create cache directory %s", c.CacheDir)
	}

	data, err := yaml.Marshal(releases)
	if err != nil {
		return errors.Wrap(err, "unable to serialize listing")
	}

	path := c.listingPath(item)
	fileLock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), listingLockTimeout)
	defer cancel()
	locked, err := fileLock.TryLockContext(ctx, time.Second)
	if err == nil && locked {
		defer fileLock.Unlock()
	}
	if err != nil {
		return errors.Wrapf(err, "unable to lock %s", path)
	}

	return fileutil.AtomicWriteFile(path, bytes.NewReader(data), 0644)
}

// loadListing reads the cached listing for an item.
func (c *Client) loadListing(item int) ([]release.Metadata, error) {
	if c.CacheDir == "" {
		return nil, errors.New("no listing cache configured")
	}
	data, err := os.ReadFile(c.listingPath(item))
	if err != nil {
		return nil, err
	}
	var releases []release.Metadata
	if err := yaml.Unmarshal(data, &releases); err != nil {
		return nil, errors.Wrapf(err, "unable to parse cached listing for item %d", item)
	}
	return releases, nil
}
