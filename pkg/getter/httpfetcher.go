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

package getter

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

// apiKeyParam is the query parameter the catalog service expects the
// API key in.
const apiKeyParam = "api_key"

// HTTPFetcher is the default HTTP(S) backend for both streaming
// artifact fetches and small document gets.
type HTTPFetcher struct {
	opts options
}

// NewHTTPFetcher constructs an HTTPFetcher with the given defaults.
// Options passed to Fetch or Get override them per operation.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{}
	for _, opt := range defaultOptions {
		opt(&f.opts)
	}
	for _, opt := range opts {
		opt(&f.opts)
	}
	return f
}

// Fetch streams the body of href into dest. The destination file is
// created (or truncated) before the transfer begins and is left in
// place on failure so callers can inspect partial content.
func (f *HTTPFetcher) Fetch(href, dest string, opts ...Option) error {
	// Local copy so concurrent calls do not race on shared options.
	o := f.opts
	for _, opt := range opts {
		opt(&o)
	}

	resp, err := f.do(href, o)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", dest)
	}

	total := o.expectedSize
	if total == 0 && resp.ContentLength > 0 {
		total = resp.ContentLength
	}
	pw := &progressWriter{w: out, total: total, fn: o.progress}

	_, cpErr := io.Copy(pw, resp.Body)
	if closeErr := out.Close(); cpErr == nil {
		cpErr = closeErr
	}
	if cpErr != nil {
		return errors.Wrapf(cpErr, "failed to stream %s to %s", href, dest)
	}
	pw.flush()
	return nil
}

// Get fetches href into memory. Intended for small documents such as
// catalog listings and digest manifests, not artifacts.
func (f *HTTPFetcher) Get(href string, opts ...Option) (*bytes.Buffer, error) {
	o := f.opts
	for _, opt := range opts {
		opt(&o)
	}

	resp, err := f.do(href, o)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", href)
	}
	return buf, nil
}

func (f *HTTPFetcher) do(href string, o options) (*http.Response, error) {
	href, err := withAPIKey(href, o.apiKey)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, href, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}
	if o.username != "" && o.password != "" {
		req.SetBasicAuth(o.username, o.password)
	}

	resp, err := f.client(o).Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", href)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Errorf("failed to fetch %s : %s", href, resp.Status)
	}
	return resp, nil
}

// client configures the retryable client for one operation. Retries are
// off unless requested, so by default a failed transfer surfaces to the
// caller instead of being repeated internally.
func (f *HTTPFetcher) client(o options) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = o.retries
	c.RetryWaitMin = 1 * time.Second
	c.RetryWaitMax = 10 * time.Second
	c.Logger = nil
	c.HTTPClient.Timeout = o.timeout
	if o.transport != nil {
		c.HTTPClient.Transport = o.transport
	}
	return c
}

func withAPIKey(href, key string) (string, error) {
	if key == "" {
		return href, nil
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", errors.Wrapf(err, "invalid URL %s", href)
	}
	q := u.Query()
	q.Set(apiKeyParam, key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
