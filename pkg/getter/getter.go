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

// Package getter provides the fetch strategy used by the download cache
// manager and the catalog client.
package getter

import (
	"bytes"
	"net/http"
	"time"
)

// Progress describes the state of a transfer in flight. TotalBytes is 0
// when the expected size is unknown.
type Progress struct {
	BytesTransferred int64
	TotalBytes       int64
}

// ProgressFunc observes transfer progress. Implementations must return
// quickly; events are emitted inline from the transfer loop.
type ProgressFunc func(Progress)

// options are generic parameters applied to a fetcher during a single
// operation. Fetchers may ignore options that do not apply to them.
type options struct {
	username     string
	password     string
	apiKey       string
	userAgent    string
	timeout      time.Duration
	expectedSize int64
	progress     ProgressFunc
	retries      int
	transport    http.RoundTripper
}

// Option configures a single Fetch or Get operation.
type Option func(*options)

// WithBasicAuth sets the request's Authorization header to use the
// provided credentials.
func WithBasicAuth(username, password string) Option {
	return func(opts *options) {
		opts.username = username
		opts.password = password
	}
}

// WithAPIKey appends the catalog API key as a query parameter.
func WithAPIKey(key string) Option {
	return func(opts *options) {
		opts.apiKey = key
	}
}

// WithUserAgent sets the request's User-Agent header to use the
// provided agent name.
func WithUserAgent(userAgent string) Option {
	return func(opts *options) {
		opts.userAgent = userAgent
	}
}

// WithTimeout sets the timeout for requests.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

// WithExpectedSize informs progress reporting of the total transfer
// size when the server does not advertise a content length.
func WithExpectedSize(size int64) Option {
	return func(opts *options) {
		opts.expectedSize = size
	}
}

// WithProgress registers an observer for transfer progress events. If
// no observer is registered, events are dropped.
func WithProgress(fn ProgressFunc) Option {
	return func(opts *options) {
		opts.progress = fn
	}
}

// WithRetries enables transport-level retries with backoff for 5xx and
// connection failures. The default is no retries.
func WithRetries(retries int) Option {
	return func(opts *options) {
		opts.retries = retries
	}
}

// WithTransport sets the http.RoundTripper, overriding the default.
func WithTransport(transport http.RoundTripper) Option {
	return func(opts *options) {
		opts.transport = transport
	}
}

// Fetcher retrieves the content of a URL into a destination file,
// streaming rather than buffering the whole artifact in memory.
type Fetcher interface {
	// Fetch streams url into dest. It fails on transport errors and
	// non-2xx responses.
	Fetch(url, dest string, opts ...Option) error
}

// Getter retrieves a small document (a catalog listing, a digest
// manifest) into memory.
type Getter interface {
	// Get returns the body fetched from url.
	Get(url string, opts ...Option) (*bytes.Buffer, error)
}

// DefaultTimeout bounds a single request attempt. Catalog artifacts can
// be large, so this is generous.
const DefaultTimeout = 300 * time.Second

var defaultOptions = []Option{WithTimeout(DefaultTimeout)}
