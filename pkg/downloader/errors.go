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
	"fmt"

	"github.com/distpull/distpull/pkg/verify"
)

// FetchError indicates that the underlying fetch of an artifact failed
// for network or I/O reasons. The cache is left untouched for the key.
type FetchError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch of %s failed: %s", e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError indicates that a fetched artifact is present but
// failed verification. The file is retained on disk for inspection.
type ValidationError struct {
	Path   string
	Reason verify.Reason
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation of %s failed: %s", e.Path, e.Reason)
}

// ConfigurationError indicates a malformed job, detected before any
// I/O is performed.
type ConfigurationError struct {
	Detail string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid job: %s", e.Detail)
}
