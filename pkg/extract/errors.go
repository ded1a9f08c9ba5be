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

import "fmt"

// ArchiveError indicates that a referenced archive could not be opened
// or one of its entries could not be extracted. Partially extracted
// directories are retained.
type ArchiveError struct {
	Archive string
	Entry   string
	Err     error
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("archive %s: entry %s: %s", e.Archive, e.Entry, e.Err)
	}
	return fmt.Sprintf("archive %s: %s", e.Archive, e.Err)
}

// Unwrap returns the underlying error.
func (e *ArchiveError) Unwrap() error { return e.Err }
