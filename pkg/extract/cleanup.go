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
	"os"

	"github.com/hashicorp/go-multierror"
)

// Cleanup deletes every concrete filesystem location contained in a
// resolved tree. Directories are removed recursively, single files
// individually; locations that no longer exist are silently ignored,
// so invoking Cleanup twice on the same tree is harmless.
func Cleanup(res Result) error {
	var result *multierror.Error
	for _, loc := range Flatten(res) {
		fi, err := os.Stat(loc)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if fi.IsDir() {
			err = os.RemoveAll(loc)
		} else {
			err = os.Remove(loc)
		}
		if err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Flatten collects the concrete locations of a resolved tree in
// resolution order.
func Flatten(res Result) []string {
	switch res := res.(type) {
	case Path:
		return []string{string(res)}
	case Paths:
		return append([]string(nil), res...)
	case Tree:
		var out []string
		for _, child := range res {
			out = append(out, Flatten(child)...)
		}
		return out
	}
	return nil
}
