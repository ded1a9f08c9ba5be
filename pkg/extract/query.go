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

// Package extract resolves nested-archive extraction queries.
//
// A query is a small recursive language: a leaf names a file, a string
// segment, or a pattern over relative paths; a sequence resolves its
// first element to a base location (extracting it when it is an
// archive) and the remaining elements relative to that base. The
// resolved tree mirrors the branching shape of the query, with pattern
// leaves producing a collection instead of a single path.
package extract

// Query is one node of an extraction query. The concrete variants are
// String, Location, Pattern and Sequence; any other value resolves to
// Empty rather than raising an error.
type Query interface {
	query()
}

// String is a plain filename or path segment, joined onto the current
// base and then resolved as a location.
type String string

func (String) query() {}

// Location is a filesystem path. A location whose name ends in ".zip"
// (case-insensitive) resolves to the root of its extraction; any other
// location resolves to itself.
type Location string

func (Location) query() {}

// Pattern is a regular expression matched in full against each file's
// slash-separated path relative to the current base. It is only
// meaningful with a base.
type Pattern string

func (Pattern) query() {}

// Sequence is an ordered composite: the first element establishes a new
// base, the remaining elements are resolved against it.
type Sequence []Query

func (Sequence) query() {}

// Result is one node of a resolved tree. The concrete variants are
// Path, Paths, Tree and Empty, mirroring the query variants.
type Result interface {
	result()
}

// Path is a single resolved location.
type Path string

func (Path) result() {}

// Paths is the set of locations matched by a Pattern leaf, in
// depth-first walk order.
type Paths []string

func (Paths) result() {}

// Tree is the resolved form of a Sequence: the new base first, then the
// resolved remaining elements in their original order.
type Tree []Result

func (Tree) result() {}

// Empty is the resolution of a malformed or nil query fragment.
type Empty struct{}

func (Empty) result() {}
