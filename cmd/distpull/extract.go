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

	"github.com/spf13/cobra"

	"github.com/distpull/distpull/pkg/extract"
)

const extractDesc = `Extract an archive and resolve locations inside it. Each NAME argument
is resolved relative to the extracted root; nested .zip names are
extracted in turn. With --pattern, files whose relative path fully
matches the regular expression are listed instead.`

func newExtractCmd(_ *envSettings, out io.Writer) *cobra.Command {
	var (
		pattern string
		dir     string
	)

	cmd := &cobra.Command{
		Use:   "extract FILE [NAME...]",
		Short: "extract an archive and resolve paths within it",
		Long:  extractDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			q := extract.Sequence{extract.Location(args[0])}
			for _, name := range args[1:] {
				q = append(q, extract.String(name))
			}
			if pattern != "" {
				q = append(q, extract.Pattern(pattern))
			}

			r := &extract.Resolver{Dir: dir}
			res, err := r.Resolve(q, "")
			if err != nil {
				return err
			}
			for _, loc := range extract.Flatten(res) {
				fmt.Fprintln(out, loc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "regular expression over paths relative to the extracted root")
	cmd.Flags().StringVar(&dir, "dir", "", "extraction directory (default: a fresh temporary directory)")
	return cmd
}
