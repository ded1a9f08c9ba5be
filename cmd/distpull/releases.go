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
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newReleasesCmd(settings *envSettings, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "releases ITEM",
		Short: "list the catalog releases of an item, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			item, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Errorf("ITEM must be a numeric item identifier, got %q", args[0])
			}

			releases, err := settings.catalogClient().Releases(item)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tVERSION\tSIZE\tFILENAME")
			for _, r := range releases {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ReleaseDate.Format("2006-01-02"), r.Version, r.Size, r.Filename)
			}
			return w.Flush()
		},
	}
}
