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
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/distpull/distpull/internal/version"
	"github.com/distpull/distpull/pkg/catalog"
	"github.com/distpull/distpull/pkg/getter"
)

const rootDesc = `distpull retrieves versioned distribution artifacts from a release
catalog, caches them locally, validates their integrity, and resolves
nested-archive extraction queries against them.`

// envSettings collects the global configuration shared by all commands.
// Flags win over environment variables, which win over defaults.
type envSettings struct {
	baseURL  string
	apiKey   string
	cacheDir string
	debug    bool
}

func defaultCacheDir() string {
	if dir := os.Getenv("DISTPULL_CACHE_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "distpull")
}

func (s *envSettings) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.baseURL, "base-url", envOr("DISTPULL_BASE_URL", ""), "catalog API base URL")
	fs.StringVar(&s.apiKey, "api-key", os.Getenv("DISTPULL_API_KEY"), "catalog API key")
	fs.StringVar(&s.cacheDir, "cache-dir", defaultCacheDir(), "download cache directory")
	fs.BoolVar(&s.debug, "debug", false, "enable verbose output")
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func (s *envSettings) fetcher() *getter.HTTPFetcher {
	return getter.NewHTTPFetcher(getter.WithUserAgent(version.GetUserAgent()))
}

func (s *envSettings) catalogClient() *catalog.Client {
	return &catalog.Client{
		BaseURL:  s.baseURL,
		APIKey:   s.apiKey,
		Getter:   s.fetcher(),
		CacheDir: s.cacheDir,
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	settings := &envSettings{}

	cmd := &cobra.Command{
		Use:          "distpull",
		Short:        "fetch, verify and unpack catalog releases",
		Long:         rootDesc,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if settings.debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	settings.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newFetchCmd(settings, out),
		newReleasesCmd(settings, out),
		newExtractCmd(settings, out),
		newVersionCmd(out),
	)
	return cmd
}
