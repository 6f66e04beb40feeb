// Binds settings to command line flags.

package config

import (
	"flag"
	"time"
)

// Flags holds the command line values of the settings.
type Flags struct {
	fs *flag.FlagSet

	token             string
	baseURL           string
	requestsPerSecond float64
	maxRetries        int
	minDelay          time.Duration
	maxDelay          time.Duration
	concurrency       int
	maxDepth          int
	ignoreColor       bool
	ignoreUnderline   bool
	outputDir         string
	assets            bool
	downloadExternal  bool
	gitCommit         bool
}

// RegisterFlags defines the settings flags on fs. Defaults shown in the usage are those of
// Default; only flags set explicitly override other sources.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}
	fs.StringVar(&f.token, "token", "", "Notion integration token (or set "+EnvToken+")")
	fs.StringVar(&f.baseURL, "base-url", d.BaseURL, "Notion API base URL")
	fs.Float64Var(&f.requestsPerSecond, "rps", d.RequestsPerSecond, "Requests per second; 0 disables throttling")
	fs.IntVar(&f.maxRetries, "max-retries", d.MaxRetries, "Retries of read requests on 429 and 5xx")
	fs.DurationVar(&f.minDelay, "min-delay", d.MinDelay, "First retry backoff")
	fs.DurationVar(&f.maxDelay, "max-delay", d.MaxDelay, "Maximum retry backoff")
	fs.IntVar(&f.concurrency, "concurrency", d.Concurrency, "Sibling subtrees fetched at once")
	fs.IntVar(&f.maxDepth, "max-depth", d.MaxDepth, "Max nesting depth for blocks (0=unlimited)")
	fs.BoolVar(&f.ignoreColor, "ignore-color", d.IgnoreColor, "Drop color annotations from markdown")
	fs.BoolVar(&f.ignoreUnderline, "ignore-underline", d.IgnoreUnderline, "Drop underline annotations from markdown")
	fs.StringVar(&f.outputDir, "output", d.OutputDir, "Export output directory")
	fs.BoolVar(&f.assets, "assets", d.Assets, "Download files referenced by exported pages")
	fs.BoolVar(&f.downloadExternal, "download-external", d.DownloadExternal, "Also download files not hosted by Notion")
	fs.BoolVar(&f.gitCommit, "git", d.GitCommit, "Commit the export directory with git")
	return f
}

// Apply copies the explicitly set flags into c.
func (f *Flags) Apply(c *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "token":
			c.Token = f.token
		case "base-url":
			c.BaseURL = f.baseURL
		case "rps":
			c.RequestsPerSecond = f.requestsPerSecond
		case "max-retries":
			c.MaxRetries = f.maxRetries
		case "min-delay":
			c.MinDelay = f.minDelay
		case "max-delay":
			c.MaxDelay = f.maxDelay
		case "concurrency":
			c.Concurrency = f.concurrency
		case "max-depth":
			c.MaxDepth = f.maxDepth
		case "ignore-color":
			c.IgnoreColor = f.ignoreColor
		case "ignore-underline":
			c.IgnoreUnderline = f.ignoreUnderline
		case "output":
			c.OutputDir = f.outputDir
		case "assets":
			c.Assets = f.assets
		case "download-external":
			c.DownloadExternal = f.downloadExternal
		case "git":
			c.GitCommit = f.gitCommit
		}
	})
}
