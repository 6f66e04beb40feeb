// Package config resolves hunch settings from a YAML file, a .env file, the environment and
// command line flags, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

// DefaultFile is the config file read from the working directory when none is named.
const DefaultFile = "hunch.yaml"

// Environment variables.
const (
	EnvToken     = "NOTION_TOKEN"
	EnvBaseURL   = "NOTION_BASE_URL"
	EnvOutputDir = "HUNCH_OUTPUT_DIR"
)

// Config holds every setting.
type Config struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`

	RequestsPerSecond float64       `yaml:"requests_per_second"`
	MaxRetries        int           `yaml:"max_retries"`
	MinDelay          time.Duration `yaml:"min_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`

	// Concurrency is the number of sibling subtrees fetched at once.
	Concurrency int `yaml:"concurrency"`
	// MaxDepth limits block tree expansion; 0 means unlimited.
	MaxDepth int `yaml:"max_depth"`

	IgnoreColor     bool `yaml:"ignore_color"`
	IgnoreUnderline bool `yaml:"ignore_underline"`

	OutputDir        string `yaml:"output_dir"`
	Assets           bool   `yaml:"assets"`
	DownloadExternal bool   `yaml:"download_external"`
	AssetConcurrency int    `yaml:"asset_concurrency"`
	GitCommit        bool   `yaml:"git_commit"`
	GitAuthorName    string `yaml:"git_author_name"`
	GitAuthorEmail   string `yaml:"git_author_email"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	r := notion.DefaultRetryPolicy()
	return Config{
		BaseURL:           notion.BaseURL,
		RequestsPerSecond: notion.DefaultRequestsPerSecond,
		MaxRetries:        r.MaxRetries,
		MinDelay:          r.MinDelay,
		MaxDelay:          r.MaxDelay,
		Concurrency:       1,
		OutputDir:         "export",
		Assets:            true,
		AssetConcurrency:  4,
	}
}

// Sources names where Load looks for settings.
type Sources struct {
	// File is the YAML config file. When empty, DefaultFile is read if it exists.
	File string
	// DotEnvDir is the directory holding the .env file; empty means the working directory.
	DotEnvDir string
	// Lookup reads the process environment; nil means os.LookupEnv.
	Lookup func(key string) (string, bool)
}

// Load resolves the settings from src, without command line flags.
func Load(src Sources) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(src.File); err != nil {
		return nil, err
	}
	env, err := LoadDotEnv(src.DotEnvDir)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	lookup := src.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.applyEnv(lookup)
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	required := path != ""
	if !required {
		path = DefaultFile
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the user
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvToken); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.OutputDir = v
	}
}

// Validate reports settings that cannot work. A missing token is not checked here: commands
// that do not call the API run without one.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	switch {
	case c.MaxRetries < 0:
		return errors.New("max_retries must not be negative")
	case c.MinDelay < 0 || c.MaxDelay < c.MinDelay:
		return fmt.Errorf("invalid retry delays: min %s, max %s", c.MinDelay, c.MaxDelay)
	case c.MaxDepth < 0:
		return errors.New("max_depth must not be negative")
	}
	return nil
}

// TokenSource returns the integration token as a static bearer token source.
func (c *Config) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"})
}

// ClientOptions returns the client options matching the settings.
func (c *Config) ClientOptions() []notion.Option {
	return []notion.Option{
		notion.WithBaseURL(c.BaseURL),
		notion.WithRateLimit(c.RequestsPerSecond),
		notion.WithRetryPolicy(notion.RetryPolicy{MaxRetries: c.MaxRetries, MinDelay: c.MinDelay, MaxDelay: c.MaxDelay}),
	}
}

// Client returns a Notion client configured from the settings.
func (c *Config) Client(opts ...notion.Option) *notion.Client {
	return notion.New(c.TokenSource(), append(c.ClientOptions(), opts...)...)
}

// TreeOptions returns the block tree settings.
func (c *Config) TreeOptions() notion.TreeOptions {
	return notion.TreeOptions{MaxDepth: c.MaxDepth, Concurrency: c.Concurrency}
}
