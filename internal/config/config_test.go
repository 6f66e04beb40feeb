package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func noEnv(string) (string, bool) { return "", false }

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
		wantErr string
	}{
		{
			name:    "plain",
			content: "# comment\n\nNOTION_TOKEN=secret_abc\n  NOTION_BASE_URL = http://x \nNOEQUALS\n",
			want:    map[string]string{"NOTION_TOKEN": "secret_abc", "NOTION_BASE_URL": "http://x"},
		},
		{
			name:    "double quoted",
			content: `NOTION_TOKEN="a b\tc"` + "\n",
			want:    map[string]string{"NOTION_TOKEN": "a b\tc"},
		},
		{
			name:    "value with equals",
			content: "K=a=b\n",
			want:    map[string]string{"K": "a=b"},
		},
		{name: "single quoted", content: "K='v'\n", wantErr: "single quotes are not supported"},
		{name: "unbalanced single", content: "K=v'\n", wantErr: "unbalanced single quotes"},
		{name: "bad double", content: `K="v` + "\n", wantErr: "failed to unquote K"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ".env"), tt.content)
			got, err := LoadDotEnv(dir)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("LoadDotEnv() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadDotEnv() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("LoadDotEnv() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	env, err := LoadDotEnv(t.TempDir())
	if err != nil || len(env) != 0 {
		t.Errorf("LoadDotEnv() = %v, %v; want empty", env, err)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hunch.yaml")
	writeFile(t, file, "token: from-file\nbase_url: http://file\nmax_retries: 5\nmin_delay: 2s\nmax_delay: 1m\noutput_dir: out-file\n")
	writeFile(t, filepath.Join(dir, ".env"), "NOTION_TOKEN=from-dotenv\nNOTION_BASE_URL=http://dotenv\n")
	env := map[string]string{EnvToken: "from-env"}

	cfg, err := Load(Sources{
		File:      file,
		DotEnvDir: dir,
		Lookup: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Token != "from-env" {
		t.Errorf("Token = %q, want environment value", cfg.Token)
	}
	if cfg.BaseURL != "http://dotenv" {
		t.Errorf("BaseURL = %q, want .env value", cfg.BaseURL)
	}
	if cfg.MaxRetries != 5 || cfg.MinDelay != 2*time.Second || cfg.MaxDelay != time.Minute {
		t.Errorf("retry settings = %d %s %s", cfg.MaxRetries, cfg.MinDelay, cfg.MaxDelay)
	}
	if cfg.OutputDir != "out-file" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	// Untouched fields keep their defaults.
	if cfg.RequestsPerSecond != notion.DefaultRequestsPerSecond || !cfg.Assets {
		t.Errorf("defaults lost: %+v", cfg)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-token", "from-flag", "-max-depth", "2", "-git"}); err != nil {
		t.Fatal(err)
	}
	flags.Apply(cfg)
	if cfg.Token != "from-flag" || cfg.MaxDepth != 2 || !cfg.GitCommit {
		t.Errorf("flags not applied: %+v", cfg)
	}
	// Flags left at their default do not override the file.
	if cfg.MaxRetries != 5 || cfg.BaseURL != "http://dotenv" {
		t.Errorf("unset flags overrode settings: %+v", cfg)
	}
}

func TestLoad_Files(t *testing.T) {
	t.Run("missing named file", func(t *testing.T) {
		if _, err := Load(Sources{File: filepath.Join(t.TempDir(), "nope.yaml"), DotEnvDir: t.TempDir(), Lookup: noEnv}); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("unknown key", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "c.yaml")
		writeFile(t, file, "tokn: x\n")
		if _, err := Load(Sources{File: file, DotEnvDir: t.TempDir(), Lookup: noEnv}); err == nil {
			t.Error("expected error for unknown key")
		}
	})
	t.Run("empty file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "c.yaml")
		writeFile(t, file, "")
		cfg, err := Load(Sources{File: file, DotEnvDir: t.TempDir(), Lookup: noEnv})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.BaseURL != notion.BaseURL {
			t.Errorf("BaseURL = %q", cfg.BaseURL)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"relative base", func(c *Config) { c.BaseURL = "/v1" }, false},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, false},
		{"inverted delays", func(c *Config) { c.MinDelay, c.MaxDelay = time.Minute, time.Second }, false},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestTokenSource(t *testing.T) {
	c := Default()
	c.Token = "secret"
	tok, err := c.TokenSource().Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "secret" || tok.Type() != "Bearer" {
		t.Errorf("token = %+v", tok)
	}
}
