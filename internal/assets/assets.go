// Downloads media referenced by pages and blocks, de-duplicating files by content hash.

package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Download is the outcome of fetching one asset.
//
// LocalPath is empty when the URL was skipped.
type Download struct {
	OriginalURL string `json:"original_url"`
	LocalPath   string `json:"local_path,omitempty"`
}

// Stats counts what a Downloader did.
type Stats struct {
	Downloaded int `json:"downloaded"`
	Reused     int `json:"reused"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// Downloader fetches assets into a directory.
//
// Files are named after the first 16 hex digits of the SHA-256 of their content followed by the
// URL's base name, so the same bytes served from two expiring URLs are stored once.
type Downloader struct {
	// IncludeExternal also downloads URLs not hosted by Notion.
	IncludeExternal bool

	client *http.Client

	mu    sync.Mutex
	byURL map[string]string
	stats Stats
}

// NewDownloader returns a Downloader using client, or a client with a 60s timeout if nil.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Downloader{client: client, byURL: make(map[string]string)}
}

// Stats returns a snapshot of the counters.
func (d *Downloader) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// DownloadFile fetches rawURL into dir and returns where it was stored.
//
// A URL already fetched by this Downloader is not requested again. URLs not hosted by Notion are
// skipped unless IncludeExternal is set.
func (d *Downloader) DownloadFile(ctx context.Context, rawURL, dir string) (Download, error) {
	res := Download{OriginalURL: rawURL}
	if rawURL == "" {
		return res, nil
	}
	if !d.IncludeExternal && !IsNotionHosted(rawURL) {
		d.count(func(s *Stats) { s.Skipped++ })
		return res, nil
	}
	d.mu.Lock()
	if p, ok := d.byURL[rawURL]; ok {
		d.mu.Unlock()
		res.LocalPath = p
		return res, nil
	}
	d.mu.Unlock()

	p, reused, err := d.fetch(ctx, rawURL, dir)
	if err != nil {
		d.count(func(s *Stats) { s.Errors++ })
		return res, err
	}
	d.mu.Lock()
	d.byURL[rawURL] = p
	if reused {
		d.stats.Reused++
	} else {
		d.stats.Downloaded++
	}
	d.mu.Unlock()
	res.LocalPath = p
	return res, nil
}

func (d *Downloader) count(f func(s *Stats)) {
	d.mu.Lock()
	f(&d.stats)
	d.mu.Unlock()
}

// fetch streams the body to a temporary file while hashing it, then moves it to its content
// addressed name. reused is true when a file with the same content was already present.
func (d *Downloader) fetch(ctx context.Context, rawURL, dir string) (string, bool, error) {
	name, err := baseName(rawURL)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional
		return "", false, fmt.Errorf("failed to create asset dir: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("failed to download %s: status %d", name, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", false, fmt.Errorf("failed to create file: %w", err)
	}
	h := sha256.New()
	_, err = io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", false, fmt.Errorf("failed to write %s: %w", name, err)
	}

	final := filepath.Join(dir, hex.EncodeToString(h.Sum(nil)[:8])+"-"+name)
	if _, err := os.Stat(final); err == nil {
		_ = os.Remove(tmp.Name())
		return final, true, nil
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		_ = os.Remove(tmp.Name())
		return "", false, fmt.Errorf("failed to store %s: %w", name, err)
	}
	return final, false, nil
}

// Fetch downloads every URL into dir, at most concurrency at a time, and returns the map from
// original URL to local path expected by the markdown renderer.
//
// Failed downloads are logged and left out of the map so the renderer keeps the remote URL.
// Only cancellation of ctx is returned as an error.
func (d *Downloader) Fetch(ctx context.Context, urls []string, dir string, concurrency int) (map[string]string, error) {
	out := make(map[string]string, len(urls))
	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}
	for _, u := range urls {
		u := u
		eg.Go(func() error {
			res, err := d.DownloadFile(ctx, u, dir)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("assets: download failed", "url", redact(u), "err", err)
				return nil
			}
			if res.LocalPath != "" {
				mu.Lock()
				out[u] = res.LocalPath
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// notionHosts are the domains serving Notion-hosted files. Their URLs expire.
var notionHosts = []string{
	"s3.us-west-2.amazonaws.com",
	"prod-files-secure.s3.us-west-2.amazonaws.com",
	"secure.notion-static.com",
	"file.notion.so",
	"www.notion.so",
}

// IsNotionHosted reports whether rawURL points at a file hosted by Notion.
func IsNotionHosted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range notionHosts {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

var errNoURL = errors.New("not an absolute URL")

// baseName returns a file system safe name derived from the URL path.
func baseName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, errNoURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "asset", nil
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if strings.HasPrefix(name, ".") {
		name = "_" + name[1:]
	}
	return name, nil
}

// redact drops the query string, which carries signed credentials on hosted files.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
