// Reports the progress of an export.

package export

import (
	"fmt"
	"io"
	"time"
)

// Stats contains statistics about an export.
type Stats struct {
	Pages    int           `json:"pages"`
	Cached   int           `json:"cached"`
	Assets   int           `json:"assets"`
	Errors   int           `json:"errors"`
	Commit   string        `json:"commit,omitempty"`
	Duration time.Duration `json:"duration"`
}

// PageResult describes one written page.
type PageResult struct {
	Index  int // 1-based position in the selection
	Total  int
	ID     string
	Title  string
	Path   string
	Blocks int  // blocks in the materialized tree, nested ones included
	Cached bool // blocks came from the checkpoint instead of the API
	Assets int  // local files the page links to
}

// ProgressReporter receives export events.
type ProgressReporter interface {
	OnStart(total int)
	OnPage(r PageResult)
	OnWarning(msg string)
	OnError(err error)
	OnComplete(stats Stats)
}

// CLIProgress writes one line per page to Out and problems to Err.
type CLIProgress struct {
	Out io.Writer
	Err io.Writer
}

func (p *CLIProgress) OnStart(total int) {
	_, _ = fmt.Fprintf(p.Out, "Exporting %d pages\n", total)
}

func (p *CLIProgress) OnPage(r PageResult) {
	source := fmt.Sprintf("fetched %d blocks", r.Blocks)
	if r.Cached {
		source = fmt.Sprintf("cached %d blocks", r.Blocks)
	}
	if r.Assets > 0 {
		source += fmt.Sprintf(", %d files", r.Assets)
	}
	_, _ = fmt.Fprintf(p.Out, "[%d/%d] %s -> %s (%s)\n", r.Index, r.Total, r.Title, r.Path, source)
}

func (p *CLIProgress) OnWarning(msg string) {
	_, _ = fmt.Fprintf(p.Err, "Warning: %s\n", msg)
}

func (p *CLIProgress) OnError(err error) {
	_, _ = fmt.Fprintf(p.Err, "Error: %v\n", err)
}

func (p *CLIProgress) OnComplete(stats Stats) {
	_, _ = fmt.Fprintf(p.Out, "Exported %d pages (%d fetched, %d from checkpoint), %d files downloaded in %s\n",
		stats.Pages, stats.Pages-stats.Cached, stats.Cached, stats.Assets, stats.Duration.Round(time.Millisecond))
	if stats.Errors > 0 {
		_, _ = fmt.Fprintf(p.Out, "%d pages failed\n", stats.Errors)
	}
	if stats.Commit != "" {
		_, _ = fmt.Fprintf(p.Out, "Committed %s\n", stats.Commit[:min(len(stats.Commit), 12)])
	}
}

// NullProgress discards all events.
type NullProgress struct{}

func (NullProgress) OnStart(int)       {}
func (NullProgress) OnPage(PageResult) {}
func (NullProgress) OnWarning(string)  {}
func (NullProgress) OnError(error)     {}
func (NullProgress) OnComplete(Stats)  {}
