// Orchestrates exporting Notion pages to a directory of markdown files.

package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamwulf/hunch-sub000/internal/assets"
	"github.com/adamwulf/hunch-sub000/internal/notion"
	"github.com/adamwulf/hunch-sub000/internal/render"
)

// Source is the part of the Notion client the exporter needs. *notion.Client implements it.
type Source interface {
	RetrievePage(ctx context.Context, id string) (*notion.Page, error)
	FetchPages(ctx context.Context, q notion.PageQuery, limit int) ([]notion.Page, error)
	FetchBlocks(ctx context.Context, rootID string, opts notion.TreeOptions) ([]notion.Block, error)
}

// Options defines what to export.
type Options struct {
	// PageIDs exports these pages. When empty, Query selects the pages.
	PageIDs []string
	// Query selects database rows or searched pages.
	Query notion.PageQuery
	// Limit caps the number of pages selected by Query; 0 means all.
	Limit int
	// Tree controls block materialization.
	Tree notion.TreeOptions
	// AssetConcurrency is the number of parallel downloads.
	AssetConcurrency int
	// CommitMessage is used when a Repo is configured.
	CommitMessage string
}

// Exporter writes pages, their block trees and their files to disk.
type Exporter struct {
	source   Source
	writer   *Writer
	markdown render.Markdown
	progress ProgressReporter

	// Optional collaborators.
	assets *assets.Downloader
	repo   *Repo
}

// NewExporter returns an exporter writing through writer. md configures rendering; its Assets
// map is replaced per page.
func NewExporter(source Source, writer *Writer, md render.Markdown, progress ProgressReporter) *Exporter {
	if progress == nil {
		progress = NullProgress{}
	}
	return &Exporter{source: source, writer: writer, markdown: md, progress: progress}
}

// WithAssets downloads referenced files with d.
func (e *Exporter) WithAssets(d *assets.Downloader) *Exporter {
	e.assets = d
	return e
}

// WithRepo commits the output directory to r after the export.
func (e *Exporter) WithRepo(r *Repo) *Exporter {
	e.repo = r
	return e
}

// Export performs the export. Failures of single pages are reported and counted; the export
// continues with the next page. Selecting the pages, cancellation and committing are fatal.
func (e *Exporter) Export(ctx context.Context, opts Options) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	if err := e.writer.Ensure(); err != nil {
		return nil, err
	}
	cp, err := openCheckpoint(e.writer.CheckpointPath())
	if err != nil {
		return nil, err
	}

	pages, err := e.selectPages(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to select pages: %w", err)
	}
	e.progress.OnStart(len(pages))

	for i := range pages {
		page := &pages[i]
		res, err := e.exportPage(ctx, cp, page, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.progress.OnError(fmt.Errorf("page %s: %w", page.ID, err))
			stats.Errors++
			continue
		}
		stats.Pages++
		if res.Cached {
			stats.Cached++
		}
		res.Index, res.Total = i+1, len(pages)
		e.progress.OnPage(res)
	}

	if err := cp.compact(); err != nil {
		e.progress.OnWarning(fmt.Sprintf("Failed to compact checkpoint: %v", err))
	}
	if e.assets != nil {
		stats.Assets = e.assets.Stats().Downloaded
	}
	if e.repo != nil {
		msg := opts.CommitMessage
		if msg == "" {
			msg = fmt.Sprintf("export: %d pages", stats.Pages)
		}
		if stats.Commit, err = e.repo.Commit(msg); err != nil {
			return nil, err
		}
	}
	stats.Duration = time.Since(start)
	e.progress.OnComplete(*stats)
	return stats, nil
}

func (e *Exporter) selectPages(ctx context.Context, opts Options) ([]notion.Page, error) {
	if len(opts.PageIDs) == 0 {
		return e.source.FetchPages(ctx, opts.Query, opts.Limit)
	}
	pages := make([]notion.Page, 0, len(opts.PageIDs))
	for _, id := range opts.PageIDs {
		p, err := e.source.RetrievePage(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get page %s: %w", id, err)
		}
		pages = append(pages, *p)
	}
	return pages, nil
}

// exportPage writes one page.
func (e *Exporter) exportPage(ctx context.Context, cp *checkpoint, page *notion.Page, opts Options) (PageResult, error) {
	var err error
	blocks, cached := cp.blocks(page, opts.Tree.MaxDepth)
	if !cached {
		if blocks, err = e.source.FetchBlocks(ctx, page.ID, opts.Tree); err != nil {
			return PageResult{}, fmt.Errorf("failed to fetch blocks: %w", err)
		}
		if err := cp.store(page, opts.Tree.MaxDepth, blocks); err != nil {
			e.progress.OnWarning(fmt.Sprintf("Failed to checkpoint %s: %v", page.ID, err))
		}
	}

	var local map[string]string
	if e.assets != nil {
		downloaded, err := e.assets.Fetch(ctx, assets.URLs(page, blocks), e.writer.AssetDir(), opts.AssetConcurrency)
		if err != nil {
			return PageResult{}, err
		}
		local = e.writer.relativeAssets(downloaded)
	}

	md := e.markdown
	md.Assets = local
	p, err := e.writer.WritePage(NewFrontMatter(page, local), md.Page(page, blocks))
	if err != nil {
		return PageResult{}, err
	}
	res := PageResult{
		ID:     page.ID,
		Title:  page.Summary(),
		Path:   p,
		Blocks: countBlocks(blocks),
		Cached: cached,
		Assets: len(local),
	}
	slog.Debug("export: wrote page", "id", page.ID, "path", p, "blocks", res.Blocks, "cached", cached)
	return res, nil
}

func countBlocks(blocks []notion.Block) int {
	n := len(blocks)
	for i := range blocks {
		n += countBlocks(blocks[i].Children)
	}
	return n
}
