// Implements the hunch subcommands.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adamwulf/hunch-sub000/internal/assets"
	"github.com/adamwulf/hunch-sub000/internal/export"
	"github.com/adamwulf/hunch-sub000/internal/jsonvalue"
	"github.com/adamwulf/hunch-sub000/internal/notion"
	"github.com/adamwulf/hunch-sub000/internal/render"
)

type command struct {
	name string
	args string
	help string
	run  func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]*command{}

func register(c *command) {
	commands[c.name] = c
}

func init() {
	register(&command{"databases", "", "List databases shared with the integration", cmdDatabases})
	register(&command{"database", "<id>", "Show a database and its schema", cmdDatabase})
	register(&command{"pages", "[-database id] [-query q] [-filter json] [-sort json]", "List database rows or search pages", cmdPages})
	register(&command{"page", "[-content=false] <id>", "Show a page with its content", cmdPage})
	register(&command{"blocks", "<id>", "Show the block tree under a page or block", cmdBlocks})
	register(&command{"search", "[-object page|database] [query]", "Search pages and databases", cmdSearch})
	register(&command{"comments", "<id>", "List the comments of a page or block", cmdComments})
	register(&command{"users", "", "List workspace users", cmdUsers})
	register(&command{"me", "", "Show the integration's bot user", cmdMe})
	register(&command{"create-page", "-parent id [-database] -title t [-text s] [-blocks file]", "Create a page", cmdCreatePage})
	register(&command{"update-page", "[-title t] [-properties json] [-archive|-restore] <id>", "Update or archive a page", cmdUpdatePage})
	register(&command{"append", "[-text s] [-blocks file] <id>", "Append blocks to a page or block", cmdAppend})
	register(&command{"delete-block", "<id>", "Move a block to the trash", cmdDeleteBlock})
	register(&command{"comment", "[-page id|-discussion id] <text>", "Add a comment", cmdComment})
	register(&command{"export", "[-database id] [-query q] [page ids...]", "Export pages as markdown files", cmdExport})
	register(&command{"schema", "<kind>", "Print the JSON schema of an output item kind", cmdSchema})
}

func newFlags(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("hunch "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// oneArg parses fs and returns its single positional argument.
func oneArg(fs *flag.FlagSet, args []string, what string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one %s, got %d arguments", fs.Name(), what, fs.NArg())
	}
	return fs.Arg(0), nil
}

func noArgs(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("%s: unexpected arguments: %v", fs.Name(), fs.Args())
	}
	return nil
}

func cmdDatabases(ctx context.Context, e *env, args []string) error {
	if err := noArgs(newFlags(e, "databases"), args); err != nil {
		return err
	}
	dbs, err := e.client.FetchDatabases(ctx, e.limit)
	if err != nil {
		return err
	}
	return e.print(render.Items(dbs))
}

func cmdDatabase(ctx context.Context, e *env, args []string) error {
	id, err := oneArg(newFlags(e, "database"), args, "database id")
	if err != nil {
		return err
	}
	db, err := e.client.RetrieveDatabase(ctx, id)
	if err != nil {
		return err
	}
	return e.print([]notion.Item{db})
}

func cmdPages(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "pages")
	q, err := pageQueryFlags(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("pages: unexpected arguments: %v", fs.Args())
	}
	pages, err := e.client.FetchPages(ctx, *q, e.limit)
	if err != nil {
		return err
	}
	return e.print(render.Items(pages))
}

// pageQueryFlags defines and parses the flags selecting pages.
func pageQueryFlags(fs *flag.FlagSet, args []string) (*notion.PageQuery, error) {
	database := fs.String("database", "", "Query the rows of this database")
	query := fs.String("query", "", "Search text, without -database")
	filter := fs.String("filter", "", "Database filter, as JSON")
	sorts := fs.String("sort", "", "Database sorts, as a JSON array")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	q := &notion.PageQuery{DatabaseID: *database, Query: *query}
	var err error
	if q.Filter, err = optionalJSON(*filter, "-filter"); err != nil {
		return nil, err
	}
	if q.Sorts, err = optionalJSON(*sorts, "-sort"); err != nil {
		return nil, err
	}
	return q, nil
}

func optionalJSON(s, flagName string) (*jsonvalue.Value, error) {
	if s == "" {
		return nil, nil
	}
	v, err := jsonvalue.Parse([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", flagName, err)
	}
	return &v, nil
}

func cmdPage(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "page")
	content := fs.Bool("content", true, "Include the page's block tree")
	id, err := oneArg(fs, args, "page id")
	if err != nil {
		return err
	}
	page, err := e.client.RetrievePage(ctx, id)
	if err != nil {
		return err
	}
	if !*content {
		return e.print([]notion.Item{page})
	}
	blocks, err := e.client.FetchBlocks(ctx, page.ID, e.cfg.TreeOptions())
	if err != nil {
		return err
	}
	return e.print([]notion.Item{render.Document{Page: page, Blocks: blocks}})
}

func cmdBlocks(ctx context.Context, e *env, args []string) error {
	id, err := oneArg(newFlags(e, "blocks"), args, "block id")
	if err != nil {
		return err
	}
	blocks, err := e.client.FetchBlocks(ctx, id, e.cfg.TreeOptions())
	if err != nil {
		return err
	}
	// Siblings are rendered together so lists are laid out as one run.
	if md, ok := e.renderer.(*render.Markdown); ok {
		return e.write(md.Blocks(blocks))
	}
	return e.print(render.Items(blocks))
}

func cmdSearch(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "search")
	object := fs.String("object", "", "Only return \"page\" or \"database\" results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	q := notion.SearchQuery{Query: strings.Join(fs.Args(), " "), Object: *object}
	results, err := e.client.Search(ctx, q, e.limit)
	if err != nil {
		return err
	}
	items := make([]notion.Item, len(results))
	for i, r := range results {
		items[i] = r
	}
	return e.print(items)
}

func cmdComments(ctx context.Context, e *env, args []string) error {
	id, err := oneArg(newFlags(e, "comments"), args, "page or block id")
	if err != nil {
		return err
	}
	comments, err := e.client.FetchComments(ctx, id, e.limit)
	if err != nil {
		return err
	}
	return e.print(render.Items(comments))
}

func cmdUsers(ctx context.Context, e *env, args []string) error {
	if err := noArgs(newFlags(e, "users"), args); err != nil {
		return err
	}
	users, err := e.client.FetchUsers(ctx, e.limit)
	if err != nil {
		return err
	}
	return e.print(render.Items(users))
}

func cmdMe(ctx context.Context, e *env, args []string) error {
	if err := noArgs(newFlags(e, "me"), args); err != nil {
		return err
	}
	u, err := e.client.Me(ctx)
	if err != nil {
		return err
	}
	return e.print([]notion.Item{u})
}

// contentFlags defines the flags describing blocks to write.
type contentFlags struct {
	text   *string
	blocks *string
}

func newContentFlags(fs *flag.FlagSet) contentFlags {
	return contentFlags{
		text:   fs.String("text", "", "Plain text; each non-empty line becomes a paragraph"),
		blocks: fs.String("blocks", "", "File holding a JSON array of blocks, - for stdin"),
	}
}

func (c contentFlags) read() ([]notion.Block, error) {
	var out []notion.Block
	if *c.blocks != "" {
		var data []byte
		var err error
		if *c.blocks == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(*c.blocks) //nolint:gosec // G304: path is chosen by the user
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read blocks: %w", err)
		}
		if out, err = notion.UnmarshalBlockTree(data); err != nil {
			return nil, err
		}
	}
	return append(out, paragraphs(*c.text)...), nil
}

func paragraphs(text string) []notion.Block {
	var out []notion.Block
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		out = append(out, notion.Block{
			Object:    "block",
			Type:      notion.BlockParagraph,
			Paragraph: &notion.ParagraphBlock{RichText: []notion.RichText{notion.NewText(line)}},
		})
	}
	return out
}

func cmdCreatePage(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "create-page")
	parent := fs.String("parent", "", "Parent page id, or database id with -database")
	inDatabase := fs.Bool("database", false, "The parent is a database")
	title := fs.String("title", "", "Page title")
	titleProp := fs.String("title-property", "", "Name of the database title property (default: looked up)")
	content := newContentFlags(fs)
	if err := noArgs(fs, args); err != nil {
		return err
	}
	if *parent == "" {
		return errors.New("create-page: -parent is required")
	}
	children, err := content.read()
	if err != nil {
		return err
	}
	req := &notion.CreatePageRequest{Children: children}
	key := "title"
	if *inDatabase {
		req.Parent = notion.Parent{Type: "database_id", DatabaseID: *parent}
		if key = *titleProp; key == "" {
			if key, err = databaseTitleProperty(ctx, e.client, *parent); err != nil {
				return err
			}
		}
	} else {
		req.Parent = notion.Parent{Type: "page_id", PageID: *parent}
	}
	req.Properties = map[string]notion.PropertyValue{key: notion.TitleProperty(*title)}
	page, err := e.client.CreatePage(ctx, req)
	if err != nil {
		return err
	}
	return e.print([]notion.Item{page})
}

// databaseTitleProperty returns the name of the title property of a database.
func databaseTitleProperty(ctx context.Context, c *notion.Client, id string) (string, error) {
	db, err := c.RetrieveDatabase(ctx, id)
	if err != nil {
		return "", err
	}
	for name, p := range db.Properties {
		if p.Type == notion.PropertyTitle {
			return name, nil
		}
	}
	return "", fmt.Errorf("database %s has no title property", id)
}

func cmdUpdatePage(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "update-page")
	title := fs.String("title", "", "New title")
	props := fs.String("properties", "", "Properties to set, as a JSON object of property values")
	archive := fs.Bool("archive", false, "Archive the page")
	restore := fs.Bool("restore", false, "Restore an archived page")
	id, err := oneArg(fs, args, "page id")
	if err != nil {
		return err
	}
	if *archive && *restore {
		return errors.New("update-page: -archive and -restore are exclusive")
	}
	req := &notion.UpdatePageRequest{}
	if *props != "" {
		if err := json.Unmarshal([]byte(*props), &req.Properties); err != nil {
			return fmt.Errorf("invalid -properties: %w", err)
		}
	}
	if *title != "" {
		if req.Properties == nil {
			req.Properties = map[string]notion.PropertyValue{}
		}
		req.Properties["title"] = notion.TitleProperty(*title)
	}
	if *archive || *restore {
		req.Archived = archive
	}
	if req.Properties == nil && req.Archived == nil {
		return errors.New("update-page: nothing to update")
	}
	page, err := e.client.UpdatePage(ctx, id, req)
	if err != nil {
		return err
	}
	return e.print([]notion.Item{page})
}

func cmdAppend(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "append")
	content := newContentFlags(fs)
	id, err := oneArg(fs, args, "page or block id")
	if err != nil {
		return err
	}
	children, err := content.read()
	if err != nil {
		return err
	}
	created, err := e.client.AppendBlockChildren(ctx, id, children)
	if err != nil {
		return err
	}
	return e.print(render.Items(created))
}

func cmdDeleteBlock(ctx context.Context, e *env, args []string) error {
	id, err := oneArg(newFlags(e, "delete-block"), args, "block id")
	if err != nil {
		return err
	}
	b, err := e.client.DeleteBlock(ctx, id)
	if err != nil {
		return err
	}
	return e.print([]notion.Item{b})
}

func cmdComment(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "comment")
	page := fs.String("page", "", "Start a discussion on this page")
	discussion := fs.String("discussion", "", "Reply in this discussion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if text == "" {
		return errors.New("comment: missing text")
	}
	c, err := e.client.CreateComment(ctx, &notion.CreateCommentRequest{
		PageID:       *page,
		DiscussionID: *discussion,
		RichText:     []notion.RichText{notion.NewText(text)},
	})
	if err != nil {
		return err
	}
	return e.print([]notion.Item{c})
}

func cmdExport(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "export")
	q, err := pageQueryFlags(fs, args)
	if err != nil {
		return err
	}
	cfg := e.cfg
	w := &export.Writer{Dir: cfg.OutputDir}
	md := render.Markdown{IgnoreColor: cfg.IgnoreColor, IgnoreUnderline: cfg.IgnoreUnderline}
	ex := export.NewExporter(e.client, w, md, &export.CLIProgress{Out: e.stdout, Err: e.stderr})
	if cfg.Assets {
		d := assets.NewDownloader(nil)
		d.IncludeExternal = cfg.DownloadExternal
		ex.WithAssets(d)
	}
	if cfg.GitCommit {
		repo, err := export.OpenRepo(cfg.OutputDir, cfg.GitAuthorName, cfg.GitAuthorEmail)
		if err != nil {
			return err
		}
		ex.WithRepo(repo)
	}
	stats, err := ex.Export(ctx, export.Options{
		PageIDs:          fs.Args(),
		Query:            *q,
		Limit:            e.limit,
		Tree:             cfg.TreeOptions(),
		AssetConcurrency: cfg.AssetConcurrency,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if stats.Errors > 0 {
		return fmt.Errorf("%d pages failed to export", stats.Errors)
	}
	return nil
}

func cmdSchema(_ context.Context, e *env, args []string) error {
	kind, err := oneArg(newFlags(e, "schema"), args, "kind ("+strings.Join(render.SchemaKinds(), ", ")+")")
	if err != nil {
		return err
	}
	data, err := render.Schema(kind)
	if err != nil {
		return err
	}
	return e.write(string(data))
}
