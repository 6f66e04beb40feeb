// Tests for the export orchestration, checkpoint reuse and git snapshots.

package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adamwulf/hunch-sub000/internal/notion"
	"github.com/adamwulf/hunch-sub000/internal/render"
)

const (
	pageA = "00000000-0000-4000-8000-00000000000a"
	pageB = "00000000-0000-4000-8000-00000000000b"
)

var edited = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu         sync.Mutex
	pages      map[string]*notion.Page
	blocks     map[string][]notion.Block
	failBlocks map[string]error
	blockCalls map[string]int
	queries    []notion.PageQuery
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages:      map[string]*notion.Page{},
		blocks:     map[string][]notion.Block{},
		failBlocks: map[string]error{},
		blockCalls: map[string]int{},
	}
}

func (f *fakeSource) addPage(id, title string, blocks ...notion.Block) *notion.Page {
	p := &notion.Page{
		Object:         "page",
		ID:             id,
		CreatedTime:    edited.Add(-time.Hour),
		LastEditedTime: edited,
		Parent:         notion.Parent{Type: "workspace", Workspace: true},
		URL:            "https://www.notion.so/" + strings.ReplaceAll(id, "-", ""),
		Properties: map[string]notion.PropertyValue{
			"Name": notion.TitleProperty(title),
			"Done": notion.CheckboxProperty(true),
		},
	}
	f.pages[id] = p
	f.blocks[id] = blocks
	return p
}

func (f *fakeSource) RetrievePage(_ context.Context, id string) (*notion.Page, error) {
	p, ok := f.pages[id]
	if !ok {
		return nil, &notion.StatusError{StatusCode: 404, Code: "object_not_found"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeSource) FetchPages(_ context.Context, q notion.PageQuery, limit int) ([]notion.Page, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	var out []notion.Page
	for _, id := range []string{pageA, pageB} {
		if p, ok := f.pages[id]; ok {
			out = append(out, *p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSource) FetchBlocks(_ context.Context, rootID string, _ notion.TreeOptions) ([]notion.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockCalls[rootID]++
	if err := f.failBlocks[rootID]; err != nil {
		return nil, err
	}
	return f.blocks[rootID], nil
}

func paragraph(text string) notion.Block {
	return notion.Block{
		Object:    "block",
		ID:        "00000000-0000-4000-8000-0000000000f1",
		Type:      notion.BlockParagraph,
		Paragraph: &notion.ParagraphBlock{RichText: []notion.RichText{notion.NewText(text)}},
	}
}

func readFrontMatter(t *testing.T, path string) (FrontMatter, string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		t.Fatalf("%s: no front matter:\n%s", path, data)
	}
	header, body, ok := bytes.Cut(rest, []byte("---\n\n"))
	if !ok {
		t.Fatalf("%s: unterminated front matter:\n%s", path, data)
	}
	var fm FrontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		t.Fatalf("%s: bad front matter: %v", path, err)
	}
	return fm, string(body)
}

func TestExport_Pages(t *testing.T) {
	src := newFakeSource()
	src.addPage(pageA, "Alpha", paragraph("hello"))
	src.addPage(pageB, "Beta")
	w := &Writer{Dir: t.TempDir()}

	stats, err := NewExporter(src, w, render.Markdown{}, nil).Export(testContext(t), Options{PageIDs: []string{pageA, pageB}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if stats.Pages != 2 || stats.Cached != 0 || stats.Errors != 0 {
		t.Errorf("stats = %+v", stats)
	}

	fm, body := readFrontMatter(t, w.PagePath(pageA))
	if fm.ID != pageA || fm.Title != "Alpha" || !fm.LastEdited.Equal(edited) {
		t.Errorf("front matter = %+v", fm)
	}
	if fm.Properties["Done"] != "Yes" {
		t.Errorf("properties = %v", fm.Properties)
	}
	if _, ok := fm.Properties["Name"]; ok {
		t.Error("title property repeated in front matter properties")
	}
	want := "# Alpha\n\n- Done: Yes\n\nhello\n\n"
	if body != want {
		t.Errorf("body =\n%q\nwant\n%q", body, want)
	}
	if _, err := os.Stat(w.PagePath(pageB)); err != nil {
		t.Errorf("page B not written: %v", err)
	}
}

func TestExport_CheckpointReuse(t *testing.T) {
	src := newFakeSource()
	src.addPage(pageA, "Alpha", paragraph("v1"))
	src.addPage(pageB, "Beta", paragraph("b"))
	w := &Writer{Dir: t.TempDir()}
	opts := Options{PageIDs: []string{pageA, pageB}}

	if _, err := NewExporter(src, w, render.Markdown{}, nil).Export(testContext(t), opts); err != nil {
		t.Fatal(err)
	}

	// A is edited remotely; B is unchanged.
	src.pages[pageA].LastEditedTime = edited.Add(time.Minute)
	src.blocks[pageA] = []notion.Block{paragraph("v2")}

	rec := &recorder{}
	stats, err := NewExporter(src, w, render.Markdown{}, rec).Export(testContext(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Pages != 2 || stats.Cached != 1 {
		t.Errorf("stats = %+v, want 2 pages, 1 cached", stats)
	}
	want := []PageResult{
		{Index: 1, Total: 2, ID: pageA, Title: "Alpha", Path: w.PagePath(pageA), Blocks: 1},
		{Index: 2, Total: 2, ID: pageB, Title: "Beta", Path: w.PagePath(pageB), Blocks: 1, Cached: true},
	}
	if !reflect.DeepEqual(rec.pages, want) {
		t.Errorf("reported pages =\n%+v\nwant\n%+v", rec.pages, want)
	}
	if src.blockCalls[pageA] != 2 || src.blockCalls[pageB] != 1 {
		t.Errorf("block fetches = %v, want A:2 B:1", src.blockCalls)
	}
	if _, body := readFrontMatter(t, w.PagePath(pageA)); !strings.Contains(body, "v2") {
		t.Errorf("edited page not refreshed:\n%s", body)
	}
	if _, body := readFrontMatter(t, w.PagePath(pageB)); !strings.HasSuffix(body, "b\n\n") {
		t.Errorf("cached page body:\n%s", body)
	}
}

func TestExport_PageFailureContinues(t *testing.T) {
	src := newFakeSource()
	src.addPage(pageA, "Alpha")
	src.addPage(pageB, "Beta")
	src.failBlocks[pageA] = &notion.StatusError{StatusCode: 502, Message: "bad gateway"}
	w := &Writer{Dir: t.TempDir()}
	rec := &recorder{}

	stats, err := NewExporter(src, w, render.Markdown{}, rec).Export(testContext(t), Options{})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if stats.Pages != 1 || stats.Errors != 1 {
		t.Errorf("stats = %+v, want 1 page, 1 error", stats)
	}
	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], notion.ErrInvalidResponse) {
		t.Errorf("reported errors = %v", rec.errs)
	}
	if rec.total != 2 || rec.complete == nil {
		t.Errorf("progress = %+v", rec)
	}
	if _, err := os.Stat(w.PagePath(pageA)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("failed page written: %v", err)
	}
	if len(src.queries) != 1 {
		t.Errorf("FetchPages called %d times, want 1", len(src.queries))
	}
}

func TestExport_SelectFailureIsFatal(t *testing.T) {
	src := newFakeSource()
	w := &Writer{Dir: t.TempDir()}
	_, err := NewExporter(src, w, render.Markdown{}, nil).Export(testContext(t), Options{PageIDs: []string{pageA}})
	if !errors.Is(err, notion.ErrInvalidResponse) {
		t.Errorf("Export() error = %v, want ErrInvalidResponse", err)
	}
}

func TestExport_Canceled(t *testing.T) {
	src := newFakeSource()
	src.addPage(pageA, "Alpha")
	src.failBlocks[pageA] = context.Canceled
	w := &Writer{Dir: t.TempDir()}
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	if _, err := NewExporter(src, w, render.Markdown{}, nil).Export(ctx, Options{PageIDs: []string{pageA}}); !errors.Is(err, context.Canceled) {
		t.Errorf("Export() error = %v, want context.Canceled", err)
	}
}

func TestExport_GitCommit(t *testing.T) {
	src := newFakeSource()
	src.addPage(pageA, "Alpha", paragraph("hello"))
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	repo, err := OpenRepo(dir, "", "")
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{PageIDs: []string{pageA}}

	stats, err := NewExporter(src, w, render.Markdown{}, nil).WithRepo(repo).Export(testContext(t), opts)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(stats.Commit) != 40 {
		t.Errorf("commit = %q, want a hash", stats.Commit)
	}

	// Nothing changed remotely: no new commit.
	stats, err = NewExporter(src, w, render.Markdown{}, nil).WithRepo(repo).Export(testContext(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Commit != "" {
		t.Errorf("second commit = %q, want none", stats.Commit)
	}
	if n, err := repo.CommitCount(); err != nil || n != 1 {
		t.Errorf("CommitCount() = %d, %v; want 1", n, err)
	}
}

func TestWriter_RelativeAssets(t *testing.T) {
	w := &Writer{Dir: filepath.Join("out", "dir")}
	got := w.relativeAssets(map[string]string{
		"https://h/a.png": filepath.Join("out", "dir", "assets", "0011-a.png"),
	})
	if got["https://h/a.png"] != "assets/0011-a.png" {
		t.Errorf("relativeAssets() = %v", got)
	}
}

func TestCLIProgress(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &CLIProgress{Out: &out, Err: &errOut}
	p.OnStart(2)
	p.OnPage(PageResult{Index: 1, Total: 2, Title: "Alpha", Path: "out/a.md", Blocks: 3})
	p.OnPage(PageResult{Index: 2, Total: 2, Title: "Beta", Path: "out/b.md", Blocks: 5, Cached: true, Assets: 2})
	p.OnError(errors.New("page c: boom"))
	p.OnComplete(Stats{Pages: 2, Cached: 1, Assets: 2, Errors: 1, Commit: "0123456789abcdef0123456789abcdef01234567", Duration: 1500 * time.Millisecond})

	want := "Exporting 2 pages\n" +
		"[1/2] Alpha -> out/a.md (fetched 3 blocks)\n" +
		"[2/2] Beta -> out/b.md (cached 5 blocks, 2 files)\n" +
		"Exported 2 pages (1 fetched, 1 from checkpoint), 2 files downloaded in 1.5s\n" +
		"1 pages failed\n" +
		"Committed 0123456789ab\n"
	if out.String() != want {
		t.Errorf("stdout =\n%s\nwant\n%s", out.String(), want)
	}
	if errOut.String() != "Error: page c: boom\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

type recorder struct {
	total    int
	pages    []PageResult
	errs     []error
	warnings []string
	complete *Stats
}

func (r *recorder) OnStart(total int)      { r.total = total }
func (r *recorder) OnPage(res PageResult)  { r.pages = append(r.pages, res) }
func (r *recorder) OnWarning(msg string)   { r.warnings = append(r.warnings, msg) }
func (r *recorder) OnError(err error)      { r.errs = append(r.errs, err) }
func (r *recorder) OnComplete(stats Stats) { r.complete = &stats }
