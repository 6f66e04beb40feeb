// Tests for cursor pagination.

package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"testing"
)

// pager serves items in pages of size per call, ignoring the requested page size.
type pager struct {
	items     []int
	size      int
	calls     int
	pageSizes []int
	failAt    int // call number that fails, 0 for none
}

func (p *pager) page(_ context.Context, cursor string, pageSize int) (*PaginatedResponse[int], error) {
	p.calls++
	p.pageSizes = append(p.pageSizes, pageSize)
	if p.calls == p.failAt {
		return nil, errors.New("boom")
	}
	start := 0
	if cursor != "" {
		var err error
		if start, err = strconv.Atoi(cursor); err != nil {
			return nil, err
		}
	}
	end := min(start+p.size, len(p.items))
	resp := &PaginatedResponse[int]{Results: p.items[start:end], HasMore: end < len(p.items)}
	if resp.HasMore {
		next := strconv.Itoa(end)
		resp.NextCursor = &next
	}
	return resp, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name          string
		items         int
		size          int
		limit         int
		want          int
		wantCalls     int
		wantPageSizes []int
	}{
		{"empty", 0, 10, 0, 0, 1, []int{100}},
		{"single page", 5, 10, 0, 5, 1, []int{100}},
		{"many pages", 25, 10, 0, 25, 3, []int{100, 100, 100}},
		{"limit inside first page", 25, 10, 4, 4, 1, []int{4}},
		{"limit across pages", 25, 10, 15, 15, 2, []int{15, 5}},
		{"limit above total", 25, 10, 40, 25, 3, []int{40, 30, 20}},
		{"large limit", 250, 100, 150, 150, 2, []int{100, 50}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p := &pager{items: seq(tt.items), size: tt.size}
			got, err := collect(context.Background(), tt.limit, p.page)
			if err != nil {
				t.Fatalf("collect() error = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			for i, v := range got {
				if v != i {
					t.Fatalf("result[%d] = %d, order not preserved", i, v)
				}
			}
			if p.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", p.calls, tt.wantCalls)
			}
			if !reflect.DeepEqual(p.pageSizes, tt.wantPageSizes) {
				t.Errorf("page sizes = %v, want %v", p.pageSizes, tt.wantPageSizes)
			}
		})
	}
}

func TestCollect_ErrorDiscardsResults(t *testing.T) {
	p := &pager{items: seq(30), size: 10, failAt: 3}
	got, err := collect(context.Background(), 0, p.page)
	if err == nil {
		t.Fatal("collect() succeeded")
	}
	if got != nil {
		t.Errorf("collect() = %v, want nil on error", got)
	}
}

func TestCollect_StopsWithoutCursor(t *testing.T) {
	calls := 0
	got, err := collect(context.Background(), 0, func(context.Context, string, int) (*PaginatedResponse[int], error) {
		calls++
		return &PaginatedResponse[int]{Results: []int{1}, HasMore: true}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || len(got) != 1 {
		t.Errorf("calls = %d, results = %v; want one call", calls, got)
	}
}

func TestFetchBlockChildren_FollowsCursor(t *testing.T) {
	const parent = "59833787-2cf9-4fdf-8782-e53db20768a5"
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blocks/"+parent+"/children" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("page_size"); got != "100" {
			t.Errorf("page_size = %q", got)
		}
		switch r.URL.Query().Get("start_cursor") {
		case "":
			writeJSON(t, w, http.StatusOK, `{"object":"list","results":[`+paragraphJSON(blockID(1), "one", false)+`],"next_cursor":"c2","has_more":true}`)
		case "c2":
			writeJSON(t, w, http.StatusOK, `{"object":"list","results":[`+paragraphJSON(blockID(2), "two", false)+`],"next_cursor":null,"has_more":false}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("start_cursor"))
		}
	}))
	// Undashed ids are accepted.
	blocks, err := c.FetchBlockChildren(context.Background(), "598337872cf94fdf8782e53db20768a5", 0)
	if err != nil {
		t.Fatalf("FetchBlockChildren() error = %v", err)
	}
	var texts []string
	for i := range blocks {
		texts = append(texts, PlainText(blocks[i].RichText()))
	}
	if want := []string{"one", "two"}; !reflect.DeepEqual(texts, want) {
		t.Errorf("texts = %v, want %v", texts, want)
	}
}

func blockID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

func paragraphJSON(id, text string, hasChildren bool) string {
	return fmt.Sprintf(`{"object":"block","id":%q,"type":"paragraph","has_children":%t,"paragraph":{"rich_text":[{"type":"text","text":{"content":%q},"plain_text":%q}],"color":"default"}}`,
		id, hasChildren, text, text)
}
