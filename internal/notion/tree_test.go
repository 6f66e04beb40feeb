// Tests for block tree materialization.

package notion

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

// treeServer answers block children requests from a map of parent id to child blocks.
type treeServer struct {
	t        *testing.T
	children map[string][]string
	hits     atomic.Int32
}

func (s *treeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/blocks/"), "/children")
	blocks, ok := s.children[id]
	if !ok {
		writeJSON(s.t, w, http.StatusNotFound, `{"object":"error","status":404,"code":"object_not_found","message":"no such block"}`)
		return
	}
	writeJSON(s.t, w, http.StatusOK, `{"object":"list","results":[`+strings.Join(blocks, ",")+`],"next_cursor":null,"has_more":false}`)
}

func texts(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i := range blocks {
		out[i] = PlainText(blocks[i].RichText())
	}
	return out
}

func equalStrings(a, b []string) bool {
	return strings.Join(a, "|") == strings.Join(b, "|")
}

func TestFetchBlocks_Tree(t *testing.T) {
	page, a, b, c, d := blockID(100), blockID(1), blockID(2), blockID(3), blockID(4)
	srv := &treeServer{t: t, children: map[string][]string{
		page: {paragraphJSON(a, "A", true)},
		a:    {paragraphJSON(b, "B", false), paragraphJSON(c, "C", true)},
		c:    {paragraphJSON(d, "D", false)},
	}}
	for _, concurrency := range []int{0, 4} {
		client, _ := newTestClient(t, srv)
		got, err := client.FetchBlocks(context.Background(), page, TreeOptions{Concurrency: concurrency})
		if err != nil {
			t.Fatalf("FetchBlocks() error = %v", err)
		}
		if len(got) != 1 || PlainText(got[0].RichText()) != "A" {
			t.Fatalf("root = %v", texts(got))
		}
		if want := []string{"B", "C"}; !equalStrings(texts(got[0].Children), want) {
			t.Errorf("A.Children = %v, want %v", texts(got[0].Children), want)
		}
		if got[0].Children[0].Children != nil {
			t.Errorf("B.Children = %v, want none", got[0].Children[0].Children)
		}
		if want := []string{"D"}; !equalStrings(texts(got[0].Children[1].Children), want) {
			t.Errorf("C.Children = %v, want %v", texts(got[0].Children[1].Children), want)
		}
	}
}

func TestFetchBlocks_ConcurrencyKeepsOrder(t *testing.T) {
	page := blockID(100)
	children := map[string][]string{}
	var want []string
	for i := 1; i <= 12; i++ {
		id := blockID(i)
		label := string(rune('a' + i - 1))
		children[page] = append(children[page], paragraphJSON(id, label, true))
		children[id] = []string{paragraphJSON(blockID(1000+i), strings.ToUpper(label), false)}
		want = append(want, label)
	}
	srv := &treeServer{t: t, children: children}
	client, _ := newTestClient(t, srv)
	got, err := client.FetchBlocks(context.Background(), page, TreeOptions{Concurrency: 5})
	if err != nil {
		t.Fatalf("FetchBlocks() error = %v", err)
	}
	if !equalStrings(texts(got), want) {
		t.Fatalf("order = %v, want %v", texts(got), want)
	}
	for i := range got {
		if sub := texts(got[i].Children); len(sub) != 1 || sub[0] != strings.ToUpper(want[i]) {
			t.Errorf("%s.Children = %v", want[i], sub)
		}
	}
	if n := srv.hits.Load(); n != 13 {
		t.Errorf("server hit %d times, want 13", n)
	}
}

func TestFetchBlocks_MaxDepth(t *testing.T) {
	page, a, b := blockID(100), blockID(1), blockID(2)
	srv := &treeServer{t: t, children: map[string][]string{
		page: {paragraphJSON(a, "A", true)},
		a:    {paragraphJSON(b, "B", false)},
	}}
	client, _ := newTestClient(t, srv)
	got, err := client.FetchBlocks(context.Background(), page, TreeOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("FetchBlocks() error = %v", err)
	}
	if !got[0].HasChildren || got[0].Children != nil {
		t.Errorf("A = %+v, want unexpanded", got[0])
	}
	if n := srv.hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestFetchBlocks_Cycle(t *testing.T) {
	page, a, b := blockID(100), blockID(1), blockID(2)
	tests := []struct {
		name     string
		children map[string][]string
	}{
		{"self", map[string][]string{
			page: {paragraphJSON(a, "A", true)},
			a:    {paragraphJSON(a, "A again", true)},
		}},
		{"back to root", map[string][]string{
			page: {paragraphJSON(a, "A", true)},
			a:    {paragraphJSON(b, "B", true)},
			b:    {paragraphJSON(page, "page", true)},
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, &treeServer{t: t, children: tt.children})
			_, err := client.FetchBlocks(context.Background(), page, TreeOptions{})
			if !errors.Is(err, ErrDataCorrupted) {
				t.Errorf("FetchBlocks() error = %v, want ErrDataCorrupted", err)
			}
		})
	}
}

func TestFetchBlocks_RepeatedSiblingIsNotACycle(t *testing.T) {
	page, a, b := blockID(100), blockID(1), blockID(2)
	srv := &treeServer{t: t, children: map[string][]string{
		page: {paragraphJSON(a, "A", true), paragraphJSON(b, "B", true)},
		a:    {paragraphJSON(blockID(3), "shared", false)},
		b:    {paragraphJSON(blockID(3), "shared", false)},
	}}
	client, _ := newTestClient(t, srv)
	if _, err := client.FetchBlocks(context.Background(), page, TreeOptions{}); err != nil {
		t.Errorf("FetchBlocks() error = %v", err)
	}
}

func TestFetchBlocks_ErrorAborts(t *testing.T) {
	page, a := blockID(100), blockID(1)
	srv := &treeServer{t: t, children: map[string][]string{
		page: {paragraphJSON(a, "A", true)},
	}}
	client, _ := newTestClient(t, srv)
	got, err := client.FetchBlocks(context.Background(), page, TreeOptions{Concurrency: 2})
	if err == nil || got != nil {
		t.Errorf("FetchBlocks() = %v, %v; want an error and no blocks", got, err)
	}
}
