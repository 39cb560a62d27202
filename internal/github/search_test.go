package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"
)

func makeRepoJSON(id int) map[string]any {
	return map[string]any{
		"id":               id,
		"full_name":        fmt.Sprintf("owner/repo-%d", id),
		"stargazers_count": 1000 - id,
		"language":         "Go",
		"created_at":       "2023-01-01T00:00:00Z",
		"updated_at":       "2024-01-01T00:00:00Z",
		"topics":           []string{"cli"},
	}
}

func makeItems(from, n int) []map[string]any {
	items := make([]map[string]any, 0, n)
	for i := from; i < from+n; i++ {
		items = append(items, makeRepoJSON(i))
	}
	return items
}

// pageRecorder records the query of every request it serves.
type pageRecorder struct {
	mu      sync.Mutex
	queries []url.Values
}

func (p *pageRecorder) record(r *http.Request) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, r.URL.Query())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return page
}

func TestSearchStopsOnShortPage(t *testing.T) {
	rec := &pageRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		switch rec.record(r) {
		case 1:
			writeJSON(w, http.StatusOK, map[string]any{"total_count": 13, "items": makeItems(1, 10)})
		case 2:
			writeJSON(w, http.StatusOK, map[string]any{"total_count": 13, "items": makeItems(11, 3)})
		default:
			t.Errorf("unexpected page request: %v", r.URL.Query())
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
		}
	})
	client, _ := newTestClient(t, mux)

	items, err := client.Search(context.Background(), SearchOptions{Query: "topic:cli", PerPage: 10, Pages: 5})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 13 {
		t.Fatalf("expected 13 items, got %d", len(items))
	}
	for i, item := range items {
		if item.ID != int64(i+1) {
			t.Errorf("item %d: expected id %d, got %d (pages must be concatenated in order)", i, i+1, item.ID)
		}
	}
	if len(rec.queries) != 2 {
		t.Errorf("expected 2 requests, got %d", len(rec.queries))
	}
}

func TestSearchRespectsPageCount(t *testing.T) {
	rec := &pageRecorder{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := rec.record(r)
		writeJSON(w, http.StatusOK, map[string]any{"items": makeItems(page*10, 10)})
	}))

	items, err := client.Search(context.Background(), SearchOptions{Query: "q", PerPage: 10, Pages: 2})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 20 {
		t.Errorf("expected 20 items, got %d", len(items))
	}
	if len(rec.queries) != 2 {
		t.Errorf("expected 2 requests, got %d", len(rec.queries))
	}
}

func TestSearchDefaultParams(t *testing.T) {
	rec := &pageRecorder{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, http.StatusOK, map[string]any{"items": makeItems(1, 2)})
	}))

	if _, err := client.Search(context.Background(), SearchOptions{Query: "language:go stars:>100"}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(rec.queries) != 1 {
		t.Fatalf("expected 1 request, got %d", len(rec.queries))
	}
	q := rec.queries[0]
	want := map[string]string{
		"q":        "language:go stars:>100",
		"sort":     "stars",
		"order":    "desc",
		"per_page": "50",
		"page":     "1",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("param %s = %q, want %q", k, q.Get(k), v)
		}
	}
	if q.Has("Pages") || q.Has("pages") {
		t.Error("page count must not be sent as a query parameter")
	}
}

func TestSearchMissingItems(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"total_count": 0})
	}))

	items, err := client.Search(context.Background(), SearchOptions{Query: "nothing", Pages: 3})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestSearchPropagatesFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "down"})
	}))

	if _, err := client.Search(context.Background(), SearchOptions{Query: "q"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCountPaged(t *testing.T) {
	t.Run("sums pages until a short page", func(t *testing.T) {
		rec := &pageRecorder{}
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch rec.record(r) {
			case 1, 2:
				writeJSON(w, http.StatusOK, makeItems(0, 100))
			default:
				writeJSON(w, http.StatusOK, makeItems(0, 42))
			}
		}))

		n, err := client.CountPaged(context.Background(), IssuesPath("o/r"), url.Values{"state": {"open"}}, 5)
		if err != nil {
			t.Fatalf("CountPaged failed: %v", err)
		}
		if n != 242 {
			t.Errorf("expected 242, got %d", n)
		}
		if len(rec.queries) != 3 {
			t.Errorf("expected 3 requests, got %d", len(rec.queries))
		}
		for _, q := range rec.queries {
			if q.Get("per_page") != "100" || q.Get("state") != "open" {
				t.Errorf("unexpected query: %v", q)
			}
		}
	})

	t.Run("stops at the page bound", func(t *testing.T) {
		rec := &pageRecorder{}
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			writeJSON(w, http.StatusOK, makeItems(0, 100))
		}))

		n, err := client.CountPaged(context.Background(), "repos/o/r/issues", nil, 2)
		if err != nil {
			t.Fatalf("CountPaged failed: %v", err)
		}
		if n != 200 {
			t.Errorf("expected bounded count 200, got %d", n)
		}
		if len(rec.queries) != 2 {
			t.Errorf("expected 2 requests, got %d", len(rec.queries))
		}
	})

	t.Run("default bound", func(t *testing.T) {
		rec := &pageRecorder{}
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			writeJSON(w, http.StatusOK, makeItems(0, 100))
		}))

		n, err := client.CountPaged(context.Background(), "repos/o/r/issues", nil, 0)
		if err != nil {
			t.Fatalf("CountPaged failed: %v", err)
		}
		if n != DefaultCountPages*100 {
			t.Errorf("expected %d, got %d", DefaultCountPages*100, n)
		}
	})

	t.Run("non array payload counts nothing", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "unexpected"})
		}))

		n, err := client.CountPaged(context.Background(), "repos/o/r/issues", nil, 5)
		if err != nil {
			t.Fatalf("CountPaged failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0, got %d", n)
		}
	})

	t.Run("does not mutate caller params", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []any{})
		}))

		params := url.Values{"state": {"all"}}
		if _, err := client.CountPaged(context.Background(), "x", params, 1); err != nil {
			t.Fatalf("CountPaged failed: %v", err)
		}
		if params.Has("page") || params.Has("per_page") {
			t.Errorf("caller params were mutated: %v", params)
		}
	})
}

func TestCountClosedAndMerged(t *testing.T) {
	prs := []map[string]any{
		{"number": 1, "merged_at": "2024-01-01T00:00:00Z"},
		{"number": 2, "merged_at": nil},
		{"number": 3, "merged_at": "2024-02-01T00:00:00Z"},
		{"number": 4, "merged_at": ""},
		{"number": 5},
	}

	t.Run("pull requests", func(t *testing.T) {
		rec := &pageRecorder{}
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			writeJSON(w, http.StatusOK, prs)
		}))

		closed, merged, err := client.CountClosedAndMerged(context.Background(), PullsPath("o/r"), nil, true)
		if err != nil {
			t.Fatalf("CountClosedAndMerged failed: %v", err)
		}
		if closed != 5 || merged != 2 {
			t.Errorf("got (%d, %d), want (5, 2)", closed, merged)
		}
		q := rec.queries[0]
		if q.Get("state") != "closed" || q.Get("page") != "1" || q.Get("per_page") != "100" {
			t.Errorf("unexpected query: %v", q)
		}
	})

	t.Run("issues do not count merges", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, prs)
		}))

		closed, merged, err := client.CountClosedAndMerged(context.Background(), IssuesPath("o/r"), nil, false)
		if err != nil {
			t.Fatalf("CountClosedAndMerged failed: %v", err)
		}
		if closed != 5 || merged != 0 {
			t.Errorf("got (%d, %d), want (5, 0)", closed, merged)
		}
	})

	t.Run("non array payload is zero", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Moved Permanently"})
		}))

		closed, merged, err := client.CountClosedAndMerged(context.Background(), "x", nil, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if closed != 0 || merged != 0 {
			t.Errorf("got (%d, %d), want (0, 0)", closed, merged)
		}
	})
}

func TestRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          9,
			"full_name":   "octocat/hello",
			"description": "Says hello",
			"pushed_at":   "2024-05-01T00:00:00Z",
		})
	})
	client, _ := newTestClient(t, mux)

	raw, err := client.Repository(context.Background(), "octocat/hello")
	if err != nil {
		t.Fatalf("Repository failed: %v", err)
	}
	if raw.FullName != "octocat/hello" || raw.Description != "Says hello" {
		t.Errorf("unexpected repository: %+v", raw)
	}
	if !raw.PushedAt.Valid() {
		t.Error("expected pushed_at to parse")
	}
}
