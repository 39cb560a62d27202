package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"

	"github.com/jacklau/trendbot/internal/record"
)

const (
	searchReposPath = "search/repositories"

	// countPageSize is the page size used by the counting helpers.
	countPageSize = 100

	// DefaultCountPages bounds CountPaged. Resources larger than
	// DefaultCountPages*100 items are undercounted.
	DefaultCountPages = 5
)

// SearchOptions controls a repository search.
type SearchOptions struct {
	Query   string `url:"q"`
	Sort    string `url:"sort,omitempty"`
	Order   string `url:"order,omitempty"`
	PerPage int    `url:"per_page"`
	Page    int    `url:"page"`

	// Pages is the most pages to fetch.
	Pages int `url:"-"`
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.Sort == "" {
		o.Sort = "stars"
	}
	if o.Order == "" {
		o.Order = "desc"
	}
	if o.PerPage <= 0 {
		o.PerPage = 50
	}
	if o.Pages <= 0 {
		o.Pages = 1
	}
	return o
}

type searchResult struct {
	TotalCount int          `json:"total_count"`
	Items      []record.Raw `json:"items"`
}

// Search collects repository search results page by page, stopping at the
// first short page or after opts.Pages pages. Items keep API order.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]record.Raw, error) {
	opts = opts.withDefaults()

	var items []record.Raw
	for page := 1; page <= opts.Pages; page++ {
		opts.Page = page
		params, err := query.Values(opts)
		if err != nil {
			return nil, fmt.Errorf("encoding search options: %w", err)
		}

		resp, err := c.Get(ctx, searchReposPath, params)
		if err != nil {
			return nil, fmt.Errorf("searching %q page %d: %w", opts.Query, page, err)
		}

		var result searchResult
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return nil, fmt.Errorf("decoding search page %d: %w", page, err)
		}
		items = append(items, result.Items...)

		c.logger.Debug("search page fetched", "query", opts.Query, "page", page, "items", len(result.Items), "total", result.TotalCount)
		if len(result.Items) < opts.PerPage {
			break
		}
	}
	return items, nil
}

// CountPaged counts items of a listing endpoint (issues, pulls, ...) by
// walking at most pages pages of 100. A short page or a payload that is not
// a JSON array ends the walk.
func (c *Client) CountPaged(ctx context.Context, path string, params url.Values, pages int) (int, error) {
	if pages <= 0 {
		pages = DefaultCountPages
	}

	total := 0
	for page := 1; page <= pages; page++ {
		p := cloneValues(params)
		p.Set("per_page", strconv.Itoa(countPageSize))
		p.Set("page", strconv.Itoa(page))

		resp, err := c.Get(ctx, path, p)
		if err != nil {
			return 0, fmt.Errorf("counting %s page %d: %w", path, page, err)
		}

		items, ok := decodeArray(resp.Data)
		if !ok {
			break
		}
		total += len(items)
		if len(items) < countPageSize {
			break
		}
	}
	return total, nil
}

// CountClosedAndMerged fetches one page of closed items and returns how many
// there are and, for pull requests, how many carry a merged_at timestamp.
// A payload that is not a JSON array counts as (0, 0).
func (c *Client) CountClosedAndMerged(ctx context.Context, path string, params url.Values, isPR bool) (closed, merged int, err error) {
	p := cloneValues(params)
	p.Set("per_page", strconv.Itoa(countPageSize))
	p.Set("page", "1")
	p.Set("state", "closed")

	resp, err := c.Get(ctx, path, p)
	if err != nil {
		return 0, 0, fmt.Errorf("counting closed %s: %w", path, err)
	}

	items, ok := decodeArray(resp.Data)
	if !ok {
		return 0, 0, nil
	}

	closed = len(items)
	if isPR {
		for _, item := range items {
			var pr struct {
				MergedAt string `json:"merged_at"`
			}
			if json.Unmarshal(item, &pr) == nil && pr.MergedAt != "" {
				merged++
			}
		}
	}
	return closed, merged, nil
}

// Repository fetches a single repository by "owner/name".
func (c *Client) Repository(ctx context.Context, fullName string) (record.Raw, error) {
	resp, err := c.Get(ctx, "repos/"+fullName, nil)
	if err != nil {
		return record.Raw{}, fmt.Errorf("fetching repository %s: %w", fullName, err)
	}

	var raw record.Raw
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return record.Raw{}, fmt.Errorf("decoding repository %s: %w", fullName, err)
	}
	return raw, nil
}

// IssuesPath is the listing path for a repository's issues.
func IssuesPath(fullName string) string {
	return "repos/" + fullName + "/issues"
}

// PullsPath is the listing path for a repository's pull requests.
func PullsPath(fullName string) string {
	return "repos/" + fullName + "/pulls"
}

// decodeArray reports ok=false when data is not a JSON array.
func decodeArray(data []byte) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
