package analysis

import (
	"sort"
	"strings"

	"github.com/jacklau/trendbot/internal/record"
)

// OverlapMatrix records, per key, which named criteria the key satisfies.
// Keys keep insertion order. A missing row or entry reads as not satisfied.
type OverlapMatrix struct {
	keys []string
	rows map[string]map[string]bool
}

// NewOverlapMatrix returns an empty matrix.
func NewOverlapMatrix() *OverlapMatrix {
	return &OverlapMatrix{rows: make(map[string]map[string]bool)}
}

// Set marks whether key satisfies criterion.
func (m *OverlapMatrix) Set(key, criterion string, ok bool) {
	row, exists := m.rows[key]
	if !exists {
		row = make(map[string]bool)
		m.rows[key] = row
		m.keys = append(m.keys, key)
	}
	row[criterion] = ok
}

// Has reports whether key satisfies criterion. It is safe on a nil matrix.
func (m *OverlapMatrix) Has(key, criterion string) bool {
	if m == nil {
		return false
	}
	return m.rows[key][criterion]
}

// Count is the number of criteria key satisfies.
func (m *OverlapMatrix) Count(key string) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, ok := range m.rows[key] {
		if ok {
			n++
		}
	}
	return n
}

// Keys returns the keys in insertion order.
func (m *OverlapMatrix) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Criterion is a named list of keys that satisfy it, e.g. the labels of one
// ranking.
type Criterion struct {
	Name string
	Keys []string
}

// BuildOverlapMatrix marks every key of every criterion. Keys appear in the
// order they are first listed.
func BuildOverlapMatrix(criteria []Criterion) *OverlapMatrix {
	m := NewOverlapMatrix()
	for _, c := range criteria {
		for _, k := range c.Keys {
			m.Set(k, c.Name, true)
		}
	}
	return m
}

// SelectOverlapCandidates returns the keys satisfying at least minCriteria
// criteria, in matrix order.
func SelectOverlapCandidates(m *OverlapMatrix, minCriteria int) []string {
	var out []string
	for _, k := range m.Keys() {
		if m.Count(k) >= minCriteria {
			out = append(out, k)
		}
	}
	return out
}

// GroupSummary aggregates one label group.
type GroupSummary struct {
	Label       string
	Repos       int
	StarsSum    int
	StarsMean   float64
	StarsMedian float64
	LastActive  record.Time
	Languages   int

	// Inclusion holds 0/1 per criterion in the caller's criteria order.
	// It and the two fields below are only set when overlap data is given.
	Inclusion        []int
	OverlapCount     int
	IncludedCriteria string
}

// SummaryOptions adds overlap columns to Summarize when both fields are set.
type SummaryOptions struct {
	Matrix   *OverlapMatrix
	Criteria []string
}

func (o SummaryOptions) hasOverlap() bool {
	return o.Matrix != nil && o.Criteria != nil
}

// Summarize aggregates the records whose label is in items, one row per
// label present. With overlap data rows are ordered by overlap count, median
// stars and repo count, all descending; otherwise by median stars and repo
// count. Remaining ties keep label order.
func Summarize(repos []record.Repo, items []string, label Label, opts SummaryOptions) []GroupSummary {
	wanted := make(map[string]bool, len(items))
	for _, it := range items {
		wanted[it] = true
	}

	type acc struct {
		stars      []int
		lastActive record.Time
		languages  map[string]struct{}
	}
	groups := make(map[string]*acc)
	for _, r := range repos {
		l := label(r)
		if !wanted[l] {
			continue
		}
		g, ok := groups[l]
		if !ok {
			g = &acc{languages: make(map[string]struct{})}
			groups[l] = g
		}
		g.stars = append(g.stars, r.Stars)
		g.lastActive = record.Latest(g.lastActive, record.LastActive(r))
		if r.Language != "" {
			g.languages[r.Language] = struct{}{}
		}
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, l := range sortedKeys(groups) {
		g := groups[l]
		s := GroupSummary{
			Label:       l,
			Repos:       len(g.stars),
			StarsSum:    sum(g.stars),
			StarsMean:   mean(g.stars),
			StarsMedian: median(g.stars),
			LastActive:  g.lastActive,
			Languages:   len(g.languages),
		}
		if opts.hasOverlap() {
			var included []string
			s.Inclusion = make([]int, len(opts.Criteria))
			for i, c := range opts.Criteria {
				if opts.Matrix.Has(l, c) {
					s.Inclusion[i] = 1
					s.OverlapCount++
					included = append(included, c)
				}
			}
			s.IncludedCriteria = strings.Join(included, ", ")
		}
		out = append(out, s)
	}

	if opts.hasOverlap() {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.OverlapCount != b.OverlapCount {
				return a.OverlapCount > b.OverlapCount
			}
			if a.StarsMedian != b.StarsMedian {
				return a.StarsMedian > b.StarsMedian
			}
			return a.Repos > b.Repos
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.StarsMedian != b.StarsMedian {
				return a.StarsMedian > b.StarsMedian
			}
			return a.Repos > b.Repos
		})
	}
	return out
}
