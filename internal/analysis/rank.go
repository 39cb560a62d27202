// Package analysis ranks and summarizes repository records by label group.
//
// Every function takes its inputs explicitly and returns fresh values. Recent
// activity is always record.LastActive.
package analysis

import (
	"sort"
	"time"

	"github.com/jacklau/trendbot/internal/record"
)

// Label extracts the group label of a record.
type Label func(record.Repo) string

// BySource groups records by the criterion that collected them.
func BySource(r record.Repo) string { return r.Source }

// ByLanguage groups records by primary language.
func ByLanguage(r record.Repo) string { return r.Language }

// Count is a label with an occurrence count.
type Count struct {
	Label string
	N     int
}

// Counts returns label frequencies, most frequent first. Equal counts keep
// the order in which labels were first seen. Empty labels are skipped.
func Counts(repos []record.Repo, label Label) []Count {
	return countBy(repos, label, false)
}

func countBy(repos []record.Repo, label Label, keepEmpty bool) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, r := range repos {
		l := label(r)
		if l == "" && !keepEmpty {
			continue
		}
		i, ok := index[l]
		if !ok {
			i = len(counts)
			index[l] = i
			counts = append(counts, Count{Label: l})
		}
		counts[i].N++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].N > counts[j].N })
	return counts
}

// TopGroups returns the n most frequent labels.
func TopGroups(repos []record.Repo, label Label, n int) []string {
	return labels(head(Counts(repos, label), n))
}

// TopGroupsByTotalStars returns the n labels with the largest star sum.
// Equal sums keep first-seen order.
func TopGroupsByTotalStars(repos []record.Repo, label Label, n int) []string {
	index := make(map[string]int)
	var sums []Count
	for _, r := range repos {
		l := label(r)
		if l == "" {
			continue
		}
		i, ok := index[l]
		if !ok {
			i = len(sums)
			index[l] = i
			sums = append(sums, Count{Label: l})
		}
		sums[i].N += r.Stars
	}
	sort.SliceStable(sums, func(i, j int) bool { return sums[i].N > sums[j].N })
	return labels(head(sums, n))
}

// TopWithOther returns the n most frequent labels plus, when more labels
// exist, one other bucket holding the summed count of the rest. Empty labels
// are counted like any other.
func TopWithOther(repos []record.Repo, label Label, n int, other string) []Count {
	counts := countBy(repos, label, true)
	if len(counts) <= n {
		return counts
	}
	n = max(n, 0)
	out := append([]Count(nil), counts[:n]...)
	rest := 0
	for _, c := range counts[n:] {
		rest += c.N
	}
	return append(out, Count{Label: other, N: rest})
}

// InWindow keeps records whose last activity falls in [now-days, now].
// Records with no known activity are dropped.
func InWindow(repos []record.Repo, days int, now time.Time) []record.Repo {
	cut := now.Add(-time.Duration(days) * 24 * time.Hour)
	var out []record.Repo
	for _, r := range repos {
		t := record.LastActive(r)
		if !t.Valid() {
			continue
		}
		if t.Time().Before(cut) || t.Time().After(now) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TopGroupsByWindow returns, per trailing window of days, the n most
// frequent labels among records active in that window. A window with no
// active records maps to an empty list.
func TopGroupsByWindow(repos []record.Repo, label Label, windows []int, n int, now time.Time) map[int][]string {
	out := make(map[int][]string, len(windows))
	for _, w := range windows {
		sub := InWindow(repos, w, now)
		top := TopGroups(sub, label, n)
		if top == nil {
			top = []string{}
		}
		out[w] = top
	}
	return out
}

func head(counts []Count, n int) []Count {
	if n <= 0 {
		return nil
	}
	if len(counts) > n {
		return counts[:n]
	}
	return counts
}

func labels(counts []Count) []string {
	if len(counts) == 0 {
		return nil
	}
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Label
	}
	return out
}
