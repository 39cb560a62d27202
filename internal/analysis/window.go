package analysis

import (
	"sort"
	"time"

	"github.com/jacklau/trendbot/internal/record"
)

// WindowGroup is one label's statistics inside a recency window.
type WindowGroup struct {
	Label       string
	Repos       int
	StarsMedian float64
	StarsMean   float64
}

// WindowReport describes the top labels of one recency window.
type WindowReport struct {
	Days   int
	TopK   int
	Labels []string
	// Groups are ordered by repo count, largest first.
	Groups []WindowGroup
}

// ByMedian returns the groups ordered by median stars, smallest first, which
// is the order the bar chart draws them in.
func (w WindowReport) ByMedian() []WindowGroup {
	out := append([]WindowGroup(nil), w.Groups...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StarsMedian < out[j].StarsMedian })
	return out
}

// RecentWindow computes median and mean stars for the topK most frequent
// labels among records active in the last days. ok is false when no record
// falls in the window.
func RecentWindow(repos []record.Repo, label Label, days, topK int, now time.Time) (report WindowReport, ok bool) {
	sub := InWindow(repos, days, now)
	if len(sub) == 0 {
		return WindowReport{Days: days, TopK: topK}, false
	}

	top := TopGroups(sub, label, topK)
	stars := make(map[string][]int, len(top))
	for _, l := range top {
		stars[l] = nil
	}
	for _, r := range sub {
		l := label(r)
		if _, want := stars[l]; want {
			stars[l] = append(stars[l], r.Stars)
		}
	}

	groups := make([]WindowGroup, 0, len(top))
	for _, l := range sortedKeys(stars) {
		groups = append(groups, WindowGroup{
			Label:       l,
			Repos:       len(stars[l]),
			StarsMedian: median(stars[l]),
			StarsMean:   mean(stars[l]),
		})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Repos > groups[j].Repos })

	return WindowReport{Days: days, TopK: topK, Labels: top, Groups: groups}, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
