package analysis

import (
	"reflect"
	"testing"
	"time"

	"github.com/jacklau/trendbot/internal/record"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) record.Time {
	return record.At(now.Add(-time.Duration(d) * 24 * time.Hour))
}

func repo(source string, stars int, pushedDaysAgo int) record.Repo {
	r := record.Repo{Source: source, Stars: stars, FullName: source + "/r"}
	if pushedDaysAgo >= 0 {
		r.PushedAt = daysAgo(pushedDaysAgo)
	}
	return r
}

func TestTopGroups(t *testing.T) {
	repos := []record.Repo{
		repo("b", 1, 0), repo("a", 1, 0), repo("c", 1, 0),
		repo("a", 1, 0), repo("c", 1, 0), repo("d", 1, 0),
		repo("", 1, 0), repo("", 1, 0), repo("", 1, 0),
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"ties keep first seen order", 3, []string{"a", "c", "b"}},
		{"all labels", 10, []string{"a", "c", "b", "d"}},
		{"single", 1, []string{"a"}},
		{"zero", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopGroups(repos, BySource, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopGroups(n=%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestTopGroupsByLanguage(t *testing.T) {
	repos := []record.Repo{
		{Language: "Go"}, {Language: "Rust"}, {Language: "Go"}, {Language: ""},
	}
	got := TopGroups(repos, ByLanguage, 5)
	want := []string{"Go", "Rust"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTopGroupsByTotalStars(t *testing.T) {
	repos := []record.Repo{
		repo("small", 10, 0), repo("big", 500, 0), repo("tie1", 50, 0),
		repo("small", 10, 0), repo("tie2", 25, 0), repo("tie2", 25, 0),
	}

	got := TopGroupsByTotalStars(repos, BySource, 3)
	want := []string{"big", "tie1", "tie2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := TopGroupsByTotalStars(nil, BySource, 3); len(got) != 0 {
		t.Errorf("expected empty result for no records, got %v", got)
	}
}

func TestTopWithOther(t *testing.T) {
	repos := []record.Repo{
		repo("a", 0, 0), repo("a", 0, 0), repo("a", 0, 0),
		repo("b", 0, 0), repo("b", 0, 0),
		repo("c", 0, 0), repo("d", 0, 0), repo("", 0, 0),
	}

	t.Run("folds the tail", func(t *testing.T) {
		got := TopWithOther(repos, BySource, 2, "Other")
		want := []Count{{"a", 3}, {"b", 2}, {"Other", 3}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("no fold when few labels", func(t *testing.T) {
		got := TopWithOther(repos, BySource, 10, "Other")
		if len(got) != 5 {
			t.Fatalf("expected all 5 labels including empty, got %v", got)
		}
		for _, c := range got {
			if c.Label == "Other" {
				t.Error("unexpected Other bucket")
			}
		}
	})
}

func TestInWindow(t *testing.T) {
	repos := []record.Repo{
		repo("inside", 1, 3),
		repo("boundary", 1, 7),
		repo("outside", 1, 8),
		repo("unknown", 1, -1),
		{Source: "future", PushedAt: record.At(now.Add(48 * time.Hour))},
	}

	got := InWindow(repos, 7, now)
	var sources []string
	for _, r := range got {
		sources = append(sources, r.Source)
	}
	want := []string{"inside", "boundary"}
	if !reflect.DeepEqual(sources, want) {
		t.Errorf("InWindow = %v, want %v", sources, want)
	}
}

func TestInWindowUsesLastActive(t *testing.T) {
	// Old push but a recent commit recorded separately.
	r := repo("x", 1, 400)
	r.LastCommitAt = daysAgo(2)
	if got := InWindow([]record.Repo{r}, 7, now); len(got) != 1 {
		t.Error("record with a recent last commit should be in the window")
	}
}

func TestTopGroupsByWindow(t *testing.T) {
	repos := []record.Repo{
		repo("fresh", 1, 1), repo("fresh", 1, 2),
		repo("month", 1, 20),
		repo("old", 1, 200), repo("old", 1, 300), repo("old", 1, 250),
	}

	got := TopGroupsByWindow(repos, BySource, []int{0, 7, 30, 365}, 5, now)

	if w := got[0]; w == nil || len(w) != 0 {
		t.Errorf("empty window should map to an empty list, got %#v", w)
	}
	if !reflect.DeepEqual(got[7], []string{"fresh"}) {
		t.Errorf("7d = %v", got[7])
	}
	if !reflect.DeepEqual(got[30], []string{"fresh", "month"}) {
		t.Errorf("30d = %v", got[30])
	}
	if !reflect.DeepEqual(got[365], []string{"old", "fresh", "month"}) {
		t.Errorf("365d = %v", got[365])
	}
}

func TestTopGroupsByWindowNoRecords(t *testing.T) {
	got := TopGroupsByWindow(nil, BySource, []int{7, 30}, 3, now)
	for _, w := range []int{7, 30} {
		l, ok := got[w]
		if !ok || l == nil || len(l) != 0 {
			t.Errorf("window %d: expected empty list, got %#v (present=%v)", w, l, ok)
		}
	}
}

func TestRecentWindow(t *testing.T) {
	repos := []record.Repo{
		repo("a", 10, 1), repo("a", 30, 2), repo("a", 20, 3),
		repo("b", 100, 1), repo("b", 300, 1),
		repo("c", 5, 1),
		repo("old", 9999, 90),
	}

	report, ok := RecentWindow(repos, BySource, 30, 2, now)
	if !ok {
		t.Fatal("expected a non-empty window")
	}
	if !reflect.DeepEqual(report.Labels, []string{"a", "b"}) {
		t.Errorf("Labels = %v", report.Labels)
	}
	want := []WindowGroup{
		{Label: "a", Repos: 3, StarsMedian: 20, StarsMean: 20},
		{Label: "b", Repos: 2, StarsMedian: 200, StarsMean: 200},
	}
	if !reflect.DeepEqual(report.Groups, want) {
		t.Errorf("Groups = %+v, want %+v", report.Groups, want)
	}

	byMedian := report.ByMedian()
	if byMedian[0].Label != "a" || byMedian[1].Label != "b" {
		t.Errorf("ByMedian should be ascending, got %+v", byMedian)
	}
}

func TestRecentWindowEmpty(t *testing.T) {
	repos := []record.Repo{repo("a", 1, 100)}
	if _, ok := RecentWindow(repos, BySource, 7, 5, now); ok {
		t.Error("expected ok=false for an empty window")
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []int
		want float64
	}{
		{nil, 0},
		{[]int{5}, 5},
		{[]int{3, 1, 2}, 2},
		{[]int{4, 1, 3, 2}, 2.5},
	}
	for _, tt := range tests {
		if got := median(tt.in); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
