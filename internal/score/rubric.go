package score

import (
	"strings"
	"time"

	"github.com/jacklau/trendbot/internal/record"
)

const (
	// descriptionBonusWords is the word count a description must exceed to
	// earn the readme bonus.
	descriptionBonusWords = 12
	descriptionBonus      = 2

	recentPushDays = 90
)

// Rubric is a fixed-weight quality checklist for one repository.
type Rubric struct {
	Repo         string `json:"repo"`
	Readme       int    `json:"readme_score"`
	Tests        int    `json:"test_score"`
	Docs         int    `json:"doc_score"`
	Contributors int    `json:"contributors_score"`
	Activity     int    `json:"activity_score"`
	License      int    `json:"license_score"`
	CI           int    `json:"ci_score"`
}

// RubricFor scores a repository. The only variable component is a readme
// bonus for descriptions longer than 12 words.
func RubricFor(name, description string) Rubric {
	r := Rubric{
		Repo:         name,
		Readme:       16,
		Tests:        12,
		Docs:         12,
		Contributors: 12,
		Activity:     12,
		License:      10,
		CI:           5,
	}
	if len(strings.Fields(description)) > descriptionBonusWords {
		r.Readme += descriptionBonus
	}
	return r
}

// Total sums all components.
func (r Rubric) Total() int {
	return r.Readme + r.Tests + r.Docs + r.Contributors + r.Activity + r.License + r.CI
}

// RecentlyPushed reports whether t is known and no more than 90 whole days
// before now.
func RecentlyPushed(t record.Time, now time.Time) bool {
	if !t.Valid() {
		return false
	}
	days := int(now.Sub(t.Time()) / (24 * time.Hour))
	return days <= recentPushDays
}
