// Package record shapes raw GitHub repository objects into flat records and
// derives the "last active" timestamp every ranking uses.
package record

import "strings"

// Raw is a repository object as returned by the GitHub REST API. Only the
// fields the analysis reads are decoded; date fields tolerate bad input.
type Raw struct {
	ID              int64    `json:"id"`
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	Language        string   `json:"language"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	CreatedAt       Time     `json:"created_at"`
	UpdatedAt       Time     `json:"updated_at"`
	PushedAt        Time     `json:"pushed_at"`
	Topics          []string `json:"topics"`
	Fork            bool     `json:"fork"`
}

// Repo is one flat repository record.
type Repo struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	OpenIssues  int    `json:"open_issues"`
	CreatedAt   Time   `json:"created_at"`
	UpdatedAt   Time   `json:"updated_at"`
	PushedAt    Time   `json:"pushed_at"`
	// LastCommitAt is not part of the search payload; callers that look up
	// commit history may set it.
	LastCommitAt Time   `json:"last_commit_at"`
	Topics       string `json:"topics"`
	Fork         bool   `json:"fork"`
	// Source is the label group the record was collected under, usually the
	// name of the search criterion that returned it.
	Source string `json:"query_source"`
}

// FromRaw shapes a raw API object into a Repo tagged with source.
func FromRaw(raw Raw, source string) Repo {
	return Repo{
		ID:          raw.ID,
		FullName:    raw.FullName,
		Description: raw.Description,
		Language:    raw.Language,
		Stars:       raw.StargazersCount,
		Forks:       raw.ForksCount,
		OpenIssues:  raw.OpenIssuesCount,
		CreatedAt:   raw.CreatedAt,
		UpdatedAt:   raw.UpdatedAt,
		PushedAt:    raw.PushedAt,
		Topics:      strings.Join(raw.Topics, ","),
		Fork:        raw.Fork,
		Source:      source,
	}
}

// FromRaws shapes a page collection, preserving order.
func FromRaws(raws []Raw, source string) []Repo {
	out := make([]Repo, 0, len(raws))
	for _, raw := range raws {
		out = append(out, FromRaw(raw, source))
	}
	return out
}

// LastActive is the latest present timestamp among push, update, last commit
// and creation. It is NaT when none is known.
func LastActive(r Repo) Time {
	return Latest(r.PushedAt, r.UpdatedAt, r.LastCommitAt, r.CreatedAt)
}
