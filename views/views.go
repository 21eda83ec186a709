// Package views computes derived projections of an issue snapshot: filtered
// lists, aggregate counts, map markers and analytics series. Every function
// is pure; nothing here caches state, so a re-run over a fresh snapshot is
// always correct.
package views

import (
	"sort"
	"strings"
	"time"

	"civicpulse-be/models"
)

// All is the identity value for status and category filters.
const All = "all"

// Query combines the three list filters. Zero values are identities.
type Query struct {
	Status   string
	Category string
	Search   string
}

// FilterByStatus returns the subsequence matching status, preserving order.
// "all" (or empty) returns the input unchanged.
func FilterByStatus(issues []models.Issue, status string) []models.Issue {
	if status == "" || status == All {
		return issues
	}
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if string(issue.Status) == status {
			out = append(out, issue)
		}
	}
	return out
}

// FilterByCategory returns the subsequence matching category, preserving
// order. "all" (or empty) returns the input unchanged.
func FilterByCategory(issues []models.Issue, category string) []models.Issue {
	if category == "" || category == All {
		return issues
	}
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if string(issue.Category) == category {
			out = append(out, issue)
		}
	}
	return out
}

// Search returns the issues whose title, description or address contains
// query, case-insensitively. An empty query matches everything; an absent
// address never matches a non-empty query.
func Search(issues []models.Issue, query string) []models.Issue {
	if query == "" {
		return issues
	}
	q := strings.ToLower(query)
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if matchesSearch(issue, q) {
			out = append(out, issue)
		}
	}
	return out
}

func matchesSearch(issue models.Issue, loweredQuery string) bool {
	return strings.Contains(strings.ToLower(issue.Title), loweredQuery) ||
		strings.Contains(strings.ToLower(issue.Description), loweredQuery) ||
		(issue.Location.Address != "" &&
			strings.Contains(strings.ToLower(issue.Location.Address), loweredQuery))
}

// Apply runs all three filters as a conjunction in a single pass. The result
// is identical to composing FilterByStatus, FilterByCategory and Search in
// any order.
func Apply(issues []models.Issue, q Query) []models.Issue {
	loweredSearch := strings.ToLower(q.Search)
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if q.Status != "" && q.Status != All && string(issue.Status) != q.Status {
			continue
		}
		if q.Category != "" && q.Category != All && string(issue.Category) != q.Category {
			continue
		}
		if loweredSearch != "" && !matchesSearch(issue, loweredSearch) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

// Counts aggregates the snapshot per status plus the total upvotes.
type Counts struct {
	Total        int   `json:"total"`
	Reported     int   `json:"reported"`
	InProgress   int   `json:"inProgress"`
	Resolved     int   `json:"resolved"`
	TotalUpvotes int64 `json:"totalUpvotes"`
}

// AggregateCounts recomputes the counts directly from the snapshot.
func AggregateCounts(issues []models.Issue) Counts {
	c := Counts{Total: len(issues)}
	for _, issue := range issues {
		switch issue.Status {
		case models.Reported:
			c.Reported++
		case models.InProgress:
			c.InProgress++
		case models.Resolved:
			c.Resolved++
		}
		c.TotalUpvotes += issue.Upvotes
	}
	return c
}

// MapMarker is the projection the map widget renders.
type MapMarker struct {
	ID       string               `json:"id"`
	Lat      float64              `json:"lat"`
	Lng      float64              `json:"lng"`
	Status   models.IssueStatus   `json:"status"`
	Category models.IssueCategory `json:"category"`
}

// ToMapMarkers projects every issue to a marker, 1:1 with the input.
func ToMapMarkers(issues []models.Issue) []MapMarker {
	markers := make([]MapMarker, len(issues))
	for i, issue := range issues {
		markers[i] = MapMarker{
			ID:       issue.ID,
			Lat:      issue.Location.Lat,
			Lng:      issue.Location.Lng,
			Status:   issue.Status,
			Category: issue.Category,
		}
	}
	return markers
}

// CategoryCount is one slice of the per-category breakdown.
type CategoryCount struct {
	Name  models.IssueCategory `json:"name"`
	Value int                  `json:"value"`
}

// CountByCategory breaks the snapshot down per category, in the canonical
// category order.
func CountByCategory(issues []models.Issue) []CategoryCount {
	byCategory := make(map[models.IssueCategory]int)
	for _, issue := range issues {
		byCategory[issue.Category]++
	}
	out := make([]CategoryCount, 0, len(byCategory))
	for _, cat := range models.Categories() {
		if n := byCategory[cat]; n > 0 {
			out = append(out, CategoryCount{Name: cat, Value: n})
		}
	}
	return out
}

// DayCount is one day of the reporting-volume series.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// LastNDays counts issues reported per calendar day over the n days ending
// at now, oldest day first.
func LastNDays(issues []models.Issue, now time.Time, n int) []DayCount {
	out := make([]DayCount, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		next := day.AddDate(0, 0, 1)

		count := 0
		for _, issue := range issues {
			if !issue.ReportedAt.Before(day) && issue.ReportedAt.Before(next) {
				count++
			}
		}
		out = append(out, DayCount{Date: day.Format("2006-01-02"), Count: count})
	}
	return out
}

// TopUpvoted returns up to n issues sorted by upvotes descending. Ties keep
// the snapshot's newest-first order.
func TopUpvoted(issues []models.Issue, n int) []models.Issue {
	sorted := make([]models.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Upvotes > sorted[j].Upvotes
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
