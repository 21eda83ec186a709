package views

import (
	"context"
	"reflect"
	"testing"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/store"
)

func fixture() []models.Issue {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []models.Issue{
		{
			ID: "i4", Title: "Flooded underpass", Description: "Knee-deep water",
			Category: models.Water, Status: models.Reported,
			Location:   models.Location{Lat: 40.70, Lng: -74.01, Address: "Canal St"},
			Upvotes:    7,
			ReportedAt: base.Add(3 * time.Hour),
		},
		{
			ID: "i3", Title: "Broken light", Description: "Dark corner",
			Category: models.Streetlight, Status: models.InProgress,
			Location:   models.Location{Lat: 40.71, Lng: -74.00},
			Upvotes:    2,
			ReportedAt: base.Add(2 * time.Hour),
		},
		{
			ID: "i2", Title: "Overflowing bins", Description: "Garbage everywhere",
			Category: models.Garbage, Status: models.Resolved,
			Location:   models.Location{Lat: 40.72, Lng: -73.99, Address: "Light Industrial Park"},
			Upvotes:    11,
			ReportedAt: base.Add(time.Hour),
		},
		{
			ID: "i1", Title: "Deep pothole", Description: "Axle breaker on Main St",
			Category: models.Pothole, Status: models.Reported,
			Location:   models.Location{Lat: 40.73, Lng: -73.98, Address: "Main St"},
			Upvotes:    4,
			ReportedAt: base,
		},
	}
}

func ids(issues []models.Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.ID
	}
	return out
}

func TestFilterByStatus(t *testing.T) {
	snapshot := fixture()

	tests := []struct {
		status string
		want   []string
	}{
		{All, []string{"i4", "i3", "i2", "i1"}},
		{"", []string{"i4", "i3", "i2", "i1"}},
		{"reported", []string{"i4", "i1"}},
		{"in-progress", []string{"i3"}},
		{"resolved", []string{"i2"}},
	}
	for _, tc := range tests {
		got := ids(FilterByStatus(snapshot, tc.status))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("FilterByStatus(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestFilterByStatusAllIsIdentity(t *testing.T) {
	snapshot := fixture()
	got := FilterByStatus(snapshot, All)
	if !reflect.DeepEqual(got, snapshot) {
		t.Fatal("'all' must return the input unchanged in order and content")
	}
}

func TestFilterByCategory(t *testing.T) {
	snapshot := fixture()

	tests := []struct {
		category string
		want     []string
	}{
		{All, []string{"i4", "i3", "i2", "i1"}},
		{"pothole", []string{"i1"}},
		{"water", []string{"i4"}},
		{"other", []string{}},
	}
	for _, tc := range tests {
		got := ids(FilterByCategory(snapshot, tc.category))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("FilterByCategory(%q) = %v, want %v", tc.category, got, tc.want)
		}
	}
}

func TestSearch(t *testing.T) {
	snapshot := fixture()

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"i4", "i3", "i2", "i1"}},          // identity
		{"light", []string{"i3", "i2"}},                 // title + address
		{"LIGHT", []string{"i3", "i2"}},                 // case-insensitive
		{"main st", []string{"i1"}},                     // description + address
		{"water", []string{"i4"}},                       // description only
		{"flood", []string{"i4"}},                       // title prefix
		{"canal", []string{"i4"}},                       // address only
		{"no such thing", []string{}},
	}
	for _, tc := range tests {
		got := ids(Search(snapshot, tc.query))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Search(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestSearchAbsentAddressNeverMatches(t *testing.T) {
	issues := []models.Issue{{
		ID: "x", Title: "Noise", Description: "Loud",
		Location: models.Location{Lat: 1, Lng: 1},
	}}
	// An empty address must not be treated as matching a query that an
	// empty string would "contain".
	if got := Search(issues, "park"); len(got) != 0 {
		t.Fatalf("absent address matched: %v", ids(got))
	}
}

func TestCombinedFilterIsOrderIndependent(t *testing.T) {
	snapshot := fixture()

	queries := []Query{
		{Status: "reported", Category: "water", Search: "flood"},
		{Status: "reported", Category: All, Search: ""},
		{Status: All, Category: "garbage", Search: "light"},
		{Status: "resolved", Category: "pothole", Search: ""},
		{Status: All, Category: All, Search: "st"},
	}

	for _, q := range queries {
		statusFirst := Search(FilterByCategory(FilterByStatus(snapshot, q.Status), q.Category), q.Search)
		categoryFirst := Search(FilterByStatus(FilterByCategory(snapshot, q.Category), q.Status), q.Search)
		searchFirst := FilterByStatus(FilterByCategory(Search(snapshot, q.Search), q.Category), q.Status)
		combined := Apply(snapshot, q)

		if !reflect.DeepEqual(ids(statusFirst), ids(categoryFirst)) ||
			!reflect.DeepEqual(ids(categoryFirst), ids(searchFirst)) ||
			!reflect.DeepEqual(ids(searchFirst), ids(combined)) {
			t.Errorf("query %+v: compositions disagree: %v / %v / %v / %v",
				q, ids(statusFirst), ids(categoryFirst), ids(searchFirst), ids(combined))
		}
	}
}

func TestAggregateCounts(t *testing.T) {
	got := AggregateCounts(fixture())
	want := Counts{Total: 4, Reported: 2, InProgress: 1, Resolved: 1, TotalUpvotes: 24}
	if got != want {
		t.Fatalf("AggregateCounts = %+v, want %+v", got, want)
	}

	if (AggregateCounts(nil) != Counts{}) {
		t.Fatal("empty snapshot must aggregate to zero")
	}
}

// TestAggregateCountsNeverDrift drives a live store through a burst of
// mutations and checks the aggregate equals a fresh recomputation after each
// one.
func TestAggregateCountsNeverDrift(t *testing.T) {
	m := store.NewMemoryStore()
	ctx := context.Background()

	recompute := func(issues []models.Issue) Counts {
		var c Counts
		c.Total = len(issues)
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

	check := func() {
		t.Helper()
		snapshot, err := m.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if got, want := AggregateCounts(snapshot), recompute(snapshot); got != want {
			t.Fatalf("counts drifted: %+v != %+v", got, want)
		}
	}

	var createdIDs []string
	for i := 0; i < 10; i++ {
		issue, err := m.Create(ctx, models.IssueDraft{
			Title:       "Pothole cluster",
			Description: "Several in a row",
			Category:    models.Pothole,
			Location:    models.Location{Lat: 40.7, Lng: -74},
			ReportedBy:  "Grace",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		createdIDs = append(createdIDs, issue.ID)
		check()
	}
	for i, id := range createdIDs {
		for j := 0; j <= i; j++ {
			if _, err := m.Upvote(ctx, id); err != nil {
				t.Fatalf("upvote: %v", err)
			}
		}
		check()
	}
	for i, id := range createdIDs {
		status := models.Statuses()[i%3]
		if _, err := m.UpdateStatus(ctx, id, store.StatusUpdate{Status: status}); err != nil {
			t.Fatalf("updateStatus: %v", err)
		}
		check()
	}
}

func TestToMapMarkers(t *testing.T) {
	snapshot := fixture()
	markers := ToMapMarkers(snapshot)

	if len(markers) != len(snapshot) {
		t.Fatalf("projection not 1:1: %d markers for %d issues", len(markers), len(snapshot))
	}
	for i, marker := range markers {
		issue := snapshot[i]
		want := MapMarker{
			ID:       issue.ID,
			Lat:      issue.Location.Lat,
			Lng:      issue.Location.Lng,
			Status:   issue.Status,
			Category: issue.Category,
		}
		if marker != want {
			t.Errorf("marker[%d] = %+v, want %+v", i, marker, want)
		}
	}

	// Issues without an address still project.
	if markers[1].ID != "i3" {
		t.Error("address-less issue dropped from projection")
	}
}

func TestCountByCategory(t *testing.T) {
	got := CountByCategory(fixture())
	want := []CategoryCount{
		{Name: models.Pothole, Value: 1},
		{Name: models.Garbage, Value: 1},
		{Name: models.Streetlight, Value: 1},
		{Name: models.Water, Value: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CountByCategory = %v, want %v", got, want)
	}
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2025, 6, 7, 15, 0, 0, 0, time.UTC)
	issues := []models.Issue{
		{ID: "a", ReportedAt: now.Add(-time.Hour)},            // today
		{ID: "b", ReportedAt: now.AddDate(0, 0, -1)},          // yesterday
		{ID: "c", ReportedAt: now.AddDate(0, 0, -1)},          // yesterday
		{ID: "d", ReportedAt: now.AddDate(0, 0, -6)},          // oldest tracked day
		{ID: "e", ReportedAt: now.AddDate(0, 0, -7)},          // outside the window
	}

	got := LastNDays(issues, now, 7)
	if len(got) != 7 {
		t.Fatalf("expected 7 days, got %d", len(got))
	}
	if got[0].Date != "2025-06-01" || got[6].Date != "2025-06-07" {
		t.Fatalf("unexpected date range: %s .. %s", got[0].Date, got[6].Date)
	}
	if got[0].Count != 1 { // day of "d"
		t.Errorf("day 0 count = %d, want 1", got[0].Count)
	}
	if got[5].Count != 2 { // yesterday
		t.Errorf("day 5 count = %d, want 2", got[5].Count)
	}
	if got[6].Count != 1 { // today
		t.Errorf("day 6 count = %d, want 1", got[6].Count)
	}

	total := 0
	for _, day := range got {
		total += day.Count
	}
	if total != 4 {
		t.Errorf("window total = %d, want 4 (issue outside the window leaked in)", total)
	}
}

func TestTopUpvoted(t *testing.T) {
	got := TopUpvoted(fixture(), 2)
	if len(got) != 2 || got[0].ID != "i2" || got[1].ID != "i4" {
		t.Fatalf("TopUpvoted = %v", ids(got))
	}

	all := TopUpvoted(fixture(), 10)
	if len(all) != 4 {
		t.Fatalf("TopUpvoted with large n = %d issues, want 4", len(all))
	}

	// The input must stay untouched.
	snapshot := fixture()
	TopUpvoted(snapshot, 1)
	if snapshot[0].ID != "i4" {
		t.Fatal("TopUpvoted mutated its input")
	}
}
