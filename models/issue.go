package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// IssueCategory enum
type IssueCategory string

const (
	Pothole     IssueCategory = "pothole"
	Garbage     IssueCategory = "garbage"
	Streetlight IssueCategory = "streetlight"
	Water       IssueCategory = "water"
	Other       IssueCategory = "other"
)

// IssueStatus enum
type IssueStatus string

const (
	Reported   IssueStatus = "reported"
	InProgress IssueStatus = "in-progress"
	Resolved   IssueStatus = "resolved"
)

// Categories lists every valid category value.
func Categories() []IssueCategory {
	return []IssueCategory{Pothole, Garbage, Streetlight, Water, Other}
}

// Statuses lists every valid status value.
func Statuses() []IssueStatus {
	return []IssueStatus{Reported, InProgress, Resolved}
}

func (c IssueCategory) Valid() bool {
	switch c {
	case Pothole, Garbage, Streetlight, Water, Other:
		return true
	}
	return false
}

func (s IssueStatus) Valid() bool {
	switch s {
	case Reported, InProgress, Resolved:
		return true
	}
	return false
}

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// Location is a point on the map, with an optional human-readable address.
type Location struct {
	Lat     float64 `bson:"lat" json:"lat"`
	Lng     float64 `bson:"lng" json:"lng"`
	Address string  `bson:"address,omitempty" json:"address,omitempty"`
}

// Issue represents a civic issue reported by a citizen.
type Issue struct {
	ID              string        `bson:"_id" json:"id"`
	Title           string        `bson:"title" json:"title"`
	Description     string        `bson:"description" json:"description"`
	Category        IssueCategory `bson:"category" json:"category"`
	Status          IssueStatus   `bson:"status" json:"status"`
	Location        Location      `bson:"location" json:"location"`
	ImageURL        string        `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Upvotes         int64         `bson:"upvotes" json:"upvotes"`
	ReportedBy      string        `bson:"reportedBy" json:"reportedBy"`
	ReportedAt      time.Time     `bson:"reportedAt" json:"reportedAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
	AssignedTo      string        `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	ResolutionNotes string        `bson:"resolutionNotes,omitempty" json:"resolutionNotes,omitempty"`

	// Seq is the insertion sequence number, used only as the ordering
	// tie-break when two issues share a reportedAt timestamp.
	Seq uint64 `bson:"seq" json:"-"`
}

// IssueDraft holds the caller-supplied fields of a new issue. The store fills
// in everything else (id, timestamps, status, upvotes) at creation.
type IssueDraft struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    IssueCategory `json:"category"`
	Location    Location      `json:"location"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	ReportedBy  string        `json:"reportedBy"`
}

// ValidationError reports every invalid draft field with a reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid issue draft: " + strings.Join(parts, "; ")
}

// ValidateDraft checks every field of the draft and returns a ValidationError
// naming all invalid fields, or nil if the draft is well formed.
func ValidateDraft(d IssueDraft) error {
	fields := map[string]string{}

	// The length bounds are in characters, not bytes.
	if strings.TrimSpace(d.Title) == "" {
		fields["title"] = "required"
	} else if utf8.RuneCountInString(d.Title) > MaxTitleLen {
		fields["title"] = fmt.Sprintf("must be at most %d characters", MaxTitleLen)
	}

	if strings.TrimSpace(d.Description) == "" {
		fields["description"] = "required"
	} else if utf8.RuneCountInString(d.Description) > MaxDescriptionLen {
		fields["description"] = fmt.Sprintf("must be at most %d characters", MaxDescriptionLen)
	}

	if !d.Category.Valid() {
		fields["category"] = "must be one of pothole, garbage, streetlight, water, other"
	}

	// NaN fails every range comparison, so finiteness needs its own check.
	if !isFinite(d.Location.Lat) || d.Location.Lat < -90 || d.Location.Lat > 90 {
		fields["location.lat"] = "must be between -90 and 90"
	}
	if !isFinite(d.Location.Lng) || d.Location.Lng < -180 || d.Location.Lng > 180 {
		fields["location.lng"] = "must be between -180 and 180"
	}

	if strings.TrimSpace(d.ReportedBy) == "" {
		fields["reportedBy"] = "required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
