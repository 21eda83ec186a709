package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/store"
	"civicpulse-be/views"

	"github.com/gin-gonic/gin"
)

var issueStore store.Store

// UseStore points the issue handlers at the given store. Called once from
// main before the router starts serving.
func UseStore(s store.Store) {
	issueStore = s
}

// CreateIssue handles the creation of a new issue
func CreateIssue(c *gin.Context) {
	userName, exists := c.Get("user_name")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description" binding:"required"`
		Category    string  `json:"category" binding:"required"`
		Lat         float64 `json:"lat"`
		Lng         float64 `json:"lng"`
		Address     string  `json:"address,omitempty"`
		ImageURL    string  `json:"imageUrl,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft := models.IssueDraft{
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(input.Category),
		Location: models.Location{
			Lat:     input.Lat,
			Lng:     input.Lng,
			Address: input.Address,
		},
		ImageURL:   input.ImageURL,
		ReportedBy: userName.(string),
	}

	issue, err := issueStore.Create(c.Request.Context(), draft)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue", "fields": verr.Fields})
			return
		}
		log.Println("Error creating issue:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// ListIssues handles retrieving issues with filtering, search, pagination
// and aggregate counts
func ListIssues(c *gin.Context) {
	query := views.Query{
		Status:   c.DefaultQuery("status", "all"),
		Category: c.DefaultQuery("category", "all"),
		Search:   c.Query("search"),
	}
	sortOrder := c.DefaultQuery("sort", "newest")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	snapshot, err := issueStore.Snapshot(c.Request.Context())
	if err != nil {
		log.Println("Error reading snapshot:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	counts := views.AggregateCounts(snapshot)
	filtered := views.Apply(snapshot, query)

	if sortOrder == "oldest" {
		reversed := make([]models.Issue, len(filtered))
		for i, issue := range filtered {
			reversed[len(filtered)-1-i] = issue
		}
		filtered = reversed
	}

	totalCount := len(filtered)
	totalPages := (totalCount + limit - 1) / limit

	start := (page - 1) * limit
	if start > totalCount {
		start = totalCount
	}
	end := start + limit
	if end > totalCount {
		end = totalCount
	}

	c.JSON(http.StatusOK, gin.H{
		"issues":      filtered[start:end],
		"counts":      counts,
		"totalIssues": totalCount,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// GetIssue retrieves an issue by its ID
func GetIssue(c *gin.Context) {
	issue, err := issueStore.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Println("Error retrieving issue:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	c.JSON(http.StatusOK, issue)
}

// MyIssues retrieves all issues reported by the authenticated user
func MyIssues(c *gin.Context) {
	userName, exists := c.Get("user_name")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	snapshot, err := issueStore.Snapshot(c.Request.Context())
	if err != nil {
		log.Println("Error reading snapshot:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	mine := make([]models.Issue, 0)
	for _, issue := range snapshot {
		if issue.ReportedBy == userName.(string) {
			mine = append(mine, issue)
		}
	}

	c.JSON(http.StatusOK, mine)
}

// UpvoteIssue increments the upvote counter of an issue
func UpvoteIssue(c *gin.Context) {
	issue, err := issueStore.Upvote(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Println("Error upvoting issue:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upvote issue"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      issue.ID,
		"upvotes": issue.Upvotes,
	})
}

// UpdateIssueStatus sets an issue's status with optional resolution notes
// and assignee. Authorization is the route group's concern; the store
// accepts any enumerated status from any other.
func UpdateIssueStatus(c *gin.Context) {
	var input struct {
		Status     string `json:"status" binding:"required"`
		Notes      string `json:"notes,omitempty"`
		AssignedTo string `json:"assignedTo,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := issueStore.UpdateStatus(c.Request.Context(), c.Param("id"), store.StatusUpdate{
		Status:     models.IssueStatus(input.Status),
		Notes:      input.Notes,
		AssignedTo: input.AssignedTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		default:
			log.Println("Error updating issue status:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		}
		return
	}

	c.JSON(http.StatusOK, issue)
}

// MapMarkers returns the marker projection of the current snapshot, with the
// same optional filters as the list endpoint
func MapMarkers(c *gin.Context) {
	snapshot, err := issueStore.Snapshot(c.Request.Context())
	if err != nil {
		log.Println("Error reading snapshot:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve map markers"})
		return
	}

	filtered := views.Apply(snapshot, views.Query{
		Status:   c.DefaultQuery("status", "all"),
		Category: c.DefaultQuery("category", "all"),
		Search:   c.Query("search"),
	})

	c.JSON(http.StatusOK, views.ToMapMarkers(filtered))
}

// GetIssueAnalytics returns analytical data about issues
func GetIssueAnalytics(c *gin.Context) {
	snapshot, err := issueStore.Snapshot(c.Request.Context())
	if err != nil {
		log.Println("Error reading snapshot:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analytics"})
		return
	}

	counts := views.AggregateCounts(snapshot)

	c.JSON(http.StatusOK, gin.H{
		"issuesByCategory": views.CountByCategory(snapshot),
		"last7Days":        views.LastNDays(snapshot, time.Now(), 7),
		"topVotedIssues":   views.TopUpvoted(snapshot, 5),
		"totalIssues":      counts.Total,
		"totalVotes":       counts.TotalUpvotes,
		"openIssues":       counts.Reported + counts.InProgress,
	})
}

// StreamIssueEvents streams every committed store mutation to the client as
// server-sent events, one message per mutation in commit order
func StreamIssueEvents(c *gin.Context) {
	clientGone := c.Request.Context().Done()

	events := make(chan store.Event, 64)
	sub := issueStore.Subscribe(func(ev store.Event) {
		// Give up rather than block the pump once the client is gone,
		// otherwise Unsubscribe below could wait on a stuck callback.
		select {
		case events <- ev:
		case <-clientGone:
		}
	})
	defer issueStore.Unsubscribe(sub)

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev := <-events:
			c.SSEvent(string(ev.Kind), ev)
			return true
		}
	})
}
