package routes

import (
	"time"

	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issue")
	{
		issue.GET("", controllers.ListIssues)
		issue.GET("/map", controllers.MapMarkers)
		issue.GET("/analytics", controllers.GetIssueAnalytics)
		issue.GET("/stream", controllers.StreamIssueEvents)
		issue.GET("/mine", middlewares.AuthMiddleware(), controllers.MyIssues)
		issue.GET("/:id", controllers.GetIssue)
		issue.POST("/create",
			middlewares.AuthMiddleware(),
			middlewares.RateLimiter("ratelimit:report", 10, 24*time.Hour),
			controllers.CreateIssue)
		issue.POST("/:id/upvote",
			middlewares.AuthMiddleware(),
			middlewares.RateLimiter("ratelimit:upvote", 30, time.Minute),
			controllers.UpvoteIssue)
		issue.PATCH("/:id/status", middlewares.AuthMiddleware(), controllers.UpdateIssueStatus)
	}
}
