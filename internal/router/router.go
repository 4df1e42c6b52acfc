package router

import (
	"net/http"

	"Title_Vote/internal/handler"
	"Title_Vote/internal/middleware"
	"Title_Vote/internal/pkg"

	"github.com/gin-gonic/gin"
)

func InitRouter(
	verifier *pkg.TokenVerifier,
	movie *handler.MovieHandler,
	suggestion *handler.SuggestionHandler,
	user *handler.UserHandler,
	admin *handler.AdminHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.Authenticate(verifier))
	auth := middleware.RequireAuth()

	// movies
	movieGroup := api.Group("/movies")
	{
		movieGroup.GET("", movie.List)
		movieGroup.GET("/search", movie.Search)
		movieGroup.POST("", auth, movie.Create)
		movieGroup.POST("/import", auth, movie.Import)
		movieGroup.GET("/short/:shortId", movie.GetByShortID)
		movieGroup.POST("/:id/views", movie.IncrementView)
		movieGroup.GET("/:id/suggestions", movie.Suggestions)
		movieGroup.GET("/:id/suggestions/top", movie.TopSuggestions)
		movieGroup.POST("/:id/suggestions", auth, movie.AddSuggestion)
		movieGroup.GET("/:id/vote", auth, movie.MyVote)
	}

	// suggestions, votes, comments and reports
	suggestionGroup := api.Group("/suggestions")
	{
		suggestionGroup.DELETE("/:id", auth, suggestion.Delete)
		suggestionGroup.POST("/:id/vote", auth, suggestion.Vote)
		suggestionGroup.DELETE("/:id/vote", auth, suggestion.CancelVote)
		suggestionGroup.GET("/:id/comments", suggestion.Comments)
		suggestionGroup.POST("/:id/comments", auth, suggestion.AddComment)
		suggestionGroup.POST("/:id/reports", auth, suggestion.Report)
		suggestionGroup.GET("/:id/reports/count", suggestion.ReportCounts)
		suggestionGroup.GET("/:id/reports/mine", auth, suggestion.HasReported)
	}

	meGroup := api.Group("/me")
	meGroup.Use(auth)
	{
		meGroup.GET("", user.Me)
		meGroup.GET("/suggestions", user.MySuggestions)
		meGroup.GET("/votes", user.MyVotes)
	}

	api.GET("/users/:id/ban", user.BanStatus)

	// admin routes; the admin check happens in the services
	adminGroup := api.Group("/admin")
	adminGroup.Use(auth)
	{
		adminGroup.GET("/reports/pending", admin.PendingReports)
		adminGroup.POST("/reports/:id/approve", admin.Approve)
		adminGroup.POST("/reports/:id/reject", admin.Reject)
		adminGroup.GET("/users/:id/stats", admin.UserStats)
		adminGroup.POST("/users/:id/ban", admin.Ban)
		adminGroup.DELETE("/users/:id/ban", admin.Unban)
		adminGroup.POST("/rankings/rebuild", admin.RebuildRankings)
	}

	return r
}
