package handler

import (
	"net/http"

	"Title_Vote/internal/middleware"
	"Title_Vote/internal/service"

	"github.com/gin-gonic/gin"
)

type MovieHandler struct {
	movies      *service.MovieService
	suggestions *service.SuggestionService
	votes       *service.VoteService
}

func NewMovieHandler(movies *service.MovieService, suggestions *service.SuggestionService, votes *service.VoteService) *MovieHandler {
	return &MovieHandler{movies: movies, suggestions: suggestions, votes: votes}
}

type ImportReq struct {
	MovieCd string `json:"movie_cd" binding:"required"`
}

type AddSuggestionReq struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// List GET /api/movies?sort=&page=&limit=
func (h *MovieHandler) List(c *gin.Context) {
	page, err := h.movies.List(c.Request.Context(),
		service.ParseMetric(c.Query("sort")),
		queryInt(c, "page", 1),
		queryInt(c, "limit", service.DefaultPageSize))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Search GET /api/movies/search?q=&type=
func (h *MovieHandler) Search(c *gin.Context) {
	res, err := h.movies.Search(c.Request.Context(), c.Query("q"), c.DefaultQuery("type", "title"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MovieHandler) Create(c *gin.Context) {
	var req service.MovieInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	m, err := h.movies.Create(c.Request.Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Import POST /api/movies/import
func (h *MovieHandler) Import(c *gin.Context) {
	var req ImportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "movie_cd is required")
		return
	}
	m, err := h.movies.Import(c.Request.Context(), middleware.IdentityFrom(c), req.MovieCd)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MovieHandler) GetByShortID(c *gin.Context) {
	d, err := h.movies.GetByShortID(c.Request.Context(), c.Param("shortId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *MovieHandler) IncrementView(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.movies.IncrementView(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view_count": m.ViewCount})
}

func (h *MovieHandler) Suggestions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.suggestions.ListByMovie(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": list})
}

func (h *MovieHandler) TopSuggestions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.suggestions.Top(c.Request.Context(), id, queryInt(c, "limit", service.DefaultTopSuggestions))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": list})
}

func (h *MovieHandler) AddSuggestion(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AddSuggestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title is required")
		return
	}
	sg, err := h.suggestions.Add(c.Request.Context(), middleware.IdentityFrom(c), id, req.Title, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sg)
}

// MyVote GET /api/movies/:id/vote, null when the caller has not voted.
func (h *MovieHandler) MyVote(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	v, err := h.votes.MyVote(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": v})
}
