package handler

import (
	"net/http"

	"Title_Vote/internal/middleware"
	"Title_Vote/internal/service"

	"github.com/gin-gonic/gin"
)

type SuggestionHandler struct {
	suggestions *service.SuggestionService
	votes       *service.VoteService
	reports     *service.ReportService
}

func NewSuggestionHandler(suggestions *service.SuggestionService, votes *service.VoteService, reports *service.ReportService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, votes: votes, reports: reports}
}

type CommentReq struct {
	Content string `json:"content" binding:"required"`
}

type ReportReq struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *SuggestionHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.suggestions.Delete(c.Request.Context(), middleware.IdentityFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Vote POST /api/suggestions/:id/vote
func (h *SuggestionHandler) Vote(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.votes.Vote(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie_id": m.ID, "total_votes": m.TotalVotes})
}

// CancelVote DELETE /api/suggestions/:id/vote
func (h *SuggestionHandler) CancelVote(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.votes.Cancel(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie_id": m.ID, "total_votes": m.TotalVotes})
}

func (h *SuggestionHandler) Comments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.suggestions.Comments(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

func (h *SuggestionHandler) AddComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}
	cm, err := h.suggestions.AddComment(c.Request.Context(), middleware.IdentityFrom(c), id, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

// Report POST /api/suggestions/:id/reports
func (h *SuggestionHandler) Report(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, service.ErrInvalidReason)
		return
	}
	rp, err := h.reports.Report(c.Request.Context(), middleware.IdentityFrom(c), id, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rp)
}

func (h *SuggestionHandler) ReportCounts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	counts, err := h.reports.Counts(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":  counts.Pending,
		"approved": counts.Approved,
		"rejected": counts.Rejected,
		"total":    counts.Total,
	})
}

func (h *SuggestionHandler) HasReported(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reported, err := h.reports.HasReported(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reported": reported})
}
