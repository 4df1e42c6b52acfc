package handler

import (
	"net/http"

	"Title_Vote/internal/middleware"
	"Title_Vote/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	users      *service.UserService
	reports    *service.ReportService
	moderation *service.ModerationService
	rank       *service.RankingService
}

func NewAdminHandler(users *service.UserService, reports *service.ReportService, moderation *service.ModerationService, rank *service.RankingService) *AdminHandler {
	return &AdminHandler{users: users, reports: reports, moderation: moderation, rank: rank}
}

type ReviewReq struct {
	AdminNote string `json:"admin_note"`
}

type BanReq struct {
	Reason       string `json:"reason" binding:"required"`
	DurationDays *int   `json:"duration_days"`
	AdminNote    string `json:"admin_note"`
}

func (h *AdminHandler) PendingReports(c *gin.Context) {
	list, err := h.reports.Pending(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": list})
}

func (h *AdminHandler) Approve(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ReviewReq
	_ = c.ShouldBindJSON(&req)
	removed, err := h.moderation.Approve(c.Request.Context(), middleware.IdentityFrom(c), id, req.AdminNote)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *AdminHandler) Reject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ReviewReq
	_ = c.ShouldBindJSON(&req)
	if err := h.moderation.Reject(c.Request.Context(), middleware.IdentityFrom(c), id, req.AdminNote); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *AdminHandler) UserStats(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	st, err := h.moderation.UserStats(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) Ban(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req BanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, service.ErrInvalidBan)
		return
	}
	b, err := h.moderation.Ban(c.Request.Context(), middleware.IdentityFrom(c), service.BanInput{
		UserID:       id,
		Reason:       req.Reason,
		DurationDays: req.DurationDays,
		AdminNote:    req.AdminNote,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *AdminHandler) Unban(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := h.moderation.Unban(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lifted": n})
}

// RebuildRankings POST /api/admin/rankings/rebuild
func (h *AdminHandler) RebuildRankings(c *gin.Context) {
	if _, err := h.users.RequireAdmin(c.Request.Context(), middleware.IdentityFrom(c)); err != nil {
		fail(c, err)
		return
	}
	n, err := h.rank.Rebuild(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": n})
}
