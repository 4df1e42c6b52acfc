package handler

import (
	"net/http"

	"Title_Vote/internal/middleware"
	"Title_Vote/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users       *service.UserService
	suggestions *service.SuggestionService
	moderation  *service.ModerationService
}

func NewUserHandler(users *service.UserService, suggestions *service.SuggestionService, moderation *service.ModerationService) *UserHandler {
	return &UserHandler{users: users, suggestions: suggestions, moderation: moderation}
}

// Me GET /api/me resolves the caller, creating the user on first sight.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.users.Resolve(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	st, err := h.moderation.BanStatus(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "ban": st})
}

func (h *UserHandler) MySuggestions(c *gin.Context) {
	list, err := h.suggestions.Mine(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": list})
}

func (h *UserHandler) MyVotes(c *gin.Context) {
	list, err := h.suggestions.MyVotes(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": list})
}

// BanStatus GET /api/users/:id/ban
func (h *UserHandler) BanStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	st, err := h.moderation.BanStatus(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
