package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/http/response"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/services"
)

type BadgeHandler struct {
	log    *logger.Logger
	badges services.BadgeService
}

func NewBadgeHandler(log *logger.Logger, badges services.BadgeService) *BadgeHandler {
	return &BadgeHandler{
		log:    log.With("handler", "BadgeHandler"),
		badges: badges,
	}
}

// GET /api/me/badges
func (h *BadgeHandler) ListMine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.badges.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("ListMine failed", "error", err, "user_id", userID)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

type markSeenRequest struct {
	// Empty marks every unseen badge.
	BadgeIDs []uuid.UUID `json:"badge_ids"`
}

// POST /api/me/badges/seen
func (h *BadgeHandler) MarkSeen(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req markSeenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	n, err := h.badges.MarkSeen(c.Request.Context(), userID, req.BadgeIDs)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": n})
}
