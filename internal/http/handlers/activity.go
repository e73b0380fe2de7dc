package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/kinship-backend/internal/http/response"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/services"
)

type ActivityHandler struct {
	log        *logger.Logger
	activities services.ActivityService
}

func NewActivityHandler(log *logger.Logger, activities services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		log:        log.With("handler", "ActivityHandler"),
		activities: activities,
	}
}

// POST /api/me/activity
func (h *ActivityHandler) Record(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.ActivityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.activities.RecordActivity(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	badges := make([]gin.H, 0, len(res.Awards))
	for _, a := range res.Awards {
		badges = append(badges, gin.H{"badge": a.Badge, "awarded": a.UserBadge})
	}
	response.RespondOK(c, gin.H{"recorded": res.Recorded, "badges": badges})
}
