package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/kinship-backend/internal/http/response"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		progress: progress,
	}
}

// POST /api/courses/:id/lessons/:lessonId/complete
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	lessonID, ok := uuidParam(c, "lessonId", "invalid_lesson_id")
	if !ok {
		return
	}
	out, err := h.progress.RecordLessonCompletion(c.Request.Context(), userID, courseID, lessonID)
	if err != nil {
		h.log.Warn("CompleteLesson failed", "error", err, "user_id", userID, "course_id", courseID, "lesson_id", lessonID)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/courses/:id/enrollment
func (h *ProgressHandler) GetEnrollment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	e, err := h.progress.GetEnrollment(c.Request.Context(), userID, courseID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": e})
}
