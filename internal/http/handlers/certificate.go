package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/kinship-backend/internal/http/response"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/services"
)

type CertificateHandler struct {
	log          *logger.Logger
	certificates services.CertificateService
}

func NewCertificateHandler(log *logger.Logger, certificates services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		log:          log.With("handler", "CertificateHandler"),
		certificates: certificates,
	}
}

// GET /api/me/certificates
func (h *CertificateHandler) ListMine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	certs, err := h.certificates.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("ListMine failed", "error", err, "user_id", userID)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificates": certs})
}

// GET /api/certificates/:certificateId (public)
func (h *CertificateHandler) Verify(c *gin.Context) {
	cert, err := h.certificates.Verify(c.Request.Context(), c.Param("certificateId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"certificate_id": cert.CertificateID,
		"course_id":      cert.CourseID,
		"issue_date":     cert.IssueDate,
		"status":         cert.Status,
		"image_url":      cert.ImageURL,
	})
}
