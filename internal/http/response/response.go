package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/kinship-backend/internal/domain/aggregates"
	"github.com/yungbote/kinship-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr maps an apierr or aggregate error to its HTTP status. Anything
// unrecognised is a 500 with the message withheld.
func RespondErr(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal server error"))
		return
	}
	RespondError(c, status, code, err)
}

func StatusFor(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	var api *apierr.Error
	if errors.As(err, &api) && api.Status != 0 {
		return api.Status, api.Code
	}
	switch code := domainagg.CodeOf(err); code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest, string(code)
	case domainagg.CodeNotEnrolled:
		return http.StatusForbidden, string(code)
	case domainagg.CodeNotFound:
		return http.StatusNotFound, string(code)
	case domainagg.CodeConflict, domainagg.CodeRetryable:
		return http.StatusConflict, string(code)
	case domainagg.CodePreconditionFailed:
		return http.StatusPreconditionFailed, string(code)
	}
	return http.StatusInternalServerError, "internal"
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
