package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error codes that do not come from an account error kind.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ErrorCode string    `json:"errorCode"`
	Errors    []string  `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

var statusByKind = map[common.Kind]int{
	common.KindDuplicateEmail:     http.StatusConflict,
	common.KindDuplicateUsername:  http.StatusConflict,
	common.KindPasswordMismatch:   http.StatusBadRequest,
	common.KindInvalidPassword:    http.StatusBadRequest,
	common.KindInvalidRole:        http.StatusBadRequest,
	common.KindInvalidToken:       http.StatusBadRequest,
	common.KindAccountNotFound:    http.StatusNotFound,
	common.KindAddressNotFound:    http.StatusNotFound,
	common.KindInvalidCredentials: http.StatusUnauthorized,
	common.KindAccountNotVerified: http.StatusForbidden,
	common.KindInternal:           http.StatusInternalServerError,
}

// describe maps err to a status, an error code and a client-safe message.
func describe(err error) (int, string, string) {
	switch {
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, CodeRefreshTokenExpired, err.Error()
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, CodeTokenExpired, err.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized, err.Error()
	}

	kind := common.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, string(kind), common.MessageOf(err)
}

func abortWithError(c *gin.Context, status int, code, message string, details ...string) {
	if details == nil {
		details = []string{message}
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Message:   message,
		ErrorCode: code,
		Errors:    details,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, code, message := describe(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	} else {
		h.log.Debug(c.Request.Context(), "request rejected", "path", c.FullPath(), "code", code)
	}
	abortWithError(c, status, code, message)
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "email":
				details = append(details, fmt.Sprintf("%s must be a valid email", field))
			case "max":
				details = append(details, fmt.Sprintf("%s must be at most %s characters", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		abortWithError(c, http.StatusBadRequest, CodeValidationFailed, "Validation Failed", details...)
		return
	}

	abortWithError(c, http.StatusBadRequest, CodeValidationFailed, "invalid body", err.Error())
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
