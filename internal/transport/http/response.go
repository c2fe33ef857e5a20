// http реализует REST-транспорт сервиса: маршрутизацию, middleware
// (request-id, логирование, recovery, аутентификация, метрики) и единый
// конверт ответа {code, description, data}.
package http

import (
	"errors"
	"net/http"

	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
)

// Коды конверта ответа. code=0 — успех, ненулевые коды транслируются
// в HTTP-статусы (см. statusFor).
const (
	CodeOK              = 0
	CodeBadRequest      = 1001
	CodeAccessDenied    = 1002
	CodeNotFound        = 1003
	CodeConflict        = 1004
	CodeUnprocessable   = 1005
	CodeServerError     = 1006
	CodeUnauthenticated = 1007
)

// Response — единый конверт всех ответов API.
type Response struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Data        any    `json:"data,omitempty"`
	// LogID — корреляционный идентификатор запроса для трассировки на сервере.
	LogID string `json:"log_id,omitempty"`
}

// statusFor переводит код конверта в HTTP-статус.
func statusFor(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnprocessable:
		return http.StatusUnprocessableEntity
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeSuccess отправляет успешный конверт с данными.
func writeSuccess(c *gin.Context, data any, description string) {
	if description == "" {
		description = "Request completed successfully."
	}

	c.JSON(http.StatusOK, Response{
		Code:        CodeOK,
		Description: description,
		Data:        data,
		LogID:       requestID(c),
	})
}

// writeError переводит ошибку сервиса в конверт со стабильным кодом.
// Неожиданные ошибки не выносят внутренних деталей наружу — только
// корреляционный идентификатор.
func writeError(c *gin.Context, err error) {
	code, description := envelopeFor(err)

	c.JSON(statusFor(code), Response{
		Code:        code,
		Description: description,
		LogID:       requestID(c),
	})
}

// writeCode отправляет конверт с заданным кодом и описанием.
func writeCode(c *gin.Context, code int, description string) {
	c.JSON(statusFor(code), Response{
		Code:        code,
		Description: description,
		LogID:       requestID(c),
	})
}

// envelopeFor маппит ошибки бизнес-логики на коды конверта.
func envelopeFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrMalformedToken),
		errors.Is(err, service.ErrInvalidTask),
		errors.Is(err, service.ErrEmptyMessage):
		return CodeBadRequest, "Oops! Something seems off with your request. Please check and try again."
	case errors.Is(err, service.ErrInvalidTenant):
		return CodeAccessDenied, "Invalid TenantId provided."
	case errors.Is(err, service.ErrInvalidCredentials):
		return CodeAccessDenied, "Invalid password."
	case errors.Is(err, service.ErrInvalidOTP):
		return CodeAccessDenied, "Invalid or expired OTP."
	case errors.Is(err, service.ErrAccessDenied):
		return CodeAccessDenied, "Access denied..!!"
	case errors.Is(err, service.ErrNotFound):
		return CodeNotFound, "We couldn't find what you're looking for."
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrTenantExists):
		return CodeConflict, "A conflict occurred with your request."
	case errors.Is(err, service.ErrWeakPassword):
		return CodeUnprocessable, "Password does not meet the complexity policy."
	case errors.Is(err, service.ErrInvalidAccessToken),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return CodeUnauthenticated, "Authentication required. Please log in."
	default:
		return CodeServerError, "Something went wrong on our end. Please try again later."
	}
}
