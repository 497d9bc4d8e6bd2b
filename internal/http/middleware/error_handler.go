package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/telehealth-backend/internal/logger"
	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
)

const internalErrorMessage = "внутренняя ошибка сервера"

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает клиенту {"error", "code"}.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		statusCode, code, message := describeError(err)

		fields := logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": statusCode,
			"code":   code,
		}
		if statusCode >= http.StatusInternalServerError {
			logger.Log.WithFields(fields).Error("Request error")
		} else {
			logger.Log.WithFields(fields).Warn("Request rejected")
		}

		c.JSON(statusCode, gin.H{"error": message, "code": code})
	}
}

func describeError(err *gin.Error) (int, apperror.ErrorCode, string) {
	if appErr, ok := apperror.As(err.Err); ok {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			return status, appErr.Code, internalErrorMessage
		}
		return status, appErr.Code, appErr.Message
	}

	if err.IsType(gin.ErrorTypeBind) {
		return http.StatusBadRequest, apperror.ErrCodeValidation, "некорректное тело запроса: " + err.Error()
	}

	// Ошибка без кода: показываем текст, только если он не похож на внутренний
	errStr := err.Error()
	if errStr != "" && !containsInternalKeywords(errStr) {
		return http.StatusBadRequest, apperror.ErrCodeBadRequest, errStr
	}
	return http.StatusInternalServerError, apperror.ErrCodeInternal, internalErrorMessage
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"pq:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
