package fakeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"commerce-storefront/internal/domain"
	"github.com/gin-gonic/gin"
)

// timestampLayout matches the backend's LocalDateTime rendering.
const timestampLayout = "2006-01-02T15:04:05"

type envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC().Format(timestampLayout),
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC().Format(timestampLayout),
	})
}

// writeError maps service errors onto statuses and user-facing messages.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, messageOf(err, domain.ErrNotFound))
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, messageOf(err, domain.ErrInvalidInput))
	case errors.Is(err, domain.ErrAlreadyExists):
		respondError(c, http.StatusConflict, messageOf(err, domain.ErrAlreadyExists))
	case errors.Is(err, ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Email hoặc mật khẩu không đúng")
	case errors.Is(err, ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, "Phiên đăng nhập đã hết hạn")
	case errors.Is(err, ErrForbidden):
		respondError(c, http.StatusForbidden, "Bạn không có quyền thực hiện thao tác này")
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "Đã có lỗi xảy ra")
	}
}

// messageOf strips the wrapped sentinel from err's text.
func messageOf(err, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, domain.ErrAlreadyExists)
}
