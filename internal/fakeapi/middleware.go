package fakeapi

import (
	"log"
	"net/http"
	"strings"

	"commerce-storefront/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	userCtxKey      = "fakeapi.user"
	requestIDCtxKey = "fakeapi.request_id"
	headerRequestID = "X-Request-ID"
)

// requestIDMiddleware echoes the caller's X-Request-ID, minting one when it
// is missing, and stamps it on the server span so the id and the trace can
// be joined.
func requestIDMiddleware(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDCtxKey, id)
		c.Header(headerRequestID, id)
		span := trace.SpanFromContext(c.Request.Context())
		span.SetAttributes(attribute.String("http.request_id", id))
		if sc := span.SpanContext(); sc.IsValid() {
			logger.Printf("fakeapi: request id=%s trace=%s span=%s", id, sc.TraceID(), sc.SpanID())
		}
		c.Next()
	}
}

// authMiddleware resolves the bearer token into the calling user.
func authMiddleware(b *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(c, http.StatusUnauthorized, "Vui lòng đăng nhập")
			return
		}
		u, err := b.LookupByToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(userCtxKey, u)
		c.Next()
	}
}

// adminMiddleware rejects authenticated non-admins with 403.
func adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := currentUser(c); !u.IsAdmin() {
			writeError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.UserSummary {
	v, _ := c.Get(userCtxKey)
	u, _ := v.(domain.UserSummary)
	return u
}
