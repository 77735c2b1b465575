package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/bidhub/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// AdminToken guards operator endpoints with a static bearer token.
// An empty token leaves the endpoints open.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := strings.TrimPrefix(c.GetHeader(authHeader), bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Operator token required", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
