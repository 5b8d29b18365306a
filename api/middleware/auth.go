package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/trackscan/trackscan/models"
)

// IdentityKey is the gin context key under which Auth stores the accepted
// API key. The rate limiter reads it to bucket callers per key instead of
// per IP.
const IdentityKey = "api_key"

// Auth returns API-key middleware accepting either header style:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// With no keys configured the middleware passes everything through, the
// expected shape for single-user localhost deployments.
func Auth(apiKeys []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			allowed[k] = true
		}
	}
	if len(allowed) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := clientKey(c)
		switch {
		case key == "":
			unauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
		case !allowed[key]:
			unauthorized(c, "invalid API key")
		default:
			c.Set(IdentityKey, key)
			c.Next()
		}
	}
}

// clientKey pulls the credential out of the request, trying X-API-Key
// before the Authorization header.
func clientKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return bearer
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.AnalyzeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
