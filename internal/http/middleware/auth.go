package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/identity"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type AuthMiddleware struct {
	log      *logger.Logger
	verifier identity.Verifier
}

func NewAuthMiddleware(log *logger.Logger, verifier identity.Verifier) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), verifier: verifier}
}

// RequireAuth resolves the caller from ?token= (WebSocket clients cannot set
// headers) or an Authorization bearer header.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			abortUnauthorized(c, "missing or invalid token")
			return
		}
		rd, err := am.verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err, "path", c.Request.URL.Path)
			abortUnauthorized(c, err.Error())
			return
		}
		if rd == nil || strings.TrimSpace(rd.UserID) == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": "forbidden", "code": "forbidden"},
			})
			return
		}
		rd.TokenString = tokenString
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"message": msg, "code": "unauthorized"},
	})
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
