package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// bearerAuth validates the access token and stores its claims in the context.
func bearerAuth(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(common.AuthorizationHeaderName))
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "missing token")
			return
		}

		token, found := strings.CutPrefix(raw, common.BearerPrefix)
		if !found || token == "" {
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
			return
		}

		claims, err := sessions.Authenticate(token)
		if err != nil {
			status, code, message := describe(err)
			abortWithError(c, status, code, message)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// ownerOrAdmin admits the account named by the :id parameter and admins.
func ownerOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if claims == nil || (claims.AccountID != c.Param("id") && claims.Role != models.RoleAdmin) {
			abortWithError(c, http.StatusForbidden, CodeForbidden, "access denied")
			return
		}
		c.Next()
	}
}

func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if claims == nil || claims.Role != models.RoleAdmin {
			abortWithError(c, http.StatusForbidden, CodeForbidden, "access denied")
			return
		}
		c.Next()
	}
}

func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
