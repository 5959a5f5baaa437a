package middleware

import (
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/client"
	"github.com/noah-isme/club-portal/internal/models"
	"github.com/noah-isme/club-portal/internal/service"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
	"github.com/noah-isme/club-portal/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token. The raw token and
// request id are placed on the request context so upstream calls carry them.
func JWT(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		ctx := client.WithToken(c.Request.Context(), token)
		if id := requestid.Get(c); id != "" {
			ctx = client.WithRequestID(ctx, id)
		}
		ctx = service.WithRequestMeta(ctx, models.RequestMeta{
			UserID:    claims.UserID,
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
