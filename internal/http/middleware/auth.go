package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casegen-backend/internal/http/response"
	"github.com/yungbote/casegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/services"
)

var (
	errMissingToken = errors.New("missing or invalid token")
	errForbidden    = errors.New("forbidden")
)

type AuthMiddleware struct {
	log      *logger.Logger
	identity services.IdentityService
}

func NewAuthMiddleware(log *logger.Logger, identity services.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), identity: identity}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !am.identity.Configured() {
			_, err := am.identity.Verify(c.Request.Context(), "")
			response.RespondErr(c, err)
			return
		}
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingToken)
			return
		}
		ctx, err := am.identity.Verify(c.Request.Context(), tokenString)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		if ctxutil.UserID(ctx) == "" {
			response.RespondError(c, http.StatusForbidden, "forbidden", errForbidden)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
