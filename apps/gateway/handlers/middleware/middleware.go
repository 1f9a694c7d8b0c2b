package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Provide(NewMiddleware)

type (
	Middleware interface {
		CheckAuth(role structs.Role) gin.HandlerFunc
		Ctx() gin.HandlerFunc
	}

	Params struct {
		fx.In

		Logger logger.Logger
	}

	mw struct {
		logger logger.Logger
	}
)

func NewMiddleware(params Params) Middleware {
	return &mw{
		logger: params.Logger,
	}
}

// CheckAuth requires a bearer token carrying the given role and stashes the
// actor identity on the gin context.
func (m *mw) CheckAuth(role structs.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		authToken := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if authToken == "" {
			authToken = c.Query("token")
		}
		if authToken == "" {
			m.logger.Warn(ctx, "empty auth token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := utils.ParseJWT(authToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		actorID, ok := claims["id"].(string)
		if !ok || actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid actor id in token"})
			return
		}
		tokenRole, _ := claims["role"].(string)
		if structs.Role(tokenRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "wrong role"})
			return
		}

		c.Set("actor_id", actorID)
		c.Set("role", tokenRole)

		c.Next()
	}
}

func (m *mw) Ctx() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ctx context.Context = c.Request.Context()
		ctx = m.logger.Context(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
