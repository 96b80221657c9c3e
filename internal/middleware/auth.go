package middleware

import (
	"context"
	"errors"
	"net/http"

	"taskboard-be/config"
	"taskboard-be/internal/handlers"
	"taskboard-be/internal/models"
	"taskboard-be/internal/services"
	"taskboard-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ActorResolver turns a bearer token into an actor.
type ActorResolver interface {
	ResolveActor(ctx context.Context, token, secret string) (models.Actor, error)
}

// AuthMiddleware resolves the bearer token and stores the actor in the
// context. Requests without a valid token never reach the handlers.
func AuthMiddleware(cfg *config.Config, resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := utils.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "AUTH_REQUIRED",
				Message: "Authorization header with a bearer token is required",
			})
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), token, cfg.JWTSecret)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "INVALID_TOKEN",
					Message: "Invalid or expired token",
				})
				return
			}
			logrus.WithError(err).Error("resolve actor")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   string(services.KindUnavailable),
				Message: "Identity store unavailable",
			})
			return
		}

		c.Set(handlers.ActorKey, actor)
		c.Set("userID", actor.UserID)
		c.Next()
	}
}
