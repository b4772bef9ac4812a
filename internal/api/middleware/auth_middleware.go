package middleware

import (
	"net/http"
	"strings"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	ActorKey                = "actor"
	LoginRedirect           = "/auth/login"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the bearer token and stores the caller as a domain.Actor.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header", "redirect": LoginRedirect})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format", "redirect": LoginRedirect})
			return
		}

		actor, err := m.authService.ValidateToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "details": err.Error(), "redirect": LoginRedirect})
			return
		}

		c.Set(ActorKey, actor)
		ctx := c.Request.Context()
		logger := zerolog.Ctx(ctx).With().Int("user_id", actor.UserID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))
		c.Next()
	}
}

// CurrentActor returns the authenticated caller, or the zero Actor.
func CurrentActor(c *gin.Context) domain.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

func RequireAdmin() gin.HandlerFunc {
	return requireRole(service.RequireAdmin)
}

func RequireUser() gin.HandlerFunc {
	return requireRole(service.RequireUser)
}

func requireRole(check func(domain.Actor) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if err := check(actor); err != nil {
			zerolog.Ctx(c.Request.Context()).Info().
				Str("role", actor.Role()).
				Str("path", c.FullPath()).
				Msg("access denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error(), "redirect": LoginRedirect})
			return
		}
		c.Next()
	}
}
