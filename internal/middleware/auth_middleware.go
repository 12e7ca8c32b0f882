package middleware

import (
	"errors"
	"strings"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/services"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by AuthRequired.
const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
	ContextActor    = "actor"
)

// AuthRequired resolves the bearer credential into an actor and sets user
// context. Browsers cannot set headers on a websocket handshake, so the
// access_token query parameter is accepted as a fallback.
func AuthRequired(identity services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearerToken(c.GetHeader("Authorization"))
		if credential == "" {
			credential = c.Query("access_token")
		}
		if credential == "" {
			utils.HandleError(c, utils.NewAuthError("Authorization header required", nil))
			c.Abort()
			return
		}

		actor, err := identity.Resolve(c.Request.Context(), credential)
		if err != nil {
			if !errors.Is(err, utils.ErrDependency) {
				logger.WithContext(c.Request.Context()).LogSecurityEvent("authentication_failed", "medium", logger.Fields{
					"path":      c.FullPath(),
					"client_ip": c.ClientIP(),
				})
			}
			utils.HandleError(c, err)
			c.Abort()
			return
		}

		// Set user context
		c.Set(ContextUserID, actor.ID)
		c.Set(ContextUserRole, string(actor.Role))
		c.Set(ContextActor, actor)
		c.Request = c.Request.WithContext(logger.ContextWithActor(c.Request.Context(), actor.ID, string(actor.Role)))

		c.Next()
	}
}

// RoleRequired ensures the authenticated actor holds one of roles.
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	message := "requires role " + strings.Join(allowed, " or ")

	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			utils.HandleError(c, utils.NewAuthError(utils.MsgInvalidToken, nil))
			c.Abort()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		utils.HandleError(c, utils.NewUnauthorizedError(message))
		c.Abort()
	}
}

func VehicleDriverRequired() gin.HandlerFunc {
	return RoleRequired(models.RoleVehicleDriver)
}

func AmbulanceDriverRequired() gin.HandlerFunc {
	return RoleRequired(models.RoleAmbulanceDriver)
}

func HospitalAdminRequired() gin.HandlerFunc {
	return RoleRequired(models.RoleHospitalAdmin)
}

// CurrentActor returns the actor set by AuthRequired, or nil.
func CurrentActor(c *gin.Context) *models.Actor {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil
	}
	actor, _ := v.(*models.Actor)
	return actor
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
