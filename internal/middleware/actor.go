package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ActorHeader carries the id of the user acting on a request, as asserted by the gateway.
const ActorHeader = "X-Actor-ID"

const actorKey = "actorID"

// Actor records the acting user id from ActorHeader in the context for downstream handlers.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(ActorHeader)); id != "" {
			c.Set(actorKey, id)
		}
		c.Next()
	}
}

// GetActorFromContext retrieves the acting user id set by Actor.
func GetActorFromContext(c *gin.Context) (string, bool) {
	id, exists := c.Get(actorKey)
	if !exists {
		return "", false
	}
	s, ok := id.(string)
	return s, ok && s != ""
}
