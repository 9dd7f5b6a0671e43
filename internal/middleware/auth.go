package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/utils"
)

const (
	userContextKey   = "currentUserID"
	marketContextKey = "currentMarket"
)

// AuthMiddleware validates JWT tokens and loads the authenticated user ID and
// market into context. The token's market decides which database every
// downstream handler touches.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, mkt, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, userID)
		c.Locals(marketContextKey, mkt)
		return c.Next()
	}
}

// GetCurrentUser extracts the authenticated user ID and market from context.
func GetCurrentUser(c *fiber.Ctx) (uuid.UUID, market.Market, bool) {
	id, okID := c.Locals(userContextKey).(uuid.UUID)
	mkt, okMkt := c.Locals(marketContextKey).(market.Market)
	if !okID || !okMkt {
		return uuid.Nil, "", false
	}
	return id, mkt, true
}
