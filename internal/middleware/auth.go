package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/finalword/backend/internal/config"
	"github.com/finalword/backend/internal/dto"
	"github.com/finalword/backend/internal/store"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTProtected gates a route on a valid access token. Signature and expiry
// are the whole check; the token carries no roles.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.AccessTokenSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// GetUserID extracts the user id claim from the verified JWT in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	id, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing id claim")
	}

	return uuid.Parse(id)
}

// TrackActivity records the dead-man's-switch heartbeat: every
// authenticated request pushes the user's last_activity forward. Failures
// are logged and never fail the request.
func TrackActivity(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := GetUserID(c)
		if err != nil {
			return c.Next()
		}
		if err := users.TouchActivity(c.Context(), userID, time.Now().UTC()); err != nil {
			slog.Error("failed to update last activity", "user_id", userID, "error", err)
		}
		return c.Next()
	}
}
