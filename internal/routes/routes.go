package routes

import (
	"time"

	"github.com/finalword/backend/internal/config"
	"github.com/finalword/backend/internal/handlers"
	"github.com/finalword/backend/internal/middleware"
	"github.com/finalword/backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	users store.UserStore,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	messageHandler *handlers.MessageHandler,
	healthHandler *handlers.HealthHandler,
) {
	app.Get("/health", healthHandler.Check)

	v1 := app.Group("/v1")

	// General API rate limiter: 60 req/min per IP
	v1.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public auth endpoints get a stricter rate limit against credential stuffing.
	auth := v1.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/external-login", authHandler.ExternalLogin)
	auth.Post("/refresh-token", authHandler.RefreshToken)
	auth.Post("/revoke-token", authHandler.RevokeToken)
	auth.Get("/me", middleware.JWTProtected(cfg), authHandler.Me)

	// Identity-scoped routes. Every authenticated hit refreshes the
	// owner's last_activity heartbeat.
	protected := v1.Group("/", middleware.JWTProtected(cfg), middleware.TrackActivity(users))
	protected.Get("/profile", profileHandler.Get)
	protected.Patch("/profile", profileHandler.Update)

	protected.Post("/messages", messageHandler.Create)
	protected.Get("/messages", messageHandler.List)
	protected.Get("/messages/:messageId", messageHandler.Get)
	protected.Put("/messages/:messageId", messageHandler.Update)
	protected.Delete("/messages/:messageId", messageHandler.Delete)
}
