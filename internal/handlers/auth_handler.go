package handlers

import (
	"errors"
	"strings"

	"github.com/finalword/backend/internal/dto"
	"github.com/finalword/backend/internal/middleware"
	"github.com/finalword/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.FullName == "" || !strings.Contains(req.Email, "@") {
		return badRequest(c, "Full name and a valid email are required")
	}
	if len(req.Password) < 8 {
		return badRequest(c, "Password must be at least 8 characters")
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return badRequest(c, "Passwords do not match")
	}

	pair, user, err := h.authService.Register(c.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateAccount) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "An account with this email already exists",
			})
		}
		return serverError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.RegisterResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        user.Email,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	pair, user, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid email or password",
			})
		}
		return serverError(c)
	}

	return c.JSON(dto.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		Email:        user.Email,
	})
}

func (h *AuthHandler) ExternalLogin(c *fiber.Ctx) error {
	var req dto.ExternalLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "Provider token is required")
	}

	pair, user, err := h.authService.ExternalLogin(c.Context(), req.Provider, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedProvider):
			return badRequest(c, "Unsupported identity provider")
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Identity verification failed",
			})
		}
		return serverError(c)
	}

	return c.JSON(dto.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		Email:        user.Email,
	})
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "Token is required")
	}

	pair, err := h.authService.Refresh(c.Context(), req.Token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid token",
			})
		}
		return serverError(c)
	}

	return c.JSON(dto.RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) RevokeToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "Token is required")
	}

	if err := h.authService.Revoke(c.Context(), req.Token); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid token",
			})
		}
		return serverError(c)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.authService.UserByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	return c.JSON(dto.UserResponse{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func serverError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
