package handlers

import (
	"errors"

	"github.com/finalword/backend/internal/dto"
	"github.com/finalword/backend/internal/middleware"
	"github.com/finalword/backend/internal/models"
	"github.com/finalword/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.profileService.Get(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return serverError(c)
	}

	return c.JSON(profileResponse(user))
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.FullName == "" {
		return badRequest(c, "Full name is required")
	}

	user, err := h.profileService.UpdateFullName(c.Context(), userID, req.FullName)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return serverError(c)
	}

	return c.JSON(profileResponse(user))
}

func profileResponse(user *models.User) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:             user.ID,
		FullName:       user.FullName,
		Email:          user.Email,
		LastActivity:   user.LastActivity,
		EmailConfirmed: user.EmailConfirmed,
	}
}
