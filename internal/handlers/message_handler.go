package handlers

import (
	"errors"
	"math"

	"github.com/finalword/backend/internal/dto"
	"github.com/finalword/backend/internal/middleware"
	"github.com/finalword/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	message, err := h.messageService.Create(c.Context(), userID, messageInput(&req))
	if err != nil {
		if errors.Is(err, services.ErrInvalidTrigger) {
			return badRequest(c, "Invalid trigger type")
		}
		return serverError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

func (h *MessageHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	pageSize := c.QueryInt("pageSize", 25)
	pageNumber := c.QueryInt("pageNumber", 1)

	messages, total, err := h.messageService.List(c.Context(), userID, pageSize, pageNumber)
	if err != nil {
		return serverError(c)
	}

	if pageSize < 1 {
		pageSize = 25
	}
	if pageNumber < 1 {
		pageNumber = 1
	}

	return c.JSON(dto.MessageListResponse{
		Data:       messages,
		PageSize:   pageSize,
		PageNumber: pageNumber,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

func (h *MessageHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return badRequest(c, "Invalid message id")
	}

	message, err := h.messageService.Get(c.Context(), userID, messageID)
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return serverError(c)
	}

	return c.JSON(message)
}

func (h *MessageHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return badRequest(c, "Invalid message id")
	}

	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.messageService.Update(c.Context(), userID, messageID, messageInput(&req)); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTrigger):
			return badRequest(c, "Invalid trigger type")
		case errors.Is(err, services.ErrMessageNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Message not found",
			})
		}
		return serverError(c)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return badRequest(c, "Invalid message id")
	}

	if err := h.messageService.Delete(c.Context(), userID, messageID); err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Message not found",
			})
		}
		return serverError(c)
	}

	return c.SendStatus(fiber.StatusOK)
}

func messageInput(req *dto.MessageRequest) *services.MessageInput {
	return &services.MessageInput{
		TriggerType:     req.TriggerType,
		TriggerDate:     req.TriggerDate,
		AfterInactivity: req.AfterInactivity,
		PhoneNumber:     req.PhoneNumber,
		SMSMessage:      req.SMSMessage,
		Email:           req.Email,
		EmailMessage:    req.EmailMessage,
		Files:           req.Files,
	}
}
