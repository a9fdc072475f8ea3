package handlers

import (
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users   *services.UserService
	metrics Recorder
}

func NewUserHandler(users *services.UserService, rec Recorder) *UserHandler {
	return &UserHandler{users: users, metrics: recorderOrNoop(rec)}
}

// Sync handles POST /api/users/sync. Token claims win over body fields.
func (h *UserHandler) Sync(c *fiber.Ctx) error {
	id, err := identity.Get(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SyncUserRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid request body",
			})
		}
	}

	in := services.SyncUserInput{ExternalID: id.ExternalID, Name: id.Name, Email: id.Email}
	if in.Name == "" {
		in.Name = req.Name
	}
	if in.Email == "" {
		in.Email = req.Email
	}

	user, created, err := h.users.Sync(c.UserContext(), in)
	if err != nil {
		return writeServiceError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(dto.SyncUserResponse{Created: created, User: toUserResponse(user)})
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	id, err := identity.Get(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	user, err := h.users.Get(c.UserContext(), id.ExternalID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(toUserResponse(user))
}

// AddPoints handles POST /api/admin/users/points.
func (h *UserHandler) AddPoints(c *fiber.Ctx) error {
	var req dto.AddPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	user, err := h.users.AddPoints(c.UserContext(), req.UserID, req.Points)
	if err != nil {
		return writeServiceError(c, err)
	}
	h.metrics.AddPoints("admin", req.Points)
	return c.JSON(toUserResponse(user))
}
