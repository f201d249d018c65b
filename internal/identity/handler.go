package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the authenticated profile endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type updateProfileRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UpdateProfile applies a partial update to the authenticated user.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.SendStatus(http.StatusUnauthorized)
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	_, err := h.service.UpdateProfile(c.UserContext(), userID, ProfileChanges{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	switch {
	case errors.Is(err, ErrValidation):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrEmailTaken):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "The email is already registered."})
	case errors.Is(err, ErrUserNotFound):
		return c.SendStatus(http.StatusUnauthorized)
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Profile updated successfully"})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword replaces the authenticated user's password after
// verifying the current one.
func (h *Handler) UpdatePassword(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.SendStatus(http.StatusUnauthorized)
	}

	var req updatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := h.service.UpdatePassword(c.UserContext(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, ErrValidation):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Both current and new passwords are required"})
	case errors.Is(err, ErrBadCredentials):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Current password is incorrect"})
	case errors.Is(err, ErrUserNotFound):
		return c.SendStatus(http.StatusUnauthorized)
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Password updated successfully"})
}
