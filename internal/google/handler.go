package google

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the federated login endpoint.
type Handler struct {
	svc *Service
}

// NewHandler constructs the Google login HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	Token string `json:"token"`
}

// Login authenticates a Google ID token. Token problems (including a
// rejected issuer) come back as 400 with the reason; anything else is a
// server fault.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	session, err := h.svc.Login(c.UserContext(), req.Token)
	switch {
	case errors.Is(err, ErrTokenMissing), errors.Is(err, ErrInvalidToken):
		return errorResponse(c, http.StatusBadRequest, err.Error())
	case err != nil:
		return errorResponse(c, http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(session)
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "error_message": message})
}
