package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/signon-id/signon/internal/identity"
)

// RegisterProfileRoutes wires the authenticated profile endpoints.
func RegisterProfileRoutes(r fiber.Router, h *identity.Handler, repo identity.Repository) {
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := repo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user":       identity.NewProfile(user),
			"active":     user.Active,
			"staff":      user.Staff,
			"created_at": user.CreatedAt,
			"last_login": user.LastLogin,
		})
	})
	r.Post("/profile", h.UpdateProfile)
	r.Post("/profile/password", h.UpdatePassword)
}
