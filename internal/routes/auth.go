package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/signon-id/signon/internal/auth"
	"github.com/signon-id/signon/internal/google"
)

// RegisterAuthRoutes wires registration, sign-in and passcode endpoints.
// The idempotency middleware, when present, guards the two code-issuance
// endpoints so client retries do not mint duplicate codes.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, g *google.Handler, idem fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/sign-on", h.SignOn)
	group.Post("/sign-in", h.SignIn)
	group.Post("/google", g.Login)
	group.Post("/password-reset", h.PasswordReset)
	if idem != nil {
		group.Post("/verification-code", idem, h.VerificationCode)
		group.Post("/password-code", idem, h.PasswordCode)
	} else {
		group.Post("/verification-code", h.VerificationCode)
		group.Post("/password-code", h.PasswordCode)
	}
}
