package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/signon-id/signon/internal/identity"
	"github.com/signon-id/signon/internal/passcode"
)

// Handler exposes registration, sign-in and passcode endpoints.
type Handler struct {
	ids   *identity.Service
	svc   *Service
	codes *passcode.Service
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(ids *identity.Service, svc *Service, codes *passcode.Service) *Handler {
	return &Handler{ids: ids, svc: svc, codes: codes}
}

type signOnRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SignOn registers a new account and returns a token pair for it.
func (h *Handler) SignOn(c *fiber.Ctx) error {
	var req signOnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.ids.Register(c.UserContext(), identity.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"warning": "The email is already registered."})
	case errors.Is(err, identity.ErrValidation):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	session, err := h.svc.Session(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(session)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Passcode string `json:"passcode"`
}

// SignIn authenticates with a password or a passcode and returns tokens.
// Every failure is the same 401 body.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := h.svc.SignIn(c.UserContext(), req.Email, req.Password, req.Passcode)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(session)
}

type issueCodeRequest struct {
	Email        string `json:"email"`
	SubjectEmail string `json:"subject_email"`
}

// VerificationCode issues a sign-on passcode to a not-yet-registered
// address. The plaintext code is echoed in the response; this is the only
// flow that does so.
func (h *Handler) VerificationCode(c *fiber.Ctx) error {
	var req issueCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	code, err := h.codes.IssueSignIn(c.UserContext(), req.Email)
	switch {
	case errors.Is(err, passcode.ErrEmailRequired):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email is required"})
	case errors.Is(err, identity.ErrEmailTaken):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "The email is already registered."})
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"passcode": code})
}

// PasswordCode issues a reset passcode to an existing user. The code
// travels only through email; the response is a generic acknowledgment.
func (h *Handler) PasswordCode(c *fiber.Ctx) error {
	var req issueCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := h.codes.IssueReset(c.UserContext(), req.Email, req.SubjectEmail)
	switch {
	case errors.Is(err, passcode.ErrEmailRequired):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email is required"})
	case errors.Is(err, identity.ErrUserNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Password code sent"})
}

type passwordResetRequest struct {
	Passcode    string `json:"passcode"`
	NewPassword string `json:"new_password"`
}

// PasswordReset redeems a reset passcode and replaces the owner's
// password.
func (h *Handler) PasswordReset(c *fiber.Ctx) error {
	var req passwordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := h.codes.RedeemReset(c.UserContext(), req.Passcode, req.NewPassword)
	switch {
	case errors.Is(err, passcode.ErrFieldsRequired):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Passcode and new password are required"})
	case errors.Is(err, passcode.ErrInvalidCode):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired code"})
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Password reset successful"})
}
