package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/signon-id/signon/internal/identity"
)

func ctxb() context.Context { return context.Background() }

func setupApp(f fixture) *fiber.App {
	app := fiber.New()
	h := NewHandler(f.ids, f.svc, f.codes)
	group := app.Group("/api/v1/auth")
	group.Post("/sign-on", h.SignOn)
	group.Post("/sign-in", h.SignIn)
	group.Post("/password-code", h.PasswordCode)
	group.Post("/password-reset", h.PasswordReset)
	group.Post("/verification-code", h.VerificationCode)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s: %v", path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("decode %q: %v", payload, err)
		}
	}
	return resp.StatusCode, decoded
}

func TestSignInEndpointUnknownPasscode(t *testing.T) {
	f := newFixture()
	app := setupApp(f)

	status, body := postJSON(t, app, "/api/v1/auth/sign-in", `{"email":"x@y.com","passcode":"000000"}`)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if body["error"] != "Invalid credentials" {
		t.Fatalf("expected uniform error body, got %v", body)
	}
}

func TestSignOnEndpointConflict(t *testing.T) {
	f := newFixture()
	app := setupApp(f)

	status, body := postJSON(t, app, "/api/v1/auth/sign-on", `{"email":"a@b.com","password":"pw","first_name":"Ada"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", status, body)
	}
	if body["access"] == "" || body["refresh"] == "" {
		t.Fatalf("expected tokens in response, got %v", body)
	}

	status, body = postJSON(t, app, "/api/v1/auth/sign-on", `{"email":"a@b.com","password":"pw"}`)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if body["warning"] != "The email is already registered." {
		t.Fatalf("expected conflict warning, got %v", body)
	}
}

func TestVerificationCodeEndpointValidation(t *testing.T) {
	f := newFixture()
	app := setupApp(f)

	status, body := postJSON(t, app, "/api/v1/auth/verification-code", `{}`)
	if status != fiber.StatusBadRequest || body["error"] != "Email is required" {
		t.Fatalf("expected 400 email required, got %d %v", status, body)
	}

	if _, err := f.ids.Register(ctxb(), identity.RegisterInput{Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	status, body = postJSON(t, app, "/api/v1/auth/verification-code", `{"email":"a@b.com"}`)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for registered email, got %d %v", status, body)
	}
}

func TestPasswordCodeEndpointNotFound(t *testing.T) {
	f := newFixture()
	app := setupApp(f)

	status, body := postJSON(t, app, "/api/v1/auth/password-code", `{"email":"ghost@b.com"}`)
	if status != fiber.StatusNotFound || body["error"] != "User not found" {
		t.Fatalf("expected 404 user not found, got %d %v", status, body)
	}
}

func TestPasswordResetEndpointFlow(t *testing.T) {
	f := newFixture()
	app := setupApp(f)

	user, err := f.ids.Register(ctxb(), identity.RegisterInput{Email: "a@b.com", Password: "old"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.store.Create(ctxb(), user.ID, "246810"); err != nil {
		t.Fatalf("create code: %v", err)
	}

	status, body := postJSON(t, app, "/api/v1/auth/password-reset", `{"passcode":"246810","new_password":"P2"}`)
	if status != fiber.StatusOK || body["message"] != "Password reset successful" {
		t.Fatalf("expected reset success, got %d %v", status, body)
	}

	status, _ = postJSON(t, app, "/api/v1/auth/sign-in", `{"email":"a@b.com","password":"P2"}`)
	if status != fiber.StatusOK {
		t.Fatalf("new password must sign in, got %d", status)
	}
	status, _ = postJSON(t, app, "/api/v1/auth/sign-in", `{"email":"a@b.com","password":"old"}`)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("old password must be rejected, got %d", status)
	}

	status, body = postJSON(t, app, "/api/v1/auth/password-reset", `{"passcode":"246810","new_password":"P3"}`)
	if status != fiber.StatusBadRequest || body["error"] != "Invalid or expired code" {
		t.Fatalf("expected invalid code on reuse, got %d %v", status, body)
	}
}

func TestPasswordResetEndpointMissingFields(t *testing.T) {
	f := newFixture()
	app := setupApp(f)

	status, body := postJSON(t, app, "/api/v1/auth/password-reset", `{"passcode":"123456"}`)
	if status != fiber.StatusBadRequest || body["error"] != "Passcode and new password are required" {
		t.Fatalf("expected 400 missing fields, got %d %v", status, body)
	}
}

func TestSignInEndpointWithIssuedPasscode(t *testing.T) {
	f := newFixture()
	app := setupApp(f)

	user, err := f.ids.Register(ctxb(), identity.RegisterInput{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	rec, err := f.store.Create(ctxb(), user.ID, "135791")
	if err != nil {
		t.Fatalf("create code: %v", err)
	}

	status, body := postJSON(t, app, "/api/v1/auth/sign-in", `{"email":"a@b.com","passcode":"`+rec.Code+`"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	userBody, ok := body["user"].(map[string]any)
	if !ok || userBody["email"] != "a@b.com" {
		t.Fatalf("expected user in body, got %v", body)
	}
}
