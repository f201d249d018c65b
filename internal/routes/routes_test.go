package routes

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/signon-id/signon/internal/config"
	"github.com/signon-id/signon/internal/logging"
)

func devApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	cfg := config.Config{
		AppName:         "Signon",
		AppEnv:          "development",
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		MailFrom:        "noreply@signon.test",
	}
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app
}

func request(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(payload) > 0 && json.Valid(payload) {
		_ = json.Unmarshal(payload, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestSetupRequiresStoresOutsideDev(t *testing.T) {
	app := fiber.New()
	cfg := config.Config{AppEnv: "production"}
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err == nil {
		t.Fatalf("expected setup to fail without database in production")
	}
}

func TestRegisterThenManageProfile(t *testing.T) {
	app := devApp(t)

	status, body := request(t, app, fiber.MethodPost, "/api/v1/auth/sign-on",
		`{"email":"a@b.com","password":"pw","first_name":"Ada","last_name":"Lovelace"}`, "")
	if status != fiber.StatusCreated {
		t.Fatalf("sign-on: expected 201, got %d (%v)", status, body)
	}
	access, _ := body["access"].(string)
	if access == "" {
		t.Fatalf("expected access token, got %v", body)
	}

	// Profile endpoints reject anonymous callers.
	status, _ = request(t, app, fiber.MethodPost, "/api/v1/profile", `{"first_name":"Augusta"}`, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, body = request(t, app, fiber.MethodPost, "/api/v1/profile", `{"first_name":"Augusta"}`, access)
	if status != fiber.StatusOK || body["message"] != "Profile updated successfully" {
		t.Fatalf("profile update: got %d %v", status, body)
	}

	status, body = request(t, app, fiber.MethodGet, "/api/v1/me", "", access)
	if status != fiber.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	user, _ := body["user"].(map[string]any)
	if user == nil || user["first_name"] != "Augusta" {
		t.Fatalf("expected updated profile, got %v", body)
	}

	status, body = request(t, app, fiber.MethodPost, "/api/v1/profile/password",
		`{"current_password":"pw","new_password":"pw2"}`, access)
	if status != fiber.StatusOK || body["message"] != "Password updated successfully" {
		t.Fatalf("password update: got %d %v", status, body)
	}

	status, _ = request(t, app, fiber.MethodPost, "/api/v1/auth/sign-in", `{"email":"a@b.com","password":"pw2"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("sign-in with new password: expected 200, got %d", status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := devApp(t)

	status, body := request(t, app, fiber.MethodGet, "/healthz", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("healthz: expected 200, got %d (%v)", status, body)
	}
}
