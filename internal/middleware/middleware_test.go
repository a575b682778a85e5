package middleware_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/moosefactory/registrar-api/internal/auth"
	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/middleware"
	"github.com/moosefactory/registrar-api/internal/models"
)

const testSecret = "middleware-test-secret"

type stubDirectory struct {
	user models.User
	err  error
}

func (d *stubDirectory) EnsureUser(_ context.Context, principal auth.Principal) (models.User, error) {
	if d.err != nil {
		return models.User{}, d.err
	}
	user := d.user
	if user.Email == "" {
		user.Email = principal.Email
	}
	return user, nil
}

func (d *stubDirectory) GetByEmail(context.Context, string) (models.User, error) {
	return models.User{}, nil
}

func (d *stubDirectory) ListUsers(context.Context, dto.UserListRequest) (dto.UserListResponse, error) {
	return dto.UserListResponse{}, nil
}

func (d *stubDirectory) SetRole(context.Context, models.User, string, string) (models.User, error) {
	return models.User{}, nil
}

func (d *stubDirectory) SetStatus(context.Context, models.User, string, string) (models.User, error) {
	return models.User{}, nil
}

func (d *stubDirectory) Summary(context.Context) (dto.AdminSummaryResponse, error) {
	return dto.AdminSummaryResponse{}, nil
}

func (d *stubDirectory) StoreSignature(context.Context, models.User, []byte) (dto.SignatureResponse, error) {
	return dto.SignatureResponse{}, nil
}

func identityApp(directory *stubDirectory) *fiber.App {
	app := fiber.New()
	app.Use(middleware.ResolvePrincipal(testSecret))
	app.Use(middleware.AttachUser(directory, zerolog.New(io.Discard)))
	app.Use(middleware.StatusGate())

	app.Get("/api/v1/whoami", func(c *fiber.Ctx) error {
		user, ok := middleware.UserFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(fiber.Map{"email": user.Email, "role": user.Role})
	})
	app.Get("/api/v1/disabled", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/v1/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app
}

func principalHeader(email, name string) string {
	payload := `{"claims":[{"typ":"preferred_username","val":"` + email + `"},{"typ":"name","val":"` + name + `"}]}`
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestIdentityChain_HeaderPrincipal(t *testing.T) {
	directory := &stubDirectory{user: models.User{ID: 1, Email: "jane@university.edu", Role: models.RoleBasic, Status: models.StatusActive}}
	app := identityApp(directory)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set(auth.HeaderClientPrincipal, principalHeader("jane@university.edu", "Jane Doe"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestIdentityChain_SessionCookiePrincipal(t *testing.T) {
	directory := &stubDirectory{user: models.User{ID: 1, Email: "jane@university.edu", Role: models.RoleBasic, Status: models.StatusActive}}
	app := identityApp(directory)

	token, err := auth.IssueSessionToken(testSecret, auth.Principal{Email: "jane@university.edu", Name: "Jane Doe"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestIdentityChain_AnonymousWithoutSignals(t *testing.T) {
	app := identityApp(&stubDirectory{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestIdentityChain_MalformedHeaderIsAnonymous(t *testing.T) {
	app := identityApp(&stubDirectory{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set(auth.HeaderClientPrincipal, "!!not-base64!!")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestStatusGate_RedirectsInactiveAccounts(t *testing.T) {
	directory := &stubDirectory{user: models.User{ID: 1, Email: "locked@university.edu", Role: models.RoleBasic, Status: models.StatusInactive}}
	app := identityApp(directory)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set(auth.HeaderClientPrincipal, principalHeader("locked@university.edu", "Locked Out"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/api/v1/disabled", resp.Header.Get("Location"))
}

func TestStatusGate_ExemptRoutesStayReachable(t *testing.T) {
	directory := &stubDirectory{user: models.User{ID: 1, Email: "locked@university.edu", Role: models.RoleBasic, Status: models.StatusInactive}}
	app := identityApp(directory)

	for _, path := range []string{"/api/v1/disabled", "/api/v1/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(auth.HeaderClientPrincipal, principalHeader("locked@university.edu", "Locked Out"))

		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func rbacApp(role string, chain ...fiber.Handler) *fiber.App {
	app := fiber.New()
	if role != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", role)
			return c.Next()
		})
	}
	group := app.Group("/guarded", chain...)
	group.Get("", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func TestRequireAuthenticated(t *testing.T) {
	app := rbacApp("", middleware.RequireAuthenticated())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	app = rbacApp(models.RoleBasic, middleware.RequireAuthenticated())
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		role     string
		expected int
	}{
		{"anonymous", "", fiber.StatusUnauthorized},
		{"basic denied", models.RoleBasic, fiber.StatusForbidden},
		{"moderator allowed", models.RoleModerator, fiber.StatusOK},
		{"admin allowed", models.RoleAdmin, fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := rbacApp(tc.role, middleware.RequireRole(models.RoleAdmin, models.RoleModerator))
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
			require.NoError(t, err)
			require.Equal(t, tc.expected, resp.StatusCode)
		})
	}
}
