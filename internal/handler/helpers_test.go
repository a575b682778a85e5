package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/moosefactory/registrar-api/internal/models"
)

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

// injectUser simulates the identity chain binding a directory user.
func injectUser(user models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		c.Locals("user_status", user.Status)
		c.Locals("user", user)
		return c.Next()
	}
}
