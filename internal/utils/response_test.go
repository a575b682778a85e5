package utils_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/moosefactory/registrar-api/internal/utils"
)

func perform(t *testing.T, handler fiber.Handler) (*http.Response, utils.APIResponse) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	return resp, envelope
}

func TestSendSuccess(t *testing.T) {
	resp, envelope := perform(t, func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "request submitted", fiber.Map{"id": 1})
	})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)
	require.Equal(t, "request submitted", envelope.Message)
	require.NotNil(t, envelope.Data)
}

func TestSendSuccessDefaultsMessage(t *testing.T) {
	_, envelope := perform(t, func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "", nil)
	})

	require.Equal(t, "success", envelope.Message)
}

func TestSendSuccessWithStatus(t *testing.T) {
	resp, envelope := perform(t, func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "created", nil)
	})

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)
}

func TestSendError(t *testing.T) {
	resp, envelope := perform(t, func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusNotFound, "request not found")
	})

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.False(t, envelope.Success)
	require.Equal(t, "request not found", envelope.Message)
	require.Nil(t, envelope.Data)
}
