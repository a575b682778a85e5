package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/handler"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/service"
)

type mockNotificationService struct {
	listResp    []dto.NotificationResponse
	lastLimit   int
	lastOffset  int
	markResp    dto.NotificationResponse
	markErr     error
	lastReadID  uint
	lastReadFor uint
}

func (m *mockNotificationService) Notify(_ context.Context, _ uint, _, _ string) {}

func (m *mockNotificationService) List(_ context.Context, _ uint, limit, offset int) ([]dto.NotificationResponse, error) {
	m.lastLimit = limit
	m.lastOffset = offset
	return m.listResp, nil
}

func (m *mockNotificationService) MarkRead(_ context.Context, id, userID uint) (dto.NotificationResponse, error) {
	m.lastReadID = id
	m.lastReadFor = userID
	if m.markErr != nil {
		return dto.NotificationResponse{}, m.markErr
	}
	return m.markResp, nil
}

func notificationApp(svc service.NotificationService, user models.User) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/notifications", injectUser(user))
	handler.NewNotificationHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestNotificationHandler_List(t *testing.T) {
	svc := &mockNotificationService{listResp: []dto.NotificationResponse{
		{ID: 1, Type: "request.approved", Message: "your petition was approved"},
	}}
	user := models.User{ID: 5, Role: models.RoleBasic, Status: models.StatusActive}
	app := notificationApp(svc, user)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=10&offset=5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 10, svc.lastLimit)
	require.Equal(t, 5, svc.lastOffset)

	var body struct {
		Data []dto.NotificationResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, "request.approved", body.Data[0].Type)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	svc := &mockNotificationService{markResp: dto.NotificationResponse{ID: 8, Read: true}}
	user := models.User{ID: 5, Role: models.RoleBasic, Status: models.StatusActive}
	app := notificationApp(svc, user)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/8/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.EqualValues(t, 8, svc.lastReadID)
	require.EqualValues(t, 5, svc.lastReadFor)

	var body struct {
		Data dto.NotificationResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Data.Read)
}

func TestNotificationHandler_MarkReadNotFound(t *testing.T) {
	user := models.User{ID: 5, Role: models.RoleBasic, Status: models.StatusActive}
	app := notificationApp(&mockNotificationService{markErr: gorm.ErrRecordNotFound}, user)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/99/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotificationHandler_MarkReadInvalidID(t *testing.T) {
	user := models.User{ID: 5, Role: models.RoleBasic, Status: models.StatusActive}
	app := notificationApp(&mockNotificationService{}, user)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/abc/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
