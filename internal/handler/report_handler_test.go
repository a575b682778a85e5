package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/handler"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/service"
)

type mockReportService struct {
	fileResp    dto.ReportResponse
	fileErr     error
	lastFile    dto.FileReportRequest
	resolveResp dto.ReportResponse
	resolveErr  error
	lastResolve dto.ResolveReportRequest
	listResp    dto.ReportListResponse
	categories  []dto.CategoryResponse
}

func (m *mockReportService) File(_ context.Context, _ models.User, req dto.FileReportRequest) (dto.ReportResponse, error) {
	m.lastFile = req
	if m.fileErr != nil {
		return dto.ReportResponse{}, m.fileErr
	}
	return m.fileResp, nil
}

func (m *mockReportService) Resolve(_ context.Context, _ models.User, _ uint, req dto.ResolveReportRequest) (dto.ReportResponse, error) {
	m.lastResolve = req
	if m.resolveErr != nil {
		return dto.ReportResponse{}, m.resolveErr
	}
	return m.resolveResp, nil
}

func (m *mockReportService) List(_ context.Context, _ dto.ReportListRequest) (dto.ReportListResponse, error) {
	return m.listResp, nil
}

func (m *mockReportService) Categories(_ context.Context) ([]dto.CategoryResponse, error) {
	return m.categories, nil
}

func reportApp(svc service.ReportService, user models.User) *fiber.App {
	app := fiber.New()
	h := handler.NewReportHandler(svc, zerolog.New(io.Discard))
	noLimit := func(c *fiber.Ctx) error { return c.Next() }
	h.RegisterFiling(app.Group("/api/v1/reports", injectUser(user)), noLimit)
	h.RegisterModeration(app.Group("/api/v1/moderation/reports", injectUser(user)))
	return app
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestReportHandler_FileSuccess(t *testing.T) {
	svc := &mockReportService{fileResp: dto.ReportResponse{ID: 7, Status: models.ReportStatusSubmitted}}
	user := models.User{ID: 3, Role: models.RoleBasic, Status: models.StatusActive}
	app := reportApp(svc, user)

	req := jsonRequest(t, http.MethodPost, "/api/v1/reports", dto.FileReportRequest{
		ReportedEmail: "target@university.edu",
		CategoryID:    1,
		Description:   "Repeated harassment in the course discussion board.",
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "target@university.edu", svc.lastFile.ReportedEmail)

	var body struct {
		Success bool               `json:"success"`
		Data    dto.ReportResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.EqualValues(t, 7, body.Data.ID)
}

func TestReportHandler_FileErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"unknown reported user", service.ErrUserNotFound, fiber.StatusNotFound},
		{"unknown category", service.ErrCategoryNotFound, fiber.StatusNotFound},
		{"inactive category", service.ErrCategoryInactive, fiber.StatusUnprocessableEntity},
		{"self report", service.ErrSelfReport, fiber.StatusUnprocessableEntity},
	}

	user := models.User{ID: 3, Role: models.RoleBasic, Status: models.StatusActive}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := reportApp(&mockReportService{fileErr: tc.err}, user)

			req := jsonRequest(t, http.MethodPost, "/api/v1/reports", dto.FileReportRequest{
				ReportedEmail: "target@university.edu",
				CategoryID:    1,
				Description:   "Repeated harassment in the course discussion board.",
			})

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.expected, resp.StatusCode)
		})
	}
}

func TestReportHandler_Categories(t *testing.T) {
	svc := &mockReportService{categories: []dto.CategoryResponse{
		{ID: 1, Name: "Harassment", IsActive: true},
		{ID: 2, Name: "Spam", IsActive: true},
	}}
	user := models.User{ID: 3, Role: models.RoleBasic, Status: models.StatusActive}
	app := reportApp(svc, user)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/categories", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.CategoryResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 2)
}

func TestReportHandler_ResolveSuccess(t *testing.T) {
	svc := &mockReportService{resolveResp: dto.ReportResponse{ID: 7, Status: models.ReportStatusResolved}}
	staff := models.User{ID: 9, Role: models.RoleAdmin, Status: models.StatusActive}
	app := reportApp(svc, staff)

	req := jsonRequest(t, http.MethodPost, "/api/v1/moderation/reports/7/resolve", dto.ResolveReportRequest{
		Outcome:  "resolved",
		Comments: "Verified and actioned.",
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "resolved", svc.lastResolve.Outcome)
}

func TestReportHandler_ResolveTerminalConflict(t *testing.T) {
	staff := models.User{ID: 9, Role: models.RoleAdmin, Status: models.StatusActive}
	app := reportApp(&mockReportService{resolveErr: service.ErrReportTerminal}, staff)

	req := jsonRequest(t, http.MethodPost, "/api/v1/moderation/reports/7/resolve", dto.ResolveReportRequest{Outcome: "resolved"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestReportHandler_ResolveForbidden(t *testing.T) {
	staff := models.User{ID: 9, Role: models.RoleModerator, Status: models.StatusActive}
	app := reportApp(&mockReportService{resolveErr: service.ErrForbidden}, staff)

	req := jsonRequest(t, http.MethodPost, "/api/v1/moderation/reports/7/resolve", dto.ResolveReportRequest{Outcome: "resolved"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReportHandler_ListQueue(t *testing.T) {
	svc := &mockReportService{listResp: dto.ReportListResponse{
		Reports:  []dto.ReportResponse{{ID: 7, Status: models.ReportStatusSubmitted}},
		Total:    1,
		Page:     1,
		PageSize: 20,
	}}
	staff := models.User{ID: 9, Role: models.RoleAdmin, Status: models.StatusActive}
	app := reportApp(svc, staff)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/moderation/reports?status=submitted", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.ReportListResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.EqualValues(t, 1, body.Data.Total)
}
