package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/handler"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/pkg/archive"
)

type signatureDirectory struct {
	mockDirectoryService
	signatureResp dto.SignatureResponse
	signatureErr  error
	lastData      []byte
}

func (s *signatureDirectory) StoreSignature(_ context.Context, _ models.User, data []byte) (dto.SignatureResponse, error) {
	s.lastData = data
	if s.signatureErr != nil {
		return dto.SignatureResponse{}, s.signatureErr
	}
	return s.signatureResp, nil
}

func profileApp(svc *signatureDirectory) *fiber.App {
	app := fiber.New()
	user := models.User{ID: 6, Role: models.RoleBasic, Status: models.StatusActive}
	group := app.Group("/api/v1/profile", injectUser(user))
	handler.NewProfileHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func signatureUpload(t *testing.T, payload []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("signature", "signature.png")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/signature", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestProfileHandler_UploadSignature(t *testing.T) {
	svc := &signatureDirectory{signatureResp: dto.SignatureResponse{URL: "/files/signatures/user_6.png", MimeType: "image/png"}}
	app := profileApp(svc)

	resp, err := app.Test(signatureUpload(t, []byte{0x89, 0x50, 0x4e, 0x47}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, svc.lastData)

	var body struct {
		Data dto.SignatureResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "image/png", body.Data.MimeType)
}

func TestProfileHandler_UploadSignatureMissingFile(t *testing.T) {
	app := profileApp(&signatureDirectory{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/signature", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProfileHandler_UploadSignatureUnsupportedType(t *testing.T) {
	app := profileApp(&signatureDirectory{signatureErr: archive.ErrUnsupportedImage})

	resp, err := app.Test(signatureUpload(t, []byte("plain text pretending to be an image")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestProfileHandler_UploadSignatureTooLarge(t *testing.T) {
	app := profileApp(&signatureDirectory{})

	resp, err := app.Test(signatureUpload(t, bytes.Repeat([]byte{0xff}, (2<<20)+1)), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}
