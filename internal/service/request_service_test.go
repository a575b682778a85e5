package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/repository"
	"github.com/moosefactory/registrar-api/internal/service"
	"github.com/moosefactory/registrar-api/pkg/typeset"
)

type stubRenderer struct {
	err   error
	calls int
}

func (r *stubRenderer) Render(_ context.Context, doc typeset.Document) (typeset.Result, error) {
	r.calls++
	if r.err != nil {
		return typeset.Result{}, r.err
	}
	return typeset.Result{PDF: []byte("%PDF-1.4 fake"), FileName: doc.Name + ".pdf"}, nil
}

type stubStore struct {
	err   error
	names []string
}

func (s *stubStore) Put(_ context.Context, name string, _ io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.names = append(s.names, name)
	return "https://archive.example.com/" + name, nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Notify(_ context.Context, userID uint, eventType, _ string) {
	n.events = append(n.events, fmt.Sprintf("%d:%s", userID, eventType))
}

func openServiceDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.FormRequest{},
		&models.Document{},
		&models.ReportCategory{},
		&models.Report{},
		&models.Notification{},
		&models.AuditEntry{},
	))

	return db
}

func setupRequestService(t *testing.T, name string, renderer *stubRenderer, store *stubStore) (service.RequestService, *gorm.DB, models.User, *recordingNotifier) {
	t.Helper()

	db := openServiceDB(t, name)
	user := models.User{Email: "sam@university.edu", Name: "Sam Student", Role: models.RoleBasic, Status: models.StatusActive}
	require.NoError(t, db.Create(&user).Error)

	notifier := &recordingNotifier{}
	svc := service.NewRequestService(
		repository.NewRequestRepository(db),
		repository.NewAuditRepository(db),
		renderer,
		store,
		notifier,
		zerolog.New(io.Discard),
	)

	return svc, db, user, notifier
}

func petitionFields() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  "S1234567",
		"term":        "Fall 2026",
		"course_code": "CS4500",
		"reason":      "Requesting a late add due to an advising error.",
	}
}

func TestRequestService_SubmitSuccess(t *testing.T) {
	renderer := &stubRenderer{}
	store := &stubStore{}
	svc, db, user, _ := setupRequestService(t, "submit_success", renderer, store)

	resp, err := svc.Submit(context.Background(), user, models.FormPetition, petitionFields())
	require.NoError(t, err)
	require.NotZero(t, resp.ID)
	require.Equal(t, models.RequestStatusSubmitted, resp.Status)
	require.Equal(t, models.FormPetition, resp.FormType)
	require.NotNil(t, resp.Document)
	require.Contains(t, resp.Document.URL, "archive.example.com")
	require.Equal(t, 1, renderer.calls)
	require.Len(t, store.names, 1)

	var stored models.FormRequest
	require.NoError(t, db.Preload("Document").First(&stored).Error)
	require.Equal(t, user.ID, stored.UserID)
	require.NotNil(t, stored.Document)
	require.NotEmpty(t, stored.Document.Checksum)
	require.EqualValues(t, len("%PDF-1.4 fake"), stored.Document.SizeBytes)
}

func TestRequestService_SubmitSanitizesFieldValues(t *testing.T) {
	svc, db, user, _ := setupRequestService(t, "submit_sanitize", &stubRenderer{}, &stubStore{})

	fields := petitionFields()
	fields["reason"] = "<script>alert('x')</script>Requesting a late add due to an advising error."

	resp, err := svc.Submit(context.Background(), user, models.FormPetition, fields)
	require.NoError(t, err)
	require.NotContains(t, resp.Fields["reason"], "script")

	var stored models.FormRequest
	require.NoError(t, db.First(&stored).Error)
	require.NotContains(t, string(stored.FieldValues), "<script>")
}

func TestRequestService_SubmitUnknownFormType(t *testing.T) {
	svc, _, user, _ := setupRequestService(t, "submit_unknown", &stubRenderer{}, &stubStore{})

	_, err := svc.Submit(context.Background(), user, "transcript_request", petitionFields())
	require.ErrorIs(t, err, service.ErrUnknownFormType)
}

func TestRequestService_SubmitInvalidFields(t *testing.T) {
	renderer := &stubRenderer{}
	svc, db, user, _ := setupRequestService(t, "submit_invalid", renderer, &stubStore{})

	fields := petitionFields()
	delete(fields, "reason")

	_, err := svc.Submit(context.Background(), user, models.FormPetition, fields)
	require.ErrorIs(t, err, service.ErrFieldValidation)
	require.Zero(t, renderer.calls)

	var count int64
	require.NoError(t, db.Model(&models.FormRequest{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRequestService_SubmitRenderFailureLeavesNoRows(t *testing.T) {
	renderer := &stubRenderer{err: typeset.ErrRenderTimeout}
	svc, db, user, _ := setupRequestService(t, "submit_render_fail", renderer, &stubStore{})

	_, err := svc.Submit(context.Background(), user, models.FormPetition, petitionFields())
	require.ErrorIs(t, err, typeset.ErrRenderTimeout)

	var requests, documents int64
	require.NoError(t, db.Model(&models.FormRequest{}).Count(&requests).Error)
	require.NoError(t, db.Model(&models.Document{}).Count(&documents).Error)
	require.Zero(t, requests)
	require.Zero(t, documents)
}

func TestRequestService_SubmitArchiveFailureLeavesNoRows(t *testing.T) {
	store := &stubStore{err: fmt.Errorf("upstream unavailable")}
	svc, db, user, _ := setupRequestService(t, "submit_archive_fail", &stubRenderer{}, store)

	_, err := svc.Submit(context.Background(), user, models.FormPetition, petitionFields())
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.FormRequest{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRequestService_ApproveRequiresAdmin(t *testing.T) {
	svc, _, user, _ := setupRequestService(t, "approve_forbidden", &stubRenderer{}, &stubStore{})

	_, err := svc.Approve(context.Background(), user, 1)
	require.ErrorIs(t, err, service.ErrForbidden)

	moderator := models.User{ID: 50, Role: models.RoleModerator}
	_, err = svc.Approve(context.Background(), moderator, 1)
	require.ErrorIs(t, err, service.ErrForbidden)
}

func TestRequestService_ApproveIdempotent(t *testing.T) {
	svc, db, user, notifier := setupRequestService(t, "approve_idempotent", &stubRenderer{}, &stubStore{})

	submitted, err := svc.Submit(context.Background(), user, models.FormPetition, petitionFields())
	require.NoError(t, err)

	admin := models.User{Email: "admin@university.edu", Name: "Ada Admin", Role: models.RoleAdmin, Status: models.StatusActive}
	require.NoError(t, db.Create(&admin).Error)

	approved, err := svc.Approve(context.Background(), admin, submitted.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.Equal(t, admin.ID, *approved.ApprovedBy)
	require.Len(t, notifier.events, 1)

	// Second approval is a no-op: same state, no new notification or audit row.
	again, err := svc.Approve(context.Background(), admin, submitted.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusApproved, again.Status)
	require.Equal(t, admin.ID, *again.ApprovedBy)
	require.Len(t, notifier.events, 1)

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditEntry{}).Count(&auditCount).Error)
	require.EqualValues(t, 1, auditCount)
}

func TestRequestService_ApproveMissingRequest(t *testing.T) {
	svc, db, _, _ := setupRequestService(t, "approve_missing", &stubRenderer{}, &stubStore{})

	admin := models.User{Email: "admin@university.edu", Name: "Ada Admin", Role: models.RoleAdmin, Status: models.StatusActive}
	require.NoError(t, db.Create(&admin).Error)

	_, err := svc.Approve(context.Background(), admin, 9999)
	require.ErrorIs(t, err, service.ErrRequestNotFound)
}

func TestRequestService_ListScopesBasicUsers(t *testing.T) {
	svc, db, user, _ := setupRequestService(t, "list_scope", &stubRenderer{}, &stubStore{})

	other := models.User{Email: "other@university.edu", Name: "Olive Other", Role: models.RoleBasic, Status: models.StatusActive}
	require.NoError(t, db.Create(&other).Error)

	_, err := svc.Submit(context.Background(), user, models.FormPetition, petitionFields())
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), other, models.FormPetition, petitionFields())
	require.NoError(t, err)

	mine, err := svc.List(context.Background(), user, dto.RequestListRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 1, mine.Total)
	require.Equal(t, user.ID, mine.Requests[0].UserID)

	admin := models.User{ID: 77, Role: models.RoleAdmin}
	all, err := svc.List(context.Background(), admin, dto.RequestListRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 2, all.Total)
}

func TestRequestService_DocumentAccessControl(t *testing.T) {
	svc, db, user, _ := setupRequestService(t, "document_access", &stubRenderer{}, &stubStore{})

	submitted, err := svc.Submit(context.Background(), user, models.FormPetition, petitionFields())
	require.NoError(t, err)

	owner, err := svc.Document(context.Background(), user, submitted.ID)
	require.NoError(t, err)
	require.NotEmpty(t, owner.URL)

	stranger := models.User{Email: "stranger@university.edu", Name: "Sky Stranger", Role: models.RoleBasic, Status: models.StatusActive}
	require.NoError(t, db.Create(&stranger).Error)
	_, err = svc.Document(context.Background(), stranger, submitted.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	moderator := models.User{ID: 500, Role: models.RoleModerator}
	staffView, err := svc.Document(context.Background(), moderator, submitted.ID)
	require.NoError(t, err)
	require.Equal(t, owner.URL, staffView.URL)

	_, err = svc.Document(context.Background(), user, 9999)
	require.ErrorIs(t, err, service.ErrRequestNotFound)
}
