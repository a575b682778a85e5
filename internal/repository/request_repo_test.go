package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/repository"
)

func seedRequestUser(t *testing.T, repo repository.UserRepository) models.User {
	t.Helper()

	user, err := repo.EnsureByEmail(context.Background(), "student@university.edu", "Sam Student")
	require.NoError(t, err)
	return user
}

func TestRequestRepository_CreateWithDocument(t *testing.T) {
	db := openTestDB(t, "request_create")
	users := repository.NewUserRepository(db)
	repo := repository.NewRequestRepository(db)
	ctx := context.Background()

	user := seedRequestUser(t, users)

	request := &models.FormRequest{
		UserID:      user.ID,
		FormType:    models.FormPetition,
		Status:      models.RequestStatusSubmitted,
		FieldValues: datatypes.JSON([]byte(`{"student_id":"S1234567"}`)),
		SubmittedAt: time.Now().UTC(),
	}
	document := &models.Document{
		FileURL:   "https://archive.example.com/petition-1.pdf",
		FileName:  "petition-1.pdf",
		SizeBytes: 2048,
		Checksum:  "abc123",
	}

	require.NoError(t, repo.CreateWithDocument(ctx, request, document))
	require.NotZero(t, request.ID)
	require.Equal(t, request.ID, document.FormRequestID)

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusSubmitted, stored.Status)
	require.NotNil(t, stored.Document)
	require.Equal(t, "petition-1.pdf", stored.Document.FileName)
}

func TestRequestRepository_MarkApprovedGuarded(t *testing.T) {
	db := openTestDB(t, "request_approve")
	users := repository.NewUserRepository(db)
	repo := repository.NewRequestRepository(db)
	ctx := context.Background()

	user := seedRequestUser(t, users)

	request := &models.FormRequest{
		UserID:      user.ID,
		FormType:    models.FormWithdrawal,
		Status:      models.RequestStatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
	document := &models.Document{FileURL: "https://archive.example.com/w.pdf", FileName: "w.pdf"}
	require.NoError(t, repo.CreateWithDocument(ctx, request, document))

	now := time.Now().UTC()
	affected, err := repo.MarkApproved(ctx, request.ID, 99, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusApproved, stored.Status)
	require.NotNil(t, stored.ApprovedBy)
	require.EqualValues(t, 99, *stored.ApprovedBy)
	require.NotNil(t, stored.ApprovedAt)

	// Second approval is a no-op at the storage layer.
	affected, err = repo.MarkApproved(ctx, request.ID, 42, time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 0, affected)

	stored, err = repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.EqualValues(t, 99, *stored.ApprovedBy)

	// Unknown IDs also report zero rows.
	affected, err = repo.MarkApproved(ctx, 12345, 99, time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 0, affected)
}

func TestRequestRepository_ListAndCount(t *testing.T) {
	db := openTestDB(t, "request_list")
	users := repository.NewUserRepository(db)
	repo := repository.NewRequestRepository(db)
	ctx := context.Background()

	user := seedRequestUser(t, users)
	other, err := users.EnsureByEmail(ctx, "other@university.edu", "Olive Other")
	require.NoError(t, err)

	for i, spec := range []struct {
		userID   uint
		formType string
	}{
		{user.ID, models.FormPetition},
		{user.ID, models.FormWithdrawal},
		{other.ID, models.FormPetition},
	} {
		request := &models.FormRequest{
			UserID:      spec.userID,
			FormType:    spec.formType,
			Status:      models.RequestStatusSubmitted,
			SubmittedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		document := &models.Document{FileURL: "https://archive.example.com/doc.pdf", FileName: "doc.pdf"}
		require.NoError(t, repo.CreateWithDocument(ctx, request, document))
	}

	requests, total, err := repo.List(ctx, repository.RequestFilter{UserID: &user.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, requests, 2)

	requests, total, err = repo.List(ctx, repository.RequestFilter{FormType: models.FormPetition})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	for _, request := range requests {
		require.Equal(t, models.FormPetition, request.FormType)
	}

	count, err := repo.CountByStatus(ctx, models.RequestStatusSubmitted)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}
