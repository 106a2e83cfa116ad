package request_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-reqflow/internal/request"
)

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := request.NewRepository(nil, db)

	req := &request.Request{
		ID:          uuid.New(),
		Title:       "new laptop",
		Type:        request.TypeEquipment,
		Priority:    request.PriorityMedium,
		Status:      request.StatusDraft,
		RequesterID: uuid.New(),
		Version:     1,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO requests").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), req)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateVersioned_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := request.NewRepository(nil, db)

	req := &request.Request{
		ID:      uuid.New(),
		Status:  request.StatusSubmitted,
		Version: 4,
	}

	mock.ExpectExec("UPDATE requests SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateVersioned(context.Background(), req, 4)
	assert.NoError(t, err)
	assert.True(t, ok)

	// On success the in-memory aggregate reflects the bumped row version.
	assert.Equal(t, int64(5), req.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateVersioned_StaleVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := request.NewRepository(nil, db)

	req := &request.Request{
		ID:      uuid.New(),
		Status:  request.StatusSubmitted,
		Version: 4,
	}

	mock.ExpectExec("UPDATE requests SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateVersioned(context.Background(), req, 4)
	assert.NoError(t, err)
	assert.False(t, ok)

	// Version is left untouched so the caller can surface the conflict.
	assert.Equal(t, int64(4), req.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateVersioned_InTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE requests SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	repo := request.NewRepository(nil, db).WithTx(tx)

	req := &request.Request{ID: uuid.New(), Status: request.StatusApproved, Version: 2}
	ok, err := repo.UpdateVersioned(context.Background(), req, 2)
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
