package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func credentialRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "station_id", "user_id", "callsign", "p12_cert", "is_active", "created_at",
	})
}

func TestCredentialRepository_ActiveForStation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE station_id = $1 AND is_active = true`)).
		WithArgs("st1").
		WillReturnRows(credentialRows().
			AddRow("cred1", "st1", "u1", "W1XYZ", "encrypted-cert", true, time.Now()))

	repo := NewCredentialRepository(db)
	cred, err := repo.ActiveForStation(context.Background(), "st1")
	require.NoError(t, err)

	assert.Equal(t, "cred1", cred.ID)
	assert.Equal(t, "encrypted-cert", cred.P12Cert)
	assert.True(t, cred.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_ActiveForStationNone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE station_id = $1 AND is_active = true`)).
		WithArgs("st1").
		WillReturnRows(credentialRows())

	repo := NewCredentialRepository(db)
	_, err = repo.ActiveForStation(context.Background(), "st1")
	assert.ErrorContains(t, err, "no active certificate")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_SetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET is_active = false WHERE station_id = $1`)).
		WithArgs("st1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`SET is_active = true WHERE id = $1 AND station_id = $2`)).
		WithArgs("cred2", "st1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewCredentialRepository(db)
	require.NoError(t, repo.SetActive(context.Background(), "cred2", "st1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_SetActiveRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET is_active = false WHERE station_id = $1`)).
		WithArgs("st1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := NewCredentialRepository(db)
	assert.Error(t, repo.SetActive(context.Background(), "cred2", "st1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_ListByStation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM lotw_credentials WHERE station_id = $1`)).
		WithArgs("st1").
		WillReturnRows(credentialRows().
			AddRow("cred2", "st1", "u1", "W1XYZ", "enc2", true, now).
			AddRow("cred1", "st1", "u1", "W1XYZ", "enc1", false, now.Add(-time.Hour)))

	repo := NewCredentialRepository(db)
	creds, err := repo.ListByStation(context.Background(), "st1")
	require.NoError(t, err)

	require.Len(t, creds, 2)
	assert.True(t, creds[0].IsActive)
	assert.False(t, creds[1].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
