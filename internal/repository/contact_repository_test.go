package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextlog-sync-server/internal/domain"
)

func contactRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "station_id", "callsign", "datetime", "band", "mode",
		"frequency", "rst_sent", "rst_rcvd", "grid_locator", "name", "qth",
		"state", "country", "dxcc", "cqz", "ituz",
		"lotw_qsl_sent", "lotw_qsl_rcvd", "lotw_match_status", "qsl_lotw_date",
		"created_at", "updated_at",
	})
}

func addContactRow(rows *sqlmock.Rows, id, callsign string, datetime time.Time) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "u1", "st1", callsign, datetime, "20m", "SSB",
		14.25, "59", "59", "", "", "", "", "", 0, 0, 0,
		"", "", "", nil, now, now)
}

func TestContactRepository_ListPendingUpload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dt := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`lotw_qsl_sent IS NULL OR lotw_qsl_sent != 'Y'`)).
		WithArgs("u1", "st1").
		WillReturnRows(addContactRow(contactRows(), "c1", "AA1BC", dt))

	repo := NewContactRepository(db)
	contacts, err := repo.ListPendingUpload(context.Background(), "u1", "st1", nil, nil)
	require.NoError(t, err)

	require.Len(t, contacts, 1)
	assert.Equal(t, "AA1BC", contacts[0].Callsign)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_ListPendingUploadWithWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`AND datetime >= $3 AND datetime <= $4`)).
		WithArgs("u1", "st1", from, to).
		WillReturnRows(contactRows())

	repo := NewContactRepository(db)
	contacts, err := repo.ListPendingUpload(context.Background(), "u1", "st1", &from, &to)
	require.NoError(t, err)
	assert.Empty(t, contacts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_MarkUploaded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contacts SET lotw_qsl_sent = 'Y'`)).
		WithArgs(pq.Array([]string{"c1", "c2"})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewContactRepository(db)
	require.NoError(t, repo.MarkUploaded(context.Background(), []string{"c1", "c2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_MarkUploadedEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// No ids, no query.
	repo := NewContactRepository(db)
	require.NoError(t, repo.MarkUploaded(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_ApplyVerdict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	confirmedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`SET lotw_qsl_rcvd = 'Y', lotw_match_status = $1, qsl_lotw_date = $2`)).
		WithArgs("confirmed", confirmedAt, "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewContactRepository(db)
	require.NoError(t, repo.ApplyVerdict(context.Background(), "c1", domain.VerdictConfirmed, confirmedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dt := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts WHERE id = $1`)).
		WithArgs("c1").
		WillReturnRows(addContactRow(contactRows(), "c1", "AA1BC", dt))

	repo := NewContactRepository(db)
	contact, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, "c1", contact.ID)
	assert.Equal(t, "AA1BC", contact.Callsign)
	assert.Nil(t, contact.QslLotwDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_FindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(contactRows())

	repo := NewContactRepository(db)
	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorContains(t, err, "contact not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
