package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-presensi-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

var tokenCols = []string{"id", "schedule_id", "attendee_kind", "token", "issued_at", "expires_at", "active", "scan_count"}

func TestTokenRepositoryIssueSuperseding(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE checkin_tokens SET active = FALSE").
		WithArgs("sched-1", models.AttendeeStudent).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO checkin_tokens").
		WithArgs(sqlmock.AnyArg(), "sched-1", models.AttendeeStudent, "opaque", now, now.Add(5*time.Minute)).
		WillReturnRows(sqlmock.NewRows(tokenCols).
			AddRow("token-1", "sched-1", "student", "opaque", now, now.Add(5*time.Minute), true, 0))
	mock.ExpectCommit()

	stored, err := repo.IssueSuperseding(context.Background(), &models.CheckInToken{
		ScheduleID:   "sched-1",
		AttendeeKind: models.AttendeeStudent,
		Token:        "opaque",
		IssuedAt:     now,
		ExpiresAt:    now.Add(5 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, "token-1", stored.ID)
	assert.True(t, stored.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryIssueRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE checkin_tokens SET active = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO checkin_tokens").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.IssueSuperseding(context.Background(), &models.CheckInToken{
		ScheduleID:   "sched-1",
		AttendeeKind: models.AttendeeStudent,
		Token:        "opaque",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryFindByString(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM checkin_tokens WHERE token").
		WithArgs("opaque").
		WillReturnRows(sqlmock.NewRows(tokenCols).
			AddRow("token-1", "sched-1", "teacher", "opaque", now, now.Add(time.Minute), true, 3))

	token, err := repo.FindByString(context.Background(), "opaque")
	require.NoError(t, err)
	assert.Equal(t, models.AttendeeTeacher, token.AttendeeKind)
	assert.Equal(t, 3, token.ScanCount)
}

func TestTokenRepositoryIncrementScanCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectQuery("UPDATE checkin_tokens SET scan_count").
		WithArgs("token-1").
		WillReturnRows(sqlmock.NewRows([]string{"scan_count"}).AddRow(4))

	count, err := repo.IncrementScanCount(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestTokenRepositoryInvalidate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec("UPDATE checkin_tokens SET active = FALSE WHERE id").
		WithArgs("token-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Invalidate(context.Background(), "token-1"))
}
