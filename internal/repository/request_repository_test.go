package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-presensi-api/internal/models"
)

var absenceCols = []string{
	"id", "student_id", "type", "start_date", "end_date",
	"reason", "status", "submitted_at", "resolved_at", "resolved_by", "note",
}

var leaveCols = []string{
	"id", "student_id", "reason", "leave_at", "return_by",
	"status", "submitted_at", "resolved_at", "resolved_by",
}

func TestRequestRepositoryCreateAbsenceRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO absence_requests").
		WithArgs(sqlmock.AnyArg(), "student-1", "sick", start, end, "demam",
			models.AbsencePending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(absenceCols).
			AddRow("absence-1", "student-1", "sick", start, end, "demam", "pending", now, nil, nil, nil))

	stored, err := repo.CreateAbsenceRequest(context.Background(), &models.AbsenceRequest{
		StudentID: "student-1",
		Type:      "sick",
		StartDate: start,
		EndDate:   end,
		Reason:    "demam",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AbsencePending, stored.Status)
	assert.Nil(t, stored.ResolvedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryResolveAbsenceRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	resolvedBy := "admin-1"
	mock.ExpectQuery("UPDATE absence_requests").
		WithArgs("absence-1", models.AbsenceApproved, "admin-1", sqlmock.AnyArg(), nil, models.AbsencePending).
		WillReturnRows(sqlmock.NewRows(absenceCols).
			AddRow("absence-1", "student-1", "sick", start, start, "demam", "approved", now, &now, &resolvedBy, nil))

	stored, err := repo.ResolveAbsenceRequest(context.Background(), "absence-1", models.AbsenceApproved, "admin-1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.AbsenceApproved, stored.Status)
	require.NotNil(t, stored.ResolvedBy)
	assert.Equal(t, "admin-1", *stored.ResolvedBy)
}

func TestRequestRepositoryResolveAbsenceRequestAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	// Conditional update matched nothing: another approver got there first.
	mock.ExpectQuery("UPDATE absence_requests").
		WithArgs("absence-1", models.AbsenceRejected, "admin-2", sqlmock.AnyArg(), sqlmock.AnyArg(), models.AbsencePending).
		WillReturnRows(sqlmock.NewRows(absenceCols))

	note := "terlambat"
	_, err := repo.ResolveAbsenceRequest(context.Background(), "absence-1", models.AbsenceRejected, "admin-2", &note)
	require.ErrorIs(t, err, ErrNoTransition)
}

func TestRequestRepositoryListAbsenceRequestsFiltered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM absence_requests").
		WithArgs("student-1", "pending").
		WillReturnRows(sqlmock.NewRows(absenceCols).
			AddRow("absence-1", "student-1", "sick", start, start, "demam", "pending", now, nil, nil, nil))

	rows, err := repo.ListAbsenceRequests(context.Background(), models.RequestFilter{StudentID: "student-1", Status: "pending"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "absence-1", rows[0].ID)
}

func TestRequestRepositoryCreateLeavePermission(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	leaveAt := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO leave_permissions").
		WithArgs(sqlmock.AnyArg(), "student-1", "ke puskesmas", leaveAt, nil,
			models.LeaveActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(leaveCols).
			AddRow("leave-1", "student-1", "ke puskesmas", leaveAt, nil, "active", now, nil, nil))

	stored, err := repo.CreateLeavePermission(context.Background(), &models.LeavePermission{
		StudentID: "student-1",
		Reason:    "ke puskesmas",
		LeaveAt:   leaveAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveActive, stored.Status)
}

func TestRequestRepositoryResolveLeavePermissionAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectQuery("UPDATE leave_permissions").
		WithArgs("leave-1", models.LeaveReturned, "teacher-1", sqlmock.AnyArg(), models.LeaveActive).
		WillReturnRows(sqlmock.NewRows(leaveCols))

	_, err := repo.ResolveLeavePermission(context.Background(), "leave-1", models.LeaveReturned, "teacher-1")
	require.ErrorIs(t, err, ErrNoTransition)
}
