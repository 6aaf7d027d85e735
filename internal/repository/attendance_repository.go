package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-presensi-api/internal/models"
)

// AttendanceRepository persists attendance records. It owns the uniqueness
// invariant on (attendee, kind, schedule, date): writes are upserts, so a
// later correction always wins and replays are safe.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, attendee_kind, student_id, teacher_id, schedule_id, date, status, checked_in_at, reason, source, created_at, updated_at`

// Upsert inserts or updates one attendance record keyed on the composite
// uniqueness index. The conflict target matches the partial unique index on
// (attendee_kind, schedule_id, date, COALESCE(student_id, teacher_id)).
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO attendance_records (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (attendee_kind, schedule_id, date, COALESCE(student_id, teacher_id))
DO UPDATE SET status = EXCLUDED.status,
	checked_in_at = EXCLUDED.checked_in_at,
	reason = EXCLUDED.reason,
	source = EXCLUDED.source,
	updated_at = EXCLUDED.updated_at
RETURNING %s`, attendanceColumns, attendanceColumns)
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.AttendeeKind, record.StudentID, record.TeacherID,
		record.ScheduleID, record.Date, record.Status, record.CheckedInAt,
		record.Reason, record.Source, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance record: %w", err)
	}
	return &stored, nil
}

// ListForAttendee returns one attendee's records in chronological order,
// optionally bounded by a date window.
func (r *AttendanceRepository) ListForAttendee(ctx context.Context, kind models.AttendeeKind, attendeeID string, from, to *time.Time) ([]models.AttendanceRecord, error) {
	attendeeColumn := "student_id"
	if kind == models.AttendeeTeacher {
		attendeeColumn = "teacher_id"
	}
	where := fmt.Sprintf("attendee_kind = $1 AND %s = $2", attendeeColumn)
	args := []interface{}{kind, attendeeID}
	if from != nil {
		where += fmt.Sprintf(" AND date >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		where += fmt.Sprintf(" AND date <= $%d", len(args)+1)
		args = append(args, *to)
	}
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE %s
ORDER BY date ASC, updated_at ASC`, attendanceColumns, where)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance for attendee: %w", err)
	}
	return rows, nil
}

// SlotRecordsForDate returns an attendee's records for one date joined with
// the period timing needed to project them onto the day's slot grid.
func (r *AttendanceRepository) SlotRecordsForDate(ctx context.Context, kind models.AttendeeKind, attendeeID string, date time.Time) ([]models.SlotRecord, error) {
	attendeeColumn := "ar.student_id"
	if kind == models.AttendeeTeacher {
		attendeeColumn = "ar.teacher_id"
	}
	query := fmt.Sprintf(`SELECT ar.id, ar.attendee_kind, ar.student_id, ar.teacher_id, ar.schedule_id,
	ar.date, ar.status, ar.checked_in_at, ar.reason, ar.source, ar.created_at, ar.updated_at,
	sp.start_time, sp.time_slot
FROM attendance_records ar
JOIN schedule_periods sp ON sp.id = ar.schedule_id
WHERE ar.attendee_kind = $1 AND %s = $2 AND ar.date = $3
ORDER BY sp.time_slot ASC, ar.updated_at ASC`, attendeeColumn)
	var rows []models.SlotRecord
	if err := r.db.SelectContext(ctx, &rows, query, kind, attendeeID, date); err != nil {
		return nil, fmt.Errorf("slot records for date: %w", err)
	}
	return rows, nil
}
