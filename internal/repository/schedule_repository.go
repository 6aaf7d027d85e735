package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-presensi-api/internal/models"
)

// ScheduleRepository reads the timetable reference data. The catalog is
// owned by the scheduling system, so this repository is query-only.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const schedulePeriodColumns = `id, class_id, subject, teacher_id, day_of_week, start_time, end_time, time_slot, semester, year`

// FindByID returns one schedule period. sql.ErrNoRows passes through so the
// caller can map it to a not-found error.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.SchedulePeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_periods WHERE id = $1`, schedulePeriodColumns)
	var period models.SchedulePeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// ListForClass returns a class's periods for one weekday ordered by slot.
func (r *ScheduleRepository) ListForClass(ctx context.Context, classID string, day time.Weekday) ([]models.SchedulePeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_periods
WHERE class_id = $1 AND day_of_week = $2
ORDER BY time_slot ASC`, schedulePeriodColumns)
	var periods []models.SchedulePeriod
	if err := r.db.SelectContext(ctx, &periods, query, classID, int(day)); err != nil {
		return nil, fmt.Errorf("list class periods: %w", err)
	}
	return periods, nil
}

// ListForTeacher returns a teacher's periods for one weekday ordered by slot.
func (r *ScheduleRepository) ListForTeacher(ctx context.Context, teacherID string, day time.Weekday) ([]models.SchedulePeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_periods
WHERE teacher_id = $1 AND day_of_week = $2
ORDER BY time_slot ASC`, schedulePeriodColumns)
	var periods []models.SchedulePeriod
	if err := r.db.SelectContext(ctx, &periods, query, teacherID, int(day)); err != nil {
		return nil, fmt.Errorf("list teacher periods: %w", err)
	}
	return periods, nil
}
