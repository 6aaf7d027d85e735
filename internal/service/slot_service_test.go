package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/pkg/config"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
)

type periodListerStub struct {
	classPeriods   []models.SchedulePeriod
	teacherPeriods []models.SchedulePeriod
	err            error
	teacherCalls   int
	classCalls     int
}

func (s *periodListerStub) ListForClass(ctx context.Context, classID string, day time.Weekday) ([]models.SchedulePeriod, error) {
	s.classCalls++
	return s.classPeriods, s.err
}

func (s *periodListerStub) ListForTeacher(ctx context.Context, teacherID string, day time.Weekday) ([]models.SchedulePeriod, error) {
	s.teacherCalls++
	return s.teacherPeriods, s.err
}

type slotRecordStoreStub struct {
	records []models.SlotRecord
	err     error
}

func (s *slotRecordStoreStub) SlotRecordsForDate(ctx context.Context, kind models.AttendeeKind, attendeeID string, date time.Time) ([]models.SlotRecord, error) {
	return s.records, s.err
}

func slotPeriod(start, subject string) models.SchedulePeriod {
	return models.SchedulePeriod{ID: "sched-" + start, ClassID: "class-1", Subject: subject, StartTime: start}
}

func slotRecord(start string, status models.AttendanceStatus, updatedAt time.Time) models.SlotRecord {
	return models.SlotRecord{
		AttendanceRecord: models.AttendanceRecord{Status: status, UpdatedAt: updatedAt},
		StartTime:        start,
	}
}

var testSlotStarts = []string{"07:00", "08:00", "09:00", "10:00"}

func TestSlotServiceVectorCoversEverySlot(t *testing.T) {
	// Three scheduled periods against a four slot grid: the unscheduled slot
	// reads no-schedule, the scheduled but unrecorded one reads absent.
	schedules := &periodListerStub{classPeriods: []models.SchedulePeriod{
		slotPeriod("07:00", "Matematika"),
		slotPeriod("08:00", "Fisika"),
		slotPeriod("10:00", "Kimia"),
	}}
	records := &slotRecordStoreStub{records: []models.SlotRecord{
		slotRecord("07:00", models.AttendancePresent, time.Now()),
		slotRecord("08:00", models.AttendanceLate, time.Now()),
	}}
	service := NewSlotService(schedules, records, nil, nil, config.AttendanceConfig{SlotStarts: testSlotStarts}, config.ReportingConfig{})

	vector, err := service.DailySlotVector(context.Background(), SlotVectorRequest{
		AttendeeKind: models.AttendeeStudent,
		AttendeeID:   "student-1",
		ClassID:      "class-1",
		Date:         time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, vector, 4)

	assert.Equal(t, models.SlotStatus("present"), vector[0].Status)
	assert.Equal(t, "Matematika", vector[0].Subject)
	assert.Equal(t, 1, vector[0].TimeSlot)
	assert.Equal(t, models.SlotStatus("late"), vector[1].Status)
	assert.Equal(t, models.SlotNoSchedule, vector[2].Status)
	assert.Empty(t, vector[2].Subject)
	assert.Equal(t, models.SlotStatus("absent"), vector[3].Status)
	assert.Equal(t, "Kimia", vector[3].Subject)
}

func TestSlotServiceLatestRecordWinsPerSlot(t *testing.T) {
	older := time.Date(2026, 8, 24, 7, 5, 0, 0, time.UTC)
	newer := older.Add(2 * time.Hour)
	schedules := &periodListerStub{classPeriods: []models.SchedulePeriod{slotPeriod("07:00", "Matematika")}}
	records := &slotRecordStoreStub{records: []models.SlotRecord{
		slotRecord("07:00", models.AttendanceAbsent, older),
		slotRecord("07:00", models.AttendanceExcused, newer),
	}}
	service := NewSlotService(schedules, records, nil, nil, config.AttendanceConfig{SlotStarts: testSlotStarts}, config.ReportingConfig{})

	vector, err := service.DailySlotVector(context.Background(), SlotVectorRequest{
		AttendeeKind: models.AttendeeStudent,
		AttendeeID:   "student-1",
		ClassID:      "class-1",
		Date:         time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatus("excused"), vector[0].Status)
}

func TestSlotServiceTeacherVector(t *testing.T) {
	schedules := &periodListerStub{teacherPeriods: []models.SchedulePeriod{slotPeriod("08:00", "Biologi")}}
	records := &slotRecordStoreStub{}
	service := NewSlotService(schedules, records, nil, nil, config.AttendanceConfig{SlotStarts: testSlotStarts}, config.ReportingConfig{})

	vector, err := service.DailySlotVector(context.Background(), SlotVectorRequest{
		AttendeeKind: models.AttendeeTeacher,
		AttendeeID:   "teacher-1",
		Date:         time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, schedules.teacherCalls)
	assert.Zero(t, schedules.classCalls)
	assert.Equal(t, models.SlotStatus("absent"), vector[1].Status)
}

func TestSlotServiceStudentRequiresClass(t *testing.T) {
	service := NewSlotService(&periodListerStub{}, &slotRecordStoreStub{}, nil, nil, config.AttendanceConfig{}, config.ReportingConfig{})

	_, err := service.DailySlotVector(context.Background(), SlotVectorRequest{
		AttendeeKind: models.AttendeeStudent,
		AttendeeID:   "student-1",
		Date:         time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSlotServiceDefaultsToEightSlots(t *testing.T) {
	service := NewSlotService(&periodListerStub{}, &slotRecordStoreStub{}, nil, nil, config.AttendanceConfig{}, config.ReportingConfig{})

	vector, err := service.DailySlotVector(context.Background(), SlotVectorRequest{
		AttendeeKind: models.AttendeeTeacher,
		AttendeeID:   "teacher-1",
		Date:         time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, vector, 8)
	for _, entry := range vector {
		assert.Equal(t, models.SlotNoSchedule, entry.Status)
	}
}
