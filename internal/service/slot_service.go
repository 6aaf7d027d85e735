package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/pkg/config"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
)

type periodLister interface {
	ListForClass(ctx context.Context, classID string, day time.Weekday) ([]models.SchedulePeriod, error)
	ListForTeacher(ctx context.Context, teacherID string, day time.Weekday) ([]models.SchedulePeriod, error)
}

type slotRecordStore interface {
	SlotRecordsForDate(ctx context.Context, kind models.AttendeeKind, attendeeID string, date time.Time) ([]models.SlotRecord, error)
}

var defaultSlotStarts = []string{"07:00", "08:00", "09:00", "10:00", "11:00", "13:00", "14:00", "15:00"}

// SlotService projects one attendee's attendance for a date onto the fixed
// slot grid of the school day. A slot with no period that weekday reads
// no-schedule; a scheduled slot with no record reads absent, never blank.
type SlotService struct {
	schedules periodLister
	records   slotRecordStore
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    *zap.Logger
	starts    []string
}

// NewSlotService constructs the service. cache may be nil to disable the
// Redis layer.
func NewSlotService(schedules periodLister, records slotRecordStore, cache *redis.Client, logger *zap.Logger, cfg config.AttendanceConfig, reporting config.ReportingConfig) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	starts := cfg.SlotStarts
	if len(starts) == 0 {
		starts = defaultSlotStarts
	}
	svc := &SlotService{
		schedules: schedules,
		records:   records,
		logger:    logger,
		starts:    starts,
	}
	if reporting.CacheEnabled && cache != nil {
		svc.cache = cache
		svc.cacheTTL = reporting.SlotCacheTTL
		if svc.cacheTTL <= 0 {
			svc.cacheTTL = 2 * time.Minute
		}
	}
	return svc
}

// SlotVectorRequest scopes a daily slot vector lookup. ClassID is required
// for students because the timetable hangs off the class; teachers are
// scheduled directly.
type SlotVectorRequest struct {
	AttendeeKind models.AttendeeKind
	AttendeeID   string
	ClassID      string
	Date         time.Time
}

// DailySlotVector returns one entry per configured slot of the day.
func (s *SlotService) DailySlotVector(ctx context.Context, req SlotVectorRequest) ([]models.SlotEntry, error) {
	if !req.AttendeeKind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendee kind must be student or teacher")
	}
	if req.AttendeeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendee id required")
	}
	if req.AttendeeKind == models.AttendeeStudent && req.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id required for student slot vectors")
	}

	cacheKey := fmt.Sprintf("slots:%s:%s:%s:%s", req.AttendeeKind, req.AttendeeID, req.ClassID, req.Date.Format("2006-01-02"))
	if cached, ok := s.tryCache(ctx, cacheKey); ok {
		return cached, nil
	}

	var periods []models.SchedulePeriod
	var err error
	if req.AttendeeKind == models.AttendeeTeacher {
		periods, err = s.schedules.ListForTeacher(ctx, req.AttendeeID, req.Date.Weekday())
	} else {
		periods, err = s.schedules.ListForClass(ctx, req.ClassID, req.Date.Weekday())
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}

	records, err := s.records.SlotRecordsForDate(ctx, req.AttendeeKind, req.AttendeeID, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	vector := s.project(periods, records)
	s.persistCache(ctx, cacheKey, vector)
	return vector, nil
}

// project maps periods and records onto the slot grid. Slots are matched by
// start time; when several records hit the same slot the most recently
// written one wins.
func (s *SlotService) project(periods []models.SchedulePeriod, records []models.SlotRecord) []models.SlotEntry {
	periodsByStart := make(map[string]models.SchedulePeriod, len(periods))
	for _, p := range periods {
		periodsByStart[p.StartTime] = p
	}
	recordsByStart := make(map[string]models.SlotRecord, len(records))
	for _, r := range records {
		existing, ok := recordsByStart[r.StartTime]
		if !ok || r.UpdatedAt.After(existing.UpdatedAt) {
			recordsByStart[r.StartTime] = r
		}
	}

	vector := make([]models.SlotEntry, len(s.starts))
	for i, start := range s.starts {
		entry := models.SlotEntry{TimeSlot: i + 1, StartTime: start}
		period, scheduled := periodsByStart[start]
		if !scheduled {
			entry.Status = models.SlotNoSchedule
			vector[i] = entry
			continue
		}
		entry.Subject = period.Subject
		if record, ok := recordsByStart[start]; ok {
			entry.Status = models.SlotStatus(record.Status)
		} else {
			// Unrecorded attendance for a scheduled period defaults to
			// absent, never to an empty slot.
			entry.Status = models.SlotStatus(models.AttendanceAbsent)
		}
		vector[i] = entry
	}
	return vector
}

func (s *SlotService) tryCache(ctx context.Context, key string) ([]models.SlotEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("slot cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var vector []models.SlotEntry
	if err := json.Unmarshal(payload, &vector); err != nil {
		s.logger.Warn("slot cache payload corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vector, true
}

func (s *SlotService) persistCache(ctx context.Context, key string, vector []models.SlotEntry) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("slot cache write failed", zap.String("key", key), zap.Error(err))
	}
}
