package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/pkg/config"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
)

type attendanceStore interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	ListForAttendee(ctx context.Context, kind models.AttendeeKind, attendeeID string, from, to *time.Time) ([]models.AttendanceRecord, error)
}

type tokenValidator interface {
	Validate(ctx context.Context, tokenString string) (*models.CheckInToken, error)
}

type scanObserver interface {
	ObserveScan(outcome string)
}

// AttendanceService records attendance from the scan, manual, and bulk
// channels. All three funnel into the same upsert, so replaying any write
// is safe.
type AttendanceService struct {
	records   attendanceStore
	schedules scheduleCatalog
	tokens    tokenValidator
	metrics   scanObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.AttendanceConfig
}

// NewAttendanceService constructs the service.
func NewAttendanceService(records attendanceStore, schedules scheduleCatalog, tokens tokenValidator, metrics scanObserver, validate *validator.Validate, logger *zap.Logger, cfg config.AttendanceConfig) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = 15 * time.Minute
	}
	if cfg.BulkMaxItems <= 0 {
		cfg.BulkMaxItems = 200
	}
	svc := &AttendanceService{
		records:   records,
		schedules: schedules,
		tokens:    tokens,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	svc.validator.RegisterValidation("attendee_kind", func(fl validator.FieldLevel) bool {
		return models.AttendeeKind(fl.Field().String()).Valid()
	})
	return svc
}

// ScanRequest describes a token scan. Date defaults to today when empty.
type ScanRequest struct {
	Token string `json:"token" validate:"required"`
	Date  string `json:"date"`
}

// RecordViaScan validates the token and writes a present or late record for
// the scanning attendee. Late means the scan landed after the period start
// plus the grace window.
func (s *AttendanceService) RecordViaScan(ctx context.Context, attendeeID string, req ScanRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if attendeeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendee id required")
	}
	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
		}
		date = parsed
	}

	token, err := s.tokens.Validate(ctx, req.Token)
	if err != nil {
		s.observeScan("rejected")
		return nil, err
	}
	schedule, err := s.schedules.FindByID(ctx, token.ScheduleID)
	if err != nil {
		s.observeScan("rejected")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	status := models.AttendancePresent
	if start, err := schedule.StartOn(date); err == nil {
		if now.After(start.Add(s.cfg.GraceWindow)) {
			status = models.AttendanceLate
		}
	} else {
		s.logger.Warn("unparseable period start, scan counted as present",
			zap.String("schedule_id", schedule.ID), zap.Error(err))
	}

	record := &models.AttendanceRecord{
		ScheduleID:  token.ScheduleID,
		Date:        date,
		Status:      status,
		CheckedInAt: &now,
		Source:      models.SourceScan,
	}
	record.SetAttendee(token.AttendeeKind, attendeeID)
	stored, err := s.records.Upsert(ctx, record)
	if err != nil {
		s.observeScan("rejected")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record scan")
	}
	s.observeScan(string(status))
	return stored, nil
}

// ManualRequest describes a single manual attendance entry.
type ManualRequest struct {
	AttendeeKind string  `json:"attendee_kind" validate:"required,attendee_kind"`
	ScheduleID   string  `json:"schedule_id" validate:"required"`
	AttendeeID   string  `json:"attendee_id" validate:"required"`
	Date         string  `json:"date" validate:"required"`
	Status       string  `json:"status" validate:"required,attendance_status"`
	Reason       *string `json:"reason"`
}

// RecordManual writes one attendance record from an administrative entry.
func (s *AttendanceService) RecordManual(ctx context.Context, req ManualRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return s.record(ctx, req, models.SourceManual)
}

// BulkRequest carries many manual entries recorded independently.
type BulkRequest struct {
	Items []ManualRequest `json:"items" validate:"required,min=1,dive"`
}

// BulkItemResult reports the outcome of one bulk row.
type BulkItemResult struct {
	Index  int                      `json:"index"`
	OK     bool                     `json:"ok"`
	Record *models.AttendanceRecord `json:"record,omitempty"`
	Error  *appErrors.Error         `json:"error,omitempty"`
}

// BulkResult summarises a bulk write.
type BulkResult struct {
	Processed int              `json:"processed"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BulkItemResult `json:"items"`
}

// RecordBulk applies RecordManual semantics to each item independently. A
// bad row never blocks the rest of the roster; failures are reported
// per item instead of aborting the batch.
func (s *AttendanceService) RecordBulk(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if len(req.Items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "items required")
	}
	if len(req.Items) > s.cfg.BulkMaxItems {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d items per request", s.cfg.BulkMaxItems))
	}
	result := &BulkResult{Processed: len(req.Items), Items: make([]BulkItemResult, len(req.Items))}
	for i, item := range req.Items {
		if err := s.validator.Struct(item); err != nil {
			result.Items[i] = BulkItemResult{Index: i, Error: appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item")}
			result.Failed++
			continue
		}
		stored, err := s.record(ctx, item, models.SourceBulk)
		if err != nil {
			result.Items[i] = BulkItemResult{Index: i, Error: appErrors.FromError(err)}
			result.Failed++
			continue
		}
		result.Items[i] = BulkItemResult{Index: i, OK: true, Record: stored}
		result.Succeeded++
	}
	return result, nil
}

// record is the single write path shared by the manual and bulk channels.
func (s *AttendanceService) record(ctx context.Context, req ManualRequest, source models.RecordSource) (*models.AttendanceRecord, error) {
	status := models.AttendanceStatus(strings.ToLower(req.Status))
	reason := trimReason(req.Reason)
	if status.RequiresReason() && reason == nil {
		return nil, appErrors.Clone(appErrors.ErrReasonRequired, fmt.Sprintf("status %q requires a reason", status))
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	if err := s.validateDate(date); err != nil {
		return nil, err
	}

	if _, err := s.schedules.FindByID(ctx, req.ScheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	record := &models.AttendanceRecord{
		ScheduleID: req.ScheduleID,
		Date:       date,
		Status:     status,
		Reason:     reason,
		Source:     source,
	}
	record.SetAttendee(models.AttendeeKind(req.AttendeeKind), req.AttendeeID)
	stored, err := s.records.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return stored, nil
}

// validateDate rejects future dates and the closed weekday.
func (s *AttendanceService) validateDate(date time.Time) error {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(today) {
		return appErrors.Clone(appErrors.ErrInvalidDate, "attendance cannot be recorded for a future date")
	}
	if date.Weekday() == s.cfg.ClosedWeekday {
		return appErrors.Clone(appErrors.ErrInvalidDate, fmt.Sprintf("attendance cannot be recorded on %s", s.cfg.ClosedWeekday))
	}
	return nil
}

func (s *AttendanceService) observeScan(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveScan(outcome)
	}
}

func trimReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
