package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
)

// SummaryService reduces a window of attendance records into the counts and
// rates the dashboards display.
type SummaryService struct {
	records attendanceStore
	logger  *zap.Logger
}

// NewSummaryService constructs the service.
func NewSummaryService(records attendanceStore, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{records: records, logger: logger}
}

// SummaryRequest scopes a summary window.
type SummaryRequest struct {
	AttendeeKind models.AttendeeKind
	AttendeeID   string
	From         *time.Time
	To           *time.Time
}

// Summary aggregates the attendee's records in the window: counts by
// status, attendance rate, and the current consecutive-absence streak.
func (s *SummaryService) Summary(ctx context.Context, req SummaryRequest) (*models.AttendanceSummary, error) {
	if !req.AttendeeKind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendee kind must be student or teacher")
	}
	if req.AttendeeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendee id required")
	}
	records, err := s.records.ListForAttendee(ctx, req.AttendeeKind, req.AttendeeID, req.From, req.To)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	summary := &models.AttendanceSummary{TotalScheduled: len(records)}
	for _, record := range records {
		switch record.Status {
		case models.AttendancePresent:
			summary.Present++
		case models.AttendanceLate:
			summary.Late++
		case models.AttendanceAbsent:
			summary.Absent++
		case models.AttendanceExcused:
			summary.Excused++
		case models.AttendanceSick:
			summary.Sick++
		case models.AttendanceDispensation:
			summary.Dispensation++
		case models.AttendanceReturn:
			summary.Return++
		}
	}
	summary.Rate = AttendanceRate(summary.Present+summary.Late, summary.TotalScheduled)
	summary.ConsecutiveAbsences = ConsecutiveAbsences(records)
	return summary, nil
}

// AttendanceRate returns the attendance percentage. A window with nothing
// scheduled rates as zero rather than dividing by zero.
func AttendanceRate(presentCount, totalScheduled int) float64 {
	if totalScheduled == 0 {
		return 0
	}
	return float64(presentCount) / float64(totalScheduled) * 100
}

// ConsecutiveAbsences counts the streak of absent records at the end of a
// chronologically ordered history. The streak breaks at the first
// non-absent record walking backward from the most recent.
func ConsecutiveAbsences(records []models.AttendanceRecord) int {
	streak := 0
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Status != models.AttendanceAbsent {
			break
		}
		streak++
	}
	return streak
}
