package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/internal/service"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
	"github.com/noah-isme/sma-presensi-api/pkg/response"
)

type slotService interface {
	DailySlotVector(ctx context.Context, req service.SlotVectorRequest) ([]models.SlotEntry, error)
}

type summaryService interface {
	Summary(ctx context.Context, req service.SummaryRequest) (*models.AttendanceSummary, error)
}

// ReportHandler exposes the slot vector and summary read models.
type ReportHandler struct {
	slots     slotService
	summaries summaryService
}

// NewReportHandler constructs the handler.
func NewReportHandler(slots slotService, summaries summaryService) *ReportHandler {
	return &ReportHandler{slots: slots, summaries: summaries}
}

// SlotVector godoc
// @Summary Daily per-slot attendance statuses for a student or teacher
// @Tags Reports
// @Produce json
// @Param kind query string true "Attendee kind (student/teacher)"
// @Param attendeeId query string true "Attendee ID"
// @Param classId query string false "Class ID (required for students)"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /attendance/slots [get]
func (h *ReportHandler) SlotVector(c *gin.Context) {
	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if date != nil {
		day = *date
	}
	vector, err := h.slots.DailySlotVector(c.Request.Context(), service.SlotVectorRequest{
		AttendeeKind: models.AttendeeKind(c.Query("kind")),
		AttendeeID:   c.Query("attendeeId"),
		ClassID:      c.Query("classId"),
		Date:         day,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vector, nil)
}

// Summary godoc
// @Summary Attendance counts, rate, and absence streak for a window
// @Tags Reports
// @Produce json
// @Param kind query string true "Attendee kind (student/teacher)"
// @Param attendeeId query string true "Attendee ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("attendeeId") == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "attendeeId required"))
		return
	}
	summary, err := h.summaries.Summary(c.Request.Context(), service.SummaryRequest{
		AttendeeKind: models.AttendeeKind(c.Query("kind")),
		AttendeeID:   c.Query("attendeeId"),
		From:         from,
		To:           to,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
