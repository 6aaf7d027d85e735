package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/internal/service"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
	"github.com/noah-isme/sma-presensi-api/pkg/response"
)

type attendanceService interface {
	RecordViaScan(ctx context.Context, attendeeID string, req service.ScanRequest) (*models.AttendanceRecord, error)
	RecordManual(ctx context.Context, req service.ManualRequest) (*models.AttendanceRecord, error)
	RecordBulk(ctx context.Context, req service.BulkRequest) (*service.BulkResult, error)
}

// AttendanceHandler exposes the scan, manual, and bulk recording endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Scan godoc
// @Summary Record attendance by scanning a check-in token
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.ScanRequest true "Scan payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/scan [post]
func (h *AttendanceHandler) Scan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	record, err := h.service.RecordViaScan(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Manual godoc
// @Summary Record a single attendance entry manually
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.ManualRequest true "Manual entry"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Manual(c *gin.Context) {
	var req service.ManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	record, err := h.service.RecordManual(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Bulk godoc
// @Summary Record many attendance entries with per-item results
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.BulkRequest true "Bulk entries"
// @Success 200 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) Bulk(c *gin.Context) {
	var req service.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	result, err := h.service.RecordBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
