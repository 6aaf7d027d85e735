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

type workflowService interface {
	SubmitAbsence(ctx context.Context, req service.SubmitAbsenceRequest) (*models.AbsenceRequest, error)
	ApproveAbsence(ctx context.Context, id string, note string, approverID string) (*models.AbsenceRequest, error)
	RejectAbsence(ctx context.Context, id string, reason string, approverID string) (*models.AbsenceRequest, error)
	ListAbsences(ctx context.Context, filter models.RequestFilter) ([]models.AbsenceRequest, error)
	SubmitLeave(ctx context.Context, req service.SubmitLeaveRequest) (*models.LeavePermission, error)
	CloseLeave(ctx context.Context, id string, to models.LeavePermissionStatus, resolverID string) (*models.LeavePermission, error)
	ListLeaves(ctx context.Context, filter models.RequestFilter) ([]models.LeavePermission, error)
}

// WorkflowHandler exposes absence request and leave permission endpoints.
type WorkflowHandler struct {
	service workflowService
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(service workflowService) *WorkflowHandler {
	return &WorkflowHandler{service: service}
}

// SubmitAbsence godoc
// @Summary Submit an absence request
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body service.SubmitAbsenceRequest true "Absence request"
// @Success 201 {object} response.Envelope
// @Router /absence-requests [post]
func (h *WorkflowHandler) SubmitAbsence(c *gin.Context) {
	var req service.SubmitAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	stored, err := h.service.SubmitAbsence(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stored)
}

type resolvePayload struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// ApproveAbsence godoc
// @Summary Approve a pending absence request
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body resolvePayload false "Optional note"
// @Success 200 {object} response.Envelope
// @Router /absence-requests/{id}/approve [post]
func (h *WorkflowHandler) ApproveAbsence(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload resolvePayload
	_ = c.ShouldBindJSON(&payload)
	stored, err := h.service.ApproveAbsence(c.Request.Context(), c.Param("id"), payload.Note, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stored, nil)
}

// RejectAbsence godoc
// @Summary Reject a pending absence request with a reason
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body resolvePayload true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /absence-requests/{id}/reject [post]
func (h *WorkflowHandler) RejectAbsence(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload resolvePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	stored, err := h.service.RejectAbsence(c.Request.Context(), c.Param("id"), payload.Reason, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stored, nil)
}

// ListAbsences godoc
// @Summary List absence requests
// @Tags Workflow
// @Produce json
// @Param studentId query string false "Student ID"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /absence-requests [get]
func (h *WorkflowHandler) ListAbsences(c *gin.Context) {
	rows, err := h.service.ListAbsences(c.Request.Context(), models.RequestFilter{
		StudentID: c.Query("studentId"),
		Status:    c.Query("status"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "limit", 50),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// SubmitLeave godoc
// @Summary Submit a leave permission
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body service.SubmitLeaveRequest true "Leave permission"
// @Success 201 {object} response.Envelope
// @Router /leave-permissions [post]
func (h *WorkflowHandler) SubmitLeave(c *gin.Context) {
	var req service.SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	stored, err := h.service.SubmitLeave(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stored)
}

// CloseLeave returns a handler closing an active permission in the given
// terminal state.
func (h *WorkflowHandler) CloseLeave(to models.LeavePermissionStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		stored, err := h.service.CloseLeave(c.Request.Context(), c.Param("id"), to, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, stored, nil)
	}
}

// ListLeaves godoc
// @Summary List leave permissions
// @Tags Workflow
// @Produce json
// @Param studentId query string false "Student ID"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /leave-permissions [get]
func (h *WorkflowHandler) ListLeaves(c *gin.Context) {
	rows, err := h.service.ListLeaves(c.Request.Context(), models.RequestFilter{
		StudentID: c.Query("studentId"),
		Status:    c.Query("status"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "limit", 50),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
