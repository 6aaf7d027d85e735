package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/internal/repository"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
)

type requestStore interface {
	CreateAbsenceRequest(ctx context.Context, req *models.AbsenceRequest) (*models.AbsenceRequest, error)
	GetAbsenceRequest(ctx context.Context, id string) (*models.AbsenceRequest, error)
	ResolveAbsenceRequest(ctx context.Context, id string, status models.AbsenceRequestStatus, resolvedBy string, note *string) (*models.AbsenceRequest, error)
	ListAbsenceRequests(ctx context.Context, filter models.RequestFilter) ([]models.AbsenceRequest, error)
	CreateLeavePermission(ctx context.Context, perm *models.LeavePermission) (*models.LeavePermission, error)
	GetLeavePermission(ctx context.Context, id string) (*models.LeavePermission, error)
	ResolveLeavePermission(ctx context.Context, id string, status models.LeavePermissionStatus, resolvedBy string) (*models.LeavePermission, error)
	ListLeavePermissions(ctx context.Context, filter models.RequestFilter) ([]models.LeavePermission, error)
}

// WorkflowService drives the approval state machines for absence requests
// and leave permissions. Both are single-transition: pending requests go to
// approved or rejected, active permissions close as returned, absent, or
// cancelled, and terminal states are final.
type WorkflowService struct {
	requests  requestStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkflowService constructs the service.
func NewWorkflowService(requests requestStore, validate *validator.Validate, logger *zap.Logger) *WorkflowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{requests: requests, validator: validate, logger: logger}
}

// SubmitAbsenceRequest describes a student's absence request payload.
type SubmitAbsenceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Type      string `json:"type" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// SubmitAbsence creates a new pending absence request.
func (s *WorkflowService) SubmitAbsence(ctx context.Context, req SubmitAbsenceRequest) (*models.AbsenceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	stored, err := s.requests.CreateAbsenceRequest(ctx, &models.AbsenceRequest{
		StudentID: req.StudentID,
		Type:      req.Type,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit absence request")
	}
	return stored, nil
}

// ApproveAbsence resolves a pending request as approved with an optional
// note. A second resolution attempt fails with AlreadyResolved.
func (s *WorkflowService) ApproveAbsence(ctx context.Context, id string, note string, approverID string) (*models.AbsenceRequest, error) {
	if _, err := s.loadAbsence(ctx, id); err != nil {
		return nil, err
	}
	stored, err := s.requests.ResolveAbsenceRequest(ctx, id, models.AbsenceApproved, approverID, optionalNote(note))
	if err != nil {
		return nil, s.transitionError(err, "failed to approve absence request")
	}
	s.logger.Info("absence request approved", zap.String("request_id", id), zap.String("resolved_by", approverID))
	return stored, nil
}

// RejectAbsence resolves a pending request as rejected. The rejection
// reason is mandatory.
func (s *WorkflowService) RejectAbsence(ctx context.Context, id string, reason string, approverID string) (*models.AbsenceRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason required")
	}
	if _, err := s.loadAbsence(ctx, id); err != nil {
		return nil, err
	}
	stored, err := s.requests.ResolveAbsenceRequest(ctx, id, models.AbsenceRejected, approverID, optionalNote(reason))
	if err != nil {
		return nil, s.transitionError(err, "failed to reject absence request")
	}
	s.logger.Info("absence request rejected", zap.String("request_id", id), zap.String("resolved_by", approverID))
	return stored, nil
}

// ListAbsences returns absence requests for dashboards.
func (s *WorkflowService) ListAbsences(ctx context.Context, filter models.RequestFilter) ([]models.AbsenceRequest, error) {
	rows, err := s.requests.ListAbsenceRequests(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absence requests")
	}
	return rows, nil
}

// SubmitLeaveRequest describes a student's leave permission payload.
type SubmitLeaveRequest struct {
	StudentID string     `json:"student_id" validate:"required"`
	Reason    string     `json:"reason" validate:"required"`
	LeaveAt   time.Time  `json:"leave_at" validate:"required"`
	ReturnBy  *time.Time `json:"return_by"`
}

// SubmitLeave creates a new active leave permission.
func (s *WorkflowService) SubmitLeave(ctx context.Context, req SubmitLeaveRequest) (*models.LeavePermission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	stored, err := s.requests.CreateLeavePermission(ctx, &models.LeavePermission{
		StudentID: req.StudentID,
		Reason:    req.Reason,
		LeaveAt:   req.LeaveAt,
		ReturnBy:  req.ReturnBy,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit leave permission")
	}
	return stored, nil
}

// CloseLeave moves an active permission to returned, absent, or cancelled.
func (s *WorkflowService) CloseLeave(ctx context.Context, id string, to models.LeavePermissionStatus, resolverID string) (*models.LeavePermission, error) {
	if !to.Valid() || !to.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target status must be returned, absent, or cancelled")
	}
	perm, err := s.requests.GetLeavePermission(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave permission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave permission")
	}
	if perm.Status.Terminal() {
		return nil, appErrors.ErrAlreadyResolved
	}
	stored, err := s.requests.ResolveLeavePermission(ctx, id, to, resolverID)
	if err != nil {
		return nil, s.transitionError(err, "failed to close leave permission")
	}
	s.logger.Info("leave permission closed",
		zap.String("permission_id", id),
		zap.String("status", string(to)),
		zap.String("resolved_by", resolverID))
	return stored, nil
}

// ListLeaves returns leave permissions for dashboards.
func (s *WorkflowService) ListLeaves(ctx context.Context, filter models.RequestFilter) ([]models.LeavePermission, error) {
	rows, err := s.requests.ListLeavePermissions(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave permissions")
	}
	return rows, nil
}

// loadAbsence fetches a request and pre-checks its state so callers get
// AlreadyResolved rather than a generic conflict. The conditional update in
// the repository still guards the race.
func (s *WorkflowService) loadAbsence(ctx context.Context, id string) (*models.AbsenceRequest, error) {
	req, err := s.requests.GetAbsenceRequest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence request")
	}
	if req.Status != models.AbsencePending {
		return nil, appErrors.ErrAlreadyResolved
	}
	return req, nil
}

func (s *WorkflowService) transitionError(err error, message string) error {
	if errors.Is(err, repository.ErrNoTransition) {
		return appErrors.ErrAlreadyResolved
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func optionalNote(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
