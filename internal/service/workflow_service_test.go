package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/internal/repository"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
)

type requestStoreStub struct {
	absences     map[string]*models.AbsenceRequest
	leaves       map[string]*models.LeavePermission
	createErr    error
	resolveErr   error
	listErr      error
	resolveCalls int
}

func (s *requestStoreStub) CreateAbsenceRequest(ctx context.Context, req *models.AbsenceRequest) (*models.AbsenceRequest, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	stored := *req
	stored.ID = "absence-1"
	stored.Status = models.AbsencePending
	stored.SubmittedAt = time.Now().UTC()
	if s.absences == nil {
		s.absences = map[string]*models.AbsenceRequest{}
	}
	s.absences[stored.ID] = &stored
	return &stored, nil
}

func (s *requestStoreStub) GetAbsenceRequest(ctx context.Context, id string) (*models.AbsenceRequest, error) {
	if req, ok := s.absences[id]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *requestStoreStub) ResolveAbsenceRequest(ctx context.Context, id string, status models.AbsenceRequestStatus, resolvedBy string, note *string) (*models.AbsenceRequest, error) {
	s.resolveCalls++
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	req, ok := s.absences[id]
	if !ok || req.Status != models.AbsencePending {
		return nil, repository.ErrNoTransition
	}
	now := time.Now().UTC()
	req.Status = status
	req.ResolvedAt = &now
	req.ResolvedBy = &resolvedBy
	req.Note = note
	copied := *req
	return &copied, nil
}

func (s *requestStoreStub) ListAbsenceRequests(ctx context.Context, filter models.RequestFilter) ([]models.AbsenceRequest, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.AbsenceRequest, 0, len(s.absences))
	for _, req := range s.absences {
		out = append(out, *req)
	}
	return out, nil
}

func (s *requestStoreStub) CreateLeavePermission(ctx context.Context, perm *models.LeavePermission) (*models.LeavePermission, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	stored := *perm
	stored.ID = "leave-1"
	stored.Status = models.LeaveActive
	stored.SubmittedAt = time.Now().UTC()
	if s.leaves == nil {
		s.leaves = map[string]*models.LeavePermission{}
	}
	s.leaves[stored.ID] = &stored
	return &stored, nil
}

func (s *requestStoreStub) GetLeavePermission(ctx context.Context, id string) (*models.LeavePermission, error) {
	if perm, ok := s.leaves[id]; ok {
		copied := *perm
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *requestStoreStub) ResolveLeavePermission(ctx context.Context, id string, status models.LeavePermissionStatus, resolvedBy string) (*models.LeavePermission, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	perm, ok := s.leaves[id]
	if !ok || perm.Status != models.LeaveActive {
		return nil, repository.ErrNoTransition
	}
	now := time.Now().UTC()
	perm.Status = status
	perm.ResolvedAt = &now
	perm.ResolvedBy = &resolvedBy
	copied := *perm
	return &copied, nil
}

func (s *requestStoreStub) ListLeavePermissions(ctx context.Context, filter models.RequestFilter) ([]models.LeavePermission, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.LeavePermission, 0, len(s.leaves))
	for _, perm := range s.leaves {
		out = append(out, *perm)
	}
	return out, nil
}

func submitTestAbsence(t *testing.T, service *WorkflowService) *models.AbsenceRequest {
	t.Helper()
	req, err := service.SubmitAbsence(context.Background(), SubmitAbsenceRequest{
		StudentID: "student-1",
		Type:      "sick",
		StartDate: "2026-08-24",
		EndDate:   "2026-08-25",
		Reason:    "demam",
	})
	require.NoError(t, err)
	return req
}

func TestWorkflowServiceSubmitAbsence(t *testing.T) {
	service := NewWorkflowService(&requestStoreStub{}, nil, nil)

	req := submitTestAbsence(t, service)
	assert.Equal(t, models.AbsencePending, req.Status)
	assert.Equal(t, "student-1", req.StudentID)
	assert.Nil(t, req.ResolvedAt)
}

func TestWorkflowServiceSubmitAbsenceInvertedRange(t *testing.T) {
	service := NewWorkflowService(&requestStoreStub{}, nil, nil)

	_, err := service.SubmitAbsence(context.Background(), SubmitAbsenceRequest{
		StudentID: "student-1",
		Type:      "sick",
		StartDate: "2026-08-25",
		EndDate:   "2026-08-24",
		Reason:    "demam",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceApproveThenRejectConflicts(t *testing.T) {
	store := &requestStoreStub{}
	service := NewWorkflowService(store, nil, nil)
	req := submitTestAbsence(t, service)

	approved, err := service.ApproveAbsence(context.Background(), req.ID, "silakan istirahat", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.AbsenceApproved, approved.Status)
	require.NotNil(t, approved.ResolvedBy)
	assert.Equal(t, "admin-1", *approved.ResolvedBy)

	_, err = service.RejectAbsence(context.Background(), req.ID, "terlambat", "admin-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyResolved.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceApproveTwiceConflicts(t *testing.T) {
	store := &requestStoreStub{}
	service := NewWorkflowService(store, nil, nil)
	req := submitTestAbsence(t, service)

	_, err := service.ApproveAbsence(context.Background(), req.ID, "", "admin-1")
	require.NoError(t, err)
	_, err = service.ApproveAbsence(context.Background(), req.ID, "", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyResolved.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceRejectRequiresReason(t *testing.T) {
	store := &requestStoreStub{}
	service := NewWorkflowService(store, nil, nil)
	req := submitTestAbsence(t, service)

	_, err := service.RejectAbsence(context.Background(), req.ID, "   ", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.resolveCalls)
}

func TestWorkflowServiceApproveRaceFallsBackToConflict(t *testing.T) {
	// The pre-check sees pending but the conditional update loses the race.
	store := &requestStoreStub{}
	service := NewWorkflowService(store, nil, nil)
	req := submitTestAbsence(t, service)
	store.resolveErr = repository.ErrNoTransition

	_, err := service.ApproveAbsence(context.Background(), req.ID, "", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyResolved.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceApproveUnknown(t *testing.T) {
	service := NewWorkflowService(&requestStoreStub{}, nil, nil)

	_, err := service.ApproveAbsence(context.Background(), "missing", "", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceLeaveLifecycle(t *testing.T) {
	store := &requestStoreStub{}
	service := NewWorkflowService(store, nil, nil)

	perm, err := service.SubmitLeave(context.Background(), SubmitLeaveRequest{
		StudentID: "student-1",
		Reason:    "ke puskesmas",
		LeaveAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveActive, perm.Status)

	closed, err := service.CloseLeave(context.Background(), perm.ID, models.LeaveReturned, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveReturned, closed.Status)

	_, err = service.CloseLeave(context.Background(), perm.ID, models.LeaveAbsent, "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyResolved.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceCloseLeaveRejectsNonTerminalTarget(t *testing.T) {
	service := NewWorkflowService(&requestStoreStub{}, nil, nil)

	_, err := service.CloseLeave(context.Background(), "leave-1", models.LeaveActive, "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = service.CloseLeave(context.Background(), "leave-1", models.LeavePermissionStatus("gone"), "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceCloseLeaveUnknown(t *testing.T) {
	service := NewWorkflowService(&requestStoreStub{}, nil, nil)

	_, err := service.CloseLeave(context.Background(), "missing", models.LeaveCancelled, "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
