package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-presensi-api/internal/models"
)

// ErrNoTransition is returned when a conditional status update matched no
// row, meaning the request was already resolved by someone else.
var ErrNoTransition = fmt.Errorf("no pending row matched the transition")

// RequestRepository persists absence requests and leave permissions. Status
// transitions are conditional updates guarded on the initial state, so a
// request resolves exactly once even under concurrent approvers.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const absenceColumns = `id, student_id, type, start_date, end_date, reason, status, submitted_at, resolved_at, resolved_by, note`

// CreateAbsenceRequest stores a new pending request.
func (r *RequestRepository) CreateAbsenceRequest(ctx context.Context, req *models.AbsenceRequest) (*models.AbsenceRequest, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now().UTC()
	}
	req.Status = models.AbsencePending
	query := fmt.Sprintf(`INSERT INTO absence_requests (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, NULL, NULL)
RETURNING %s`, absenceColumns, absenceColumns)
	var stored models.AbsenceRequest
	if err := r.db.GetContext(ctx, &stored, query,
		req.ID, req.StudentID, req.Type, req.StartDate, req.EndDate,
		req.Reason, req.Status, req.SubmittedAt); err != nil {
		return nil, fmt.Errorf("create absence request: %w", err)
	}
	return &stored, nil
}

// GetAbsenceRequest loads one request; sql.ErrNoRows passes through.
func (r *RequestRepository) GetAbsenceRequest(ctx context.Context, id string) (*models.AbsenceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM absence_requests WHERE id = $1`, absenceColumns)
	var req models.AbsenceRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ResolveAbsenceRequest moves a pending request to approved or rejected.
// Returns ErrNoTransition when the request is no longer pending.
func (r *RequestRepository) ResolveAbsenceRequest(ctx context.Context, id string, status models.AbsenceRequestStatus, resolvedBy string, note *string) (*models.AbsenceRequest, error) {
	query := fmt.Sprintf(`UPDATE absence_requests
SET status = $2, resolved_by = $3, resolved_at = $4, note = $5
WHERE id = $1 AND status = $6
RETURNING %s`, absenceColumns)
	var stored models.AbsenceRequest
	err := r.db.GetContext(ctx, &stored, query, id, status, resolvedBy, time.Now().UTC(), note, models.AbsencePending)
	if err == sql.ErrNoRows {
		return nil, ErrNoTransition
	}
	if err != nil {
		return nil, fmt.Errorf("resolve absence request: %w", err)
	}
	return &stored, nil
}

// ListAbsenceRequests returns requests matching the filter, newest first.
func (r *RequestRepository) ListAbsenceRequests(ctx context.Context, filter models.RequestFilter) ([]models.AbsenceRequest, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("start_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("end_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM absence_requests
WHERE %s
ORDER BY submitted_at DESC
LIMIT %d OFFSET %d`, absenceColumns, strings.Join(where, " AND "), size, (page-1)*size)
	var rows []models.AbsenceRequest
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list absence requests: %w", err)
	}
	return rows, nil
}

const leaveColumns = `id, student_id, reason, leave_at, return_by, status, submitted_at, resolved_at, resolved_by`

// CreateLeavePermission stores a new active permission.
func (r *RequestRepository) CreateLeavePermission(ctx context.Context, perm *models.LeavePermission) (*models.LeavePermission, error) {
	if perm.ID == "" {
		perm.ID = uuid.NewString()
	}
	if perm.SubmittedAt.IsZero() {
		perm.SubmittedAt = time.Now().UTC()
	}
	perm.Status = models.LeaveActive
	query := fmt.Sprintf(`INSERT INTO leave_permissions (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, NULL)
RETURNING %s`, leaveColumns, leaveColumns)
	var stored models.LeavePermission
	if err := r.db.GetContext(ctx, &stored, query,
		perm.ID, perm.StudentID, perm.Reason, perm.LeaveAt, perm.ReturnBy,
		perm.Status, perm.SubmittedAt); err != nil {
		return nil, fmt.Errorf("create leave permission: %w", err)
	}
	return &stored, nil
}

// GetLeavePermission loads one permission; sql.ErrNoRows passes through.
func (r *RequestRepository) GetLeavePermission(ctx context.Context, id string) (*models.LeavePermission, error) {
	query := fmt.Sprintf(`SELECT %s FROM leave_permissions WHERE id = $1`, leaveColumns)
	var perm models.LeavePermission
	if err := r.db.GetContext(ctx, &perm, query, id); err != nil {
		return nil, err
	}
	return &perm, nil
}

// ResolveLeavePermission closes an active permission. Returns
// ErrNoTransition when the permission is no longer active.
func (r *RequestRepository) ResolveLeavePermission(ctx context.Context, id string, status models.LeavePermissionStatus, resolvedBy string) (*models.LeavePermission, error) {
	query := fmt.Sprintf(`UPDATE leave_permissions
SET status = $2, resolved_by = $3, resolved_at = $4
WHERE id = $1 AND status = $5
RETURNING %s`, leaveColumns)
	var stored models.LeavePermission
	err := r.db.GetContext(ctx, &stored, query, id, status, resolvedBy, time.Now().UTC(), models.LeaveActive)
	if err == sql.ErrNoRows {
		return nil, ErrNoTransition
	}
	if err != nil {
		return nil, fmt.Errorf("resolve leave permission: %w", err)
	}
	return &stored, nil
}

// ListLeavePermissions returns permissions matching the filter, newest first.
func (r *RequestRepository) ListLeavePermissions(ctx context.Context, filter models.RequestFilter) ([]models.LeavePermission, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM leave_permissions
WHERE %s
ORDER BY submitted_at DESC
LIMIT %d OFFSET %d`, leaveColumns, strings.Join(where, " AND "), size, (page-1)*size)
	var rows []models.LeavePermission
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list leave permissions: %w", err)
	}
	return rows, nil
}
