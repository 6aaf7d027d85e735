package models

import "time"

// AbsenceRequestStatus captures workflow states for absence requests.
type AbsenceRequestStatus string

const (
	AbsencePending  AbsenceRequestStatus = "pending"
	AbsenceApproved AbsenceRequestStatus = "approved"
	AbsenceRejected AbsenceRequestStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s AbsenceRequestStatus) Valid() bool {
	switch s {
	case AbsencePending, AbsenceApproved, AbsenceRejected:
		return true
	default:
		return false
	}
}

// AbsenceRequest is a student-submitted request to be excused for a span of
// days. It transitions exactly once from pending to approved or rejected.
type AbsenceRequest struct {
	ID          string               `db:"id" json:"id"`
	StudentID   string               `db:"student_id" json:"student_id"`
	Type        string               `db:"type" json:"type"`
	StartDate   time.Time            `db:"start_date" json:"start_date"`
	EndDate     time.Time            `db:"end_date" json:"end_date"`
	Reason      string               `db:"reason" json:"reason"`
	Status      AbsenceRequestStatus `db:"status" json:"status"`
	SubmittedAt time.Time            `db:"submitted_at" json:"submitted_at"`
	ResolvedAt  *time.Time           `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy  *string              `db:"resolved_by" json:"resolved_by,omitempty"`
	Note        *string              `db:"note" json:"note,omitempty"`
}

// LeavePermissionStatus captures workflow states for leave permissions.
type LeavePermissionStatus string

const (
	LeaveActive    LeavePermissionStatus = "active"
	LeaveReturned  LeavePermissionStatus = "returned"
	LeaveAbsent    LeavePermissionStatus = "absent"
	LeaveCancelled LeavePermissionStatus = "cancelled"
)

// Valid returns true when the status is a supported value.
func (s LeavePermissionStatus) Valid() bool {
	switch s {
	case LeaveActive, LeaveReturned, LeaveAbsent, LeaveCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status ends the permission's lifecycle.
func (s LeavePermissionStatus) Terminal() bool {
	return s != LeaveActive
}

// LeavePermission lets a student leave the premises mid-day. It starts
// active and is closed exactly once as returned, absent, or cancelled.
type LeavePermission struct {
	ID          string                `db:"id" json:"id"`
	StudentID   string                `db:"student_id" json:"student_id"`
	Reason      string                `db:"reason" json:"reason"`
	LeaveAt     time.Time             `db:"leave_at" json:"leave_at"`
	ReturnBy    *time.Time            `db:"return_by" json:"return_by,omitempty"`
	Status      LeavePermissionStatus `db:"status" json:"status"`
	SubmittedAt time.Time             `db:"submitted_at" json:"submitted_at"`
	ResolvedAt  *time.Time            `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy  *string               `db:"resolved_by" json:"resolved_by,omitempty"`
}

// RequestFilter scopes listing queries for both workflow tables.
type RequestFilter struct {
	StudentID string
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}
