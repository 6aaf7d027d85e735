package models

import "time"

// AttendeeKind distinguishes who a token or attendance record is for.
type AttendeeKind string

const (
	AttendeeStudent AttendeeKind = "student"
	AttendeeTeacher AttendeeKind = "teacher"
)

// Valid returns true when the kind is a supported value.
func (k AttendeeKind) Valid() bool {
	return k == AttendeeStudent || k == AttendeeTeacher
}

// CheckInToken is a short-lived opaque credential bound to one schedule
// period and attendee kind. At most one token per (schedule, kind) is active;
// issuing a new one supersedes the previous. Expiry is derived from
// ExpiresAt at validation time, never swept in the background.
type CheckInToken struct {
	ID           string       `db:"id" json:"id"`
	ScheduleID   string       `db:"schedule_id" json:"schedule_id"`
	AttendeeKind AttendeeKind `db:"attendee_kind" json:"attendee_kind"`
	Token        string       `db:"token" json:"token"`
	IssuedAt     time.Time    `db:"issued_at" json:"issued_at"`
	ExpiresAt    time.Time    `db:"expires_at" json:"expires_at"`
	Active       bool         `db:"active" json:"active"`
	ScanCount    int          `db:"scan_count" json:"scan_count"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t CheckInToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
