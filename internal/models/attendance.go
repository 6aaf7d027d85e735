package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent      AttendanceStatus = "present"
	AttendanceLate         AttendanceStatus = "late"
	AttendanceAbsent       AttendanceStatus = "absent"
	AttendanceExcused      AttendanceStatus = "excused"
	AttendanceSick         AttendanceStatus = "sick"
	AttendanceDispensation AttendanceStatus = "dispensation"
	AttendanceReturn       AttendanceStatus = "return"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceAbsent,
		AttendanceExcused, AttendanceSick, AttendanceDispensation, AttendanceReturn:
		return true
	default:
		return false
	}
}

// RequiresReason reports whether a record with this status must carry an
// explanation.
func (s AttendanceStatus) RequiresReason() bool {
	switch s {
	case AttendanceExcused, AttendanceSick, AttendanceDispensation, AttendanceReturn:
		return true
	default:
		return false
	}
}

// RecordSource identifies the input channel an attendance record came from.
type RecordSource string

const (
	SourceScan   RecordSource = "scan"
	SourceManual RecordSource = "manual"
	SourceBulk   RecordSource = "bulk"
	SourceImport RecordSource = "import"
)

// AttendanceRecord is one attendee's status for one schedule period on one
// calendar day. Exactly one of StudentID/TeacherID is set, matching
// AttendeeKind. Records are unique on (attendee, kind, schedule, date); a
// later write for the same key supersedes the earlier one.
type AttendanceRecord struct {
	ID           string           `db:"id" json:"id"`
	AttendeeKind AttendeeKind     `db:"attendee_kind" json:"attendee_kind"`
	StudentID    *string          `db:"student_id" json:"student_id,omitempty"`
	TeacherID    *string          `db:"teacher_id" json:"teacher_id,omitempty"`
	ScheduleID   string           `db:"schedule_id" json:"schedule_id"`
	Date         time.Time        `db:"date" json:"date"`
	Status       AttendanceStatus `db:"status" json:"status"`
	CheckedInAt  *time.Time       `db:"checked_in_at" json:"checked_in_at,omitempty"`
	Reason       *string          `db:"reason" json:"reason,omitempty"`
	Source       RecordSource     `db:"source" json:"source"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendeeID returns whichever of StudentID/TeacherID is set.
func (r AttendanceRecord) AttendeeID() string {
	if r.StudentID != nil {
		return *r.StudentID
	}
	if r.TeacherID != nil {
		return *r.TeacherID
	}
	return ""
}

// SetAttendee assigns the id to the column matching the record's kind.
func (r *AttendanceRecord) SetAttendee(kind AttendeeKind, id string) {
	r.AttendeeKind = kind
	if kind == AttendeeTeacher {
		r.TeacherID = &id
		r.StudentID = nil
		return
	}
	r.StudentID = &id
	r.TeacherID = nil
}

// SlotStatus is one entry of a daily slot vector: either an attendance
// status or the no-schedule sentinel.
type SlotStatus string

// SlotNoSchedule marks a slot with no period scheduled that day.
const SlotNoSchedule SlotStatus = "no-schedule"

// SlotEntry pairs a slot's start time with its resolved status.
type SlotEntry struct {
	TimeSlot  int        `json:"time_slot"`
	StartTime string     `json:"start_time"`
	Status    SlotStatus `json:"status"`
	Subject   string     `json:"subject,omitempty"`
}

// SlotRecord is an attendance record joined with its period's timing, used
// when projecting a day onto the slot grid.
type SlotRecord struct {
	AttendanceRecord
	StartTime string `db:"start_time" json:"start_time"`
	TimeSlot  int    `db:"time_slot" json:"time_slot"`
}

// AttendanceSummary aggregates a window of attendance records.
type AttendanceSummary struct {
	Present             int     `json:"present"`
	Late                int     `json:"late"`
	Absent              int     `json:"absent"`
	Excused             int     `json:"excused"`
	Sick                int     `json:"sick"`
	Dispensation        int     `json:"dispensation"`
	Return              int     `json:"return"`
	TotalScheduled      int     `json:"total_scheduled"`
	Rate                float64 `json:"rate"`
	ConsecutiveAbsences int     `json:"consecutive_absences"`
}
