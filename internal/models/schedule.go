package models

import (
	"fmt"
	"time"
)

// SchedulePeriod is one teaching session within the weekly timetable. The
// catalog is owned by the scheduling system; this service only reads it.
type SchedulePeriod struct {
	ID        string       `db:"id" json:"id"`
	ClassID   string       `db:"class_id" json:"class_id"`
	Subject   string       `db:"subject" json:"subject"`
	TeacherID string       `db:"teacher_id" json:"teacher_id"`
	DayOfWeek time.Weekday `db:"day_of_week" json:"day_of_week"`
	StartTime string       `db:"start_time" json:"start_time"`
	EndTime   string       `db:"end_time" json:"end_time"`
	TimeSlot  int          `db:"time_slot" json:"time_slot"`
	Semester  string       `db:"semester" json:"semester"`
	Year      int          `db:"year" json:"year"`
}

// StartOn resolves the period's HH:MM start time against a calendar day.
func (p SchedulePeriod) StartOn(date time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", p.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse period start %q: %w", p.StartTime, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}
