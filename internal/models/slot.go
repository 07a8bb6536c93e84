package models

import "time"

// SlotStatus represents the lifecycle state of a schedule slot.
type SlotStatus string

const (
	SlotStatusActive      SlotStatus = "active"
	SlotStatusCancelled   SlotStatus = "cancelled"
	SlotStatusMoved       SlotStatus = "moved"
	SlotStatusSubstituted SlotStatus = "substituted"
)

// SlotType classifies what kind of occurrence a slot is.
type SlotType string

const (
	SlotTypeRegular SlotType = "regular"
	SlotTypeExam    SlotType = "exam"
	SlotTypeBreak   SlotType = "break"
	SlotTypeSpecial SlotType = "special"
)

// ScheduleSlot is a single scheduled lesson occurrence on the timetable board.
// Only active slots participate in conflict analysis; cancelled, moved and
// substituted slots stay on record for audit purposes.
type ScheduleSlot struct {
	ID           string     `db:"id" json:"id"`
	TermID       string     `db:"term_id" json:"term_id"`
	DayOfWeek    int        `db:"day_of_week" json:"day_of_week"`
	PeriodNumber int        `db:"period_number" json:"period_number"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	ClassID      string     `db:"class_id" json:"class_id"`
	SubjectID    string     `db:"subject_id" json:"subject_id"`
	RoomLocation *string    `db:"room_location" json:"room_location,omitempty"`
	Status       SlotStatus `db:"status" json:"status"`
	SlotType     SlotType   `db:"slot_type" json:"slot_type"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the slot participates in conflict analysis.
func (s ScheduleSlot) IsActive() bool {
	return s.Status == SlotStatusActive
}

// Room returns the room location or an empty string when unset.
func (s ScheduleSlot) Room() string {
	if s.RoomLocation == nil {
		return ""
	}
	return *s.RoomLocation
}

// SamePlacement reports whether the slot already occupies the given cell.
func (s ScheduleSlot) SamePlacement(day, period int) bool {
	return s.DayOfWeek == day && s.PeriodNumber == period
}
