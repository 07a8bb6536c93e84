package models

// ConflictType identifies the scheduling constraint a conflict violates.
type ConflictType string

const (
	ConflictTeacherDoubleBooking ConflictType = "teacher_double_booking"
	ConflictRoomConflict         ConflictType = "room_conflict"
	ConflictClassOverload        ConflictType = "class_overload"
	ConflictTeacherOverload      ConflictType = "teacher_overload"
)

// ConflictSeverity grades how urgent a conflict is.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "critical"
	SeverityWarning  ConflictSeverity = "warning"
	SeverityMinor    ConflictSeverity = "minor"
)

// ScheduleConflict is a derived finding, recomputed from scratch on every
// detector run. It carries no identity across runs and is never persisted.
type ScheduleConflict struct {
	Type          ConflictType     `json:"type"`
	Severity      ConflictSeverity `json:"severity"`
	Description   string           `json:"description"`
	AffectedSlots []ScheduleSlot   `json:"affected_slots"`
	Suggestions   []string         `json:"suggestions"`
}
