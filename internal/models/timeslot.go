package models

// TimeSlot maps a period number to concrete clock times. Created once at
// schedule-template setup and treated as immutable afterwards.
type TimeSlot struct {
	Period          int    `db:"period" json:"period"`
	StartTime       string `db:"start_time" json:"start_time"`
	EndTime         string `db:"end_time" json:"end_time"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
}

// DefaultSlotMinutes is assumed when a slot references a period with no
// matching time-slot definition.
const DefaultSlotMinutes = 45
