package models

// GenerationSettings carries the schedule-template options recognised by the
// board and detector. Unknown days or periods are ignored rather than rejected.
type GenerationSettings struct {
	WorkingDays               []int `json:"working_days"`
	PeriodsPerDay             int   `json:"periods_per_day"`
	BreakPeriods              []int `json:"break_periods"`
	LunchPeriod               int   `json:"lunch_period"`
	MaxConsecutivePeriods     int   `json:"max_consecutive_periods"`
	MinBreakBetweenSubjects   int   `json:"min_break_between_subjects"`
	RespectTeacherPreferences bool  `json:"respect_teacher_preferences"`
	AvoidConflicts            bool  `json:"avoid_conflicts"`
	AllowRoomSharing          bool  `json:"allow_room_sharing"`
}
