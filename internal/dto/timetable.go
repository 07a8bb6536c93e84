package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// CreateSlotRequest places a new lesson occurrence on the board.
type CreateSlotRequest struct {
	TermID       string  `json:"termId" validate:"required"`
	DayOfWeek    int     `json:"dayOfWeek" validate:"required,min=1,max=7"`
	PeriodNumber int     `json:"periodNumber" validate:"required,min=1"`
	TeacherID    string  `json:"teacherId" validate:"required"`
	ClassID      string  `json:"classId" validate:"required"`
	SubjectID    string  `json:"subjectId" validate:"required"`
	RoomLocation *string `json:"roomLocation"`
	SlotType     string  `json:"slotType" validate:"omitempty,oneof=regular exam break special"`
	Notes        *string `json:"notes"`
}

// SlotFilterRequest mirrors the client's active filter state. Categories are
// combined with AND; values inside a category with OR.
type SlotFilterRequest struct {
	Statuses   []string `json:"statuses" form:"status" validate:"omitempty,dive,oneof=active cancelled moved substituted"`
	Types      []string `json:"types" form:"type" validate:"omitempty,dive,oneof=regular exam break special"`
	Days       []int    `json:"days" form:"day" validate:"omitempty,dive,min=1,max=7"`
	Rooms      []string `json:"rooms" form:"room"`
	PeriodFrom int      `json:"periodFrom" form:"periodFrom" validate:"omitempty,min=1"`
	PeriodTo   int      `json:"periodTo" form:"periodTo" validate:"omitempty,min=1"`
	Search     string   `json:"search" form:"search"`
}

// MoveSlotRequest relocates a slot to a target cell. When the target cell is
// occupied the move becomes a swap, which the caller must confirm explicitly.
// Filters, when present, replay the caller's view state so moves of slots the
// caller cannot currently see are rejected.
type MoveSlotRequest struct {
	DayOfWeek    int                `json:"dayOfWeek" validate:"required,min=1,max=7"`
	PeriodNumber int                `json:"periodNumber" validate:"required,min=1"`
	ConfirmSwap  bool               `json:"confirmSwap"`
	Filters      *SlotFilterRequest `json:"filters"`
}

// BoardQuery selects and projects the board for rendering.
type BoardQuery struct {
	TermID string `form:"termId" validate:"required"`
	SlotFilterRequest
}

// GridCell is one day×period cell of the rendering grid. At most one slot is
// shown per cell even when the detector reports colliding slots.
type GridCell struct {
	DayOfWeek    int                  `json:"dayOfWeek"`
	PeriodNumber int                  `json:"periodNumber"`
	Slot         *models.ScheduleSlot `json:"slot,omitempty"`
}

// BoardResponse is the rendered board view.
type BoardResponse struct {
	TermID    string                    `json:"termId"`
	Slots     []models.ScheduleSlot     `json:"slots"`
	Grid      []GridCell                `json:"grid"`
	Conflicts []models.ScheduleConflict `json:"conflicts"`
}

// MutationResponse returns the refreshed state after a board mutation.
type MutationResponse struct {
	Slot      models.ScheduleSlot       `json:"slot"`
	Swapped   *models.ScheduleSlot      `json:"swapped,omitempty"`
	Conflicts []models.ScheduleConflict `json:"conflicts"`
}

// DetectionResponse is a full conflict-detection pass for a term.
type DetectionResponse struct {
	TermID      string                    `json:"termId"`
	Conflicts   []models.ScheduleConflict `json:"conflicts"`
	GeneratedAt time.Time                 `json:"generatedAt"`
	Cached      bool                      `json:"cached"`
}

// ExportQuery selects the board export target.
type ExportQuery struct {
	TermID string `form:"termId" validate:"required"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
