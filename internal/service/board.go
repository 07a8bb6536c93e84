package service

import (
	"sort"
	"time"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// slotBoard is the authoritative in-memory slot collection for one term. It is
// the sole writer of slot state; the detector and the grid only read
// snapshots. Callers synchronise access (BoardService holds the lock).
type slotBoard struct {
	termID string
	slots  map[string]models.ScheduleSlot
}

func newSlotBoard(termID string, slots []models.ScheduleSlot) *slotBoard {
	board := &slotBoard{
		termID: termID,
		slots:  make(map[string]models.ScheduleSlot, len(slots)),
	}
	for _, slot := range slots {
		board.slots[slot.ID] = slot
	}
	return board
}

// Snapshot returns the slots ordered by day, period, then id. The ordering
// fixes which colliding slot wins a grid cell, keeping the rendered board
// stable between requests.
func (b *slotBoard) Snapshot() []models.ScheduleSlot {
	slots := make([]models.ScheduleSlot, 0, len(b.slots))
	for _, slot := range b.slots {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		if slots[i].PeriodNumber != slots[j].PeriodNumber {
			return slots[i].PeriodNumber < slots[j].PeriodNumber
		}
		return slots[i].ID < slots[j].ID
	})
	return slots
}

func (b *slotBoard) Get(id string) (models.ScheduleSlot, bool) {
	slot, ok := b.slots[id]
	return slot, ok
}

func (b *slotBoard) Upsert(slot models.ScheduleSlot) {
	b.slots[slot.ID] = slot
}

// moveOutcome describes what a board move did.
type moveOutcome struct {
	Moved   models.ScheduleSlot
	Swapped *models.ScheduleSlot
	NoOp    bool
}

// Move relocates the slot to (day, period). An occupied target cell turns the
// move into a swap of placements; both sides are written together so no
// partial swap is ever observable. Moving a slot onto its own cell is a
// detected no-op.
func (b *slotBoard) Move(id string, day, period int) (moveOutcome, error) {
	source, ok := b.slots[id]
	if !ok {
		return moveOutcome{}, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
	}
	if source.SamePlacement(day, period) {
		return moveOutcome{Moved: source, NoOp: true}, nil
	}

	occupant := occupantAt(b.Snapshot(), day, period, id)
	now := time.Now().UTC()

	if occupant == nil {
		source.DayOfWeek = day
		source.PeriodNumber = period
		source.UpdatedAt = now
		b.slots[source.ID] = source
		return moveOutcome{Moved: source}, nil
	}

	target := *occupant
	target.DayOfWeek = source.DayOfWeek
	target.PeriodNumber = source.PeriodNumber
	target.UpdatedAt = now
	source.DayOfWeek = day
	source.PeriodNumber = period
	source.UpdatedAt = now
	b.slots[source.ID] = source
	b.slots[target.ID] = target
	return moveOutcome{Moved: source, Swapped: &target}, nil
}

// Cancel soft-deletes a slot. The record is kept for audit; the board never
// physically removes slots through this path.
func (b *slotBoard) Cancel(id string) (models.ScheduleSlot, error) {
	slot, ok := b.slots[id]
	if !ok {
		return models.ScheduleSlot{}, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
	}
	slot.Status = models.SlotStatusCancelled
	slot.UpdatedAt = time.Now().UTC()
	b.slots[id] = slot
	return slot, nil
}
