package service

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// GridKey addresses one day×period cell of the rendering grid.
type GridKey struct {
	Day    int
	Period int
}

// BuildGrid projects slots onto the working-day × period matrix for rendering.
// Construction is last-write-wins: when several slots occupy the same cell the
// later slot in input order silently replaces the earlier one. The grid is a
// presentation index only — colliding slots are still reported by the
// detector, which reads the full slot list, never the grid.
func BuildGrid(slots []models.ScheduleSlot, workingDays []int, timeSlots []models.TimeSlot) map[GridKey]*models.ScheduleSlot {
	grid := make(map[GridKey]*models.ScheduleSlot, len(workingDays)*len(timeSlots))
	for _, day := range workingDays {
		for _, ts := range timeSlots {
			grid[GridKey{Day: day, Period: ts.Period}] = nil
		}
	}
	for i := range slots {
		slot := slots[i]
		grid[GridKey{Day: slot.DayOfWeek, Period: slot.PeriodNumber}] = &slot
	}
	return grid
}

// GridCells flattens the grid into a deterministic day/period ordered list.
func GridCells(grid map[GridKey]*models.ScheduleSlot) []dto.GridCell {
	keys := make([]GridKey, 0, len(grid))
	for key := range grid {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day == keys[j].Day {
			return keys[i].Period < keys[j].Period
		}
		return keys[i].Day < keys[j].Day
	})

	cells := make([]dto.GridCell, 0, len(keys))
	for _, key := range keys {
		cells = append(cells, dto.GridCell{
			DayOfWeek:    key.Day,
			PeriodNumber: key.Period,
			Slot:         grid[key],
		})
	}
	return cells
}

// occupantAt returns the active slot rendered at the given cell, excluding the
// slot identified by excludeID. Matches the grid's last-write-wins view so a
// move lands exactly where the rendered occupant is.
func occupantAt(slots []models.ScheduleSlot, day, period int, excludeID string) *models.ScheduleSlot {
	var occupant *models.ScheduleSlot
	for i := range slots {
		slot := slots[i]
		if !slot.IsActive() || slot.ID == excludeID {
			continue
		}
		if slot.SamePlacement(day, period) {
			occupant = &slot
		}
	}
	return occupant
}
