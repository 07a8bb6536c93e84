package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// DetectorInput is the snapshot a detection pass reads. The detector never
// mutates it and performs no I/O; reference lists that fail to resolve an ID
// only degrade descriptions, never the analysis itself.
type DetectorInput struct {
	Slots     []models.ScheduleSlot
	TimeSlots []models.TimeSlot
	Teachers  []models.Teacher
	Classes   []models.Class
}

const placeholderTeacherName = "Unassigned teacher"

var (
	doubleBookingSuggestions = []string{
		"Reschedule one of the lessons to a free period",
		"Assign a different teacher to one of the lessons",
		"Cancel one of the colliding lessons",
	}
	roomConflictSuggestions = []string{
		"Move one of the lessons to a different room",
		"Reschedule one of the lessons to a free period",
		"Cancel one of the colliding lessons",
	}
	classOverloadSuggestions = []string{
		"Reschedule one of the lessons to a free period",
		"Merge the lessons if they cover the same subject",
		"Cancel one of the colliding lessons",
	}
	teacherOverloadSuggestions = []string{
		"Redistribute lessons to teachers with spare capacity",
		"Raise the teacher's weekly hour limit",
		"Cancel lessons until the load fits the limit",
	}
)

// DetectConflicts runs the four independent conflict passes over the active
// slots of the snapshot. The result carries no ordering contract; re-running
// on an unchanged snapshot yields an equivalent conflict set.
func DetectConflicts(in DetectorInput) []models.ScheduleConflict {
	active := make([]models.ScheduleSlot, 0, len(in.Slots))
	for _, slot := range in.Slots {
		if slot.IsActive() {
			active = append(active, slot)
		}
	}

	teachers := make(map[string]models.Teacher, len(in.Teachers))
	for _, t := range in.Teachers {
		teachers[t.ID] = t
	}
	classes := make(map[string]models.Class, len(in.Classes))
	for _, c := range in.Classes {
		classes[c.ID] = c
	}
	periods := make(map[int]models.TimeSlot, len(in.TimeSlots))
	for _, ts := range in.TimeSlots {
		periods[ts.Period] = ts
	}

	conflicts := detectTeacherDoubleBookings(active, teachers)
	conflicts = append(conflicts, detectRoomConflicts(active)...)
	conflicts = append(conflicts, detectClassOverloads(active, classes)...)
	conflicts = append(conflicts, detectTeacherOverloads(active, teachers, periods)...)
	return conflicts
}

type cellGroupKey struct {
	Owner  string
	Day    int
	Period int
}

func detectTeacherDoubleBookings(slots []models.ScheduleSlot, teachers map[string]models.Teacher) []models.ScheduleConflict {
	groups := groupByCell(slots, func(s models.ScheduleSlot) string { return s.TeacherID })

	var conflicts []models.ScheduleConflict
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		conflicts = append(conflicts, models.ScheduleConflict{
			Type:     models.ConflictTeacherDoubleBooking,
			Severity: models.SeverityCritical,
			Description: fmt.Sprintf("%s is booked for %d lessons on day %d, period %d",
				teacherDisplayName(teachers, key.Owner), len(members), key.Day, key.Period),
			AffectedSlots: members,
			Suggestions:   doubleBookingSuggestions,
		})
	}
	return conflicts
}

func detectRoomConflicts(slots []models.ScheduleSlot) []models.ScheduleConflict {
	groups := groupByCell(slots, func(s models.ScheduleSlot) string { return s.Room() })

	var conflicts []models.ScheduleConflict
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		conflicts = append(conflicts, models.ScheduleConflict{
			Type:     models.ConflictRoomConflict,
			Severity: models.SeverityCritical,
			Description: fmt.Sprintf("Room %s hosts %d lessons on day %d, period %d",
				key.Owner, len(members), key.Day, key.Period),
			AffectedSlots: members,
			Suggestions:   roomConflictSuggestions,
		})
	}
	return conflicts
}

func detectClassOverloads(slots []models.ScheduleSlot, classes map[string]models.Class) []models.ScheduleConflict {
	groups := groupByCell(slots, func(s models.ScheduleSlot) string { return s.ClassID })

	var conflicts []models.ScheduleConflict
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		conflicts = append(conflicts, models.ScheduleConflict{
			Type:     models.ConflictClassOverload,
			Severity: models.SeverityCritical,
			Description: fmt.Sprintf("Class %s has %d simultaneous lessons on day %d, period %d",
				classDisplayName(classes, key.Owner), len(members), key.Day, key.Period),
			AffectedSlots: members,
			Suggestions:   classOverloadSuggestions,
		})
	}
	return conflicts
}

func detectTeacherOverloads(slots []models.ScheduleSlot, teachers map[string]models.Teacher, periods map[int]models.TimeSlot) []models.ScheduleConflict {
	hoursByTeacher := make(map[string]float64)
	slotsByTeacher := make(map[string][]models.ScheduleSlot)
	for _, slot := range slots {
		if slot.TeacherID == "" {
			continue
		}
		minutes := models.DefaultSlotMinutes
		if ts, ok := periods[slot.PeriodNumber]; ok && ts.DurationMinutes > 0 {
			minutes = ts.DurationMinutes
		}
		hoursByTeacher[slot.TeacherID] += float64(minutes) / 60.0
		slotsByTeacher[slot.TeacherID] = append(slotsByTeacher[slot.TeacherID], slot)
	}

	var conflicts []models.ScheduleConflict
	for teacherID, hours := range hoursByTeacher {
		teacher, ok := teachers[teacherID]
		if !ok || teacher.MaxWeeklyHours <= 0 {
			continue
		}
		// Strict comparison: a teacher at exactly the limit is not overloaded.
		if hours > float64(teacher.MaxWeeklyHours) {
			conflicts = append(conflicts, models.ScheduleConflict{
				Type:     models.ConflictTeacherOverload,
				Severity: models.SeverityWarning,
				Description: fmt.Sprintf("%s is scheduled for %.1f hours per week, exceeding the limit of %d hours",
					teacherDisplayName(teachers, teacherID), hours, teacher.MaxWeeklyHours),
				AffectedSlots: slotsByTeacher[teacherID],
				Suggestions:   teacherOverloadSuggestions,
			})
		}
	}
	return conflicts
}

// groupByCell buckets active slots by (owner, day, period). Slots whose owner
// key resolves empty cannot be grouped and are skipped.
func groupByCell(slots []models.ScheduleSlot, ownerOf func(models.ScheduleSlot) string) map[cellGroupKey][]models.ScheduleSlot {
	groups := make(map[cellGroupKey][]models.ScheduleSlot)
	for _, slot := range slots {
		owner := ownerOf(slot)
		if owner == "" {
			continue
		}
		key := cellGroupKey{Owner: owner, Day: slot.DayOfWeek, Period: slot.PeriodNumber}
		groups[key] = append(groups[key], slot)
	}
	return groups
}

func teacherDisplayName(teachers map[string]models.Teacher, id string) string {
	if teacher, ok := teachers[id]; ok {
		if name := teacher.FullName(); name != "" {
			return name
		}
	}
	return placeholderTeacherName
}

func classDisplayName(classes map[string]models.Class, id string) string {
	if class, ok := classes[id]; ok && class.Name != "" {
		return class.Name
	}
	return id
}
