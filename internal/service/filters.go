package service

import (
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// referenceIndex resolves foreign references to display entities for search
// and descriptions. Lookup misses fall back to placeholders; they are a
// rendering concern, never a data-integrity error.
type referenceIndex struct {
	teachers map[string]models.Teacher
	classes  map[string]models.Class
	subjects map[string]models.Subject
}

func newReferenceIndex(teachers []models.Teacher, classes []models.Class, subjects []models.Subject) *referenceIndex {
	idx := &referenceIndex{
		teachers: make(map[string]models.Teacher, len(teachers)),
		classes:  make(map[string]models.Class, len(classes)),
		subjects: make(map[string]models.Subject, len(subjects)),
	}
	for _, t := range teachers {
		idx.teachers[t.ID] = t
	}
	for _, c := range classes {
		idx.classes[c.ID] = c
	}
	for _, s := range subjects {
		idx.subjects[s.ID] = s
	}
	return idx
}

func (idx *referenceIndex) teacherName(id string) string {
	if t, ok := idx.teachers[id]; ok {
		if name := t.FullName(); name != "" {
			return name
		}
	}
	return placeholderTeacherName
}

func (idx *referenceIndex) className(id string) string {
	if c, ok := idx.classes[id]; ok && c.Name != "" {
		return c.Name
	}
	return "Unassigned class"
}

func (idx *referenceIndex) subjectName(id string) string {
	if s, ok := idx.subjects[id]; ok && s.Name != "" {
		return s.Name
	}
	return "Unassigned subject"
}

// slotFilters is the typed form of the client's filter state. A slot passes
// when it satisfies every populated category (AND across categories) and, per
// category, matches any selected value (OR within a category).
type slotFilters struct {
	statuses   []models.SlotStatus
	types      []models.SlotType
	days       []int
	rooms      []string
	periodFrom int
	periodTo   int
	search     string
}

func filtersFromRequest(req dto.SlotFilterRequest) slotFilters {
	f := slotFilters{
		days:       req.Days,
		rooms:      req.Rooms,
		periodFrom: req.PeriodFrom,
		periodTo:   req.PeriodTo,
		search:     strings.TrimSpace(req.Search),
	}
	for _, s := range req.Statuses {
		f.statuses = append(f.statuses, models.SlotStatus(s))
	}
	for _, t := range req.Types {
		f.types = append(f.types, models.SlotType(t))
	}
	return f
}

func (f slotFilters) isZero() bool {
	return len(f.statuses) == 0 && len(f.types) == 0 && len(f.days) == 0 &&
		len(f.rooms) == 0 && f.periodFrom == 0 && f.periodTo == 0 && f.search == ""
}

// Matches evaluates the filter conjunction against one slot.
func (f slotFilters) Matches(slot models.ScheduleSlot, refs *referenceIndex) bool {
	if len(f.statuses) > 0 && !containsStatus(f.statuses, slot.Status) {
		return false
	}
	if len(f.types) > 0 && !containsType(f.types, slot.SlotType) {
		return false
	}
	if len(f.days) > 0 && !containsInt(f.days, slot.DayOfWeek) {
		return false
	}
	if len(f.rooms) > 0 && !containsFold(f.rooms, slot.Room()) {
		return false
	}
	if f.periodFrom > 0 && slot.PeriodNumber < f.periodFrom {
		return false
	}
	if f.periodTo > 0 && slot.PeriodNumber > f.periodTo {
		return false
	}
	if f.search != "" && !f.matchesSearch(slot, refs) {
		return false
	}
	return true
}

// matchesSearch checks the free-text term against resolved teacher, class and
// subject names plus room and notes, case-insensitively.
func (f slotFilters) matchesSearch(slot models.ScheduleSlot, refs *referenceIndex) bool {
	term := strings.ToLower(f.search)
	haystacks := []string{
		refs.teacherName(slot.TeacherID),
		refs.className(slot.ClassID),
		refs.subjectName(slot.SubjectID),
		slot.Room(),
	}
	if slot.Notes != nil {
		haystacks = append(haystacks, *slot.Notes)
	}
	for _, haystack := range haystacks {
		if strings.Contains(strings.ToLower(haystack), term) {
			return true
		}
	}
	return false
}

// Apply returns the slots visible under the filter.
func (f slotFilters) Apply(slots []models.ScheduleSlot, refs *referenceIndex) []models.ScheduleSlot {
	if f.isZero() {
		return slots
	}
	visible := make([]models.ScheduleSlot, 0, len(slots))
	for _, slot := range slots {
		if f.Matches(slot, refs) {
			visible = append(visible, slot)
		}
	}
	return visible
}

func containsStatus(values []models.SlotStatus, v models.SlotStatus) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func containsType(values []models.SlotType, v models.SlotType) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, value := range values {
		if strings.EqualFold(value, v) {
			return true
		}
	}
	return false
}
