package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

var exportHeaders = []string{"Day", "Period", "Time", "Class", "Subject", "Teacher", "Room", "Status", "Type", "Notes"}

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// ExportFile is a rendered board export ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the timetable board as CSV or PDF.
type ExportService struct {
	slots     slotRepository
	teachers  teacherDirectory
	classes   classRoster
	subjects  subjectCatalog
	timeslots timeSlotTemplate
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService wires the export pipeline.
func NewExportService(
	slots slotRepository,
	teachers teacherDirectory,
	classes classRoster,
	subjects subjectCatalog,
	timeslots timeSlotTemplate,
	validate *validator.Validate,
	logger *zap.Logger,
) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		slots:     slots,
		teachers:  teachers,
		classes:   classes,
		subjects:  subjects,
		timeslots: timeslots,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Export renders the board of a term in the requested format.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := query.Format
	if format == "" {
		format = "csv"
	}

	slots, err := s.slots.ListByTerm(ctx, query.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}
	teachers, err := s.teachers.ListTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	classes, err := s.classes.ListClasses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	subjects, err := s.subjects.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	timeSlots, err := s.timeslots.ListTimeSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}

	table := buildExportTable(slots, newReferenceIndex(teachers, classes, subjects), timeSlots)

	switch format {
	case "csv":
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%s.csv", query.TermID),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(table, fmt.Sprintf("Timetable %s", query.TermID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%s.pdf", query.TermID),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
}

func buildExportTable(slots []models.ScheduleSlot, refs *referenceIndex, timeSlots []models.TimeSlot) export.Table {
	periods := make(map[int]models.TimeSlot, len(timeSlots))
	for _, ts := range timeSlots {
		periods[ts.Period] = ts
	}

	board := newSlotBoard("", slots)
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range board.Snapshot() {
		timeRange := ""
		if ts, ok := periods[slot.PeriodNumber]; ok && ts.StartTime != "" {
			timeRange = ts.StartTime + "-" + ts.EndTime
		}
		notes := ""
		if slot.Notes != nil {
			notes = *slot.Notes
		}
		rows = append(rows, map[string]string{
			"Day":     dayName(slot.DayOfWeek),
			"Period":  strconv.Itoa(slot.PeriodNumber),
			"Time":    timeRange,
			"Class":   refs.className(slot.ClassID),
			"Subject": refs.subjectName(slot.SubjectID),
			"Teacher": refs.teacherName(slot.TeacherID),
			"Room":    slot.Room(),
			"Status":  string(slot.Status),
			"Type":    string(slot.SlotType),
			"Notes":   notes,
		})
	}
	return export.Table{Headers: exportHeaders, Rows: rows}
}

func dayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return strconv.Itoa(day)
}
