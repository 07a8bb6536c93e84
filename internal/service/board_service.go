package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type slotRepository interface {
	ListByTerm(ctx context.Context, termID string) ([]models.ScheduleSlot, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
	Create(ctx context.Context, slot *models.ScheduleSlot) error
	UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id string, day, period int, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.SlotStatus, updatedAt time.Time) error
}

type teacherDirectory interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
}

type classRoster interface {
	ListClasses(ctx context.Context) ([]models.Class, error)
}

type subjectCatalog interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
}

type timeSlotTemplate interface {
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
}

type conflictCache interface {
	Get(ctx context.Context, termID string) (*dto.DetectionResponse, error)
	Set(ctx context.Context, termID string, detection *dto.DetectionResponse) error
	Invalidate(ctx context.Context, termID string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// BoardListener observes board changes. Callbacks run synchronously inside
// the mutating request.
type BoardListener interface {
	ConflictsDetected(termID string, conflicts []models.ScheduleConflict)
	SlotUpdated(slot models.ScheduleSlot)
}

// BoardService owns the per-term timetable boards: it loads slots from
// persistence, applies the move/swap/cancel mutation protocol, projects
// filtered views, and re-runs conflict detection after every mutation.
type BoardService struct {
	slots     slotRepository
	teachers  teacherDirectory
	classes   classRoster
	subjects  subjectCatalog
	timeslots timeSlotTemplate
	cache     conflictCache
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.TimetableConfig

	mu        sync.Mutex
	boards    map[string]*slotBoard
	listeners []BoardListener
}

// NewBoardService wires board dependencies. Cache, metrics and tx provider
// are optional; detection degrades gracefully without them.
func NewBoardService(
	slots slotRepository,
	teachers teacherDirectory,
	classes classRoster,
	subjects subjectCatalog,
	timeslots timeSlotTemplate,
	cache conflictCache,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.TimetableConfig,
) *BoardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.WorkingDays) == 0 {
		cfg.WorkingDays = []int{1, 2, 3, 4, 5}
	}
	if cfg.PeriodsPerDay <= 0 {
		cfg.PeriodsPerDay = 8
	}
	return &BoardService{
		slots:     slots,
		teachers:  teachers,
		classes:   classes,
		subjects:  subjects,
		timeslots: timeslots,
		cache:     cache,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		boards:    make(map[string]*slotBoard),
	}
}

// Subscribe registers a listener for conflict and slot updates.
func (s *BoardService) Subscribe(listener BoardListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

// Settings reports the schedule-template options the board runs with.
func (s *BoardService) Settings() models.GenerationSettings {
	return models.GenerationSettings{
		WorkingDays:               s.cfg.WorkingDays,
		PeriodsPerDay:             s.cfg.PeriodsPerDay,
		BreakPeriods:              s.cfg.BreakPeriods,
		LunchPeriod:               s.cfg.LunchPeriod,
		MaxConsecutivePeriods:     s.cfg.MaxConsecutivePeriods,
		MinBreakBetweenSubjects:   s.cfg.MinBreakBetweenSubjects,
		RespectTeacherPreferences: s.cfg.RespectTeacherPreferences,
		AvoidConflicts:            s.cfg.AvoidConflicts,
		AllowRoomSharing:          s.cfg.AllowRoomSharing,
	}
}

// Board returns the filtered slots, the rendering grid and the current
// conflict set for a term.
func (s *BoardService) Board(ctx context.Context, query dto.BoardQuery) (*dto.BoardResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid board query")
	}

	refs, timeSlots, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.boardLocked(ctx, query.TermID)
	if err != nil {
		return nil, err
	}

	snapshot := board.Snapshot()
	visible := filtersFromRequest(query.SlotFilterRequest).Apply(snapshot, refs)
	grid := BuildGrid(activeOnly(visible), s.cfg.WorkingDays, s.templateTimeSlots(timeSlots))
	conflicts := s.detectLocked(board, refs, timeSlots)

	return &dto.BoardResponse{
		TermID:    query.TermID,
		Slots:     visible,
		Grid:      GridCells(grid),
		Conflicts: conflicts,
	}, nil
}

// Detect runs (or serves from cache) a full conflict-detection pass.
func (s *BoardService) Detect(ctx context.Context, termID string) (*dto.DetectionResponse, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, termID)
		switch {
		case err == nil:
			cached.Cached = true
			s.metrics.RecordConflictCache(true)
			return cached, nil
		case !errors.Is(err, appErrors.ErrCacheMiss):
			s.logger.Warn("conflict cache read failed", zap.String("term_id", termID), zap.Error(err))
		default:
			s.metrics.RecordConflictCache(false)
		}
	}

	refs, timeSlots, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	board, err := s.boardLocked(ctx, termID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	conflicts := s.detectLocked(board, refs, timeSlots)
	s.mu.Unlock()

	detection := &dto.DetectionResponse{
		TermID:      termID,
		Conflicts:   conflicts,
		GeneratedAt: time.Now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, termID, detection); err != nil {
			s.logger.Warn("conflict cache write failed", zap.String("term_id", termID), zap.Error(err))
		}
	}
	return detection, nil
}

// CreateSlot places a new slot on the board and persists it.
func (s *BoardService) CreateSlot(ctx context.Context, req dto.CreateSlotRequest) (*dto.MutationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}

	slotType := models.SlotType(req.SlotType)
	if req.SlotType == "" {
		slotType = models.SlotTypeRegular
	}
	now := time.Now().UTC()
	slot := models.ScheduleSlot{
		ID:           uuid.NewString(),
		TermID:       req.TermID,
		DayOfWeek:    req.DayOfWeek,
		PeriodNumber: req.PeriodNumber,
		TeacherID:    req.TeacherID,
		ClassID:      req.ClassID,
		SubjectID:    req.SubjectID,
		RoomLocation: req.RoomLocation,
		Status:       models.SlotStatusActive,
		SlotType:     slotType,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.slots.Create(ctx, &slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule slot")
	}

	refs, timeSlots, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	board, err := s.boardLocked(ctx, slot.TermID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	board.Upsert(slot)
	conflicts := s.redetectLocked(board, refs, timeSlots)
	s.mu.Unlock()

	s.invalidateCache(ctx, slot.TermID)
	s.notifySlotUpdated(slot)
	s.notifyConflicts(slot.TermID, conflicts)

	return &dto.MutationResponse{Slot: slot, Conflicts: conflicts}, nil
}

// MoveSlot applies the validated move command. Moving onto the origin cell is
// a no-op; moving onto an occupied cell requires confirm_swap and swaps both
// placements atomically; a slot hidden by the caller's filters is rejected
// before the board is touched.
func (s *BoardService) MoveSlot(ctx context.Context, slotID string, req dto.MoveSlotRequest) (*dto.MutationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}

	refs, timeSlots, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, board, err := s.findSlotLocked(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if req.Filters != nil {
		if !filtersFromRequest(*req.Filters).Matches(slot, refs) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "slot is hidden by the active filters")
		}
	}
	if slot.SamePlacement(req.DayOfWeek, req.PeriodNumber) {
		// Self-move: leave the board untouched, report current state.
		return &dto.MutationResponse{Slot: slot, Conflicts: s.detectLocked(board, refs, timeSlots)}, nil
	}

	occupant := occupantAt(board.Snapshot(), req.DayOfWeek, req.PeriodNumber, slot.ID)
	if occupant != nil && !req.ConfirmSwap {
		return nil, appErrors.Clone(appErrors.ErrConflict, "target cell is occupied; confirm the swap to proceed")
	}

	if err := s.persistMove(ctx, slot, occupant, req.DayOfWeek, req.PeriodNumber); err != nil {
		return nil, err
	}

	outcome, err := board.Move(slot.ID, req.DayOfWeek, req.PeriodNumber)
	if err != nil {
		return nil, err
	}

	conflicts := s.redetectLocked(board, refs, timeSlots)
	s.invalidateCache(ctx, slot.TermID)
	s.notifySlotUpdated(outcome.Moved)
	if outcome.Swapped != nil {
		s.notifySlotUpdated(*outcome.Swapped)
	}
	s.notifyConflicts(slot.TermID, conflicts)

	return &dto.MutationResponse{Slot: outcome.Moved, Swapped: outcome.Swapped, Conflicts: conflicts}, nil
}

// CancelSlot soft-deletes a slot and re-runs detection.
func (s *BoardService) CancelSlot(ctx context.Context, slotID string) (*dto.MutationResponse, error) {
	refs, timeSlots, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, board, err := s.findSlotLocked(ctx, slotID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.slots.UpdateStatus(ctx, slot.ID, models.SlotStatusCancelled, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel schedule slot")
	}

	cancelled, err := board.Cancel(slot.ID)
	if err != nil {
		return nil, err
	}

	conflicts := s.redetectLocked(board, refs, timeSlots)
	s.invalidateCache(ctx, slot.TermID)
	s.notifySlotUpdated(cancelled)
	s.notifyConflicts(slot.TermID, conflicts)

	return &dto.MutationResponse{Slot: cancelled, Conflicts: conflicts}, nil
}

// --- internal helpers ---

// boardLocked returns the in-memory board for a term, loading it from
// persistence on first use. Caller holds s.mu.
func (s *BoardService) boardLocked(ctx context.Context, termID string) (*slotBoard, error) {
	if board, ok := s.boards[termID]; ok {
		return board, nil
	}
	slots, err := s.slots.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}
	board := newSlotBoard(termID, slots)
	s.boards[termID] = board
	return board, nil
}

func (s *BoardService) findSlotLocked(ctx context.Context, slotID string) (models.ScheduleSlot, *slotBoard, error) {
	for _, board := range s.boards {
		if slot, ok := board.Get(slotID); ok {
			return slot, board, nil
		}
	}
	record, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ScheduleSlot{}, nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return models.ScheduleSlot{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slot")
	}
	board, err := s.boardLocked(ctx, record.TermID)
	if err != nil {
		return models.ScheduleSlot{}, nil, err
	}
	slot, ok := board.Get(slotID)
	if !ok {
		return models.ScheduleSlot{}, nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
	}
	return slot, board, nil
}

// persistMove writes the placement update, and for swaps both placements, in
// one transaction so a partial swap is never durable.
func (s *BoardService) persistMove(ctx context.Context, source models.ScheduleSlot, occupant *models.ScheduleSlot, day, period int) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	now := time.Now().UTC()

	if err := s.slots.UpdatePlacement(ctx, tx, source.ID, day, period, now); err != nil {
		_ = tx.Rollback()
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move schedule slot")
	}
	if occupant != nil {
		if err := s.slots.UpdatePlacement(ctx, tx, occupant.ID, source.DayOfWeek, source.PeriodNumber, now); err != nil {
			_ = tx.Rollback()
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to swap schedule slots")
		}
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit slot move")
	}
	return nil
}

// detectLocked runs a detection pass over the board snapshot. Caller holds s.mu.
func (s *BoardService) detectLocked(board *slotBoard, refs *referenceIndex, timeSlots []models.TimeSlot) []models.ScheduleConflict {
	started := time.Now()
	conflicts := DetectConflicts(DetectorInput{
		Slots:     board.Snapshot(),
		TimeSlots: timeSlots,
		Teachers:  teacherValues(refs),
		Classes:   classValues(refs),
	})
	s.metrics.ObserveDetection(board.termID, time.Since(started), conflicts)
	return conflicts
}

// redetectLocked re-runs detection after a mutation unless auto-detection is
// disabled, in which case detection waits for an explicit trigger.
func (s *BoardService) redetectLocked(board *slotBoard, refs *referenceIndex, timeSlots []models.TimeSlot) []models.ScheduleConflict {
	if !s.cfg.AvoidConflicts {
		return nil
	}
	return s.detectLocked(board, refs, timeSlots)
}

func (s *BoardService) loadReferences(ctx context.Context) (*referenceIndex, []models.TimeSlot, error) {
	teachers, err := s.teachers.ListTeachers(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	classes, err := s.classes.ListClasses(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	subjects, err := s.subjects.ListSubjects(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	timeSlots, err := s.timeslots.ListTimeSlots(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	return newReferenceIndex(teachers, classes, subjects), timeSlots, nil
}

// templateTimeSlots guarantees the grid covers every configured period even
// when the time-slot template is sparse.
func (s *BoardService) templateTimeSlots(timeSlots []models.TimeSlot) []models.TimeSlot {
	known := make(map[int]bool, len(timeSlots))
	for _, ts := range timeSlots {
		known[ts.Period] = true
	}
	result := append([]models.TimeSlot(nil), timeSlots...)
	for period := 1; period <= s.cfg.PeriodsPerDay; period++ {
		if !known[period] {
			result = append(result, models.TimeSlot{Period: period, DurationMinutes: s.defaultSlotMinutes()})
		}
	}
	return result
}

func (s *BoardService) defaultSlotMinutes() int {
	if s.cfg.DefaultSlotMinutes > 0 {
		return s.cfg.DefaultSlotMinutes
	}
	return models.DefaultSlotMinutes
}

func (s *BoardService) invalidateCache(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, termID); err != nil {
		s.logger.Warn("conflict cache invalidation failed", zap.String("term_id", termID), zap.Error(err))
	}
}

func (s *BoardService) notifySlotUpdated(slot models.ScheduleSlot) {
	for _, listener := range s.listeners {
		listener.SlotUpdated(slot)
	}
}

func (s *BoardService) notifyConflicts(termID string, conflicts []models.ScheduleConflict) {
	if conflicts == nil {
		return
	}
	for _, listener := range s.listeners {
		listener.ConflictsDetected(termID, conflicts)
	}
}

func activeOnly(slots []models.ScheduleSlot) []models.ScheduleSlot {
	result := make([]models.ScheduleSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.IsActive() {
			result = append(result, slot)
		}
	}
	return result
}

func teacherValues(refs *referenceIndex) []models.Teacher {
	result := make([]models.Teacher, 0, len(refs.teachers))
	for _, t := range refs.teachers {
		result = append(result, t)
	}
	return result
}

func classValues(refs *referenceIndex) []models.Class {
	result := make([]models.Class, 0, len(refs.classes))
	for _, c := range refs.classes {
		result = append(result, c)
	}
	return result
}
