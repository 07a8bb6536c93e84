package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type placementCall struct {
	ID     string
	Day    int
	Period int
}

type stubSlotRepo struct {
	slots      map[string]models.ScheduleSlot
	created    []models.ScheduleSlot
	placements []placementCall
	statuses   map[string]models.SlotStatus
}

func newStubSlotRepo(slots ...models.ScheduleSlot) *stubSlotRepo {
	repo := &stubSlotRepo{
		slots:    make(map[string]models.ScheduleSlot, len(slots)),
		statuses: make(map[string]models.SlotStatus),
	}
	for _, slot := range slots {
		repo.slots[slot.ID] = slot
	}
	return repo
}

func (r *stubSlotRepo) ListByTerm(_ context.Context, termID string) ([]models.ScheduleSlot, error) {
	var result []models.ScheduleSlot
	for _, slot := range r.slots {
		if slot.TermID == termID {
			result = append(result, slot)
		}
	}
	return result, nil
}

func (r *stubSlotRepo) FindByID(_ context.Context, id string) (*models.ScheduleSlot, error) {
	slot, ok := r.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &slot, nil
}

func (r *stubSlotRepo) Create(_ context.Context, slot *models.ScheduleSlot) error {
	r.created = append(r.created, *slot)
	r.slots[slot.ID] = *slot
	return nil
}

func (r *stubSlotRepo) UpdatePlacement(_ context.Context, _ sqlx.ExtContext, id string, day, period int, _ time.Time) error {
	r.placements = append(r.placements, placementCall{ID: id, Day: day, Period: period})
	return nil
}

func (r *stubSlotRepo) UpdateStatus(_ context.Context, id string, status models.SlotStatus, _ time.Time) error {
	r.statuses[id] = status
	return nil
}

type stubConflictCache struct {
	mu          sync.Mutex
	entries     map[string]*dto.DetectionResponse
	invalidated []string
}

func newStubConflictCache() *stubConflictCache {
	return &stubConflictCache{entries: make(map[string]*dto.DetectionResponse)}
}

func (c *stubConflictCache) Get(_ context.Context, termID string) (*dto.DetectionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[termID]; ok {
		copy := *entry
		return &copy, nil
	}
	return nil, appErrors.ErrCacheMiss
}

func (c *stubConflictCache) Set(_ context.Context, termID string, detection *dto.DetectionResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[termID] = detection
	return nil
}

func (c *stubConflictCache) Invalidate(_ context.Context, termID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, termID)
	c.invalidated = append(c.invalidated, termID)
	return nil
}

type stubDirectory struct {
	teachers []models.Teacher
	classes  []models.Class
	subjects []models.Subject
	periods  []models.TimeSlot
}

func (d *stubDirectory) ListTeachers(context.Context) ([]models.Teacher, error) {
	return d.teachers, nil
}

func (d *stubDirectory) ListClasses(context.Context) ([]models.Class, error) {
	return d.classes, nil
}

func (d *stubDirectory) ListSubjects(context.Context) ([]models.Subject, error) {
	return d.subjects, nil
}

func (d *stubDirectory) ListTimeSlots(context.Context) ([]models.TimeSlot, error) {
	return d.periods, nil
}

type recordingListener struct {
	updatedSlots []models.ScheduleSlot
	conflictRuns int
}

func (l *recordingListener) SlotUpdated(slot models.ScheduleSlot) {
	l.updatedSlots = append(l.updatedSlots, slot)
}

func (l *recordingListener) ConflictsDetected(string, []models.ScheduleConflict) {
	l.conflictRuns++
}

func newTxProviderMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type boardFixture struct {
	svc    *BoardService
	repo   *stubSlotRepo
	cache  *stubConflictCache
	txMock sqlmock.Sqlmock
}

func newBoardFixture(t *testing.T, slots ...models.ScheduleSlot) *boardFixture {
	repo := newStubSlotRepo(slots...)
	cache := newStubConflictCache()
	dir := &stubDirectory{
		teachers: []models.Teacher{
			{ID: "teacher-1", FirstName: "Ana", LastName: "Wijaya", MaxWeeklyHours: 40},
			{ID: "teacher-2", FirstName: "Budi", LastName: "Santoso", MaxWeeklyHours: 40},
		},
		classes:  []models.Class{{ID: "class-a", Name: "X IPA 1"}, {ID: "class-b", Name: "X IPA 2"}},
		subjects: []models.Subject{{ID: "subject-1", Code: "MAT", Name: "Mathematics"}},
		periods:  []models.TimeSlot{{Period: 1, DurationMinutes: 45}, {Period: 2, DurationMinutes: 45}},
	}
	txDB, txMock := newTxProviderMock(t)

	svc := NewBoardService(repo, dir, dir, dir, dir, cache, txDB, nil, nil, nil, config.TimetableConfig{
		WorkingDays:        []int{1, 2, 3, 4, 5},
		PeriodsPerDay:      4,
		AvoidConflicts:     true,
		DefaultSlotMinutes: 45,
	})
	return &boardFixture{svc: svc, repo: repo, cache: cache, txMock: txMock}
}

func TestBoardServiceBoardRendersGridAndFilters(t *testing.T) {
	f := newBoardFixture(t,
		mkSlot("s1", "teacher-1", "class-a", 1, 1, ""),
		mkSlot("s2", "teacher-2", "class-b", 2, 2, ""),
	)

	board, err := f.svc.Board(context.Background(), dto.BoardQuery{
		TermID:            "term-1",
		SlotFilterRequest: dto.SlotFilterRequest{Days: []int{1}},
	})
	require.NoError(t, err)
	require.Len(t, board.Slots, 1)
	assert.Equal(t, "s1", board.Slots[0].ID)
	// 5 working days × 4 periods.
	assert.Len(t, board.Grid, 20)
	assert.Empty(t, board.Conflicts)
}

func TestBoardServiceBoardRequiresTerm(t *testing.T) {
	f := newBoardFixture(t)
	_, err := f.svc.Board(context.Background(), dto.BoardQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBoardServiceDetectCachesResult(t *testing.T) {
	f := newBoardFixture(t,
		mkSlot("s1", "teacher-1", "class-a", 1, 1, ""),
		mkSlot("s2", "teacher-1", "class-b", 1, 1, ""),
	)

	first, err := f.svc.Detect(context.Background(), "term-1")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Len(t, first.Conflicts, 1)
	assert.Equal(t, models.ConflictTeacherDoubleBooking, first.Conflicts[0].Type)

	second, err := f.svc.Detect(context.Background(), "term-1")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, len(first.Conflicts), len(second.Conflicts))
}

func TestBoardServiceCreateSlotPersistsAndRedetects(t *testing.T) {
	f := newBoardFixture(t, mkSlot("s1", "teacher-1", "class-a", 1, 1, ""))
	listener := &recordingListener{}
	f.svc.Subscribe(listener)

	result, err := f.svc.CreateSlot(context.Background(), dto.CreateSlotRequest{
		TermID:       "term-1",
		DayOfWeek:    1,
		PeriodNumber: 1,
		TeacherID:    "teacher-1",
		ClassID:      "class-b",
		SubjectID:    "subject-1",
	})
	require.NoError(t, err)
	require.Len(t, f.repo.created, 1)
	assert.Equal(t, models.SlotStatusActive, result.Slot.Status)
	assert.Equal(t, models.SlotTypeRegular, result.Slot.SlotType)
	assert.NotEmpty(t, result.Conflicts, "placing on an occupied teacher cell reports the collision")
	assert.Len(t, listener.updatedSlots, 1)
	assert.Equal(t, 1, listener.conflictRuns)
}

func TestBoardServiceMoveSlotToFreeCell(t *testing.T) {
	f := newBoardFixture(t, mkSlot("s1", "teacher-1", "class-a", 1, 1, ""))
	f.txMock.ExpectBegin()
	f.txMock.ExpectCommit()

	result, err := f.svc.MoveSlot(context.Background(), "s1", dto.MoveSlotRequest{DayOfWeek: 2, PeriodNumber: 2})
	require.NoError(t, err)
	assert.Nil(t, result.Swapped)
	assert.True(t, result.Slot.SamePlacement(2, 2))
	require.Len(t, f.repo.placements, 1)
	assert.Equal(t, placementCall{ID: "s1", Day: 2, Period: 2}, f.repo.placements[0])
	assert.NoError(t, f.txMock.ExpectationsWereMet())
	assert.Contains(t, f.cache.invalidated, "term-1")
}

func TestBoardServiceMoveSlotSelfMoveIsNoOp(t *testing.T) {
	f := newBoardFixture(t, mkSlot("s1", "teacher-1", "class-a", 1, 1, ""))

	result, err := f.svc.MoveSlot(context.Background(), "s1", dto.MoveSlotRequest{DayOfWeek: 1, PeriodNumber: 1})
	require.NoError(t, err)
	assert.True(t, result.Slot.SamePlacement(1, 1))
	assert.Empty(t, f.repo.placements, "self-moves never touch persistence")
	assert.Empty(t, f.cache.invalidated)
}

func TestBoardServiceMoveSlotUnconfirmedSwapRejected(t *testing.T) {
	f := newBoardFixture(t,
		mkSlot("s1", "teacher-1", "class-a", 1, 1, ""),
		mkSlot("s2", "teacher-2", "class-b", 2, 2, ""),
	)

	_, err := f.svc.MoveSlot(context.Background(), "s1", dto.MoveSlotRequest{DayOfWeek: 2, PeriodNumber: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.placements, "rejected swaps leave the board untouched")
}

func TestBoardServiceMoveSlotConfirmedSwap(t *testing.T) {
	f := newBoardFixture(t,
		mkSlot("s1", "teacher-1", "class-a", 1, 1, ""),
		mkSlot("s2", "teacher-2", "class-b", 2, 2, ""),
	)
	f.txMock.ExpectBegin()
	f.txMock.ExpectCommit()

	result, err := f.svc.MoveSlot(context.Background(), "s1", dto.MoveSlotRequest{
		DayOfWeek:    2,
		PeriodNumber: 2,
		ConfirmSwap:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Swapped)
	assert.Equal(t, "s2", result.Swapped.ID)
	assert.True(t, result.Slot.SamePlacement(2, 2))
	assert.True(t, result.Swapped.SamePlacement(1, 1))

	require.Len(t, f.repo.placements, 2, "both placements are written in one transaction")
	assert.Equal(t, placementCall{ID: "s1", Day: 2, Period: 2}, f.repo.placements[0])
	assert.Equal(t, placementCall{ID: "s2", Day: 1, Period: 1}, f.repo.placements[1])
	assert.NoError(t, f.txMock.ExpectationsWereMet())
}

func TestBoardServiceMoveSlotHiddenByFilters(t *testing.T) {
	f := newBoardFixture(t, mkSlot("s1", "teacher-1", "class-a", 1, 1, ""))

	_, err := f.svc.MoveSlot(context.Background(), "s1", dto.MoveSlotRequest{
		DayOfWeek:    2,
		PeriodNumber: 2,
		Filters:      &dto.SlotFilterRequest{Days: []int{3}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.placements)
}

func TestBoardServiceMoveSlotUnknown(t *testing.T) {
	f := newBoardFixture(t)

	_, err := f.svc.MoveSlot(context.Background(), "ghost", dto.MoveSlotRequest{DayOfWeek: 1, PeriodNumber: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBoardServiceCancelSlot(t *testing.T) {
	f := newBoardFixture(t,
		mkSlot("s1", "teacher-1", "class-a", 1, 1, ""),
		mkSlot("s2", "teacher-1", "class-b", 1, 1, ""),
	)

	result, err := f.svc.CancelSlot(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusCancelled, result.Slot.Status)
	assert.Equal(t, models.SlotStatusCancelled, f.repo.statuses["s1"])
	assert.Empty(t, result.Conflicts, "cancelling one side resolves the double booking")
	assert.Contains(t, f.cache.invalidated, "term-1")
}
