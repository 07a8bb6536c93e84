package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newSlotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func slotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "term_id", "day_of_week", "period_number", "teacher_id", "class_id", "subject_id", "room_location", "status", "slot_type", "notes", "created_at", "updated_at"})
}

func TestSlotRepositoryListByTerm(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	now := time.Now()
	rows := slotRows().
		AddRow("s1", "term-1", 1, 1, "t1", "c1", "sub1", nil, "active", "regular", nil, now, now).
		AddRow("s2", "term-1", 1, 2, "t2", "c1", "sub2", "R101", "cancelled", "regular", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, day_of_week, period_number, teacher_id, class_id, subject_id, room_location, status, slot_type, notes, created_at, updated_at FROM schedule_slots WHERE term_id = $1 ORDER BY day_of_week, period_number, id")).
		WithArgs("term-1").
		WillReturnRows(rows)

	slots, err := repo.ListByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, models.SlotStatusActive, slots[0].Status)
	assert.Nil(t, slots[0].RoomLocation)
	require.NotNil(t, slots[1].RoomLocation)
	assert.Equal(t, "R101", *slots[1].RoomLocation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery("SELECT .+ FROM schedule_slots WHERE id =").
		WithArgs("ghost").
		WillReturnRows(slotRows())

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSlotRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectExec("INSERT INTO schedule_slots").
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := models.ScheduleSlot{
		TermID:       "term-1",
		DayOfWeek:    1,
		PeriodNumber: 1,
		TeacherID:    "t1",
		ClassID:      "c1",
		SubjectID:    "sub1",
		Status:       models.SlotStatusActive,
		SlotType:     models.SlotTypeRegular,
	}
	require.NoError(t, repo.Create(context.Background(), &slot))
	assert.NotEmpty(t, slot.ID)
	assert.False(t, slot.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryUpdatePlacement(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_slots SET day_of_week = $2, period_number = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("s1", 2, 3, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePlacement(context.Background(), nil, "s1", 2, 3, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryUpdatePlacementMissingRow(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectExec("UPDATE schedule_slots SET day_of_week").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePlacement(context.Background(), nil, "ghost", 2, 3, time.Now().UTC())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSlotRepositoryUpdatePlacementInTransaction(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedule_slots SET day_of_week").
		WithArgs("s1", 2, 3, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE schedule_slots SET day_of_week").
		WithArgs("s2", 1, 1, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.UpdatePlacement(context.Background(), tx, "s1", 2, 3, now))
	require.NoError(t, repo.UpdatePlacement(context.Background(), tx, "s2", 1, 1, now))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_slots SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("s1", models.SlotStatusCancelled, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "s1", models.SlotStatusCancelled, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}
