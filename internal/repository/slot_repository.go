package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const slotColumns = "id, term_id, day_of_week, period_number, teacher_id, class_id, subject_id, room_location, status, slot_type, notes, created_at, updated_at"

// SlotRepository manages persistence for schedule slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs a SlotRepository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// ListByTerm returns every slot recorded for a term, regardless of status.
func (r *SlotRepository) ListByTerm(ctx context.Context, termID string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE term_id = $1 ORDER BY day_of_week, period_number, id", slotColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, termID); err != nil {
		return nil, fmt.Errorf("list slots for term %s: %w", termID, err)
	}
	return slots, nil
}

// FindByID fetches a slot by ID. Returns sql.ErrNoRows when absent.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE id = $1", slotColumns)
	var slot models.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a new slot record.
func (r *SlotRepository) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO schedule_slots (id, term_id, day_of_week, period_number, teacher_id, class_id, subject_id, room_location, status, slot_type, notes, created_at, updated_at)
		VALUES (:id, :term_id, :day_of_week, :period_number, :teacher_id, :class_id, :subject_id, :room_location, :status, :slot_type, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

// UpdatePlacement moves a slot to a new cell. The executor parameter lets a
// swap write both placements inside one transaction.
func (r *SlotRepository) UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id string, day, period int, updatedAt time.Time) error {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE schedule_slots SET day_of_week = $2, period_number = $3, updated_at = $4 WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id, day, period, updatedAt)
	if err != nil {
		return fmt.Errorf("update slot placement %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus changes a slot's lifecycle status.
func (r *SlotRepository) UpdateStatus(ctx context.Context, id string, status models.SlotStatus, updatedAt time.Time) error {
	const query = `UPDATE schedule_slots SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update slot status %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
