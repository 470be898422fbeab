package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/timeslot"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type TimeSlotRepository struct {
	db *sqlx.DB
}

func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

func (r *TimeSlotRepository) GetByID(ctx context.Context, id string) (timeslot.TimeSlot, bool, error) {
	query, args, err := qb.Select("*").From("time_slots").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return timeslot.TimeSlot{}, false, fmt.Errorf("build get time slot query: %w", err)
	}

	var row timeSlotTableModel
	if err := queryerFor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return timeslot.TimeSlot{}, false, nil
		}
		return timeslot.TimeSlot{}, false, fmt.Errorf("get time slot: %w", err)
	}
	return timeSlotFromRow(row), true, nil
}

func (r *TimeSlotRepository) ListByMatch(ctx context.Context, matchID string) ([]timeslot.TimeSlot, error) {
	query, args, err := qb.Select("*").From("time_slots").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("starts_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list time slots query: %w", err)
	}

	var rows []timeSlotTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select time slots: %w", err)
	}

	out := make([]timeslot.TimeSlot, 0, len(rows))
	for _, row := range rows {
		out = append(out, timeSlotFromRow(row))
	}
	return out, nil
}

func (r *TimeSlotRepository) Create(ctx context.Context, slot timeslot.TimeSlot) error {
	query, args, err := qb.InsertInto("time_slots").
		Columns("id", "match_id", "starts_at", "location", "status", "voter_ids", "created_at", "updated_at").
		Values(slot.ID, slot.MatchID, slot.StartsAt, slot.Location, slot.Status, pq.StringArray(slot.VoterIDs), slot.CreatedAt, slot.UpdatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert time slot query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert time slot: %w", err)
	}
	return nil
}

func (r *TimeSlotRepository) Update(ctx context.Context, slot timeslot.TimeSlot) error {
	query, args, err := qb.Update("time_slots").
		Set("starts_at", slot.StartsAt).
		Set("location", slot.Location).
		Set("status", slot.Status).
		Set("voter_ids", pq.StringArray(slot.VoterIDs)).
		Set("updated_at", slot.UpdatedAt).
		Where(qb.Eq("id", slot.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update time slot query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}
	return nil
}

func (r *TimeSlotRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	query, args, err := qb.DeleteFrom("time_slots").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete time slots query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete time slots: %w", err)
	}
	return nil
}
