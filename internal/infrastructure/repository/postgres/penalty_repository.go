package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/penalty"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type PenaltyRepository struct {
	db *sqlx.DB
}

func NewPenaltyRepository(db *sqlx.DB) *PenaltyRepository {
	return &PenaltyRepository{db: db}
}

func (r *PenaltyRepository) GetByID(ctx context.Context, id string) (penalty.Penalty, bool, error) {
	query, args, err := qb.Select("*").From("penalties").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return penalty.Penalty{}, false, fmt.Errorf("build get penalty query: %w", err)
	}

	var row penaltyTableModel
	if err := queryerFor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return penalty.Penalty{}, false, nil
		}
		return penalty.Penalty{}, false, fmt.Errorf("get penalty: %w", err)
	}
	return penaltyFromRow(row), true, nil
}

func (r *PenaltyRepository) ListByUser(ctx context.Context, userID string) ([]penalty.Penalty, error) {
	query, args, err := qb.Select("*").From("penalties").
		Where(qb.Eq("user_id", userID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list penalties by user query: %w", err)
	}

	return r.selectPenalties(ctx, query, args)
}

func (r *PenaltyRepository) ListActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]penalty.Penalty, error) {
	query, args, err := qb.Select("*").From("penalties").
		Where(qb.Eq("status", penalty.StatusActive), qb.Lt("expires_at", cutoff)).
		OrderBy("expires_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list expired penalties query: %w", err)
	}

	return r.selectPenalties(ctx, query, args)
}

func (r *PenaltyRepository) selectPenalties(ctx context.Context, query string, args []any) ([]penalty.Penalty, error) {
	var rows []penaltyTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select penalties: %w", err)
	}

	out := make([]penalty.Penalty, 0, len(rows))
	for _, row := range rows {
		out = append(out, penaltyFromRow(row))
	}
	return out, nil
}

func (r *PenaltyRepository) Create(ctx context.Context, p penalty.Penalty) error {
	query, args, err := qb.InsertInto("penalties").
		Columns(
			"id", "user_id", "penalty_type", "severity", "points", "suspension_days",
			"status", "match_id", "dispute_id", "reason", "expires_at",
			"appeal_submitted_at", "appeal_reason", "appeal_outcome",
			"appeal_resolved_by", "appeal_resolved_at", "appeal_notes",
			"created_at", "updated_at",
		).
		Values(
			p.ID, p.UserID, p.Type, p.Severity, p.Points, p.SuspensionDays,
			p.Status, p.MatchID, p.DisputeID, p.Reason, toNullTime(p.ExpiresAt),
			toNullTime(p.AppealSubmittedAt), p.AppealReason, p.AppealOutcome,
			p.AppealResolvedBy, toNullTime(p.AppealResolvedAt), p.AppealNotes,
			p.CreatedAt, p.UpdatedAt,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert penalty query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert penalty: %w", err)
	}
	return nil
}

func (r *PenaltyRepository) Update(ctx context.Context, p penalty.Penalty) error {
	query, args, err := qb.Update("penalties").
		Set("status", p.Status).
		Set("expires_at", toNullTime(p.ExpiresAt)).
		Set("appeal_submitted_at", toNullTime(p.AppealSubmittedAt)).
		Set("appeal_reason", p.AppealReason).
		Set("appeal_outcome", p.AppealOutcome).
		Set("appeal_resolved_by", p.AppealResolvedBy).
		Set("appeal_resolved_at", toNullTime(p.AppealResolvedAt)).
		Set("appeal_notes", p.AppealNotes).
		Set("updated_at", p.UpdatedAt).
		Where(qb.Eq("id", p.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update penalty query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update penalty: %w", err)
	}
	return nil
}
