package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) GetByID(ctx context.Context, id string) (dispute.Dispute, bool, error) {
	query, args, err := qb.Select("*").From("disputes").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return dispute.Dispute{}, false, fmt.Errorf("build get dispute query: %w", err)
	}

	return r.getDispute(ctx, query, args)
}

func (r *DisputeRepository) GetUnsettledByMatch(ctx context.Context, matchID string) (dispute.Dispute, bool, error) {
	query, args, err := qb.Select("*").From("disputes").
		Where(
			qb.Eq("match_id", matchID),
			qb.In("status", []any{dispute.StatusOpen, dispute.StatusUnderReview}),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return dispute.Dispute{}, false, fmt.Errorf("build get unsettled dispute query: %w", err)
	}

	return r.getDispute(ctx, query, args)
}

func (r *DisputeRepository) getDispute(ctx context.Context, query string, args []any) (dispute.Dispute, bool, error) {
	var row disputeTableModel
	if err := queryerFor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return dispute.Dispute{}, false, nil
		}
		return dispute.Dispute{}, false, fmt.Errorf("get dispute: %w", err)
	}
	return disputeFromRow(row), true, nil
}

func (r *DisputeRepository) ListByStatus(ctx context.Context, status string) ([]dispute.Dispute, error) {
	query, args, err := qb.Select("*").From("disputes").
		Where(qb.Eq("status", status)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list disputes by status query: %w", err)
	}

	return r.selectDisputes(ctx, query, args)
}

func (r *DisputeRepository) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]dispute.Dispute, error) {
	query, args, err := qb.Select("*").From("disputes").
		Where(qb.Eq("status", dispute.StatusOpen), qb.Lt("created_at", cutoff)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list open disputes query: %w", err)
	}

	return r.selectDisputes(ctx, query, args)
}

func (r *DisputeRepository) selectDisputes(ctx context.Context, query string, args []any) ([]dispute.Dispute, error) {
	var rows []disputeTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select disputes: %w", err)
	}

	out := make([]dispute.Dispute, 0, len(rows))
	for _, row := range rows {
		out = append(out, disputeFromRow(row))
	}
	return out, nil
}

func (r *DisputeRepository) Create(ctx context.Context, d dispute.Dispute) error {
	query, args, err := qb.InsertInto("disputes").
		Columns(
			"id", "match_id", "raised_by", "category", "status", "reason",
			"counter_score", "claimed_by", "claimed_at", "resolved_by",
			"resolved_at", "resolution_action", "resolution_notes", "created_at",
		).
		Values(
			d.ID, d.MatchID, d.RaisedBy, d.Category, d.Status, d.Reason,
			d.CounterScore, d.ClaimedBy, toNullTime(d.ClaimedAt), d.ResolvedBy,
			toNullTime(d.ResolvedAt), d.ResolutionAction, d.ResolutionNotes, d.CreatedAt,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert dispute query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert dispute: %w", err)
	}
	return nil
}

func (r *DisputeRepository) Update(ctx context.Context, d dispute.Dispute) error {
	query, args, err := qb.Update("disputes").
		Set("status", d.Status).
		Set("counter_score", d.CounterScore).
		Set("claimed_by", d.ClaimedBy).
		Set("claimed_at", toNullTime(d.ClaimedAt)).
		Set("resolved_by", d.ResolvedBy).
		Set("resolved_at", toNullTime(d.ResolvedAt)).
		Set("resolution_action", d.ResolutionAction).
		Set("resolution_notes", d.ResolutionNotes).
		Where(qb.Eq("id", d.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update dispute query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update dispute: %w", err)
	}
	return nil
}
