package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type adminActionTableModel struct {
	ID                     string         `db:"id"`
	AdminID                string         `db:"admin_id"`
	Kind                   string         `db:"kind"`
	MatchID                string         `db:"match_id"`
	DisputeID              string         `db:"dispute_id"`
	Reason                 string         `db:"reason"`
	OldValue               string         `db:"old_value"`
	NewValue               string         `db:"new_value"`
	AffectedUserIDs        pq.StringArray `db:"affected_user_ids"`
	TriggeredRecalculation bool           `db:"triggered_recalculation"`
	CreatedAt              time.Time      `db:"created_at"`
}

func adminActionFromRow(row adminActionTableModel) adminaction.Action {
	return adminaction.Action{
		ID:                     row.ID,
		AdminID:                row.AdminID,
		Kind:                   row.Kind,
		MatchID:                row.MatchID,
		DisputeID:              row.DisputeID,
		Reason:                 row.Reason,
		OldValue:               row.OldValue,
		NewValue:               row.NewValue,
		AffectedUserIDs:        []string(row.AffectedUserIDs),
		TriggeredRecalculation: row.TriggeredRecalculation,
		CreatedAt:              row.CreatedAt,
	}
}

type AdminActionRepository struct {
	db *sqlx.DB
}

func NewAdminActionRepository(db *sqlx.DB) *AdminActionRepository {
	return &AdminActionRepository{db: db}
}

func (r *AdminActionRepository) Create(ctx context.Context, a adminaction.Action) error {
	query, args, err := qb.InsertInto("admin_actions").
		Columns(
			"id", "admin_id", "kind", "match_id", "dispute_id", "reason",
			"old_value", "new_value", "affected_user_ids", "triggered_recalculation", "created_at",
		).
		Values(
			a.ID, a.AdminID, a.Kind, a.MatchID, a.DisputeID, a.Reason,
			a.OldValue, a.NewValue, pq.StringArray(a.AffectedUserIDs), a.TriggeredRecalculation, a.CreatedAt,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert admin action query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert admin action: %w", err)
	}
	return nil
}

func (r *AdminActionRepository) ListByMatch(ctx context.Context, matchID string) ([]adminaction.Action, error) {
	query, args, err := qb.Select("*").From("admin_actions").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list admin actions query: %w", err)
	}

	var rows []adminActionTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select admin actions: %w", err)
	}

	out := make([]adminaction.Action, 0, len(rows))
	for _, row := range rows {
		out = append(out, adminActionFromRow(row))
	}
	return out, nil
}
