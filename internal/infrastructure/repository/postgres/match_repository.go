package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := queryerFor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}

	return matchFromRow(row), true, nil
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	query, args, err := qb.InsertInto("matches").
		Columns(
			"id", "division_id", "season_id", "match_type", "status", "creator_id",
			"scheduled_at", "location", "requires_confirmation",
			"sets_won_a", "sets_won_b", "final_score", "winner_side",
			"submitted_by", "submitted_at", "confirmed_by", "confirmed_at",
			"is_disputed", "is_walkover", "is_late_cancellation", "needs_admin_review",
			"cancelled_by", "cancelled_at", "created_at", "updated_at",
		).
		Values(
			m.ID, m.DivisionID, m.SeasonID, m.Type, m.Status, m.CreatorID,
			toNullTime(m.ScheduledAt), m.Location, m.RequiresConfirmation,
			m.SetsWonA, m.SetsWonB, m.FinalScore, m.WinnerSide,
			m.SubmittedBy, toNullTime(m.SubmittedAt), m.ConfirmedBy, toNullTime(m.ConfirmedAt),
			m.IsDisputed, m.IsWalkover, m.IsLateCancellation, m.NeedsAdminReview,
			m.CancelledBy, toNullTime(m.CancelledAt), m.CreatedAt, m.UpdatedAt,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) Update(ctx context.Context, m match.Match) error {
	query, args, err := qb.Update("matches").
		Set("status", m.Status).
		Set("scheduled_at", toNullTime(m.ScheduledAt)).
		Set("location", m.Location).
		Set("requires_confirmation", m.RequiresConfirmation).
		Set("sets_won_a", m.SetsWonA).
		Set("sets_won_b", m.SetsWonB).
		Set("final_score", m.FinalScore).
		Set("winner_side", m.WinnerSide).
		Set("submitted_by", m.SubmittedBy).
		Set("submitted_at", toNullTime(m.SubmittedAt)).
		Set("confirmed_by", m.ConfirmedBy).
		Set("confirmed_at", toNullTime(m.ConfirmedAt)).
		Set("is_disputed", m.IsDisputed).
		Set("is_walkover", m.IsWalkover).
		Set("is_late_cancellation", m.IsLateCancellation).
		Set("needs_admin_review", m.NeedsAdminReview).
		Set("cancelled_by", m.CancelledBy).
		Set("cancelled_at", toNullTime(m.CancelledAt)).
		Set("updated_at", m.UpdatedAt).
		Where(qb.Eq("id", m.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	return nil
}

func (r *MatchRepository) ListByIDs(ctx context.Context, ids []string) ([]match.Match, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	query, args, err := qb.Select("*").From("matches").
		Where(qb.In("id", values)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by ids query: %w", err)
	}

	return r.selectMatches(ctx, query, args)
}

func (r *MatchRepository) ListByStatus(ctx context.Context, status string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("status", status)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by status query: %w", err)
	}

	return r.selectMatches(ctx, query, args)
}

func (r *MatchRepository) ListByDivision(ctx context.Context, divisionID, seasonID string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("division_id", divisionID),
			qb.Eq("season_id", seasonID),
		).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by division query: %w", err)
	}

	return r.selectMatches(ctx, query, args)
}

func (r *MatchRepository) selectMatches(ctx context.Context, query string, args []any) ([]match.Match, error) {
	var rows []matchTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) ListSetScores(ctx context.Context, matchID string) ([]match.SetScore, error) {
	query, args, err := qb.Select("*").From("set_scores").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("set_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list set scores query: %w", err)
	}

	var rows []setScoreTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select set scores: %w", err)
	}

	out := make([]match.SetScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, setScoreFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) ReplaceSetScores(ctx context.Context, matchID string, scores []match.SetScore) error {
	q := queryerFor(ctx, r.db)

	query, args, err := qb.DeleteFrom("set_scores").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete set scores query: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete set scores: %w", err)
	}

	for _, score := range scores {
		query, args, err := qb.InsertInto("set_scores").
			Columns("match_id", "set_number", "games_a", "games_b", "tiebreak_a", "tiebreak_b", "winner_side").
			Values(score.MatchID, score.SetNumber, score.GamesA, score.GamesB,
				toNullInt(score.TiebreakA), toNullInt(score.TiebreakB), score.WinnerSide).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert set score query: %w", err)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert set score: %w", err)
		}
	}
	return nil
}

func (r *MatchRepository) CreateWalkover(ctx context.Context, w match.Walkover) error {
	query, args, err := qb.InsertInto("walkovers").
		Columns("id", "match_id", "reporter_id", "defaulting_user_id", "reason", "admin_verified", "created_at").
		Values(w.ID, w.MatchID, w.ReporterID, w.DefaultingUserID, w.Reason, w.AdminVerified, w.CreatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert walkover query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert walkover: %w", err)
	}
	return nil
}

func (r *MatchRepository) GetWalkoverByMatch(ctx context.Context, matchID string) (match.Walkover, bool, error) {
	query, args, err := qb.Select("*").From("walkovers").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Walkover{}, false, fmt.Errorf("build get walkover query: %w", err)
	}

	var row walkoverTableModel
	if err := queryerFor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Walkover{}, false, nil
		}
		return match.Walkover{}, false, fmt.Errorf("get walkover: %w", err)
	}

	return match.Walkover{
		ID:               row.ID,
		MatchID:          row.MatchID,
		ReporterID:       row.ReporterID,
		DefaultingUserID: row.DefaultingUserID,
		Reason:           row.Reason,
		AdminVerified:    row.AdminVerified,
		CreatedAt:        row.CreatedAt,
	}, true, nil
}
