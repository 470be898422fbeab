package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type RatingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) GetRating(ctx context.Context, playerID, seasonID string) (rating.PlayerRating, bool, error) {
	query, args, err := qb.Select("*").From("player_ratings").
		Where(qb.Eq("player_id", playerID), qb.Eq("season_id", seasonID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return rating.PlayerRating{}, false, fmt.Errorf("build get player rating query: %w", err)
	}

	var row playerRatingTableModel
	if err := queryerFor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return rating.PlayerRating{}, false, nil
		}
		return rating.PlayerRating{}, false, fmt.Errorf("get player rating: %w", err)
	}
	return playerRatingFromRow(row), true, nil
}

func (r *RatingRepository) UpsertRating(ctx context.Context, pr rating.PlayerRating) error {
	query, args, err := qb.InsertInto("player_ratings").
		Columns("player_id", "season_id", "division_id", "rating", "deviation", "matches_played", "peak", "trough", "updated_at").
		Values(pr.PlayerID, pr.SeasonID, pr.DivisionID, pr.Rating, pr.Deviation, pr.MatchesPlayed, pr.Peak, pr.Trough, pr.UpdatedAt).
		Suffix(`ON CONFLICT (player_id, season_id) DO UPDATE SET
			division_id = EXCLUDED.division_id,
			rating = EXCLUDED.rating,
			deviation = EXCLUDED.deviation,
			matches_played = EXCLUDED.matches_played,
			peak = EXCLUDED.peak,
			trough = EXCLUDED.trough,
			updated_at = EXCLUDED.updated_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert player rating query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player rating: %w", err)
	}
	return nil
}

func (r *RatingRepository) AppendHistory(ctx context.Context, entries []rating.History) error {
	q := queryerFor(ctx, r.db)

	for _, h := range entries {
		query, args, err := qb.InsertInto("rating_history").
			Columns(
				"id", "player_id", "match_id", "season_id", "division_id",
				"rating_before", "rating_after", "deviation_before", "deviation_after", "created_at",
			).
			Values(
				h.ID, h.PlayerID, h.MatchID, h.SeasonID, h.DivisionID,
				h.RatingBefore, h.RatingAfter, h.DeviationBefore, h.DeviationAfter, h.CreatedAt,
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert rating history query: %w", err)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert rating history: %w", err)
		}
	}
	return nil
}

func (r *RatingRepository) ListHistoryByMatch(ctx context.Context, matchID string) ([]rating.History, error) {
	query, args, err := qb.Select("*").From("rating_history").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list history by match query: %w", err)
	}

	return r.selectHistory(ctx, query, args)
}

func (r *RatingRepository) selectHistory(ctx context.Context, query string, args []any) ([]rating.History, error) {
	var rows []ratingHistoryTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select rating history: %w", err)
	}

	out := make([]rating.History, 0, len(rows))
	for _, row := range rows {
		out = append(out, ratingHistoryFromRow(row))
	}
	return out, nil
}

func (r *RatingRepository) DeleteHistoryByMatch(ctx context.Context, matchID string) error {
	query, args, err := qb.DeleteFrom("rating_history").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete rating history query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete rating history: %w", err)
	}
	return nil
}
