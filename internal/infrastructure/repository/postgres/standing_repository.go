package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/standing"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type standingTableModel struct {
	DivisionID  string    `db:"division_id"`
	SeasonID    string    `db:"season_id"`
	PlayerID    string    `db:"player_id"`
	Position    int       `db:"position"`
	Played      int       `db:"played"`
	Won         int       `db:"won"`
	Lost        int       `db:"lost"`
	SetsWon     int       `db:"sets_won"`
	SetsLost    int       `db:"sets_lost"`
	GamesWon    int       `db:"games_won"`
	GamesLost   int       `db:"games_lost"`
	Points      int       `db:"points"`
	BestNPoints int       `db:"best_n_points"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func standingFromRow(row standingTableModel) standing.Standing {
	return standing.Standing{
		DivisionID:  row.DivisionID,
		SeasonID:    row.SeasonID,
		PlayerID:    row.PlayerID,
		Position:    row.Position,
		Played:      row.Played,
		Won:         row.Won,
		Lost:        row.Lost,
		SetsWon:     row.SetsWon,
		SetsLost:    row.SetsLost,
		GamesWon:    row.GamesWon,
		GamesLost:   row.GamesLost,
		Points:      row.Points,
		BestNPoints: row.BestNPoints,
		UpdatedAt:   row.UpdatedAt,
	}
}

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) ListByDivision(ctx context.Context, divisionID, seasonID string) ([]standing.Standing, error) {
	query, args, err := qb.Select("*").From("standings").
		Where(qb.Eq("division_id", divisionID), qb.Eq("season_id", seasonID)).
		OrderBy("position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var rows []standingTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select standings: %w", err)
	}

	out := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, standingFromRow(row))
	}
	return out, nil
}

func (r *StandingRepository) ReplaceByDivision(ctx context.Context, divisionID, seasonID string, items []standing.Standing) error {
	q := queryerFor(ctx, r.db)

	query, args, err := qb.DeleteFrom("standings").
		Where(qb.Eq("division_id", divisionID), qb.Eq("season_id", seasonID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete standings query: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete standings: %w", err)
	}

	for _, s := range items {
		query, args, err := qb.InsertInto("standings").
			Columns(
				"division_id", "season_id", "player_id", "position", "played",
				"won", "lost", "sets_won", "sets_lost", "games_won", "games_lost",
				"points", "best_n_points", "updated_at",
			).
			Values(
				s.DivisionID, s.SeasonID, s.PlayerID, s.Position, s.Played,
				s.Won, s.Lost, s.SetsWon, s.SetsLost, s.GamesWon, s.GamesLost,
				s.Points, s.BestNPoints, s.UpdatedAt,
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert standing query: %w", err)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert standing: %w", err)
		}
	}
	return nil
}
