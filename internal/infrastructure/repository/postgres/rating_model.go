package postgres

import (
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
)

type playerRatingTableModel struct {
	PlayerID      string    `db:"player_id"`
	SeasonID      string    `db:"season_id"`
	DivisionID    string    `db:"division_id"`
	Rating        float64   `db:"rating"`
	Deviation     float64   `db:"deviation"`
	MatchesPlayed int       `db:"matches_played"`
	Peak          float64   `db:"peak"`
	Trough        float64   `db:"trough"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func playerRatingFromRow(row playerRatingTableModel) rating.PlayerRating {
	return rating.PlayerRating{
		PlayerID:      row.PlayerID,
		SeasonID:      row.SeasonID,
		DivisionID:    row.DivisionID,
		Rating:        row.Rating,
		Deviation:     row.Deviation,
		MatchesPlayed: row.MatchesPlayed,
		Peak:          row.Peak,
		Trough:        row.Trough,
		UpdatedAt:     row.UpdatedAt,
	}
}

type ratingHistoryTableModel struct {
	ID              string    `db:"id"`
	PlayerID        string    `db:"player_id"`
	MatchID         string    `db:"match_id"`
	SeasonID        string    `db:"season_id"`
	DivisionID      string    `db:"division_id"`
	RatingBefore    float64   `db:"rating_before"`
	RatingAfter     float64   `db:"rating_after"`
	DeviationBefore float64   `db:"deviation_before"`
	DeviationAfter  float64   `db:"deviation_after"`
	CreatedAt       time.Time `db:"created_at"`
}

func ratingHistoryFromRow(row ratingHistoryTableModel) rating.History {
	return rating.History{
		ID:              row.ID,
		PlayerID:        row.PlayerID,
		MatchID:         row.MatchID,
		SeasonID:        row.SeasonID,
		DivisionID:      row.DivisionID,
		RatingBefore:    row.RatingBefore,
		RatingAfter:     row.RatingAfter,
		DeviationBefore: row.DeviationBefore,
		DeviationAfter:  row.DeviationAfter,
		CreatedAt:       row.CreatedAt,
	}
}
