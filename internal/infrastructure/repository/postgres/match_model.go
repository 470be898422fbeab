package postgres

import (
	"database/sql"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
)

type matchTableModel struct {
	ID                   string       `db:"id"`
	DivisionID           string       `db:"division_id"`
	SeasonID             string       `db:"season_id"`
	MatchType            string       `db:"match_type"`
	Status               string       `db:"status"`
	CreatorID            string       `db:"creator_id"`
	ScheduledAt          sql.NullTime `db:"scheduled_at"`
	Location             string       `db:"location"`
	RequiresConfirmation bool         `db:"requires_confirmation"`
	SetsWonA             int          `db:"sets_won_a"`
	SetsWonB             int          `db:"sets_won_b"`
	FinalScore           string       `db:"final_score"`
	WinnerSide           string       `db:"winner_side"`
	SubmittedBy          string       `db:"submitted_by"`
	SubmittedAt          sql.NullTime `db:"submitted_at"`
	ConfirmedBy          string       `db:"confirmed_by"`
	ConfirmedAt          sql.NullTime `db:"confirmed_at"`
	IsDisputed           bool         `db:"is_disputed"`
	IsWalkover           bool         `db:"is_walkover"`
	IsLateCancellation   bool         `db:"is_late_cancellation"`
	NeedsAdminReview     bool         `db:"needs_admin_review"`
	CancelledBy          string       `db:"cancelled_by"`
	CancelledAt          sql.NullTime `db:"cancelled_at"`
	CreatedAt            time.Time    `db:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at"`
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:                   row.ID,
		DivisionID:           row.DivisionID,
		SeasonID:             row.SeasonID,
		Type:                 row.MatchType,
		Status:               row.Status,
		CreatorID:            row.CreatorID,
		ScheduledAt:          nullTimePtr(row.ScheduledAt),
		Location:             row.Location,
		RequiresConfirmation: row.RequiresConfirmation,
		SetsWonA:             row.SetsWonA,
		SetsWonB:             row.SetsWonB,
		FinalScore:           row.FinalScore,
		WinnerSide:           row.WinnerSide,
		SubmittedBy:          row.SubmittedBy,
		SubmittedAt:          nullTimePtr(row.SubmittedAt),
		ConfirmedBy:          row.ConfirmedBy,
		ConfirmedAt:          nullTimePtr(row.ConfirmedAt),
		IsDisputed:           row.IsDisputed,
		IsWalkover:           row.IsWalkover,
		IsLateCancellation:   row.IsLateCancellation,
		NeedsAdminReview:     row.NeedsAdminReview,
		CancelledBy:          row.CancelledBy,
		CancelledAt:          nullTimePtr(row.CancelledAt),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

type setScoreTableModel struct {
	MatchID    string        `db:"match_id"`
	SetNumber  int           `db:"set_number"`
	GamesA     int           `db:"games_a"`
	GamesB     int           `db:"games_b"`
	TiebreakA  sql.NullInt64 `db:"tiebreak_a"`
	TiebreakB  sql.NullInt64 `db:"tiebreak_b"`
	WinnerSide string        `db:"winner_side"`
}

func setScoreFromRow(row setScoreTableModel) match.SetScore {
	return match.SetScore{
		MatchID:    row.MatchID,
		SetNumber:  row.SetNumber,
		GamesA:     row.GamesA,
		GamesB:     row.GamesB,
		TiebreakA:  nullIntPtr(row.TiebreakA),
		TiebreakB:  nullIntPtr(row.TiebreakB),
		WinnerSide: row.WinnerSide,
	}
}

type walkoverTableModel struct {
	ID               string    `db:"id"`
	MatchID          string    `db:"match_id"`
	ReporterID       string    `db:"reporter_id"`
	DefaultingUserID string    `db:"defaulting_user_id"`
	Reason           string    `db:"reason"`
	AdminVerified    bool      `db:"admin_verified"`
	CreatedAt        time.Time `db:"created_at"`
}
