package rating

import "time"

// PlayerRating is the current skill estimate per (player, season). It is
// only ever mutated through history-backed deltas or ledger reversal; direct
// overwrites break reversibility.
type PlayerRating struct {
	PlayerID      string
	SeasonID      string
	DivisionID    string
	Rating        float64
	Deviation     float64
	MatchesPlayed int
	Peak          float64
	Trough        float64
	UpdatedAt     time.Time
}

// History is one append-only ledger entry per (player, match), capturing the
// rating and deviation immediately before and after the match was applied.
type History struct {
	ID              string
	PlayerID        string
	MatchID         string
	SeasonID        string
	DivisionID      string
	RatingBefore    float64
	RatingAfter     float64
	DeviationBefore float64
	DeviationAfter  float64
	CreatedAt       time.Time
}

func (h History) RatingDelta() float64 {
	return h.RatingAfter - h.RatingBefore
}
