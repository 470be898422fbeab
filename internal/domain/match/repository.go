package match

import "context"

// Repository exposes match persistence operations. Set-score rows are owned
// by the match and only replaced as a whole.
type Repository interface {
	GetByID(ctx context.Context, id string) (Match, bool, error)
	Create(ctx context.Context, m Match) error
	Update(ctx context.Context, m Match) error
	ListByIDs(ctx context.Context, ids []string) ([]Match, error)
	ListByStatus(ctx context.Context, status string) ([]Match, error)
	ListByDivision(ctx context.Context, divisionID, seasonID string) ([]Match, error)

	ListSetScores(ctx context.Context, matchID string) ([]SetScore, error)
	ReplaceSetScores(ctx context.Context, matchID string, scores []SetScore) error

	CreateWalkover(ctx context.Context, w Walkover) error
	GetWalkoverByMatch(ctx context.Context, matchID string) (Walkover, bool, error)
}
