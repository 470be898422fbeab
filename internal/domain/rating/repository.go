package rating

import "context"

type Repository interface {
	GetRating(ctx context.Context, playerID, seasonID string) (PlayerRating, bool, error)
	UpsertRating(ctx context.Context, r PlayerRating) error

	AppendHistory(ctx context.Context, entries []History) error
	ListHistoryByMatch(ctx context.Context, matchID string) ([]History, error)
	DeleteHistoryByMatch(ctx context.Context, matchID string) error
}
