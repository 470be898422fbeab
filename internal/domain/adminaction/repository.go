package adminaction

import "context"

type Repository interface {
	Create(ctx context.Context, a Action) error
	ListByMatch(ctx context.Context, matchID string) ([]Action, error)
}
