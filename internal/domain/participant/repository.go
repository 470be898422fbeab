package participant

import "context"

type Repository interface {
	ListByMatch(ctx context.Context, matchID string) ([]Participant, error)
	ListByUser(ctx context.Context, userID string) ([]Participant, error)
	Create(ctx context.Context, p Participant) error
	Update(ctx context.Context, p Participant) error
	// ReplaceByMatch deletes every participant row for the match and inserts
	// the given roster in one shot.
	ReplaceByMatch(ctx context.Context, matchID string, items []Participant) error
}
