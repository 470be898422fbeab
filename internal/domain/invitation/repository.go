package invitation

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (Invitation, bool, error)
	GetByMatchAndInvitee(ctx context.Context, matchID, inviteeID string) (Invitation, bool, error)
	ListByMatch(ctx context.Context, matchID string) ([]Invitation, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Invitation, error)
	Create(ctx context.Context, inv Invitation) error
	Update(ctx context.Context, inv Invitation) error
	DeleteByMatch(ctx context.Context, matchID string) error
}
