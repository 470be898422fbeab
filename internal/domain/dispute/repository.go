package dispute

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (Dispute, bool, error)
	// GetUnsettledByMatch returns the single OPEN or UNDER_REVIEW dispute for
	// the match, if any.
	GetUnsettledByMatch(ctx context.Context, matchID string) (Dispute, bool, error)
	ListByStatus(ctx context.Context, status string) ([]Dispute, error)
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]Dispute, error)
	Create(ctx context.Context, d Dispute) error
	Update(ctx context.Context, d Dispute) error
}
