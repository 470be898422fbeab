package penalty

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (Penalty, bool, error)
	ListByUser(ctx context.Context, userID string) ([]Penalty, error)
	ListActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]Penalty, error)
	Create(ctx context.Context, p Penalty) error
	Update(ctx context.Context, p Penalty) error
}
