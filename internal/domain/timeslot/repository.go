package timeslot

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (TimeSlot, bool, error)
	ListByMatch(ctx context.Context, matchID string) ([]TimeSlot, error)
	Create(ctx context.Context, slot TimeSlot) error
	Update(ctx context.Context, slot TimeSlot) error
	DeleteByMatch(ctx context.Context, matchID string) error
}
