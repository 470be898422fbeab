package standing

import "context"

type Repository interface {
	ListByDivision(ctx context.Context, divisionID, seasonID string) ([]Standing, error)
	ReplaceByDivision(ctx context.Context, divisionID, seasonID string, items []Standing) error
}
