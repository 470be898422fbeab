package memory

import (
	"context"
	"sync"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/standing"
)

type StandingRepository struct {
	mu     sync.RWMutex
	tables map[string][]standing.Standing
}

func NewStandingRepository() *StandingRepository {
	return &StandingRepository{tables: make(map[string][]standing.Standing)}
}

func (r *StandingRepository) ListByDivision(_ context.Context, divisionID, seasonID string) ([]standing.Standing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]standing.Standing(nil), r.tables[tableKey(divisionID, seasonID)]...), nil
}

func (r *StandingRepository) ReplaceByDivision(_ context.Context, divisionID, seasonID string, items []standing.Standing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables[tableKey(divisionID, seasonID)] = append([]standing.Standing(nil), items...)
	return nil
}

func tableKey(divisionID, seasonID string) string {
	return divisionID + "::" + seasonID
}
