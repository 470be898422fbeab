package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/penalty"
)

type PenaltyRepository struct {
	mu    sync.RWMutex
	items map[string]penalty.Penalty
}

func NewPenaltyRepository() *PenaltyRepository {
	return &PenaltyRepository{items: make(map[string]penalty.Penalty)}
}

func (r *PenaltyRepository) GetByID(_ context.Context, id string) (penalty.Penalty, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return penalty.Penalty{}, false, nil
	}
	return p, true, nil
}

func (r *PenaltyRepository) ListByUser(_ context.Context, userID string) ([]penalty.Penalty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []penalty.Penalty
	for _, p := range r.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PenaltyRepository) ListActiveExpiredBefore(_ context.Context, cutoff time.Time) ([]penalty.Penalty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []penalty.Penalty
	for _, p := range r.items {
		if p.Status == penalty.StatusActive && p.ExpiresAt != nil && p.ExpiresAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PenaltyRepository) Create(_ context.Context, p penalty.Penalty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.ID] = p
	return nil
}

func (r *PenaltyRepository) Update(_ context.Context, p penalty.Penalty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.ID] = p
	return nil
}
