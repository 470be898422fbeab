package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
)

type DisputeRepository struct {
	mu    sync.RWMutex
	items map[string]dispute.Dispute
}

func NewDisputeRepository() *DisputeRepository {
	return &DisputeRepository{items: make(map[string]dispute.Dispute)}
}

func (r *DisputeRepository) GetByID(_ context.Context, id string) (dispute.Dispute, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.items[id]
	if !ok {
		return dispute.Dispute{}, false, nil
	}
	return d, true, nil
}

func (r *DisputeRepository) GetUnsettledByMatch(_ context.Context, matchID string) (dispute.Dispute, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.items {
		if d.MatchID == matchID && !dispute.IsSettled(d.Status) {
			return d, true, nil
		}
	}
	return dispute.Dispute{}, false, nil
}

func (r *DisputeRepository) ListByStatus(_ context.Context, status string) ([]dispute.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []dispute.Dispute
	for _, d := range r.items {
		if d.Status == status {
			out = append(out, d)
		}
	}
	sortDisputes(out)
	return out, nil
}

func (r *DisputeRepository) ListOpenBefore(_ context.Context, cutoff time.Time) ([]dispute.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []dispute.Dispute
	for _, d := range r.items {
		if d.Status == dispute.StatusOpen && d.CreatedAt.Before(cutoff) {
			out = append(out, d)
		}
	}
	sortDisputes(out)
	return out, nil
}

func (r *DisputeRepository) Create(_ context.Context, d dispute.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[d.ID] = d
	return nil
}

func (r *DisputeRepository) Update(_ context.Context, d dispute.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[d.ID] = d
	return nil
}

func sortDisputes(items []dispute.Dispute) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
