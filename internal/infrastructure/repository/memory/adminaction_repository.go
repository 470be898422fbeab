package memory

import (
	"context"
	"sync"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
)

type AdminActionRepository struct {
	mu    sync.RWMutex
	items []adminaction.Action
}

func NewAdminActionRepository() *AdminActionRepository {
	return &AdminActionRepository{}
}

func (r *AdminActionRepository) Create(_ context.Context, a adminaction.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, cloneAction(a))
	return nil
}

func (r *AdminActionRepository) ListByMatch(_ context.Context, matchID string) ([]adminaction.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []adminaction.Action
	for _, a := range r.items {
		if a.MatchID == matchID {
			out = append(out, cloneAction(a))
		}
	}
	return out, nil
}

func cloneAction(a adminaction.Action) adminaction.Action {
	copied := a
	copied.AffectedUserIDs = append([]string(nil), a.AffectedUserIDs...)
	return copied
}
