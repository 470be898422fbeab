package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/invitation"
)

type InvitationRepository struct {
	mu    sync.RWMutex
	items map[string]invitation.Invitation
}

func NewInvitationRepository() *InvitationRepository {
	return &InvitationRepository{items: make(map[string]invitation.Invitation)}
}

func (r *InvitationRepository) GetByID(_ context.Context, id string) (invitation.Invitation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.items[id]
	if !ok {
		return invitation.Invitation{}, false, nil
	}
	return inv, true, nil
}

func (r *InvitationRepository) GetByMatchAndInvitee(_ context.Context, matchID, inviteeID string) (invitation.Invitation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.items {
		if inv.MatchID == matchID && inv.InviteeID == inviteeID {
			return inv, true, nil
		}
	}
	return invitation.Invitation{}, false, nil
}

func (r *InvitationRepository) ListByMatch(_ context.Context, matchID string) ([]invitation.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []invitation.Invitation
	for _, inv := range r.items {
		if inv.MatchID == matchID {
			out = append(out, inv)
		}
	}
	sortInvitations(out)
	return out, nil
}

func (r *InvitationRepository) ListPendingBefore(_ context.Context, cutoff time.Time) ([]invitation.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []invitation.Invitation
	for _, inv := range r.items {
		if inv.Status == invitation.StatusPending && inv.ExpiresAt.Before(cutoff) {
			out = append(out, inv)
		}
	}
	sortInvitations(out)
	return out, nil
}

func (r *InvitationRepository) Create(_ context.Context, inv invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[inv.ID] = inv
	return nil
}

func (r *InvitationRepository) Update(_ context.Context, inv invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[inv.ID] = inv
	return nil
}

func (r *InvitationRepository) DeleteByMatch(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, inv := range r.items {
		if inv.MatchID == matchID {
			delete(r.items, id)
		}
	}
	return nil
}

func sortInvitations(items []invitation.Invitation) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
