package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
)

type ParticipantRepository struct {
	mu    sync.RWMutex
	items map[string]participant.Participant
}

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{items: make(map[string]participant.Participant)}
}

func (r *ParticipantRepository) ListByMatch(_ context.Context, matchID string) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []participant.Participant
	for _, p := range r.items {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	sortParticipants(out)
	return out, nil
}

func (r *ParticipantRepository) ListByUser(_ context.Context, userID string) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []participant.Participant
	for _, p := range r.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sortParticipants(out)
	return out, nil
}

func (r *ParticipantRepository) Create(_ context.Context, p participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.ID] = p
	return nil
}

func (r *ParticipantRepository) Update(_ context.Context, p participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.ID] = p
	return nil
}

func (r *ParticipantRepository) ReplaceByMatch(_ context.Context, matchID string, items []participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.items {
		if p.MatchID == matchID {
			delete(r.items, id)
		}
	}
	for _, p := range items {
		r.items[p.ID] = p
	}
	return nil
}

func sortParticipants(items []participant.Participant) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
