package memory

import (
	"context"
	"sync"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
)

type MatchRepository struct {
	mu        sync.RWMutex
	items     map[string]match.Match
	scores    map[string][]match.SetScore
	walkovers map[string]match.Walkover
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		items:     make(map[string]match.Match),
		scores:    make(map[string][]match.SetScore),
		walkovers: make(map[string]match.Walkover),
	}
}

func (r *MatchRepository) GetByID(_ context.Context, id string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[id]
	if !ok {
		return match.Match{}, false, nil
	}
	return m, true, nil
}

func (r *MatchRepository) Create(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[m.ID] = m
	return nil
}

func (r *MatchRepository) Update(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[m.ID] = m
	return nil
}

func (r *MatchRepository) ListByIDs(_ context.Context, ids []string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MatchRepository) ListByStatus(_ context.Context, status string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []match.Match
	for _, m := range r.items {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MatchRepository) ListByDivision(_ context.Context, divisionID, seasonID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []match.Match
	for _, m := range r.items {
		if m.DivisionID == divisionID && m.SeasonID == seasonID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MatchRepository) ListSetScores(_ context.Context, matchID string) ([]match.SetScore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]match.SetScore(nil), r.scores[matchID]...), nil
}

func (r *MatchRepository) ReplaceSetScores(_ context.Context, matchID string, scores []match.SetScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(scores) == 0 {
		delete(r.scores, matchID)
		return nil
	}
	r.scores[matchID] = append([]match.SetScore(nil), scores...)
	return nil
}

func (r *MatchRepository) CreateWalkover(_ context.Context, w match.Walkover) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.walkovers[w.MatchID] = w
	return nil
}

func (r *MatchRepository) GetWalkoverByMatch(_ context.Context, matchID string) (match.Walkover, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.walkovers[matchID]
	if !ok {
		return match.Walkover{}, false, nil
	}
	return w, true, nil
}
