package memory

import (
	"context"
	"sync"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
)

type RatingRepository struct {
	mu      sync.RWMutex
	ratings map[string]rating.PlayerRating
	history []rating.History
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{ratings: make(map[string]rating.PlayerRating)}
}

func (r *RatingRepository) GetRating(_ context.Context, playerID, seasonID string) (rating.PlayerRating, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.ratings[ratingKey(playerID, seasonID)]
	if !ok {
		return rating.PlayerRating{}, false, nil
	}
	return item, true, nil
}

func (r *RatingRepository) UpsertRating(_ context.Context, item rating.PlayerRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ratings[ratingKey(item.PlayerID, item.SeasonID)] = item
	return nil
}

func (r *RatingRepository) AppendHistory(_ context.Context, entries []rating.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, entries...)
	return nil
}

func (r *RatingRepository) ListHistoryByMatch(_ context.Context, matchID string) ([]rating.History, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []rating.History
	for _, entry := range r.history {
		if entry.MatchID == matchID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *RatingRepository) DeleteHistoryByMatch(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.history[:0]
	for _, entry := range r.history {
		if entry.MatchID != matchID {
			kept = append(kept, entry)
		}
	}
	r.history = kept
	return nil
}

func ratingKey(playerID, seasonID string) string {
	return playerID + "::" + seasonID
}
