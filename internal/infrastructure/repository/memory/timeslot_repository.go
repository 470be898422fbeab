package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/timeslot"
)

type TimeSlotRepository struct {
	mu    sync.RWMutex
	items map[string]timeslot.TimeSlot
}

func NewTimeSlotRepository() *TimeSlotRepository {
	return &TimeSlotRepository{items: make(map[string]timeslot.TimeSlot)}
}

func (r *TimeSlotRepository) GetByID(_ context.Context, id string) (timeslot.TimeSlot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, ok := r.items[id]
	if !ok {
		return timeslot.TimeSlot{}, false, nil
	}
	return cloneTimeSlot(slot), true, nil
}

func (r *TimeSlotRepository) ListByMatch(_ context.Context, matchID string) ([]timeslot.TimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []timeslot.TimeSlot
	for _, slot := range r.items {
		if slot.MatchID == matchID {
			out = append(out, cloneTimeSlot(slot))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *TimeSlotRepository) Create(_ context.Context, slot timeslot.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[slot.ID] = cloneTimeSlot(slot)
	return nil
}

func (r *TimeSlotRepository) Update(_ context.Context, slot timeslot.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[slot.ID] = cloneTimeSlot(slot)
	return nil
}

func (r *TimeSlotRepository) DeleteByMatch(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, slot := range r.items {
		if slot.MatchID == matchID {
			delete(r.items, id)
		}
	}
	return nil
}

func cloneTimeSlot(slot timeslot.TimeSlot) timeslot.TimeSlot {
	copied := slot
	copied.VoterIDs = append([]string(nil), slot.VoterIDs...)
	return copied
}
