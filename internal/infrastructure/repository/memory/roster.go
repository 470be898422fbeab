package memory

import (
	"context"
	"sync"
)

// MembershipRoster is the in-memory MembershipOracle: a plain set of active
// (division, user) pairs.
type MembershipRoster struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
}

func NewMembershipRoster() *MembershipRoster {
	return &MembershipRoster{members: make(map[string]map[string]struct{})}
}

func (r *MembershipRoster) Add(divisionID string, userIDs ...string) *MembershipRoster {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[divisionID]
	if !ok {
		set = make(map[string]struct{})
		r.members[divisionID] = set
	}
	for _, userID := range userIDs {
		set[userID] = struct{}{}
	}
	return r
}

func (r *MembershipRoster) Remove(divisionID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members[divisionID], userID)
}

func (r *MembershipRoster) IsActiveMember(_ context.Context, userID, divisionID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[divisionID][userID]
	return ok, nil
}
