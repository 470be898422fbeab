package timeslot

import "time"

const (
	StatusProposed  = "PROPOSED"
	StatusConfirmed = "CONFIRMED"
	StatusRejected  = "REJECTED"
)

// TimeSlot is one proposed start time for a match, collecting votes until a
// quorum confirms it. At most one slot per match holds CONFIRMED.
type TimeSlot struct {
	ID        string
	MatchID   string
	StartsAt  time.Time
	Location  string
	Status    string
	VoterIDs  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s TimeSlot) HasVote(userID string) bool {
	for _, id := range s.VoterIDs {
		if id == userID {
			return true
		}
	}
	return false
}
