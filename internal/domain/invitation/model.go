package invitation

import "time"

const (
	StatusPending   = "PENDING"
	StatusAccepted  = "ACCEPTED"
	StatusDeclined  = "DECLINED"
	StatusExpired   = "EXPIRED"
	StatusCancelled = "CANCELLED"
)

// Invitation is a directed offer to join a match. Its status mirrors the
// invitee's participant invite state; the two are written together.
type Invitation struct {
	ID          string
	MatchID     string
	InviterID   string
	InviteeID   string
	Status      string
	ExpiresAt   time.Time
	RespondedAt *time.Time
	CreatedAt   time.Time
}

func IsTerminal(status string) bool {
	switch status {
	case StatusAccepted, StatusDeclined, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsExpired is the single expiry rule shared by the lazy on-read check and
// the periodic sweep.
func (i Invitation) IsExpired(now time.Time) bool {
	return i.Status == StatusPending && !i.ExpiresAt.After(now)
}
