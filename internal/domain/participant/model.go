package participant

import "time"

const (
	RoleCreator  = "CREATOR"
	RoleOpponent = "OPPONENT"
	RolePartner  = "PARTNER"
)

const (
	InvitePending  = "PENDING"
	InviteAccepted = "ACCEPTED"
	InviteDeclined = "DECLINED"
	InviteExpired  = "EXPIRED"
)

// Participant is one (match, user) pair. Side stays empty for open-signup
// doubles joins until the creator assigns teams.
type Participant struct {
	ID          string
	MatchID     string
	UserID      string
	Role        string
	Side        string
	InviteState string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AcceptedSide returns the side the user plays on, looking only at accepted
// participants.
func AcceptedSide(items []Participant, userID string) (string, bool) {
	for _, p := range items {
		if p.UserID == userID && p.InviteState == InviteAccepted {
			return p.Side, true
		}
	}
	return "", false
}

func CountAccepted(items []Participant) int {
	n := 0
	for _, p := range items {
		if p.InviteState == InviteAccepted {
			n++
		}
	}
	return n
}
