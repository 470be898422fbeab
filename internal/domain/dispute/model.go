package dispute

import "time"

const (
	StatusOpen        = "OPEN"
	StatusUnderReview = "UNDER_REVIEW"
	StatusResolved    = "RESOLVED"
	StatusRejected    = "REJECTED"
)

const (
	CategoryWrongScore  = "WRONG_SCORE"
	CategoryNoAgreement = "NO_AGREEMENT"
	CategoryConduct     = "CONDUCT"
	CategoryOther       = "OTHER"
)

// Resolution actions an adjudicator may apply exactly one of.
const (
	ActionUpholdOriginal  = "UPHOLD_ORIGINAL"
	ActionUpholdDisputer  = "UPHOLD_DISPUTER"
	ActionCustomScore     = "CUSTOM_SCORE"
	ActionVoidMatch       = "VOID_MATCH"
	ActionAwardWalkover   = "AWARD_WALKOVER"
	ActionRequestMoreInfo = "REQUEST_MORE_INFO"
	ActionReject          = "REJECT"
)

// Dispute is raised by one participant against a match's recorded result.
// At most one non-resolved dispute exists per match.
type Dispute struct {
	ID               string
	MatchID          string
	RaisedBy         string
	Category         string
	Status           string
	Reason           string
	CounterScore     string
	ClaimedBy        string
	ClaimedAt        *time.Time
	ResolvedBy       string
	ResolvedAt       *time.Time
	ResolutionAction string
	ResolutionNotes  string
	CreatedAt        time.Time
}

func IsValidCategory(category string) bool {
	switch category {
	case CategoryWrongScore, CategoryNoAgreement, CategoryConduct, CategoryOther:
		return true
	default:
		return false
	}
}

func IsValidAction(action string) bool {
	switch action {
	case ActionUpholdOriginal, ActionUpholdDisputer, ActionCustomScore,
		ActionVoidMatch, ActionAwardWalkover, ActionRequestMoreInfo, ActionReject:
		return true
	default:
		return false
	}
}

// IsScoreChanging reports whether the action rewrites the match's recorded
// result and therefore requires the recalculation cascade on a rated match.
func IsScoreChanging(action string) bool {
	switch action {
	case ActionUpholdDisputer, ActionCustomScore, ActionVoidMatch, ActionAwardWalkover:
		return true
	default:
		return false
	}
}

func IsSettled(status string) bool {
	return status == StatusResolved || status == StatusRejected
}
