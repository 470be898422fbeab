package event

import "time"

// Kinds of domain events the engine records during an operation. A dispatcher
// delivers them to the notification sink after the owning transaction commits.
const (
	KindInviteSent            = "INVITE_SENT"
	KindInviteResponded       = "INVITE_RESPONDED"
	KindMatchScheduled        = "MATCH_SCHEDULED"
	KindMatchCancelled        = "MATCH_CANCELLED"
	KindResultSubmitted       = "RESULT_SUBMITTED"
	KindResultConfirmed       = "RESULT_CONFIRMED"
	KindDisputeOpened         = "DISPUTE_OPENED"
	KindDisputeResolved       = "DISPUTE_RESOLVED"
	KindWalkoverRecorded      = "WALKOVER_RECORDED"
	KindPenaltyApplied        = "PENALTY_APPLIED"
	KindAppealResolved        = "APPEAL_RESOLVED"
	KindRecalculationFinished = "RECALCULATION_FINISHED"
)

// Event is one notification-worthy fact about a match or user.
type Event struct {
	Kind       string
	MatchID    string
	UserIDs    []string
	Payload    map[string]any
	OccurredAt time.Time
}
