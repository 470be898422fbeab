package adminaction

import "time"

const (
	KindEditScore        = "EDIT_SCORE"
	KindEditParticipants = "EDIT_PARTICIPANTS"
	KindVoidMatch        = "VOID_MATCH"
	KindReopenMatch      = "REOPEN_MATCH"
	KindResolveDispute   = "RESOLVE_DISPUTE"
	KindApplyPenalty     = "APPLY_PENALTY"
	KindResolveAppeal    = "RESOLVE_APPEAL"
	KindReviewCancel     = "REVIEW_CANCELLATION"
)

// Action is an immutable audit entry for an admin-triggered mutation.
// OldValue/NewValue hold JSON snapshots of the affected record. Rows are
// written synchronously inside the same transaction as the mutation they
// document.
type Action struct {
	ID                     string
	AdminID                string
	Kind                   string
	MatchID                string
	DisputeID              string
	Reason                 string
	OldValue               string
	NewValue               string
	AffectedUserIDs        []string
	TriggeredRecalculation bool
	CreatedAt              time.Time
}
