package penalty

import "time"

const (
	TypeWarning        = "WARNING"
	TypePointDeduction = "POINT_DEDUCTION"
	TypeSuspension     = "SUSPENSION"
)

const (
	SeverityLow    = "LOW"
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

const (
	StatusActive  = "ACTIVE"
	StatusExpired = "EXPIRED"
	StatusVoided  = "VOIDED"
)

const (
	AppealUpheld     = "UPHELD"
	AppealOverturned = "OVERTURNED"
)

// Penalty is a disciplinary record, optionally tied to a match or dispute,
// with its own appeal sub-lifecycle.
type Penalty struct {
	ID             string
	UserID         string
	Type           string
	Severity       string
	Points         int
	SuspensionDays int
	Status         string
	MatchID        string
	DisputeID      string
	Reason         string
	ExpiresAt      *time.Time

	AppealSubmittedAt *time.Time
	AppealReason      string
	AppealOutcome     string
	AppealResolvedBy  string
	AppealResolvedAt  *time.Time
	AppealNotes       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func IsValidType(value string) bool {
	switch value {
	case TypeWarning, TypePointDeduction, TypeSuspension:
		return true
	default:
		return false
	}
}

func IsValidSeverity(value string) bool {
	switch value {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}
