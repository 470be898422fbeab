package match

import (
	"strings"
	"time"
)

const (
	StatusDraft      = "DRAFT"
	StatusScheduled  = "SCHEDULED"
	StatusOngoing    = "ONGOING"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusVoid       = "VOID"
	StatusUnfinished = "UNFINISHED"
)

const (
	TypeSingles = "SINGLES"
	TypeDoubles = "DOUBLES"
)

const (
	SideA = "A"
	SideB = "B"
)

const (
	WalkoverNoShow           = "NO_SHOW"
	WalkoverInjury           = "INJURY"
	WalkoverLateCancellation = "LATE_CANCELLATION"
	WalkoverOther            = "OTHER"
)

// Match is the authoritative record of one contest between two sides.
type Match struct {
	ID                   string
	DivisionID           string
	SeasonID             string
	Type                 string
	Status               string
	CreatorID            string
	ScheduledAt          *time.Time
	Location             string
	RequiresConfirmation bool
	SetsWonA             int
	SetsWonB             int
	FinalScore           string
	WinnerSide           string
	SubmittedBy          string
	SubmittedAt          *time.Time
	ConfirmedBy          string
	ConfirmedAt          *time.Time
	IsDisputed           bool
	IsWalkover           bool
	IsLateCancellation   bool
	NeedsAdminReview     bool
	CancelledBy          string
	CancelledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SetScore is one set of a match. Rows for a match are always replaced
// wholesale, never patched, so set numbers stay contiguous.
type SetScore struct {
	MatchID    string
	SetNumber  int
	GamesA     int
	GamesB     int
	TiebreakA  *int
	TiebreakB  *int
	WinnerSide string
}

// Walkover captures a result awarded without a played score.
type Walkover struct {
	ID               string
	MatchID          string
	ReporterID       string
	DefaultingUserID string
	Reason           string
	AdminVerified    bool
	CreatedAt        time.Time
}

func NormalizeType(value string) string {
	t := strings.ToUpper(strings.TrimSpace(value))
	if t == "" {
		return TypeSingles
	}
	return t
}

func IsValidType(value string) bool {
	switch value {
	case TypeSingles, TypeDoubles:
		return true
	default:
		return false
	}
}

// AcceptedCountForCompletion is how many accepted participants a match of the
// given type must hold before it may reach COMPLETED.
func AcceptedCountForCompletion(matchType string) int {
	if matchType == TypeDoubles {
		return 4
	}
	return 2
}

// IsTerminal reports whether a status cannot be left by normal flow.
// COMPLETED is excluded: admin edits self-loop on it and VOID is reachable.
func IsTerminal(status string) bool {
	switch status {
	case StatusCancelled, StatusVoid:
		return true
	default:
		return false
	}
}

func IsActive(status string) bool {
	switch status {
	case StatusScheduled, StatusOngoing:
		return true
	default:
		return false
	}
}

// CanTransition encodes the legal status graph for participant-driven flow.
// Admin overrides (COMPLETED->VOID, COMPLETED->COMPLETED, reopening a
// terminal match) are modeled as their own explicit operations and do not
// pass through here.
func CanTransition(from, to string) bool {
	switch from {
	case StatusDraft:
		return to == StatusScheduled
	case StatusScheduled:
		switch to {
		case StatusDraft, StatusOngoing, StatusCompleted, StatusCancelled:
			return true
		}
	case StatusOngoing:
		switch to {
		case StatusScheduled, StatusCompleted, StatusCancelled, StatusUnfinished:
			return true
		}
	}
	return false
}

func OpposingSide(side string) string {
	if side == SideA {
		return SideB
	}
	return SideA
}

func IsValidWalkoverReason(reason string) bool {
	switch reason {
	case WalkoverNoShow, WalkoverInjury, WalkoverLateCancellation, WalkoverOther:
		return true
	default:
		return false
	}
}
