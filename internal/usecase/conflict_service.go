package usecase

import (
	"context"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/timeslot"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

// ConflictDetector reports whether a user already holds an accepted match
// around a proposed time. It is advisory: storage errors are logged and read
// as "no conflict found", they never block the calling transition.
type ConflictDetector struct {
	matchRepo match.Repository
	partRepo  participant.Repository
	slotRepo  timeslot.Repository
	logger    *logging.Logger
}

func NewConflictDetector(
	matchRepo match.Repository,
	partRepo participant.Repository,
	slotRepo timeslot.Repository,
	logger *logging.Logger,
) *ConflictDetector {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConflictDetector{
		matchRepo: matchRepo,
		partRepo:  partRepo,
		slotRepo:  slotRepo,
		logger:    logger,
	}
}

// HasConflict returns the id of a conflicting match, if any. A match
// conflicts when the user is an accepted participant on it, it is SCHEDULED
// or ONGOING, and either its scheduled time or a CONFIRMED time slot falls
// inside ±window around at.
func (d *ConflictDetector) HasConflict(
	ctx context.Context,
	userID string,
	at time.Time,
	window time.Duration,
	excludeMatchID string,
) (string, bool) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConflictDetector.HasConflict")
	defer span.End()

	parts, err := d.partRepo.ListByUser(ctx, userID)
	if err != nil {
		d.logger.WarnContext(ctx, "conflict scan failed, treating as no conflict",
			"user_id", userID, "error", err)
		return "", false
	}

	matchIDs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.MatchID == excludeMatchID || p.InviteState != participant.InviteAccepted {
			continue
		}
		matchIDs = append(matchIDs, p.MatchID)
	}
	if len(matchIDs) == 0 {
		return "", false
	}

	matches, err := d.matchRepo.ListByIDs(ctx, matchIDs)
	if err != nil {
		d.logger.WarnContext(ctx, "conflict scan failed, treating as no conflict",
			"user_id", userID, "error", err)
		return "", false
	}

	for _, m := range matches {
		if !match.IsActive(m.Status) {
			continue
		}
		if m.ScheduledAt != nil && withinWindow(*m.ScheduledAt, at, window) {
			return m.ID, true
		}

		slots, err := d.slotRepo.ListByMatch(ctx, m.ID)
		if err != nil {
			d.logger.WarnContext(ctx, "conflict slot scan failed, skipping match",
				"match_id", m.ID, "error", err)
			continue
		}
		for _, slot := range slots {
			if slot.Status == timeslot.StatusConfirmed && withinWindow(slot.StartsAt, at, window) {
				return m.ID, true
			}
		}
	}

	return "", false
}

func withinWindow(a, b time.Time, window time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= window
}
