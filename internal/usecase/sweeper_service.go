package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/invitation"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

// SuspensionExpirer flips overdue suspensions; the penalty service
// implements it.
type SuspensionExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

type SweeperConfig struct {
	Interval             time.Duration
	DisputeEscalateAfter time.Duration
	StaleResultAfter     time.Duration
	Workers              int
}

func (c SweeperConfig) normalized() SweeperConfig {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Minute
	}
	if c.DisputeEscalateAfter <= 0 {
		c.DisputeEscalateAfter = 72 * time.Hour
	}
	if c.StaleResultAfter <= 0 {
		c.StaleResultAfter = 72 * time.Hour
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	return c
}

// SweeperService is the fixed-interval background pass. It applies the same
// expiry rules the request path applies lazily, parks stale pending results
// in UNFINISHED, escalates old disputes, and expires suspensions.
type SweeperService struct {
	matchRepo   match.Repository
	partRepo    participant.Repository
	invRepo     invitation.Repository
	disputeRepo dispute.Repository
	suspensions SuspensionExpirer
	locker      *matchLocker
	cfg         SweeperConfig
	logger      *logging.Logger
	now         func() time.Time
}

func NewSweeperService(
	matchRepo match.Repository,
	partRepo participant.Repository,
	invRepo invitation.Repository,
	disputeRepo dispute.Repository,
	suspensions SuspensionExpirer,
	cfg SweeperConfig,
	logger *logging.Logger,
) *SweeperService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SweeperService{
		matchRepo:   matchRepo,
		partRepo:    partRepo,
		invRepo:     invRepo,
		disputeRepo: disputeRepo,
		suspensions: suspensions,
		locker:      sharedLocker,
		cfg:         cfg.normalized(),
		logger:      logger,
		now:         time.Now,
	}
}

// Run sweeps on the configured interval until ctx ends. One pass runs at
// start so a fresh process catches up immediately.
func (s *SweeperService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs every sweep in order. Failures are logged per item; a bad
// row never blocks the rest of the pass.
func (s *SweeperService) SweepOnce(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SweeperService.SweepOnce")
	defer span.End()

	s.expireInvitations(ctx)
	s.parkStaleResults(ctx)
	s.escalateDisputes(ctx)

	if s.suspensions != nil {
		if n, err := s.suspensions.ExpireDue(ctx); err != nil {
			s.logger.WarnContext(ctx, "suspension expiry sweep failed", "error", err)
		} else if n > 0 {
			s.logger.InfoContext(ctx, "suspensions expired", "count", n)
		}
	}
}

// expireInvitations terminates every overdue pending invitation on a worker
// pool, then sweeps matches whose whole roster refused back to DRAFT.
func (s *SweeperService) expireInvitations(ctx context.Context) {
	now := s.now()
	due, err := s.invRepo.ListPendingBefore(ctx, now)
	if err != nil {
		s.logger.WarnContext(ctx, "pending invitation listing failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		s.logger.WarnContext(ctx, "worker pool unavailable", "error", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	touched := make(chan string, len(due))
	for _, inv := range due {
		inv := inv
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.expireOne(ctx, inv, now); err != nil {
				s.logger.WarnContext(ctx, "invitation not expired",
					"invitation_id", inv.ID, "error", err)
				return
			}
			touched <- inv.MatchID
		})
		if submitErr != nil {
			wg.Done()
			s.logger.WarnContext(ctx, "invitation expiry not submitted",
				"invitation_id", inv.ID, "error", submitErr)
		}
	}
	wg.Wait()
	close(touched)

	seen := make(map[string]struct{})
	for matchID := range touched {
		if _, ok := seen[matchID]; ok {
			continue
		}
		seen[matchID] = struct{}{}
		if err := s.sweepIfAllRefused(ctx, matchID, now); err != nil {
			s.logger.WarnContext(ctx, "refused-roster sweep failed", "match_id", matchID, "error", err)
		}
	}
	s.logger.InfoContext(ctx, "invitations expired", "count", len(due))
}

func (s *SweeperService) expireOne(ctx context.Context, inv invitation.Invitation, now time.Time) error {
	unlock := s.locker.Lock(inv.MatchID)
	defer unlock()

	current, found, err := s.invRepo.GetByID(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("get invitation: %w", err)
	}
	if !found || current.Status != invitation.StatusPending || !current.IsExpired(now) {
		return nil
	}

	current.Status = invitation.StatusExpired
	current.RespondedAt = &now
	if err := s.invRepo.Update(ctx, current); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}

	parts, err := s.partRepo.ListByMatch(ctx, current.MatchID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	for _, p := range parts {
		if p.UserID != current.InviteeID || p.InviteState != participant.InvitePending {
			continue
		}
		p.InviteState = participant.InviteExpired
		p.UpdatedAt = now
		if err := s.partRepo.Update(ctx, p); err != nil {
			return fmt.Errorf("update participant: %w", err)
		}
		break
	}
	return nil
}

func (s *SweeperService) sweepIfAllRefused(ctx context.Context, matchID string, now time.Time) error {
	unlock := s.locker.Lock(matchID)
	defer unlock()

	invs, err := s.invRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list invitations: %w", err)
	}
	for _, inv := range invs {
		switch inv.Status {
		case invitation.StatusDeclined, invitation.StatusExpired, invitation.StatusCancelled:
			continue
		default:
			return nil
		}
	}

	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if !found || m.Status != match.StatusScheduled {
		return nil
	}

	m.Status = match.StatusDraft
	m.UpdatedAt = now
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return fmt.Errorf("sweep match to draft: %w", err)
	}
	return nil
}

// parkStaleResults moves ONGOING matches whose pending result went
// unanswered past the stale window into UNFINISHED, the parking state admins
// review. Disputed matches are left to the dispute flow.
func (s *SweeperService) parkStaleResults(ctx context.Context) {
	now := s.now()
	ongoing, err := s.matchRepo.ListByStatus(ctx, match.StatusOngoing)
	if err != nil {
		s.logger.WarnContext(ctx, "ongoing match listing failed", "error", err)
		return
	}

	parked := 0
	for _, m := range ongoing {
		if m.IsDisputed || m.SubmittedAt == nil {
			continue
		}
		if now.Sub(*m.SubmittedAt) < s.cfg.StaleResultAfter {
			continue
		}

		unlock := s.locker.Lock(m.ID)
		current, found, err := s.matchRepo.GetByID(ctx, m.ID)
		if err != nil || !found || current.Status != match.StatusOngoing {
			unlock()
			continue
		}
		current.Status = match.StatusUnfinished
		current.NeedsAdminReview = true
		current.UpdatedAt = now
		if err := s.matchRepo.Update(ctx, current); err != nil {
			s.logger.WarnContext(ctx, "stale result not parked", "match_id", m.ID, "error", err)
		} else {
			parked++
		}
		unlock()
	}
	if parked > 0 {
		s.logger.InfoContext(ctx, "stale pending results parked", "count", parked)
	}
}

// escalateDisputes flags disputes still OPEN past the escalation window.
func (s *SweeperService) escalateDisputes(ctx context.Context) {
	now := s.now()
	cutoff := now.Add(-s.cfg.DisputeEscalateAfter)
	stale, err := s.disputeRepo.ListOpenBefore(ctx, cutoff)
	if err != nil {
		s.logger.WarnContext(ctx, "open dispute listing failed", "error", err)
		return
	}

	for _, d := range stale {
		m, found, err := s.matchRepo.GetByID(ctx, d.MatchID)
		if err != nil || !found || m.NeedsAdminReview {
			continue
		}
		m.NeedsAdminReview = true
		m.UpdatedAt = now
		if err := s.matchRepo.Update(ctx, m); err != nil {
			s.logger.WarnContext(ctx, "dispute escalation failed",
				"dispute_id", d.ID, "match_id", d.MatchID, "error", err)
		}
	}
}
