package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc/pool"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
	idgen "github.com/NxTech4021/dl-backend-sub000/internal/platform/id"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

// AggregatesRefresher recomputes per-player best-N aggregates for a division.
type AggregatesRefresher interface {
	RecomputeBestN(ctx context.Context, divisionID, seasonID string) error
}

// RecalcInput describes one admin-driven rewrite of a completed match. At
// most one of NewSets, WalkoverWinnerSide or Void may be set; none of them
// means the match record itself stands and only downstream data is rebuilt.
type RecalcInput struct {
	MatchID string `validate:"required"`
	AdminID string `validate:"required"`
	Reason  string

	NewSets             []SetInput
	WalkoverWinnerSide  string
	Void                bool
	ReplaceParticipants []participant.Participant

	// Audit is persisted inside the rewrite transaction when set. Entry
	// points build it; the cascade core never writes audit rows on its own.
	Audit *adminaction.Action
}

// RecalcResult reports which cascade steps ran. Step failures after the
// transactional rewrite are collected here, never returned as errors.
type RecalcResult struct {
	MatchID                string
	RatingsReversed        bool
	RatingsRecalculated    bool
	StandingsRecalculated  bool
	AggregatesRecalculated bool
	AffectedPlayers        []string
	StepErrors             []string
}

// RecalcService rewrites recorded results and repairs everything derived
// from them. The reversal and structural rewrite are transactional; the
// downstream repairs (ratings, standings, best-N aggregates) run
// concurrently and best effort.
type RecalcService struct {
	matchRepo  match.Repository
	partRepo   participant.Repository
	auditRepo  adminaction.Repository
	applier    *ratingApplier
	standings  StandingsRefresher
	aggregates AggregatesRefresher
	tx         TxRunner
	locker     *matchLocker
	dispatcher *EventDispatcher
	ids        idgen.Generator
	validate   *validator.Validate
	logger     *logging.Logger
	now        func() time.Time
}

func NewRecalcService(
	matchRepo match.Repository,
	partRepo participant.Repository,
	auditRepo adminaction.Repository,
	ratingRepo rating.Repository,
	engine RatingEngine,
	standings StandingsRefresher,
	aggregates AggregatesRefresher,
	tx TxRunner,
	dispatcher *EventDispatcher,
	ids idgen.Generator,
	logger *logging.Logger,
) *RecalcService {
	if tx == nil {
		tx = NopTxRunner{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	now := time.Now
	return &RecalcService{
		matchRepo:  matchRepo,
		partRepo:   partRepo,
		auditRepo:  auditRepo,
		applier:    &ratingApplier{engine: engine, ratingRepo: ratingRepo, ids: ids, now: now},
		standings:  standings,
		aggregates: aggregates,
		tx:         tx,
		locker:     sharedLocker,
		dispatcher: dispatcher,
		ids:        ids,
		validate:   validator.New(),
		logger:     logger,
		now:        now,
	}
}

// RecalculateMatch runs the full cascade for one match:
//
//  1. reverse the match's rating deltas from recorded before-values,
//  2. rewrite scores, participants and audit in the same transaction,
//  3. re-derive ratings, standings and aggregates concurrently, best effort.
//
// Steps 1 and 2 failing abort the operation; step 3 failures only land in
// the result.
func (s *RecalcService) RecalculateMatch(ctx context.Context, input RecalcInput) (RecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.RecalculateMatch")
	defer span.End()

	result := RecalcResult{MatchID: input.MatchID}

	if err := s.validate.Struct(input); err != nil {
		return result, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.NewSets != nil {
		if err := validateSetScores(input.NewSets); err != nil {
			return result, err
		}
	}

	unlock := s.locker.Lock(input.MatchID)
	defer unlock()

	m, found, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return result, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return result, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchID)
	}
	// A disputed pending result leaves the match in SCHEDULED with its
	// scores cleared; an adjudicated rewrite completes or voids it from
	// there. Reversal is a no-op then, no rating rows exist yet.
	adjudicating := m.IsDisputed && m.Status == match.StatusScheduled &&
		(input.NewSets != nil || input.WalkoverWinnerSide != "" || input.Void)
	if m.Status != match.StatusCompleted && m.Status != match.StatusVoid && !adjudicating {
		return result, fmt.Errorf("%w: match %s is %s, recalculation needs a recorded result",
			ErrConflict, m.ID, m.Status)
	}

	parts, err := s.partRepo.ListByMatch(ctx, m.ID)
	if err != nil {
		return result, fmt.Errorf("list participants: %w", err)
	}

	now := s.now()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		reversed, err := s.applier.Reverse(ctx, m.ID)
		if err != nil {
			return err
		}
		result.RatingsReversed = len(reversed) > 0
		for _, entry := range reversed {
			result.AffectedPlayers = appendUnique(result.AffectedPlayers, entry.PlayerID)
		}

		if input.ReplaceParticipants != nil {
			if err := s.partRepo.ReplaceByMatch(ctx, m.ID, input.ReplaceParticipants); err != nil {
				return fmt.Errorf("replace participants: %w", err)
			}
			parts = input.ReplaceParticipants
		}

		switch {
		case input.Void:
			m.Status = match.StatusVoid
			m.WinnerSide = ""
			m.FinalScore = ""
			m.SetsWonA, m.SetsWonB = 0, 0
			if err := s.matchRepo.ReplaceSetScores(ctx, m.ID, nil); err != nil {
				return fmt.Errorf("clear set scores: %w", err)
			}
		case input.WalkoverWinnerSide != "":
			if err := s.rewriteScores(ctx, &m, walkoverSets(input.WalkoverWinnerSide)); err != nil {
				return err
			}
			m.IsWalkover = true
			m.Status = match.StatusCompleted
		case input.NewSets != nil:
			if err := s.rewriteScores(ctx, &m, input.NewSets); err != nil {
				return err
			}
			m.Status = match.StatusCompleted
		}

		m.IsDisputed = false
		m.NeedsAdminReview = false
		m.UpdatedAt = now
		if err := s.matchRepo.Update(ctx, m); err != nil {
			return fmt.Errorf("update match: %w", err)
		}

		if input.Audit != nil {
			a := *input.Audit
			if a.ID == "" {
				a.ID = s.ids.NewID()
			}
			a.MatchID = m.ID
			a.TriggeredRecalculation = true
			a.CreatedAt = now
			if err := s.auditRepo.Create(ctx, a); err != nil {
				return fmt.Errorf("create admin action: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	s.repairDerived(ctx, &result, m, parts)

	for _, p := range parts {
		if p.InviteState == participant.InviteAccepted {
			result.AffectedPlayers = appendUnique(result.AffectedPlayers, p.UserID)
		}
	}

	recorder := newEventRecorder(s.now)
	recorder.record(event.KindRecalculationFinished, m.ID, opposingUserIDs(parts, ""), map[string]any{
		"admin_id":    input.AdminID,
		"status":      m.Status,
		"final_score": m.FinalScore,
		"step_errors": len(result.StepErrors),
	})
	s.dispatcher.Dispatch(ctx, recorder.events)

	return result, nil
}

func (s *RecalcService) rewriteScores(ctx context.Context, m *match.Match, sets []SetInput) error {
	scores := buildSetScores(m.ID, sets)
	if err := s.matchRepo.ReplaceSetScores(ctx, m.ID, scores); err != nil {
		return fmt.Errorf("replace set scores: %w", err)
	}
	m.SetsWonA, m.SetsWonB, m.WinnerSide, m.FinalScore = summarizeSets(scores)
	return nil
}

// repairDerived fans the three downstream repairs out on a bounded pool.
// Each step succeeds or fails on its own.
func (s *RecalcService) repairDerived(ctx context.Context, result *RecalcResult, m match.Match, parts []participant.Participant) {
	var mu sync.Mutex
	fail := func(step string, err error) {
		mu.Lock()
		result.StepErrors = append(result.StepErrors, fmt.Sprintf("%s: %v", step, err))
		mu.Unlock()
		s.logger.WarnContext(ctx, "cascade step failed", "step", step, "match_id", m.ID, "error", err)
	}

	p := pool.New().WithMaxGoroutines(3)

	p.Go(func() {
		if m.Status != match.StatusCompleted {
			return
		}
		if _, err := s.applier.Apply(ctx, m, parts); err != nil {
			fail("ratings", err)
			return
		}
		mu.Lock()
		result.RatingsRecalculated = true
		mu.Unlock()
	})

	p.Go(func() {
		if s.standings == nil {
			return
		}
		if err := s.standings.RecomputeDivision(ctx, m.DivisionID, m.SeasonID); err != nil {
			fail("standings", err)
			return
		}
		mu.Lock()
		result.StandingsRecalculated = true
		mu.Unlock()
	})

	p.Go(func() {
		if s.aggregates == nil {
			return
		}
		if err := s.aggregates.RecomputeBestN(ctx, m.DivisionID, m.SeasonID); err != nil {
			fail("aggregates", err)
			return
		}
		mu.Lock()
		result.AggregatesRecalculated = true
		mu.Unlock()
	})

	p.Wait()
}

type AdminEditScoreInput struct {
	MatchID string     `validate:"required"`
	AdminID string     `validate:"required"`
	Reason  string     `validate:"required"`
	Sets    []SetInput `validate:"required,dive"`
}

// AdminEditScore rewrites a completed match's score, a COMPLETED self-loop
// with a full cascade behind it.
func (s *RecalcService) AdminEditScore(ctx context.Context, input AdminEditScoreInput) (RecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.AdminEditScore")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return RecalcResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	m, found, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return RecalcResult{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return RecalcResult{}, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchID)
	}

	audit, err := s.buildAudit(ctx, adminaction.KindEditScore, input.AdminID, input.Reason, m, map[string]any{
		"sets": input.Sets,
	})
	if err != nil {
		return RecalcResult{}, err
	}

	return s.RecalculateMatch(ctx, RecalcInput{
		MatchID: input.MatchID,
		AdminID: input.AdminID,
		Reason:  input.Reason,
		NewSets: input.Sets,
		Audit:   audit,
	})
}

type ParticipantInput struct {
	UserID string `validate:"required"`
	Role   string `validate:"required"`
	Side   string `validate:"required,oneof=A B"`
}

type AdminEditParticipantsInput struct {
	MatchID      string             `validate:"required"`
	AdminID      string             `validate:"required"`
	Reason       string             `validate:"required"`
	Participants []ParticipantInput `validate:"required,min=2,dive"`
}

// AdminEditParticipants replaces a completed match's roster, with every new
// row accepted, and cascades. Used to fix results recorded against the wrong
// player.
func (s *RecalcService) AdminEditParticipants(ctx context.Context, input AdminEditParticipantsInput) (RecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.AdminEditParticipants")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return RecalcResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	m, found, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return RecalcResult{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return RecalcResult{}, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchID)
	}
	if want := match.AcceptedCountForCompletion(m.Type); len(input.Participants) != want {
		return RecalcResult{}, fmt.Errorf("%w: %s match needs %d participants, got %d",
			ErrInvalidInput, m.Type, want, len(input.Participants))
	}

	now := s.now()
	roster := make([]participant.Participant, 0, len(input.Participants))
	for _, in := range input.Participants {
		roster = append(roster, participant.Participant{
			ID:          s.ids.NewID(),
			MatchID:     m.ID,
			UserID:      in.UserID,
			Role:        in.Role,
			Side:        in.Side,
			InviteState: participant.InviteAccepted,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	audit, err := s.buildAudit(ctx, adminaction.KindEditParticipants, input.AdminID, input.Reason, m, map[string]any{
		"participants": input.Participants,
	})
	if err != nil {
		return RecalcResult{}, err
	}

	return s.RecalculateMatch(ctx, RecalcInput{
		MatchID:             input.MatchID,
		AdminID:             input.AdminID,
		Reason:              input.Reason,
		ReplaceParticipants: roster,
		Audit:               audit,
	})
}

type AdminVoidMatchInput struct {
	MatchID string `validate:"required"`
	AdminID string `validate:"required"`
	Reason  string `validate:"required"`
}

// AdminVoidMatch retires a completed match's result entirely. Ratings are
// reversed and stay reversed; the match ends in VOID.
func (s *RecalcService) AdminVoidMatch(ctx context.Context, input AdminVoidMatchInput) (RecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.AdminVoidMatch")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return RecalcResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	m, found, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return RecalcResult{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return RecalcResult{}, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchID)
	}

	audit, err := s.buildAudit(ctx, adminaction.KindVoidMatch, input.AdminID, input.Reason, m, map[string]any{
		"status": match.StatusVoid,
	})
	if err != nil {
		return RecalcResult{}, err
	}

	return s.RecalculateMatch(ctx, RecalcInput{
		MatchID: input.MatchID,
		AdminID: input.AdminID,
		Reason:  input.Reason,
		Void:    true,
		Audit:   audit,
	})
}

// AdminReopenMatch returns a VOID, CANCELLED or UNFINISHED match to
// SCHEDULED so it can be replayed. No cascade runs; a voided match's ratings
// were already reversed.
func (s *RecalcService) AdminReopenMatch(ctx context.Context, input AdminVoidMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.AdminReopenMatch")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock := s.locker.Lock(input.MatchID)
	defer unlock()

	m, found, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchID)
	}
	switch m.Status {
	case match.StatusVoid, match.StatusCancelled, match.StatusUnfinished:
	default:
		return match.Match{}, fmt.Errorf("%w: match %s is %s, reopen needs VOID, CANCELLED or UNFINISHED",
			ErrConflict, m.ID, m.Status)
	}

	audit, err := s.buildAudit(ctx, adminaction.KindReopenMatch, input.AdminID, input.Reason, m, map[string]any{
		"status": match.StatusScheduled,
	})
	if err != nil {
		return match.Match{}, err
	}

	now := s.now()
	m.Status = match.StatusScheduled
	m.WinnerSide = ""
	m.FinalScore = ""
	m.SetsWonA, m.SetsWonB = 0, 0
	m.SubmittedBy = ""
	m.SubmittedAt = nil
	m.ConfirmedBy = ""
	m.ConfirmedAt = nil
	m.CancelledBy = ""
	m.CancelledAt = nil
	m.IsWalkover = false
	m.IsLateCancellation = false
	m.UpdatedAt = now

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.matchRepo.ReplaceSetScores(ctx, m.ID, nil); err != nil {
			return fmt.Errorf("clear set scores: %w", err)
		}
		if err := s.matchRepo.Update(ctx, m); err != nil {
			return fmt.Errorf("update match: %w", err)
		}
		audit.ID = s.ids.NewID()
		audit.CreatedAt = now
		if err := s.auditRepo.Create(ctx, *audit); err != nil {
			return fmt.Errorf("create admin action: %w", err)
		}
		return nil
	})
	if err != nil {
		return match.Match{}, err
	}

	return m, nil
}

// buildAudit snapshots the match as OldValue and the change as NewValue.
func (s *RecalcService) buildAudit(
	ctx context.Context,
	kind, adminID, reason string,
	m match.Match,
	change map[string]any,
) (*adminaction.Action, error) {
	oldValue, err := sonic.MarshalString(m)
	if err != nil {
		return nil, fmt.Errorf("snapshot match: %w", err)
	}
	newValue, err := sonic.MarshalString(change)
	if err != nil {
		return nil, fmt.Errorf("snapshot change: %w", err)
	}

	parts, err := s.partRepo.ListByMatch(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	return &adminaction.Action{
		AdminID:         adminID,
		Kind:            kind,
		MatchID:         m.ID,
		Reason:          reason,
		OldValue:        oldValue,
		NewValue:        newValue,
		AffectedUserIDs: opposingUserIDs(parts, ""),
	}, nil
}

func appendUnique(items []string, value string) []string {
	for _, item := range items {
		if item == value {
			return items
		}
	}
	return append(items, value)
}
