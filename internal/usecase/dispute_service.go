package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	idgen "github.com/NxTech4021/dl-backend-sub000/internal/platform/id"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

// Recalculator is the cascade entry the dispute engine hands score-changing
// resolutions to.
type Recalculator interface {
	RecalculateMatch(ctx context.Context, input RecalcInput) (RecalcResult, error)
}

type ClaimDisputeInput struct {
	DisputeID string `validate:"required"`
	AdminID   string `validate:"required"`
}

type ResolveDisputeInput struct {
	DisputeID string `validate:"required"`
	AdminID   string `validate:"required"`
	Action    string `validate:"required"`
	Notes     string
	// Sets carries the adjudicated score for CUSTOM_SCORE and
	// UPHOLD_DISPUTER resolutions.
	Sets []SetInput
}

// DisputeService adjudicates disputes. Score-changing resolutions run the
// full recalculation cascade; every resolution leaves an AdminAction row.
type DisputeService struct {
	disputeRepo dispute.Repository
	matchRepo   match.Repository
	partRepo    participant.Repository
	auditRepo   adminaction.Repository
	recalc      Recalculator
	tx          TxRunner
	locker      *matchLocker
	dispatcher  *EventDispatcher
	ids         idgen.Generator
	validate    *validator.Validate
	logger      *logging.Logger
	now         func() time.Time
}

func NewDisputeService(
	disputeRepo dispute.Repository,
	matchRepo match.Repository,
	partRepo participant.Repository,
	auditRepo adminaction.Repository,
	recalc Recalculator,
	tx TxRunner,
	dispatcher *EventDispatcher,
	ids idgen.Generator,
	logger *logging.Logger,
) *DisputeService {
	if tx == nil {
		tx = NopTxRunner{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DisputeService{
		disputeRepo: disputeRepo,
		matchRepo:   matchRepo,
		partRepo:    partRepo,
		auditRepo:   auditRepo,
		recalc:      recalc,
		tx:          tx,
		locker:      sharedLocker,
		dispatcher:  dispatcher,
		ids:         ids,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// Claim moves an OPEN dispute to UNDER_REVIEW and stamps the adjudicator.
// Claiming a dispute someone else already holds is a conflict.
func (s *DisputeService) Claim(ctx context.Context, input ClaimDisputeInput) (dispute.Dispute, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DisputeService.Claim")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return dispute.Dispute{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	d, found, err := s.disputeRepo.GetByID(ctx, input.DisputeID)
	if err != nil {
		return dispute.Dispute{}, fmt.Errorf("get dispute: %w", err)
	}
	if !found {
		return dispute.Dispute{}, fmt.Errorf("%w: dispute=%s", ErrNotFound, input.DisputeID)
	}
	if d.Status != dispute.StatusOpen {
		return dispute.Dispute{}, fmt.Errorf("%w: dispute %s is %s, claiming needs OPEN",
			ErrConflict, d.ID, d.Status)
	}

	now := s.now()
	d.Status = dispute.StatusUnderReview
	d.ClaimedBy = input.AdminID
	d.ClaimedAt = &now
	if err := s.disputeRepo.Update(ctx, d); err != nil {
		return dispute.Dispute{}, fmt.Errorf("update dispute: %w", err)
	}

	return d, nil
}

// Queue lists the disputes sitting in one adjudication status, oldest first.
func (s *DisputeService) Queue(ctx context.Context, status string) ([]dispute.Dispute, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DisputeService.Queue")
	defer span.End()

	switch status {
	case dispute.StatusOpen, dispute.StatusUnderReview, dispute.StatusResolved, dispute.StatusRejected:
	default:
		return nil, fmt.Errorf("%w: unknown dispute status %s", ErrInvalidInput, status)
	}
	return s.disputeRepo.ListByStatus(ctx, status)
}

// Resolve settles a dispute with exactly one action from the resolution set.
// REQUEST_MORE_INFO sends the dispute back to OPEN without settling it;
// REJECT settles the dispute alone; every other action also rewrites the
// match through the cascade.
func (s *DisputeService) Resolve(ctx context.Context, input ResolveDisputeInput) (dispute.Dispute, *RecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DisputeService.Resolve")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return dispute.Dispute{}, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !dispute.IsValidAction(input.Action) {
		return dispute.Dispute{}, nil, fmt.Errorf("%w: unknown resolution action %s", ErrInvalidInput, input.Action)
	}

	d, found, err := s.disputeRepo.GetByID(ctx, input.DisputeID)
	if err != nil {
		return dispute.Dispute{}, nil, fmt.Errorf("get dispute: %w", err)
	}
	if !found {
		return dispute.Dispute{}, nil, fmt.Errorf("%w: dispute=%s", ErrNotFound, input.DisputeID)
	}
	if dispute.IsSettled(d.Status) {
		return dispute.Dispute{}, nil, fmt.Errorf("%w: dispute %s was already %s", ErrConflict, d.ID, d.Status)
	}

	m, found, err := s.matchRepo.GetByID(ctx, d.MatchID)
	if err != nil {
		return dispute.Dispute{}, nil, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return dispute.Dispute{}, nil, fmt.Errorf("%w: match=%s", ErrNotFound, d.MatchID)
	}

	switch input.Action {
	case dispute.ActionUpholdDisputer, dispute.ActionCustomScore:
		if len(input.Sets) == 0 {
			return dispute.Dispute{}, nil, fmt.Errorf("%w: action %s requires the adjudicated score",
				ErrInvalidInput, input.Action)
		}
		if err := validateSetScores(input.Sets); err != nil {
			return dispute.Dispute{}, nil, err
		}
	}

	if input.Action == dispute.ActionRequestMoreInfo {
		return s.requestMoreInfo(ctx, d, input)
	}

	// Score-changing actions serialize inside the cascade, which takes the
	// same non-reentrant match lock; the settle-only branch rewrites the
	// match row here and must hold it itself.
	if !dispute.IsScoreChanging(input.Action) {
		unlock := s.locker.Lock(d.MatchID)
		defer unlock()
	}

	now := s.now()
	d.Status = dispute.StatusResolved
	if input.Action == dispute.ActionReject {
		d.Status = dispute.StatusRejected
	}
	d.ResolvedBy = input.AdminID
	d.ResolvedAt = &now
	d.ResolutionAction = input.Action
	d.ResolutionNotes = input.Notes

	var recalcResult *RecalcResult

	if dispute.IsScoreChanging(input.Action) {
		if s.recalc == nil {
			return dispute.Dispute{}, nil, fmt.Errorf("%w: no recalculator configured for %s",
				ErrDependencyUnavailable, input.Action)
		}
		recalcInput, err := s.cascadeInputFor(ctx, d, m, input)
		if err != nil {
			return dispute.Dispute{}, nil, err
		}
		res, err := s.recalc.RecalculateMatch(ctx, recalcInput)
		if err != nil {
			return dispute.Dispute{}, nil, err
		}
		recalcResult = &res
	}

	recorder := newEventRecorder(s.now)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.disputeRepo.Update(ctx, d); err != nil {
			return fmt.Errorf("update dispute: %w", err)
		}

		// Score-changing actions already cleared the flags and wrote their
		// audit inside the cascade; the rest settle here.
		if !dispute.IsScoreChanging(input.Action) {
			m, found, err := s.matchRepo.GetByID(ctx, d.MatchID)
			if err != nil {
				return fmt.Errorf("get match: %w", err)
			}
			if !found {
				return fmt.Errorf("%w: match=%s", ErrNotFound, d.MatchID)
			}
			m.IsDisputed = false
			m.NeedsAdminReview = false
			m.UpdatedAt = now
			if err := s.matchRepo.Update(ctx, m); err != nil {
				return fmt.Errorf("update match: %w", err)
			}

			audit, err := s.buildResolutionAudit(ctx, d, m, input, false)
			if err != nil {
				return err
			}
			if err := s.auditRepo.Create(ctx, audit); err != nil {
				return fmt.Errorf("create admin action: %w", err)
			}
		}

		parts, err := s.partRepo.ListByMatch(ctx, d.MatchID)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		recorder.record(event.KindDisputeResolved, d.MatchID, opposingUserIDs(parts, ""), map[string]any{
			"dispute_id": d.ID,
			"action":     input.Action,
		})
		return nil
	})
	if err != nil {
		return dispute.Dispute{}, nil, err
	}

	s.dispatcher.Dispatch(ctx, recorder.events)
	return d, recalcResult, nil
}

// requestMoreInfo reopens the dispute for the raiser without settling it.
func (s *DisputeService) requestMoreInfo(ctx context.Context, d dispute.Dispute, input ResolveDisputeInput) (dispute.Dispute, *RecalcResult, error) {
	d.Status = dispute.StatusOpen
	d.ClaimedBy = ""
	d.ClaimedAt = nil
	d.ResolutionNotes = input.Notes
	if err := s.disputeRepo.Update(ctx, d); err != nil {
		return dispute.Dispute{}, nil, fmt.Errorf("update dispute: %w", err)
	}

	recorder := newEventRecorder(s.now)
	recorder.record(event.KindDisputeResolved, d.MatchID, []string{d.RaisedBy}, map[string]any{
		"dispute_id": d.ID,
		"action":     dispute.ActionRequestMoreInfo,
		"notes":      input.Notes,
	})
	s.dispatcher.Dispatch(ctx, recorder.events)

	return d, nil, nil
}

// cascadeInputFor maps a score-changing resolution onto a cascade rewrite.
func (s *DisputeService) cascadeInputFor(
	ctx context.Context,
	d dispute.Dispute,
	m match.Match,
	input ResolveDisputeInput,
) (RecalcInput, error) {
	out := RecalcInput{
		MatchID: d.MatchID,
		AdminID: input.AdminID,
		Reason:  input.Notes,
	}

	switch input.Action {
	case dispute.ActionUpholdDisputer, dispute.ActionCustomScore:
		out.NewSets = input.Sets
	case dispute.ActionVoidMatch:
		out.Void = true
	case dispute.ActionAwardWalkover:
		parts, err := s.partRepo.ListByMatch(ctx, d.MatchID)
		if err != nil {
			return RecalcInput{}, fmt.Errorf("list participants: %w", err)
		}
		side, ok := participant.AcceptedSide(parts, d.RaisedBy)
		if !ok {
			return RecalcInput{}, fmt.Errorf("%w: disputer %s is not an accepted participant of match %s",
				ErrConflict, d.RaisedBy, d.MatchID)
		}
		out.WalkoverWinnerSide = side
	}

	audit, err := s.buildResolutionAudit(ctx, d, m, input, true)
	if err != nil {
		return RecalcInput{}, err
	}
	out.Audit = &audit
	return out, nil
}

func (s *DisputeService) buildResolutionAudit(
	ctx context.Context,
	d dispute.Dispute,
	m match.Match,
	input ResolveDisputeInput,
	scoreChanging bool,
) (adminaction.Action, error) {
	oldValue, err := sonic.MarshalString(m)
	if err != nil {
		return adminaction.Action{}, fmt.Errorf("snapshot match: %w", err)
	}
	newValue, err := sonic.MarshalString(map[string]any{
		"action": input.Action,
		"sets":   input.Sets,
		"notes":  input.Notes,
	})
	if err != nil {
		return adminaction.Action{}, fmt.Errorf("snapshot resolution: %w", err)
	}

	parts, err := s.partRepo.ListByMatch(ctx, d.MatchID)
	if err != nil {
		return adminaction.Action{}, fmt.Errorf("list participants: %w", err)
	}

	return adminaction.Action{
		ID:                     s.ids.NewID(),
		AdminID:                input.AdminID,
		Kind:                   adminaction.KindResolveDispute,
		MatchID:                d.MatchID,
		DisputeID:              d.ID,
		Reason:                 input.Notes,
		OldValue:               oldValue,
		NewValue:               newValue,
		AffectedUserIDs:        opposingUserIDs(parts, ""),
		TriggeredRecalculation: scoreChanging,
		CreatedAt:              s.now(),
	}, nil
}
