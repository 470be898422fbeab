package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/penalty"
	idgen "github.com/NxTech4021/dl-backend-sub000/internal/platform/id"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

type ApplyPenaltyInput struct {
	UserID         string `validate:"required"`
	AdminID        string `validate:"required"`
	Type           string `validate:"required"`
	Severity       string `validate:"required"`
	Reason         string `validate:"required"`
	Points         int    `validate:"gte=0"`
	SuspensionDays int    `validate:"gte=0"`
	MatchID        string
	DisputeID      string
}

type SubmitAppealInput struct {
	PenaltyID string `validate:"required"`
	UserID    string `validate:"required"`
	Reason    string `validate:"required"`
}

type ResolveAppealInput struct {
	PenaltyID string `validate:"required"`
	AdminID   string `validate:"required"`
	Outcome   string `validate:"required,oneof=UPHELD OVERTURNED"`
	Notes     string
}

// PenaltyService applies disciplinary sanctions and runs their appeal
// lifecycle. It also serves as the result path's DisciplinaryQueue for
// automatic no-show warnings.
type PenaltyService struct {
	penaltyRepo penalty.Repository
	auditRepo   adminaction.Repository
	tx          TxRunner
	dispatcher  *EventDispatcher
	ids         idgen.Generator
	validate    *validator.Validate
	logger      *logging.Logger
	now         func() time.Time
}

func NewPenaltyService(
	penaltyRepo penalty.Repository,
	auditRepo adminaction.Repository,
	tx TxRunner,
	dispatcher *EventDispatcher,
	ids idgen.Generator,
	logger *logging.Logger,
) *PenaltyService {
	if tx == nil {
		tx = NopTxRunner{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PenaltyService{
		penaltyRepo: penaltyRepo,
		auditRepo:   auditRepo,
		tx:          tx,
		dispatcher:  dispatcher,
		ids:         ids,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// Apply records a sanction against a user. Suspensions get an expiry of now
// plus the suspension length; the sweeper expires them.
func (s *PenaltyService) Apply(ctx context.Context, input ApplyPenaltyInput) (penalty.Penalty, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PenaltyService.Apply")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return penalty.Penalty{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !penalty.IsValidType(input.Type) {
		return penalty.Penalty{}, fmt.Errorf("%w: unknown penalty type %s", ErrInvalidInput, input.Type)
	}
	if !penalty.IsValidSeverity(input.Severity) {
		return penalty.Penalty{}, fmt.Errorf("%w: unknown severity %s", ErrInvalidInput, input.Severity)
	}
	if input.Type == penalty.TypeSuspension && input.SuspensionDays == 0 {
		return penalty.Penalty{}, fmt.Errorf("%w: suspension needs a length in days", ErrInvalidInput)
	}
	if input.Type == penalty.TypePointDeduction && input.Points == 0 {
		return penalty.Penalty{}, fmt.Errorf("%w: point deduction needs points", ErrInvalidInput)
	}

	now := s.now()
	p := penalty.Penalty{
		ID:             s.ids.NewID(),
		UserID:         input.UserID,
		Type:           input.Type,
		Severity:       input.Severity,
		Points:         input.Points,
		SuspensionDays: input.SuspensionDays,
		Status:         penalty.StatusActive,
		MatchID:        input.MatchID,
		DisputeID:      input.DisputeID,
		Reason:         input.Reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Type == penalty.TypeSuspension {
		expiresAt := now.AddDate(0, 0, input.SuspensionDays)
		p.ExpiresAt = &expiresAt
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.penaltyRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("create penalty: %w", err)
		}

		newValue, err := sonic.MarshalString(p)
		if err != nil {
			return fmt.Errorf("snapshot penalty: %w", err)
		}
		a := adminaction.Action{
			ID:              s.ids.NewID(),
			AdminID:         input.AdminID,
			Kind:            adminaction.KindApplyPenalty,
			MatchID:         input.MatchID,
			DisputeID:       input.DisputeID,
			Reason:          input.Reason,
			NewValue:        newValue,
			AffectedUserIDs: []string{input.UserID},
			CreatedAt:       now,
		}
		if err := s.auditRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("create admin action: %w", err)
		}
		return nil
	})
	if err != nil {
		return penalty.Penalty{}, err
	}

	recorder := newEventRecorder(s.now)
	recorder.record(event.KindPenaltyApplied, input.MatchID, []string{input.UserID}, map[string]any{
		"penalty_id": p.ID,
		"type":       p.Type,
		"severity":   p.Severity,
	})
	s.dispatcher.Dispatch(ctx, recorder.events)

	return p, nil
}

// QueueWarning records an automatic low-severity warning, the result path's
// reaction to a no-show walkover.
func (s *PenaltyService) QueueWarning(ctx context.Context, userID, matchID, reason string) error {
	now := s.now()
	p := penalty.Penalty{
		ID:        s.ids.NewID(),
		UserID:    userID,
		Type:      penalty.TypeWarning,
		Severity:  penalty.SeverityLow,
		Status:    penalty.StatusActive,
		MatchID:   matchID,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.penaltyRepo.Create(ctx, p); err != nil {
		return fmt.Errorf("create warning: %w", err)
	}

	recorder := newEventRecorder(s.now)
	recorder.record(event.KindPenaltyApplied, matchID, []string{userID}, map[string]any{
		"penalty_id": p.ID,
		"type":       p.Type,
		"severity":   p.Severity,
	})
	s.dispatcher.Dispatch(ctx, recorder.events)
	return nil
}

// SubmitAppeal opens an appeal on an active penalty. One appeal per penalty.
func (s *PenaltyService) SubmitAppeal(ctx context.Context, input SubmitAppealInput) (penalty.Penalty, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PenaltyService.SubmitAppeal")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return penalty.Penalty{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	p, found, err := s.penaltyRepo.GetByID(ctx, input.PenaltyID)
	if err != nil {
		return penalty.Penalty{}, fmt.Errorf("get penalty: %w", err)
	}
	if !found {
		return penalty.Penalty{}, fmt.Errorf("%w: penalty=%s", ErrNotFound, input.PenaltyID)
	}
	if p.UserID != input.UserID {
		return penalty.Penalty{}, fmt.Errorf("%w: penalty %s does not belong to user %s",
			ErrUnauthorized, p.ID, input.UserID)
	}
	if p.Status != penalty.StatusActive {
		return penalty.Penalty{}, fmt.Errorf("%w: penalty %s is %s, appeals need ACTIVE",
			ErrConflict, p.ID, p.Status)
	}
	if p.AppealSubmittedAt != nil {
		return penalty.Penalty{}, fmt.Errorf("%w: penalty %s was already appealed", ErrConflict, p.ID)
	}

	now := s.now()
	p.AppealSubmittedAt = &now
	p.AppealReason = input.Reason
	p.UpdatedAt = now
	if err := s.penaltyRepo.Update(ctx, p); err != nil {
		return penalty.Penalty{}, fmt.Errorf("update penalty: %w", err)
	}

	return p, nil
}

// ResolveAppeal settles an appeal. An overturned appeal voids the penalty.
func (s *PenaltyService) ResolveAppeal(ctx context.Context, input ResolveAppealInput) (penalty.Penalty, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PenaltyService.ResolveAppeal")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return penalty.Penalty{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	p, found, err := s.penaltyRepo.GetByID(ctx, input.PenaltyID)
	if err != nil {
		return penalty.Penalty{}, fmt.Errorf("get penalty: %w", err)
	}
	if !found {
		return penalty.Penalty{}, fmt.Errorf("%w: penalty=%s", ErrNotFound, input.PenaltyID)
	}
	if p.AppealSubmittedAt == nil {
		return penalty.Penalty{}, fmt.Errorf("%w: penalty %s has no appeal", ErrConflict, p.ID)
	}
	if p.AppealOutcome != "" {
		return penalty.Penalty{}, fmt.Errorf("%w: appeal on penalty %s was already resolved", ErrConflict, p.ID)
	}

	now := s.now()
	oldValue, err := sonic.MarshalString(p)
	if err != nil {
		return penalty.Penalty{}, fmt.Errorf("snapshot penalty: %w", err)
	}

	p.AppealOutcome = input.Outcome
	p.AppealResolvedBy = input.AdminID
	p.AppealResolvedAt = &now
	p.AppealNotes = input.Notes
	if input.Outcome == penalty.AppealOverturned {
		p.Status = penalty.StatusVoided
	}
	p.UpdatedAt = now

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.penaltyRepo.Update(ctx, p); err != nil {
			return fmt.Errorf("update penalty: %w", err)
		}

		newValue, err := sonic.MarshalString(p)
		if err != nil {
			return fmt.Errorf("snapshot penalty: %w", err)
		}
		a := adminaction.Action{
			ID:              s.ids.NewID(),
			AdminID:         input.AdminID,
			Kind:            adminaction.KindResolveAppeal,
			MatchID:         p.MatchID,
			DisputeID:       p.DisputeID,
			Reason:          input.Notes,
			OldValue:        oldValue,
			NewValue:        newValue,
			AffectedUserIDs: []string{p.UserID},
			CreatedAt:       now,
		}
		if err := s.auditRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("create admin action: %w", err)
		}
		return nil
	})
	if err != nil {
		return penalty.Penalty{}, err
	}

	recorder := newEventRecorder(s.now)
	recorder.record(event.KindAppealResolved, p.MatchID, []string{p.UserID}, map[string]any{
		"penalty_id": p.ID,
		"outcome":    input.Outcome,
	})
	s.dispatcher.Dispatch(ctx, recorder.events)

	return p, nil
}

// ExpireDue flips active penalties whose expiry has passed to EXPIRED and
// returns how many it touched. Called by the sweeper.
func (s *PenaltyService) ExpireDue(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PenaltyService.ExpireDue")
	defer span.End()

	now := s.now()
	due, err := s.penaltyRepo.ListActiveExpiredBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired penalties: %w", err)
	}

	expired := 0
	for _, p := range due {
		p.Status = penalty.StatusExpired
		p.UpdatedAt = now
		if err := s.penaltyRepo.Update(ctx, p); err != nil {
			s.logger.WarnContext(ctx, "penalty not expired", "penalty_id", p.ID, "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}
