package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/invitation"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/timeslot"
	idgen "github.com/NxTech4021/dl-backend-sub000/internal/platform/id"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

// SchedulingConfig carries the tunables of match creation and invitation
// handling.
type SchedulingConfig struct {
	InviteExpiry         time.Duration
	LateCancelWindow     time.Duration
	ConflictWindowCreate time.Duration
	ConflictWindowAccept time.Duration
	RequiresConfirmation bool
}

func (c SchedulingConfig) normalized() SchedulingConfig {
	if c.InviteExpiry <= 0 {
		c.InviteExpiry = 48 * time.Hour
	}
	if c.LateCancelWindow <= 0 {
		c.LateCancelWindow = 24 * time.Hour
	}
	if c.ConflictWindowCreate <= 0 {
		c.ConflictWindowCreate = 2 * time.Hour
	}
	if c.ConflictWindowAccept <= 0 {
		c.ConflictWindowAccept = 3 * time.Hour
	}
	return c
}

type CreateMatchInput struct {
	CreatorID         string `validate:"required"`
	DivisionID        string `validate:"required"`
	SeasonID          string `validate:"required"`
	MatchType         string
	OpponentID        string
	PartnerID         string
	OpponentPartnerID string
	ProposedTimes     []time.Time
	Location          string
	// RequiresConfirmation overrides the engine default when set; nil keeps
	// the configured protocol variant.
	RequiresConfirmation *bool
}

type EditMatchInput struct {
	MatchID           string `validate:"required"`
	ActorID           string `validate:"required"`
	OpponentID        string
	PartnerID         string
	OpponentPartnerID string
	ProposedTimes     []time.Time
	Location          string
}

type RespondToInvitationInput struct {
	InvitationID string `validate:"required"`
	UserID       string `validate:"required"`
	Accept       bool
}

type VoteForTimeSlotInput struct {
	SlotID string `validate:"required"`
	UserID string `validate:"required"`
}

type CancelMatchInput struct {
	MatchID string `validate:"required"`
	UserID  string `validate:"required"`
	Reason  string
}

// SchedulingService creates match shells, drives invitations to a terminal
// state, and converges participants on a single confirmed time slot.
type SchedulingService struct {
	matchRepo  match.Repository
	partRepo   participant.Repository
	invRepo    invitation.Repository
	slotRepo   timeslot.Repository
	auditRepo  adminaction.Repository
	membership MembershipOracle
	detector   *ConflictDetector
	tx         TxRunner
	locker     *matchLocker
	dispatcher *EventDispatcher
	ids        idgen.Generator
	validate   *validator.Validate
	cfg        SchedulingConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewSchedulingService(
	matchRepo match.Repository,
	partRepo participant.Repository,
	invRepo invitation.Repository,
	slotRepo timeslot.Repository,
	auditRepo adminaction.Repository,
	membership MembershipOracle,
	detector *ConflictDetector,
	tx TxRunner,
	dispatcher *EventDispatcher,
	ids idgen.Generator,
	cfg SchedulingConfig,
	logger *logging.Logger,
) *SchedulingService {
	if tx == nil {
		tx = NopTxRunner{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulingService{
		matchRepo:  matchRepo,
		partRepo:   partRepo,
		invRepo:    invRepo,
		slotRepo:   slotRepo,
		auditRepo:  auditRepo,
		membership: membership,
		detector:   detector,
		tx:         tx,
		locker:     sharedLocker,
		dispatcher: dispatcher,
		ids:        ids,
		validate:   validator.New(),
		cfg:        cfg.normalized(),
		logger:     logger,
		now:        time.Now,
	}
}

// CreateMatch persists a SCHEDULED match with the creator accepted, every
// other participant pending behind an invitation, and one proposed slot per
// given time carrying the creator's implicit vote.
func (s *SchedulingService) CreateMatch(ctx context.Context, input CreateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulingService.CreateMatch")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	matchType := match.NormalizeType(input.MatchType)
	if !match.IsValidType(matchType) {
		return match.Match{}, fmt.Errorf("%w: unknown match type %s", ErrInvalidInput, input.MatchType)
	}
	if matchType == match.TypeDoubles && input.PartnerID == "" {
		return match.Match{}, fmt.Errorf("%w: doubles requires a partner", ErrInvalidInput)
	}

	active, err := s.membership.IsActiveMember(ctx, input.CreatorID, input.DivisionID)
	if err != nil {
		return match.Match{}, fmt.Errorf("check division membership: %w", err)
	}
	if !active {
		return match.Match{}, fmt.Errorf("%w: user %s is not an active member of division %s",
			ErrUnauthorized, input.CreatorID, input.DivisionID)
	}

	if len(input.ProposedTimes) > 0 {
		firstTime := input.ProposedTimes[0]
		checkUsers := []string{input.CreatorID}
		if matchType == match.TypeDoubles {
			checkUsers = append(checkUsers, input.PartnerID)
		}
		for _, userID := range checkUsers {
			if conflictID, hit := s.detector.HasConflict(ctx, userID, firstTime, s.cfg.ConflictWindowCreate, ""); hit {
				return match.Match{}, fmt.Errorf("%w: user %s already plays match %s around %s",
					ErrConflict, userID, conflictID, firstTime.Format(time.RFC3339))
			}
		}
	}

	now := s.now()
	requiresConfirmation := s.cfg.RequiresConfirmation
	if input.RequiresConfirmation != nil {
		requiresConfirmation = *input.RequiresConfirmation
	}

	m := match.Match{
		ID:                   s.ids.NewID(),
		DivisionID:           input.DivisionID,
		SeasonID:             input.SeasonID,
		Type:                 matchType,
		Status:               match.StatusScheduled,
		CreatorID:            input.CreatorID,
		Location:             input.Location,
		RequiresConfirmation: requiresConfirmation,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	recorder := newEventRecorder(s.now)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.matchRepo.Create(ctx, m); err != nil {
			return fmt.Errorf("create match: %w", err)
		}
		if err := s.buildRoster(ctx, recorder, m, rosterSpec{
			opponentID:        input.OpponentID,
			partnerID:         input.PartnerID,
			opponentPartnerID: input.OpponentPartnerID,
			proposedTimes:     input.ProposedTimes,
			location:          input.Location,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return match.Match{}, err
	}

	s.dispatcher.Dispatch(ctx, recorder.events)
	return m, nil
}

// EditMatch is only legal while the match is DRAFT. It discards every
// participant, invitation and time slot, rebuilds them from the input, and
// resends invitations, which moves the match back to SCHEDULED. Tearing down
// rather than patching avoids partially-invited states.
func (s *SchedulingService) EditMatch(ctx context.Context, input EditMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulingService.EditMatch")
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
	if m.CreatorID != input.ActorID {
		return match.Match{}, fmt.Errorf("%w: only the creator may edit a match", ErrUnauthorized)
	}
	if m.Status != match.StatusDraft {
		return match.Match{}, fmt.Errorf("%w: match %s is %s, only DRAFT matches can be edited",
			ErrConflict, m.ID, m.Status)
	}
	if m.Type == match.TypeDoubles && input.PartnerID == "" {
		return match.Match{}, fmt.Errorf("%w: doubles requires a partner", ErrInvalidInput)
	}

	recorder := newEventRecorder(s.now)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.invRepo.DeleteByMatch(ctx, m.ID); err != nil {
			return fmt.Errorf("discard invitations: %w", err)
		}
		if err := s.slotRepo.DeleteByMatch(ctx, m.ID); err != nil {
			return fmt.Errorf("discard time slots: %w", err)
		}
		if err := s.partRepo.ReplaceByMatch(ctx, m.ID, nil); err != nil {
			return fmt.Errorf("discard participants: %w", err)
		}

		m.Status = match.StatusScheduled
		m.Location = input.Location
		m.UpdatedAt = s.now()
		if err := s.matchRepo.Update(ctx, m); err != nil {
			return fmt.Errorf("update match: %w", err)
		}

		return s.buildRoster(ctx, recorder, m, rosterSpec{
			opponentID:        input.OpponentID,
			partnerID:         input.PartnerID,
			opponentPartnerID: input.OpponentPartnerID,
			proposedTimes:     input.ProposedTimes,
			location:          input.Location,
		})
	})
	if err != nil {
		return match.Match{}, err
	}

	s.dispatcher.Dispatch(ctx, recorder.events)
	return m, nil
}

type rosterSpec struct {
	opponentID        string
	partnerID         string
	opponentPartnerID string
	proposedTimes     []time.Time
	location          string
}

func (s *SchedulingService) buildRoster(
	ctx context.Context,
	recorder *eventRecorder,
	m match.Match,
	spec rosterSpec,
) error {
	now := s.now()

	creator := participant.Participant{
		ID:          s.ids.NewID(),
		MatchID:     m.ID,
		UserID:      m.CreatorID,
		Role:        participant.RoleCreator,
		Side:        match.SideA,
		InviteState: participant.InviteAccepted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.partRepo.Create(ctx, creator); err != nil {
		return fmt.Errorf("create creator participant: %w", err)
	}

	type invitee struct {
		userID string
		role   string
		side   string
	}
	invitees := make([]invitee, 0, 3)
	if spec.partnerID != "" {
		invitees = append(invitees, invitee{userID: spec.partnerID, role: participant.RolePartner, side: match.SideA})
	}
	if spec.opponentID != "" {
		invitees = append(invitees, invitee{userID: spec.opponentID, role: participant.RoleOpponent, side: match.SideB})
	}
	if spec.opponentPartnerID != "" {
		invitees = append(invitees, invitee{userID: spec.opponentPartnerID, role: participant.RoleOpponent, side: match.SideB})
	}

	expiresAt := now.Add(s.cfg.InviteExpiry)
	for _, inv := range invitees {
		p := participant.Participant{
			ID:          s.ids.NewID(),
			MatchID:     m.ID,
			UserID:      inv.userID,
			Role:        inv.role,
			Side:        inv.side,
			InviteState: participant.InvitePending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.partRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("create participant: %w", err)
		}

		offer := invitation.Invitation{
			ID:        s.ids.NewID(),
			MatchID:   m.ID,
			InviterID: m.CreatorID,
			InviteeID: inv.userID,
			Status:    invitation.StatusPending,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}
		if err := s.invRepo.Create(ctx, offer); err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}

		recorder.record(event.KindInviteSent, m.ID, []string{inv.userID}, map[string]any{
			"inviter_id": m.CreatorID,
			"expires_at": expiresAt,
		})
	}

	for _, at := range spec.proposedTimes {
		slot := timeslot.TimeSlot{
			ID:        s.ids.NewID(),
			MatchID:   m.ID,
			StartsAt:  at,
			Location:  spec.location,
			Status:    timeslot.StatusProposed,
			VoterIDs:  []string{m.CreatorID},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.slotRepo.Create(ctx, slot); err != nil {
			return fmt.Errorf("create time slot: %w", err)
		}
	}

	return nil
}

// RespondToInvitation accepts or declines an invitation, updating the
// invitation and the matching participant row together. Expiry is enforced
// lazily here with the same rule the periodic sweep applies.
func (s *SchedulingService) RespondToInvitation(ctx context.Context, input RespondToInvitationInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulingService.RespondToInvitation")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	inv, found, err := s.invRepo.GetByID(ctx, input.InvitationID)
	if err != nil {
		return fmt.Errorf("get invitation: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: invitation=%s", ErrNotFound, input.InvitationID)
	}
	if inv.InviteeID != input.UserID {
		return fmt.Errorf("%w: invitation %s is not addressed to user %s",
			ErrUnauthorized, inv.ID, input.UserID)
	}

	unlock := s.locker.Lock(inv.MatchID)
	defer unlock()

	now := s.now()
	recorder := newEventRecorder(s.now)

	if inv.IsExpired(now) {
		if err := s.tx.InTx(ctx, func(ctx context.Context) error {
			return s.finishInvitation(ctx, inv, invitation.StatusExpired, participant.InviteExpired, now)
		}); err != nil {
			return err
		}
		return fmt.Errorf("%w: invitation %s expired at %s",
			ErrConflict, inv.ID, inv.ExpiresAt.Format(time.RFC3339))
	}
	if invitation.IsTerminal(inv.Status) {
		return fmt.Errorf("%w: invitation %s was already %s", ErrConflict, inv.ID, inv.Status)
	}

	if input.Accept {
		m, found, err := s.matchRepo.GetByID(ctx, inv.MatchID)
		if err != nil {
			return fmt.Errorf("get match: %w", err)
		}
		if !found {
			return fmt.Errorf("%w: match=%s", ErrNotFound, inv.MatchID)
		}
		if m.ScheduledAt != nil {
			if conflictID, hit := s.detector.HasConflict(ctx, input.UserID, *m.ScheduledAt, s.cfg.ConflictWindowAccept, m.ID); hit {
				return fmt.Errorf("%w: user %s already plays match %s around the scheduled time",
					ErrConflict, input.UserID, conflictID)
			}
		} else {
			// No confirmed time yet. Accepting is still pointless when every
			// live proposed slot collides with another of the user's matches.
			slots, err := s.slotRepo.ListByMatch(ctx, m.ID)
			if err != nil {
				return fmt.Errorf("list time slots: %w", err)
			}
			open, blocked := 0, 0
			var lastConflict string
			for _, slot := range slots {
				if slot.Status == timeslot.StatusRejected {
					continue
				}
				open++
				if conflictID, hit := s.detector.HasConflict(ctx, input.UserID, slot.StartsAt, s.cfg.ConflictWindowAccept, m.ID); hit {
					blocked++
					lastConflict = conflictID
				}
			}
			if open > 0 && blocked == open {
				return fmt.Errorf("%w: user %s already plays match %s around every proposed time",
					ErrConflict, input.UserID, lastConflict)
			}
		}
	}

	newInvStatus := invitation.StatusDeclined
	newPartState := participant.InviteDeclined
	if input.Accept {
		newInvStatus = invitation.StatusAccepted
		newPartState = participant.InviteAccepted
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.finishInvitation(ctx, inv, newInvStatus, newPartState, now); err != nil {
			return err
		}
		if !input.Accept {
			return s.sweepIfAllRefused(ctx, inv.MatchID, now)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recorder.record(event.KindInviteResponded, inv.MatchID, []string{inv.InviterID}, map[string]any{
		"invitee_id": input.UserID,
		"accepted":   input.Accept,
	})
	s.dispatcher.Dispatch(ctx, recorder.events)
	return nil
}

// finishInvitation writes the invitation and its participant's invite state
// atomically; the two must never diverge.
func (s *SchedulingService) finishInvitation(
	ctx context.Context,
	inv invitation.Invitation,
	invStatus, partState string,
	now time.Time,
) error {
	inv.Status = invStatus
	inv.RespondedAt = &now
	if err := s.invRepo.Update(ctx, inv); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}

	parts, err := s.partRepo.ListByMatch(ctx, inv.MatchID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	for _, p := range parts {
		if p.UserID != inv.InviteeID {
			continue
		}
		p.InviteState = partState
		p.UpdatedAt = now
		if err := s.partRepo.Update(ctx, p); err != nil {
			return fmt.Errorf("update participant: %w", err)
		}
		return nil
	}

	return fmt.Errorf("%w: participant for invitee %s on match %s", ErrNotFound, inv.InviteeID, inv.MatchID)
}

// sweepIfAllRefused moves a SCHEDULED match back to DRAFT once every
// invitation reached a terminal non-accepted state. This is the automatic
// SCHEDULED->DRAFT sweep, not a user action.
func (s *SchedulingService) sweepIfAllRefused(ctx context.Context, matchID string, now time.Time) error {
	invs, err := s.invRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list invitations: %w", err)
	}
	if len(invs) == 0 {
		return nil
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

// VoteForTimeSlot appends the user's vote and confirms the slot once every
// accepted participant has voted. Double votes are rejected, never counted.
func (s *SchedulingService) VoteForTimeSlot(ctx context.Context, input VoteForTimeSlotInput) (timeslot.TimeSlot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulingService.VoteForTimeSlot")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	slot, found, err := s.slotRepo.GetByID(ctx, input.SlotID)
	if err != nil {
		return timeslot.TimeSlot{}, fmt.Errorf("get time slot: %w", err)
	}
	if !found {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: time slot=%s", ErrNotFound, input.SlotID)
	}

	unlock := s.locker.Lock(slot.MatchID)
	defer unlock()

	// Reload under the match lock so two concurrent votes on the same slot
	// cannot both see a stale voter list.
	slot, found, err = s.slotRepo.GetByID(ctx, input.SlotID)
	if err != nil {
		return timeslot.TimeSlot{}, fmt.Errorf("get time slot: %w", err)
	}
	if !found {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: time slot=%s", ErrNotFound, input.SlotID)
	}
	if slot.Status != timeslot.StatusProposed {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: time slot %s is %s", ErrConflict, slot.ID, slot.Status)
	}
	if slot.HasVote(input.UserID) {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: user %s already voted for slot %s",
			ErrConflict, input.UserID, slot.ID)
	}

	parts, err := s.partRepo.ListByMatch(ctx, slot.MatchID)
	if err != nil {
		return timeslot.TimeSlot{}, fmt.Errorf("list participants: %w", err)
	}
	if _, ok := participant.AcceptedSide(parts, input.UserID); !ok {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: user %s is not an accepted participant of match %s",
			ErrUnauthorized, input.UserID, slot.MatchID)
	}

	slot.VoterIDs = append(slot.VoterIDs, input.UserID)
	slot.UpdatedAt = s.now()
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		return timeslot.TimeSlot{}, fmt.Errorf("update time slot: %w", err)
	}

	if len(slot.VoterIDs) >= participant.CountAccepted(parts) {
		return s.confirmTimeSlotLocked(ctx, slot)
	}

	return slot, nil
}

// ConfirmTimeSlot marks the slot CONFIRMED, rejects every sibling, and
// writes the slot's time and location onto the match. Confirming an already
// confirmed slot is a no-op.
func (s *SchedulingService) ConfirmTimeSlot(ctx context.Context, slotID string) (timeslot.TimeSlot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulingService.ConfirmTimeSlot")
	defer span.End()

	slot, found, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return timeslot.TimeSlot{}, fmt.Errorf("get time slot: %w", err)
	}
	if !found {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: time slot=%s", ErrNotFound, slotID)
	}

	unlock := s.locker.Lock(slot.MatchID)
	defer unlock()

	slot, found, err = s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return timeslot.TimeSlot{}, fmt.Errorf("get time slot: %w", err)
	}
	if !found {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: time slot=%s", ErrNotFound, slotID)
	}

	return s.confirmTimeSlotLocked(ctx, slot)
}

func (s *SchedulingService) confirmTimeSlotLocked(ctx context.Context, slot timeslot.TimeSlot) (timeslot.TimeSlot, error) {
	if slot.Status == timeslot.StatusConfirmed {
		return slot, nil
	}
	if slot.Status == timeslot.StatusRejected {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: time slot %s was rejected", ErrConflict, slot.ID)
	}

	now := s.now()
	recorder := newEventRecorder(s.now)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		siblings, err := s.slotRepo.ListByMatch(ctx, slot.MatchID)
		if err != nil {
			return fmt.Errorf("list time slots: %w", err)
		}
		for _, sibling := range siblings {
			if sibling.ID == slot.ID {
				continue
			}
			if sibling.Status == timeslot.StatusRejected {
				continue
			}
			sibling.Status = timeslot.StatusRejected
			sibling.UpdatedAt = now
			if err := s.slotRepo.Update(ctx, sibling); err != nil {
				return fmt.Errorf("reject sibling slot: %w", err)
			}
		}

		slot.Status = timeslot.StatusConfirmed
		slot.UpdatedAt = now
		if err := s.slotRepo.Update(ctx, slot); err != nil {
			return fmt.Errorf("confirm time slot: %w", err)
		}

		m, found, err := s.matchRepo.GetByID(ctx, slot.MatchID)
		if err != nil {
			return fmt.Errorf("get match: %w", err)
		}
		if !found {
			return fmt.Errorf("%w: match=%s", ErrNotFound, slot.MatchID)
		}
		startsAt := slot.StartsAt
		m.ScheduledAt = &startsAt
		if slot.Location != "" {
			m.Location = slot.Location
		}
		m.UpdatedAt = now
		if err := s.matchRepo.Update(ctx, m); err != nil {
			return fmt.Errorf("update match: %w", err)
		}

		parts, err := s.partRepo.ListByMatch(ctx, slot.MatchID)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		userIDs := make([]string, 0, len(parts))
		for _, p := range parts {
			if p.InviteState == participant.InviteAccepted {
				userIDs = append(userIDs, p.UserID)
			}
		}
		recorder.record(event.KindMatchScheduled, slot.MatchID, userIDs, map[string]any{
			"starts_at": slot.StartsAt,
			"location":  slot.Location,
		})
		return nil
	})
	if err != nil {
		return timeslot.TimeSlot{}, err
	}

	s.dispatcher.Dispatch(ctx, recorder.events)
	return slot, nil
}

// CancelMatch cancels a SCHEDULED or ONGOING match. Cancelling inside the
// late-cancellation window flags the match for admin review.
func (s *SchedulingService) CancelMatch(ctx context.Context, input CancelMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulingService.CancelMatch")
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
	if !match.CanTransition(m.Status, match.StatusCancelled) {
		return match.Match{}, fmt.Errorf("%w: match %s cannot be cancelled from %s",
			ErrConflict, m.ID, m.Status)
	}

	parts, err := s.partRepo.ListByMatch(ctx, m.ID)
	if err != nil {
		return match.Match{}, fmt.Errorf("list participants: %w", err)
	}
	if _, ok := participant.AcceptedSide(parts, input.UserID); !ok {
		return match.Match{}, fmt.Errorf("%w: user %s is not an accepted participant of match %s",
			ErrUnauthorized, input.UserID, m.ID)
	}

	now := s.now()
	m.Status = match.StatusCancelled
	m.CancelledBy = input.UserID
	m.CancelledAt = &now
	if m.ScheduledAt != nil && m.ScheduledAt.Sub(now) <= s.cfg.LateCancelWindow {
		m.IsLateCancellation = true
		m.NeedsAdminReview = true
	}
	m.UpdatedAt = now

	if err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.matchRepo.Update(ctx, m); err != nil {
			return err
		}
		if !m.IsLateCancellation {
			return nil
		}
		// Late cancellations land in the admin review queue; the entry is
		// written unattributed until an admin picks it up.
		newValue, err := sonic.MarshalString(m)
		if err != nil {
			return fmt.Errorf("snapshot match: %w", err)
		}
		a := adminaction.Action{
			ID:              s.ids.NewID(),
			Kind:            adminaction.KindReviewCancel,
			MatchID:         m.ID,
			Reason:          input.Reason,
			NewValue:        newValue,
			AffectedUserIDs: []string{input.UserID},
			CreatedAt:       now,
		}
		if err := s.auditRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("create admin action: %w", err)
		}
		return nil
	}); err != nil {
		return match.Match{}, fmt.Errorf("cancel match: %w", err)
	}

	recorder := newEventRecorder(s.now)
	userIDs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.InviteState == participant.InviteAccepted && p.UserID != input.UserID {
			userIDs = append(userIDs, p.UserID)
		}
	}
	recorder.record(event.KindMatchCancelled, m.ID, userIDs, map[string]any{
		"cancelled_by": input.UserID,
		"late":         m.IsLateCancellation,
		"reason":       input.Reason,
	})
	s.dispatcher.Dispatch(ctx, recorder.events)

	return m, nil
}
