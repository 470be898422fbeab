package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
	idgen "github.com/NxTech4021/dl-backend-sub000/internal/platform/id"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

// DisciplinaryQueue receives automatic sanction requests raised as side
// effects of result handling. Failures are logged, never fatal.
type DisciplinaryQueue interface {
	QueueWarning(ctx context.Context, userID, matchID, reason string) error
}

// StandingsRefresher recomputes a division table after a match outcome
// changes. Best effort from the result path; the cascade retries it.
type StandingsRefresher interface {
	RecomputeDivision(ctx context.Context, divisionID, seasonID string) error
}

type SubmitResultInput struct {
	MatchID     string     `validate:"required"`
	SubmitterID string     `validate:"required"`
	Sets        []SetInput `validate:"required,dive"`
}

type ConfirmResultInput struct {
	MatchID     string `validate:"required"`
	ConfirmerID string `validate:"required"`
}

type DisputeResultInput struct {
	MatchID      string `validate:"required"`
	DisputerID   string `validate:"required"`
	Category     string `validate:"required"`
	Reason       string `validate:"required"`
	CounterScore string
}

type SubmitWalkoverInput struct {
	MatchID          string `validate:"required"`
	ReporterID       string `validate:"required"`
	DefaultingUserID string `validate:"required"`
	Reason           string `validate:"required"`
}

// ResultService runs the result consensus protocol: submission, opposing-side
// confirmation or dispute, and walkovers. Completion is the single choke
// point that applies ratings.
type ResultService struct {
	matchRepo   match.Repository
	partRepo    participant.Repository
	disputeRepo dispute.Repository
	applier     *ratingApplier
	standings   StandingsRefresher
	discipline  DisciplinaryQueue
	tx          TxRunner
	locker      *matchLocker
	dispatcher  *EventDispatcher
	ids         idgen.Generator
	validate    *validator.Validate
	logger      *logging.Logger
	now         func() time.Time
}

func NewResultService(
	matchRepo match.Repository,
	partRepo participant.Repository,
	disputeRepo dispute.Repository,
	ratingRepo rating.Repository,
	engine RatingEngine,
	standings StandingsRefresher,
	discipline DisciplinaryQueue,
	tx TxRunner,
	dispatcher *EventDispatcher,
	ids idgen.Generator,
	logger *logging.Logger,
) *ResultService {
	if tx == nil {
		tx = NopTxRunner{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	now := time.Now
	return &ResultService{
		matchRepo:   matchRepo,
		partRepo:    partRepo,
		disputeRepo: disputeRepo,
		applier:     &ratingApplier{engine: engine, ratingRepo: ratingRepo, ids: ids, now: now},
		standings:   standings,
		discipline:  discipline,
		tx:          tx,
		locker:      sharedLocker,
		dispatcher:  dispatcher,
		ids:         ids,
		validate:    validator.New(),
		logger:      logger,
		now:         now,
	}
}

// SubmitResult records a played score. When the match requires confirmation
// the result waits in ONGOING for the opposing side; otherwise the match
// completes immediately.
func (s *ResultService) SubmitResult(ctx context.Context, input SubmitResultInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.SubmitResult")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validateSetScores(input.Sets); err != nil {
		return match.Match{}, err
	}

	unlock := s.locker.Lock(input.MatchID)
	defer unlock()

	m, parts, _, err := s.loadForParticipant(ctx, input.MatchID, input.SubmitterID)
	if err != nil {
		return match.Match{}, err
	}
	if m.Status != match.StatusScheduled && m.Status != match.StatusOngoing {
		return match.Match{}, fmt.Errorf("%w: match %s is %s, results need SCHEDULED or ONGOING",
			ErrConflict, m.ID, m.Status)
	}
	if m.IsDisputed {
		return match.Match{}, fmt.Errorf("%w: match %s has an unsettled dispute", ErrConflict, m.ID)
	}

	scores := buildSetScores(m.ID, input.Sets)
	setsA, setsB, winnerSide, finalScore := summarizeSets(scores)

	now := s.now()
	m.SetsWonA = setsA
	m.SetsWonB = setsB
	m.WinnerSide = winnerSide
	m.FinalScore = finalScore
	m.SubmittedBy = input.SubmitterID
	m.SubmittedAt = &now
	m.UpdatedAt = now

	recorder := newEventRecorder(s.now)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.matchRepo.ReplaceSetScores(ctx, m.ID, scores); err != nil {
			return fmt.Errorf("replace set scores: %w", err)
		}
		if m.RequiresConfirmation {
			m.Status = match.StatusOngoing
			if err := s.matchRepo.Update(ctx, m); err != nil {
				return fmt.Errorf("update match: %w", err)
			}
			recorder.record(event.KindResultSubmitted, m.ID, opposingUserIDs(parts, input.SubmitterID), map[string]any{
				"submitted_by": input.SubmitterID,
				"final_score":  finalScore,
			})
			return nil
		}
		return s.completeMatch(ctx, recorder, &m, parts, input.SubmitterID)
	})
	if err != nil {
		return match.Match{}, err
	}

	s.dispatcher.Dispatch(ctx, recorder.events)
	s.refreshStandings(ctx, m)
	return m, nil
}

// ConfirmResult lets a participant from the non-submitting side accept the
// pending result, completing the match and applying ratings.
func (s *ResultService) ConfirmResult(ctx context.Context, input ConfirmResultInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.ConfirmResult")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock := s.locker.Lock(input.MatchID)
	defer unlock()

	m, parts, side, err := s.loadForParticipant(ctx, input.MatchID, input.ConfirmerID)
	if err != nil {
		return match.Match{}, err
	}
	if m.Status != match.StatusOngoing || m.SubmittedBy == "" {
		return match.Match{}, fmt.Errorf("%w: match %s has no pending result", ErrConflict, m.ID)
	}
	if m.SubmittedBy == input.ConfirmerID {
		return match.Match{}, fmt.Errorf("%w: submitter cannot confirm their own result", ErrUnauthorized)
	}
	if submitterSide, ok := participant.AcceptedSide(parts, m.SubmittedBy); ok && submitterSide == side {
		return match.Match{}, fmt.Errorf("%w: confirmation must come from the opposing side", ErrUnauthorized)
	}

	recorder := newEventRecorder(s.now)
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.completeMatch(ctx, recorder, &m, parts, input.ConfirmerID)
	})
	if err != nil {
		return match.Match{}, err
	}

	s.dispatcher.Dispatch(ctx, recorder.events)
	s.refreshStandings(ctx, m)
	return m, nil
}

// DisputeResult raises a dispute instead of confirming. On a pending result
// the scores are cleared and the match returns to SCHEDULED; on a COMPLETED
// match the recorded result stands until an adjudicator resolves it.
func (s *ResultService) DisputeResult(ctx context.Context, input DisputeResultInput) (dispute.Dispute, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.DisputeResult")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return dispute.Dispute{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !dispute.IsValidCategory(input.Category) {
		return dispute.Dispute{}, fmt.Errorf("%w: unknown dispute category %s", ErrInvalidInput, input.Category)
	}

	unlock := s.locker.Lock(input.MatchID)
	defer unlock()

	m, parts, _, err := s.loadForParticipant(ctx, input.MatchID, input.DisputerID)
	if err != nil {
		return dispute.Dispute{}, err
	}

	pendingResult := m.Status == match.StatusOngoing && m.SubmittedBy != ""
	if !pendingResult && m.Status != match.StatusCompleted {
		return dispute.Dispute{}, fmt.Errorf("%w: match %s is %s, disputes need a pending or recorded result",
			ErrConflict, m.ID, m.Status)
	}
	if m.SubmittedBy == input.DisputerID {
		return dispute.Dispute{}, fmt.Errorf("%w: submitter cannot dispute their own result", ErrUnauthorized)
	}

	_, open, err := s.disputeRepo.GetUnsettledByMatch(ctx, m.ID)
	if err != nil {
		return dispute.Dispute{}, fmt.Errorf("check open dispute: %w", err)
	}
	if open {
		return dispute.Dispute{}, fmt.Errorf("%w: match %s already has an unsettled dispute", ErrConflict, m.ID)
	}

	now := s.now()
	d := dispute.Dispute{
		ID:           s.ids.NewID(),
		MatchID:      m.ID,
		RaisedBy:     input.DisputerID,
		Category:     input.Category,
		Status:       dispute.StatusOpen,
		Reason:       input.Reason,
		CounterScore: input.CounterScore,
		CreatedAt:    now,
	}

	recorder := newEventRecorder(s.now)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.disputeRepo.Create(ctx, d); err != nil {
			return fmt.Errorf("create dispute: %w", err)
		}

		if pendingResult {
			if err := s.matchRepo.ReplaceSetScores(ctx, m.ID, nil); err != nil {
				return fmt.Errorf("clear pending scores: %w", err)
			}
			m.Status = match.StatusScheduled
			m.SetsWonA, m.SetsWonB = 0, 0
			m.FinalScore = ""
			m.WinnerSide = ""
			m.SubmittedBy = ""
			m.SubmittedAt = nil
		}
		m.IsDisputed = true
		m.NeedsAdminReview = true
		m.UpdatedAt = now
		if err := s.matchRepo.Update(ctx, m); err != nil {
			return fmt.Errorf("update match: %w", err)
		}

		recorder.record(event.KindDisputeOpened, m.ID, opposingUserIDs(parts, input.DisputerID), map[string]any{
			"raised_by": input.DisputerID,
			"category":  input.Category,
		})
		return nil
	})
	if err != nil {
		return dispute.Dispute{}, err
	}

	s.dispatcher.Dispatch(ctx, recorder.events)
	return d, nil
}

// SubmitWalkover awards the match to the reporter's side with the fixed full
// score and completes it immediately. A NO_SHOW walkover queues a
// disciplinary warning against the defaulting user.
func (s *ResultService) SubmitWalkover(ctx context.Context, input SubmitWalkoverInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.SubmitWalkover")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !match.IsValidWalkoverReason(input.Reason) {
		return match.Match{}, fmt.Errorf("%w: unknown walkover reason %s", ErrInvalidInput, input.Reason)
	}
	if input.ReporterID == input.DefaultingUserID {
		return match.Match{}, fmt.Errorf("%w: reporter cannot default themselves", ErrInvalidInput)
	}

	unlock := s.locker.Lock(input.MatchID)
	defer unlock()

	m, parts, reporterSide, err := s.loadForParticipant(ctx, input.MatchID, input.ReporterID)
	if err != nil {
		return match.Match{}, err
	}
	if m.Status != match.StatusScheduled && m.Status != match.StatusOngoing {
		return match.Match{}, fmt.Errorf("%w: match %s is %s, walkovers need SCHEDULED or ONGOING",
			ErrConflict, m.ID, m.Status)
	}
	defaulterSide, ok := participant.AcceptedSide(parts, input.DefaultingUserID)
	if !ok {
		return match.Match{}, fmt.Errorf("%w: user %s is not an accepted participant of match %s",
			ErrInvalidInput, input.DefaultingUserID, m.ID)
	}
	if defaulterSide == reporterSide {
		return match.Match{}, fmt.Errorf("%w: defaulting user must be on the opposing side", ErrInvalidInput)
	}

	scores := buildSetScores(m.ID, walkoverSets(reporterSide))
	setsA, setsB, winnerSide, finalScore := summarizeSets(scores)

	now := s.now()
	m.SetsWonA = setsA
	m.SetsWonB = setsB
	m.WinnerSide = winnerSide
	m.FinalScore = finalScore
	m.SubmittedBy = input.ReporterID
	m.SubmittedAt = &now
	m.IsWalkover = true
	m.UpdatedAt = now

	recorder := newEventRecorder(s.now)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.matchRepo.ReplaceSetScores(ctx, m.ID, scores); err != nil {
			return fmt.Errorf("replace set scores: %w", err)
		}
		wo := match.Walkover{
			ID:               s.ids.NewID(),
			MatchID:          m.ID,
			ReporterID:       input.ReporterID,
			DefaultingUserID: input.DefaultingUserID,
			Reason:           input.Reason,
			CreatedAt:        now,
		}
		if err := s.matchRepo.CreateWalkover(ctx, wo); err != nil {
			return fmt.Errorf("create walkover: %w", err)
		}
		recorder.record(event.KindWalkoverRecorded, m.ID, opposingUserIDs(parts, input.ReporterID), map[string]any{
			"reporter_id": input.ReporterID,
			"reason":      input.Reason,
		})
		return s.completeMatch(ctx, recorder, &m, parts, input.ReporterID)
	})
	if err != nil {
		return match.Match{}, err
	}

	if input.Reason == match.WalkoverNoShow && s.discipline != nil {
		if err := s.discipline.QueueWarning(ctx, input.DefaultingUserID, m.ID, "no show walkover"); err != nil {
			s.logger.WarnContext(ctx, "no-show warning not queued",
				"match_id", m.ID, "user_id", input.DefaultingUserID, "error", err)
		}
	}

	s.dispatcher.Dispatch(ctx, recorder.events)
	s.refreshStandings(ctx, m)
	return m, nil
}

// completeMatch is the single transition into COMPLETED. It enforces the
// accepted-participant count, applies ratings, and records the confirmation
// event. Must run inside the caller's transaction with the match lock held.
func (s *ResultService) completeMatch(
	ctx context.Context,
	recorder *eventRecorder,
	m *match.Match,
	parts []participant.Participant,
	confirmerID string,
) error {
	if !match.CanTransition(m.Status, match.StatusCompleted) {
		return fmt.Errorf("%w: match %s cannot complete from %s", ErrConflict, m.ID, m.Status)
	}
	if got, want := participant.CountAccepted(parts), match.AcceptedCountForCompletion(m.Type); got != want {
		return fmt.Errorf("%w: match %s has %d accepted participants, completion needs %d",
			ErrConflict, m.ID, got, want)
	}

	now := s.now()
	m.Status = match.StatusCompleted
	m.ConfirmedBy = confirmerID
	m.ConfirmedAt = &now
	m.UpdatedAt = now
	if err := s.matchRepo.Update(ctx, *m); err != nil {
		return fmt.Errorf("update match: %w", err)
	}

	entries, err := s.applier.Apply(ctx, *m, parts)
	if err != nil {
		return err
	}

	userIDs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.InviteState == participant.InviteAccepted {
			userIDs = append(userIDs, p.UserID)
		}
	}
	recorder.record(event.KindResultConfirmed, m.ID, userIDs, map[string]any{
		"final_score":   m.FinalScore,
		"winner_side":   m.WinnerSide,
		"rated_players": len(entries),
	})
	return nil
}

func (s *ResultService) refreshStandings(ctx context.Context, m match.Match) {
	if s.standings == nil || m.Status != match.StatusCompleted {
		return
	}
	if err := s.standings.RecomputeDivision(ctx, m.DivisionID, m.SeasonID); err != nil {
		s.logger.WarnContext(ctx, "standings refresh failed",
			"division_id", m.DivisionID, "season_id", m.SeasonID, "error", err)
	}
}

func (s *ResultService) loadForParticipant(ctx context.Context, matchID, userID string) (match.Match, []participant.Participant, string, error) {
	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, nil, "", fmt.Errorf("get match: %w", err)
	}
	if !found {
		return match.Match{}, nil, "", fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	parts, err := s.partRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, nil, "", fmt.Errorf("list participants: %w", err)
	}
	side, ok := participant.AcceptedSide(parts, userID)
	if !ok {
		return match.Match{}, nil, "", fmt.Errorf("%w: user %s is not an accepted participant of match %s",
			ErrUnauthorized, userID, matchID)
	}
	return m, parts, side, nil
}

// opposingUserIDs lists every accepted participant other than actorID, the
// usual notification audience.
func opposingUserIDs(parts []participant.Participant, actorID string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.InviteState == participant.InviteAccepted && p.UserID != actorID {
			out = append(out, p.UserID)
		}
	}
	return out
}
