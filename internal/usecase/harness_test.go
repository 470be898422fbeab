package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/external/ratingengine"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/infrastructure/repository/memory"
	idgen "github.com/NxTech4021/dl-backend-sub000/internal/platform/id"
)

// testClock is a settable clock shared by every service in a test
// environment.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{t: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// seqIDs hands out id-1, id-2, ... so tests can predict identifiers.
func seqIDs() idgen.Generator {
	var mu sync.Mutex
	n := 0
	return idgen.Func(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

type sentNote struct {
	userIDs []string
	kind    string
	payload map[string]any
}

// captureNotifier records every delivered notification.
type captureNotifier struct {
	mu    sync.Mutex
	notes []sentNote
}

func (n *captureNotifier) Notify(_ context.Context, userIDs []string, kind string, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, sentNote{userIDs: userIDs, kind: kind, payload: payload})
	return nil
}

func (n *captureNotifier) byKind(kind string) []sentNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNote
	for _, note := range n.notes {
		if note.kind == kind {
			out = append(out, note)
		}
	}
	return out
}

// testEnv wires every engine service over the memory repositories with a
// fixed clock and sequential ids.
type testEnv struct {
	clock    *testClock
	notifier *captureNotifier

	matches     *memory.MatchRepository
	parts       *memory.ParticipantRepository
	invitations *memory.InvitationRepository
	slots       *memory.TimeSlotRepository
	disputes    *memory.DisputeRepository
	ratings     *memory.RatingRepository
	penalties   *memory.PenaltyRepository
	audits      *memory.AdminActionRepository
	tables      *memory.StandingRepository

	scheduling *SchedulingService
	result     *ResultService
	dispute    *DisputeService
	recalc     *RecalcService
	penalty    *PenaltyService
	standings  *StandingService
	sweeper    *SweeperService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := newTestClock(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))
	ids := seqIDs()
	notifier := &captureNotifier{}
	dispatcher := NewEventDispatcher(notifier, nil)

	env := &testEnv{
		clock:       clock,
		notifier:    notifier,
		matches:     memory.NewMatchRepository(),
		parts:       memory.NewParticipantRepository(),
		invitations: memory.NewInvitationRepository(),
		slots:       memory.NewTimeSlotRepository(),
		disputes:    memory.NewDisputeRepository(),
		ratings:     memory.NewRatingRepository(),
		penalties:   memory.NewPenaltyRepository(),
		audits:      memory.NewAdminActionRepository(),
		tables:      memory.NewStandingRepository(),
	}

	engine := ratingengine.New()
	detector := NewConflictDetector(env.matches, env.parts, env.slots, nil)

	env.standings = NewStandingService(env.matches, env.parts, env.tables, nil)
	env.standings.now = clock.Now

	env.penalty = NewPenaltyService(env.penalties, env.audits, nil, dispatcher, ids, nil)
	env.penalty.now = clock.Now

	env.scheduling = NewSchedulingService(
		env.matches, env.parts, env.invitations, env.slots, env.audits,
		memory.SeedRoster(), detector, nil, dispatcher, ids,
		SchedulingConfig{RequiresConfirmation: true}, nil,
	)
	env.scheduling.now = clock.Now

	env.result = NewResultService(
		env.matches, env.parts, env.disputes, env.ratings, engine,
		env.standings, env.penalty, nil, dispatcher, ids, nil,
	)
	env.result.now = clock.Now
	env.result.applier.now = clock.Now

	env.recalc = NewRecalcService(
		env.matches, env.parts, env.audits, env.ratings, engine,
		env.standings, env.standings, nil, dispatcher, ids, nil,
	)
	env.recalc.now = clock.Now
	env.recalc.applier.now = clock.Now

	env.dispute = NewDisputeService(
		env.disputes, env.matches, env.parts, env.audits, env.recalc,
		nil, dispatcher, ids, nil,
	)
	env.dispute.now = clock.Now

	env.sweeper = NewSweeperService(
		env.matches, env.parts, env.invitations, env.disputes, env.penalty,
		SweeperConfig{Workers: 2}, nil,
	)
	env.sweeper.now = clock.Now

	return env
}

// createSinglesMatch has user-aisyah invite user-ben with one proposed slot
// three days out.
func (e *testEnv) createSinglesMatch(t *testing.T) match.Match {
	t.Helper()

	m, err := e.scheduling.CreateMatch(context.Background(), CreateMatchInput{
		CreatorID:     "user-aisyah",
		DivisionID:    memory.DivisionIDSingles,
		SeasonID:      memory.SeasonID2026Q1,
		MatchType:     match.TypeSingles,
		OpponentID:    "user-ben",
		ProposedTimes: []time.Time{e.clock.Now().Add(72 * time.Hour)},
		Location:      "Court 3",
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	return m
}

func (e *testEnv) acceptInvite(t *testing.T, matchID, userID string) {
	t.Helper()

	inv, found, err := e.invitations.GetByMatchAndInvitee(context.Background(), matchID, userID)
	if err != nil || !found {
		t.Fatalf("invitation for %s on %s: found=%v err=%v", userID, matchID, found, err)
	}
	if err := e.scheduling.RespondToInvitation(context.Background(), RespondToInvitationInput{
		InvitationID: inv.ID,
		UserID:       userID,
		Accept:       true,
	}); err != nil {
		t.Fatalf("RespondToInvitation: %v", err)
	}
}

// readySinglesMatch returns a SCHEDULED singles match with both players
// accepted.
func (e *testEnv) readySinglesMatch(t *testing.T) match.Match {
	t.Helper()

	m := e.createSinglesMatch(t)
	e.acceptInvite(t, m.ID, "user-ben")
	return e.match(t, m.ID)
}

// completedSinglesMatch plays the match to COMPLETED: aisyah submits a
// straight-sets win, ben confirms.
func (e *testEnv) completedSinglesMatch(t *testing.T) match.Match {
	t.Helper()

	m := e.readySinglesMatch(t)
	if _, err := e.result.SubmitResult(context.Background(), SubmitResultInput{
		MatchID:     m.ID,
		SubmitterID: "user-aisyah",
		Sets:        []SetInput{{GamesA: 6, GamesB: 4}, {GamesA: 6, GamesB: 3}},
	}); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}
	if _, err := e.result.ConfirmResult(context.Background(), ConfirmResultInput{
		MatchID:     m.ID,
		ConfirmerID: "user-ben",
	}); err != nil {
		t.Fatalf("ConfirmResult: %v", err)
	}
	return e.match(t, m.ID)
}

func (e *testEnv) match(t *testing.T, id string) match.Match {
	t.Helper()

	m, found, err := e.matches.GetByID(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("match %s: found=%v err=%v", id, found, err)
	}
	return m
}
