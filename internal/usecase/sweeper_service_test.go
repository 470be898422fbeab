package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/invitation"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/penalty"
	"github.com/NxTech4021/dl-backend-sub000/internal/infrastructure/repository/memory"
)

func TestSweepExpiresInvitationsAndParksMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.createSinglesMatch(t)
	env.clock.Advance(49 * time.Hour)

	env.sweeper.SweepOnce(ctx)

	inv, _, err := env.invitations.GetByMatchAndInvitee(ctx, m.ID, "user-ben")
	if err != nil {
		t.Fatalf("GetByMatchAndInvitee: %v", err)
	}
	if inv.Status != invitation.StatusExpired {
		t.Fatalf("invitation status = %s, want EXPIRED", inv.Status)
	}

	parts, _ := env.parts.ListByMatch(ctx, m.ID)
	for _, p := range parts {
		if p.UserID == "user-ben" && p.InviteState != participant.InviteExpired {
			t.Fatalf("participant state = %s, want EXPIRED", p.InviteState)
		}
	}

	// With its only invitation expired the match drops back to DRAFT.
	if got := env.match(t, m.ID).Status; got != match.StatusDraft {
		t.Fatalf("status = %s, want DRAFT", got)
	}
}

func TestSweepMatchesLazyExpiryRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.createSinglesMatch(t)
	env.clock.Advance(47 * time.Hour)

	// Just inside the 48h window: the sweep leaves everything alone.
	env.sweeper.SweepOnce(ctx)

	inv, _, _ := env.invitations.GetByMatchAndInvitee(ctx, m.ID, "user-ben")
	if inv.Status != invitation.StatusPending {
		t.Fatalf("invitation status = %s, want still PENDING", inv.Status)
	}
	if got := env.match(t, m.ID).Status; got != match.StatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED", got)
	}
}

func TestSweepParksStaleResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.readySinglesMatch(t)
	if _, err := env.result.SubmitResult(ctx, SubmitResultInput{
		MatchID:     m.ID,
		SubmitterID: "user-aisyah",
		Sets:        []SetInput{{GamesA: 6, GamesB: 4}, {GamesA: 6, GamesB: 3}},
	}); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}

	env.clock.Advance(73 * time.Hour)
	env.sweeper.SweepOnce(ctx)

	got := env.match(t, m.ID)
	if got.Status != match.StatusUnfinished {
		t.Fatalf("status = %s, want UNFINISHED after the stale window", got.Status)
	}
	if !got.NeedsAdminReview {
		t.Fatal("stale match not flagged for review")
	}
}

func TestSweepLeavesFreshPendingResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.readySinglesMatch(t)
	if _, err := env.result.SubmitResult(ctx, SubmitResultInput{
		MatchID:     m.ID,
		SubmitterID: "user-aisyah",
		Sets:        []SetInput{{GamesA: 6, GamesB: 4}, {GamesA: 6, GamesB: 3}},
	}); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}

	env.clock.Advance(24 * time.Hour)
	env.sweeper.SweepOnce(ctx)

	if got := env.match(t, m.ID).Status; got != match.StatusOngoing {
		t.Fatalf("status = %s, want ONGOING", got)
	}
}

func TestSweepSkipsDisputedPendingResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.completedSinglesMatch(t)
	if _, err := env.result.DisputeResult(ctx, DisputeResultInput{
		MatchID:    m.ID,
		DisputerID: "user-ben",
		Category:   dispute.CategoryWrongScore,
		Reason:     "wrong",
	}); err != nil {
		t.Fatalf("DisputeResult: %v", err)
	}

	env.clock.Advance(80 * time.Hour)
	env.sweeper.SweepOnce(ctx)

	// A disputed match belongs to the dispute flow, not the parking sweep.
	if got := env.match(t, m.ID).Status; got != match.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED untouched", got)
	}
}

func TestSweepEscalatesOldDisputes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.completedSinglesMatch(t)
	if _, err := env.result.DisputeResult(ctx, DisputeResultInput{
		MatchID:    m.ID,
		DisputerID: "user-ben",
		Category:   dispute.CategoryNoAgreement,
		Reason:     "stuck",
	}); err != nil {
		t.Fatalf("DisputeResult: %v", err)
	}

	// Simulate the flag having been cleared so escalation has work to do.
	cleared := env.match(t, m.ID)
	cleared.NeedsAdminReview = false
	if err := env.matches.Update(ctx, cleared); err != nil {
		t.Fatalf("Update: %v", err)
	}

	env.clock.Advance(73 * time.Hour)
	env.sweeper.SweepOnce(ctx)

	if got := env.match(t, m.ID); !got.NeedsAdminReview {
		t.Fatal("old open dispute did not escalate the match")
	}
}

func TestSweepExpiresSuspensions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.penalty.Apply(ctx, ApplyPenaltyInput{
		UserID:         "user-ben",
		AdminID:        "admin-lina",
		Type:           penalty.TypeSuspension,
		Severity:       penalty.SeverityHigh,
		Reason:         "conduct",
		SuspensionDays: 2,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	env.clock.Advance(3 * 24 * time.Hour)
	env.sweeper.SweepOnce(ctx)

	got, _, _ := env.penalties.GetByID(ctx, p.ID)
	if got.Status != penalty.StatusExpired {
		t.Fatalf("status = %s, want EXPIRED after the sweep", got.Status)
	}
}

func TestSweepDoublesMatchPartialExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m, err := env.scheduling.CreateMatch(ctx, CreateMatchInput{
		CreatorID:         "user-aisyah",
		DivisionID:        memory.DivisionIDMixedA,
		SeasonID:          memory.SeasonID2026Q1,
		MatchType:         match.TypeDoubles,
		PartnerID:         "user-ben",
		OpponentID:        "user-chen",
		OpponentPartnerID: "user-dina",
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	env.acceptInvite(t, m.ID, "user-chen")

	env.clock.Advance(49 * time.Hour)
	env.sweeper.SweepOnce(ctx)

	// One accepted invitation keeps the match alive even though the other
	// two expired.
	if got := env.match(t, m.ID).Status; got != match.StatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED with one accepted invitee", got)
	}

	inv, _, _ := env.invitations.GetByMatchAndInvitee(ctx, m.ID, "user-dina")
	if inv.Status != invitation.StatusExpired {
		t.Fatalf("dina invitation = %s, want EXPIRED", inv.Status)
	}
}
