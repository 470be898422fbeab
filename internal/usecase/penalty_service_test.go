package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/penalty"
)

func TestApplySuspensionSetsExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.penalty.Apply(ctx, ApplyPenaltyInput{
		UserID:         "user-ben",
		AdminID:        "admin-lina",
		Type:           penalty.TypeSuspension,
		Severity:       penalty.SeverityHigh,
		Reason:         "repeated no-shows",
		SuspensionDays: 14,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p.Status != penalty.StatusActive {
		t.Fatalf("status = %s, want ACTIVE", p.Status)
	}
	want := env.clock.Now().AddDate(0, 0, 14)
	if p.ExpiresAt == nil || !p.ExpiresAt.Equal(want) {
		t.Fatalf("expires at %v, want %s", p.ExpiresAt, want)
	}

	audits, _ := env.audits.ListByMatch(ctx, "")
	var found bool
	for _, a := range audits {
		if a.Kind == adminaction.KindApplyPenalty && len(a.AffectedUserIDs) == 1 && a.AffectedUserIDs[0] == "user-ben" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no APPLY_PENALTY audit, got %+v", audits)
	}

	if notes := env.notifier.byKind(event.KindPenaltyApplied); len(notes) != 1 {
		t.Fatalf("penalty notifications = %d, want 1", len(notes))
	}
}

func TestApplyValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := map[string]ApplyPenaltyInput{
		"suspension without days": {
			UserID: "user-ben", AdminID: "admin-lina",
			Type: penalty.TypeSuspension, Severity: penalty.SeverityHigh, Reason: "x",
		},
		"deduction without points": {
			UserID: "user-ben", AdminID: "admin-lina",
			Type: penalty.TypePointDeduction, Severity: penalty.SeverityMedium, Reason: "x",
		},
		"unknown type": {
			UserID: "user-ben", AdminID: "admin-lina",
			Type: "BAN", Severity: penalty.SeverityLow, Reason: "x",
		},
		"unknown severity": {
			UserID: "user-ben", AdminID: "admin-lina",
			Type: penalty.TypeWarning, Severity: "EXTREME", Reason: "x",
		},
	}
	for name, input := range cases {
		if _, err := env.penalty.Apply(ctx, input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestAppealLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.penalty.Apply(ctx, ApplyPenaltyInput{
		UserID:   "user-ben",
		AdminID:  "admin-lina",
		Type:     penalty.TypePointDeduction,
		Severity: penalty.SeverityMedium,
		Reason:   "late cancellation",
		Points:   3,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Only the sanctioned user may appeal.
	if _, err := env.penalty.SubmitAppeal(ctx, SubmitAppealInput{
		PenaltyID: p.ID, UserID: "user-chen", Reason: "not mine",
	}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	appealed, err := env.penalty.SubmitAppeal(ctx, SubmitAppealInput{
		PenaltyID: p.ID, UserID: "user-ben", Reason: "cancellation was within the rules",
	})
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	if appealed.AppealSubmittedAt == nil {
		t.Fatal("appeal timestamp missing")
	}

	// One appeal per penalty.
	if _, err := env.penalty.SubmitAppeal(ctx, SubmitAppealInput{
		PenaltyID: p.ID, UserID: "user-ben", Reason: "again",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict on a second appeal", err)
	}

	resolved, err := env.penalty.ResolveAppeal(ctx, ResolveAppealInput{
		PenaltyID: p.ID,
		AdminID:   "admin-omar",
		Outcome:   penalty.AppealOverturned,
		Notes:     "rule was applied wrongly",
	})
	if err != nil {
		t.Fatalf("ResolveAppeal: %v", err)
	}
	if resolved.Status != penalty.StatusVoided || resolved.AppealOutcome != penalty.AppealOverturned {
		t.Fatalf("resolved = %+v, want a voided penalty", resolved)
	}

	// The appeal is settled.
	if _, err := env.penalty.ResolveAppeal(ctx, ResolveAppealInput{
		PenaltyID: p.ID, AdminID: "admin-omar", Outcome: penalty.AppealUpheld,
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict on a settled appeal", err)
	}
}

func TestResolveAppealUpheldKeepsPenaltyActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.penalty.Apply(ctx, ApplyPenaltyInput{
		UserID:   "user-ben",
		AdminID:  "admin-lina",
		Type:     penalty.TypeWarning,
		Severity: penalty.SeverityLow,
		Reason:   "conduct",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := env.penalty.SubmitAppeal(ctx, SubmitAppealInput{
		PenaltyID: p.ID, UserID: "user-ben", Reason: "unfair",
	}); err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}

	resolved, err := env.penalty.ResolveAppeal(ctx, ResolveAppealInput{
		PenaltyID: p.ID, AdminID: "admin-omar", Outcome: penalty.AppealUpheld,
	})
	if err != nil {
		t.Fatalf("ResolveAppeal: %v", err)
	}
	if resolved.Status != penalty.StatusActive {
		t.Fatalf("status = %s, want ACTIVE after an upheld appeal", resolved.Status)
	}
}

func TestExpireDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.penalty.Apply(ctx, ApplyPenaltyInput{
		UserID:         "user-ben",
		AdminID:        "admin-lina",
		Type:           penalty.TypeSuspension,
		Severity:       penalty.SeverityHigh,
		Reason:         "suspension",
		SuspensionDays: 7,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if n, err := env.penalty.ExpireDue(ctx); err != nil || n != 0 {
		t.Fatalf("ExpireDue early = %d, %v, want 0", n, err)
	}

	env.clock.Advance(8 * 24 * time.Hour)

	n, err := env.penalty.ExpireDue(ctx)
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}

	got, _, _ := env.penalties.GetByID(ctx, p.ID)
	if got.Status != penalty.StatusExpired {
		t.Fatalf("status = %s, want EXPIRED", got.Status)
	}
}

func TestQueueWarning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.penalty.QueueWarning(ctx, "user-ben", "match-1", "no show"); err != nil {
		t.Fatalf("QueueWarning: %v", err)
	}

	sanctions, _ := env.penalties.ListByUser(ctx, "user-ben")
	if len(sanctions) != 1 {
		t.Fatalf("sanctions = %d, want 1", len(sanctions))
	}
	w := sanctions[0]
	if w.Type != penalty.TypeWarning || w.Severity != penalty.SeverityLow || w.Status != penalty.StatusActive {
		t.Fatalf("warning = %+v", w)
	}
}
