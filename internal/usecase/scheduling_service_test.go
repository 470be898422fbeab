package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/invitation"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/timeslot"
	"github.com/NxTech4021/dl-backend-sub000/internal/infrastructure/repository/memory"
)

func TestCreateMatchBuildsRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.createSinglesMatch(t)
	if m.Status != match.StatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED", m.Status)
	}

	parts, err := env.parts.ListByMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListByMatch: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("participants = %d, want 2", len(parts))
	}
	byUser := map[string]participant.Participant{}
	for _, p := range parts {
		byUser[p.UserID] = p
	}
	creator := byUser["user-aisyah"]
	if creator.Role != participant.RoleCreator || creator.Side != match.SideA || creator.InviteState != participant.InviteAccepted {
		t.Fatalf("creator row = %+v", creator)
	}
	opponent := byUser["user-ben"]
	if opponent.Role != participant.RoleOpponent || opponent.Side != match.SideB || opponent.InviteState != participant.InvitePending {
		t.Fatalf("opponent row = %+v", opponent)
	}

	inv, found, err := env.invitations.GetByMatchAndInvitee(ctx, m.ID, "user-ben")
	if err != nil || !found {
		t.Fatalf("invitation: found=%v err=%v", found, err)
	}
	if inv.Status != invitation.StatusPending {
		t.Fatalf("invitation status = %s, want PENDING", inv.Status)
	}
	if got, want := inv.ExpiresAt, env.clock.Now().Add(48*time.Hour); !got.Equal(want) {
		t.Fatalf("invitation expires at %s, want %s", got, want)
	}

	slots, err := env.slots.ListByMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListByMatch slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(slots))
	}
	if slots[0].Status != timeslot.StatusProposed || !slots[0].HasVote("user-aisyah") {
		t.Fatalf("slot = %+v", slots[0])
	}

	if notes := env.notifier.byKind(event.KindInviteSent); len(notes) != 1 {
		t.Fatalf("invite notifications = %d, want 1", len(notes))
	}
}

func TestCreateMatchRejectsNonMember(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.scheduling.CreateMatch(context.Background(), CreateMatchInput{
		CreatorID:  "user-outsider",
		DivisionID: memory.DivisionIDSingles,
		SeasonID:   memory.SeasonID2026Q1,
		OpponentID: "user-ben",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCreateMatchDoublesRequiresPartner(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.scheduling.CreateMatch(context.Background(), CreateMatchInput{
		CreatorID:  "user-aisyah",
		DivisionID: memory.DivisionIDMixedA,
		SeasonID:   memory.SeasonID2026Q1,
		MatchType:  match.TypeDoubles,
		OpponentID: "user-ben",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateMatchDetectsScheduleConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.readySinglesMatch(t)
	slots, err := env.slots.ListByMatch(ctx, first.ID)
	if err != nil || len(slots) != 1 {
		t.Fatalf("slots: %v (%d)", err, len(slots))
	}
	if _, err := env.scheduling.VoteForTimeSlot(ctx, VoteForTimeSlotInput{
		SlotID: slots[0].ID,
		UserID: "user-ben",
	}); err != nil {
		t.Fatalf("VoteForTimeSlot: %v", err)
	}

	// ben now has a confirmed match around slot time; creating another match
	// an hour away must collide inside the two hour window.
	_, err = env.scheduling.CreateMatch(ctx, CreateMatchInput{
		CreatorID:     "user-ben",
		DivisionID:    memory.DivisionIDSingles,
		SeasonID:      memory.SeasonID2026Q1,
		OpponentID:    "user-chen",
		ProposedTimes: []time.Time{slots[0].StartsAt.Add(time.Hour)},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestAcceptRejectedWhenEveryProposedTimeConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.readySinglesMatch(t)
	slots, _ := env.slots.ListByMatch(ctx, first.ID)
	if _, err := env.scheduling.VoteForTimeSlot(ctx, VoteForTimeSlotInput{
		SlotID: slots[0].ID,
		UserID: "user-ben",
	}); err != nil {
		t.Fatalf("VoteForTimeSlot: %v", err)
	}

	// chen invites ben; the only proposed time sits an hour from ben's
	// confirmed match.
	second, err := env.scheduling.CreateMatch(ctx, CreateMatchInput{
		CreatorID:     "user-chen",
		DivisionID:    memory.DivisionIDSingles,
		SeasonID:      memory.SeasonID2026Q1,
		OpponentID:    "user-ben",
		ProposedTimes: []time.Time{slots[0].StartsAt.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	inv, _, err := env.invitations.GetByMatchAndInvitee(ctx, second.ID, "user-ben")
	if err != nil {
		t.Fatalf("GetByMatchAndInvitee: %v", err)
	}
	err = env.scheduling.RespondToInvitation(ctx, RespondToInvitationInput{
		InvitationID: inv.ID,
		UserID:       "user-ben",
		Accept:       true,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestAcceptAllowedWhileAViableProposedTimeRemains(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.readySinglesMatch(t)
	slots, _ := env.slots.ListByMatch(ctx, first.ID)
	if _, err := env.scheduling.VoteForTimeSlot(ctx, VoteForTimeSlotInput{
		SlotID: slots[0].ID,
		UserID: "user-ben",
	}); err != nil {
		t.Fatalf("VoteForTimeSlot: %v", err)
	}

	// One proposed time collides with ben's confirmed match, the other is six
	// hours clear of it.
	second, err := env.scheduling.CreateMatch(ctx, CreateMatchInput{
		CreatorID:  "user-chen",
		DivisionID: memory.DivisionIDSingles,
		SeasonID:   memory.SeasonID2026Q1,
		OpponentID: "user-ben",
		ProposedTimes: []time.Time{
			slots[0].StartsAt.Add(time.Hour),
			slots[0].StartsAt.Add(6 * time.Hour),
		},
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	inv, _, err := env.invitations.GetByMatchAndInvitee(ctx, second.ID, "user-ben")
	if err != nil {
		t.Fatalf("GetByMatchAndInvitee: %v", err)
	}
	if err := env.scheduling.RespondToInvitation(ctx, RespondToInvitationInput{
		InvitationID: inv.ID,
		UserID:       "user-ben",
		Accept:       true,
	}); err != nil {
		t.Fatalf("RespondToInvitation: %v", err)
	}
}

func TestRespondToInvitationDeclineSweepsToDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.createSinglesMatch(t)
	inv, _, err := env.invitations.GetByMatchAndInvitee(ctx, m.ID, "user-ben")
	if err != nil {
		t.Fatalf("GetByMatchAndInvitee: %v", err)
	}
	if err := env.scheduling.RespondToInvitation(ctx, RespondToInvitationInput{
		InvitationID: inv.ID,
		UserID:       "user-ben",
		Accept:       false,
	}); err != nil {
		t.Fatalf("RespondToInvitation: %v", err)
	}

	if got := env.match(t, m.ID).Status; got != match.StatusDraft {
		t.Fatalf("status = %s, want DRAFT after sole invitee declined", got)
	}
}

func TestRespondToInvitationLazyExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.createSinglesMatch(t)
	inv, _, err := env.invitations.GetByMatchAndInvitee(ctx, m.ID, "user-ben")
	if err != nil {
		t.Fatalf("GetByMatchAndInvitee: %v", err)
	}

	env.clock.Advance(49 * time.Hour)

	err = env.scheduling.RespondToInvitation(ctx, RespondToInvitationInput{
		InvitationID: inv.ID,
		UserID:       "user-ben",
		Accept:       true,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	inv, _, err = env.invitations.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
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
}

func TestVoteQuorumConfirmsSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.readySinglesMatch(t)
	slots, _ := env.slots.ListByMatch(ctx, m.ID)

	slot, err := env.scheduling.VoteForTimeSlot(ctx, VoteForTimeSlotInput{
		SlotID: slots[0].ID,
		UserID: "user-ben",
	})
	if err != nil {
		t.Fatalf("VoteForTimeSlot: %v", err)
	}
	if slot.Status != timeslot.StatusConfirmed {
		t.Fatalf("slot status = %s, want CONFIRMED", slot.Status)
	}

	got := env.match(t, m.ID)
	if got.ScheduledAt == nil || !got.ScheduledAt.Equal(slot.StartsAt) {
		t.Fatalf("match scheduled at %v, want %s", got.ScheduledAt, slot.StartsAt)
	}
	if got.Location != "Court 3" {
		t.Fatalf("location = %q", got.Location)
	}
	if notes := env.notifier.byKind(event.KindMatchScheduled); len(notes) != 1 {
		t.Fatalf("scheduled notifications = %d, want 1", len(notes))
	}
}

func TestVoteTwiceRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.readySinglesMatch(t)
	slots, _ := env.slots.ListByMatch(ctx, m.ID)

	// The creator's vote was recorded at proposal time.
	_, err := env.scheduling.VoteForTimeSlot(ctx, VoteForTimeSlotInput{
		SlotID: slots[0].ID,
		UserID: "user-aisyah",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestVoteRequiresAcceptedParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.createSinglesMatch(t)
	slots, _ := env.slots.ListByMatch(ctx, m.ID)

	_, err := env.scheduling.VoteForTimeSlot(ctx, VoteForTimeSlotInput{
		SlotID: slots[0].ID,
		UserID: "user-ben",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized while invite is pending", err)
	}
}

func TestConfirmTimeSlotIdempotentAndRejectsSiblings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m, err := env.scheduling.CreateMatch(ctx, CreateMatchInput{
		CreatorID:  "user-aisyah",
		DivisionID: memory.DivisionIDSingles,
		SeasonID:   memory.SeasonID2026Q1,
		OpponentID: "user-ben",
		ProposedTimes: []time.Time{
			env.clock.Now().Add(48 * time.Hour),
			env.clock.Now().Add(72 * time.Hour),
		},
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	env.acceptInvite(t, m.ID, "user-ben")

	slots, _ := env.slots.ListByMatch(ctx, m.ID)
	confirmed, err := env.scheduling.ConfirmTimeSlot(ctx, slots[0].ID)
	if err != nil {
		t.Fatalf("ConfirmTimeSlot: %v", err)
	}
	if confirmed.Status != timeslot.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", confirmed.Status)
	}

	// Confirming again is a no-op.
	if _, err := env.scheduling.ConfirmTimeSlot(ctx, slots[0].ID); err != nil {
		t.Fatalf("second ConfirmTimeSlot: %v", err)
	}

	// The sibling was rejected and cannot be confirmed anymore.
	if _, err := env.scheduling.ConfirmTimeSlot(ctx, slots[1].ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict on rejected sibling", err)
	}

	remaining, _ := env.slots.ListByMatch(ctx, m.ID)
	for _, s := range remaining {
		if s.ID != confirmed.ID && s.Status != timeslot.StatusRejected {
			t.Fatalf("sibling %s status = %s, want REJECTED", s.ID, s.Status)
		}
	}
}

func TestCancelMatchLateFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.readySinglesMatch(t)
	slots, _ := env.slots.ListByMatch(ctx, m.ID)
	if _, err := env.scheduling.VoteForTimeSlot(ctx, VoteForTimeSlotInput{
		SlotID: slots[0].ID,
		UserID: "user-ben",
	}); err != nil {
		t.Fatalf("VoteForTimeSlot: %v", err)
	}

	// Inside the 24h window before the scheduled time.
	env.clock.Advance(71 * time.Hour)

	cancelled, err := env.scheduling.CancelMatch(ctx, CancelMatchInput{
		MatchID: m.ID,
		UserID:  "user-ben",
		Reason:  "sick",
	})
	if err != nil {
		t.Fatalf("CancelMatch: %v", err)
	}
	if cancelled.Status != match.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}
	if !cancelled.IsLateCancellation || !cancelled.NeedsAdminReview {
		t.Fatalf("late flags = %v/%v, want true/true", cancelled.IsLateCancellation, cancelled.NeedsAdminReview)
	}

	audits, _ := env.audits.ListByMatch(ctx, m.ID)
	if len(audits) != 1 || audits[0].Kind != adminaction.KindReviewCancel {
		t.Fatalf("audits = %+v, want one review-cancellation entry", audits)
	}
	if audits[0].Reason != "sick" || audits[0].AdminID != "" {
		t.Fatalf("audit = %+v, want the reason and no admin yet", audits[0])
	}

	// A cancelled match stays cancelled.
	if _, err := env.scheduling.CancelMatch(ctx, CancelMatchInput{
		MatchID: m.ID,
		UserID:  "user-aisyah",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestCancelMatchEarlyHasNoLateFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.readySinglesMatch(t)
	slots, _ := env.slots.ListByMatch(ctx, m.ID)
	if _, err := env.scheduling.VoteForTimeSlot(ctx, VoteForTimeSlotInput{
		SlotID: slots[0].ID,
		UserID: "user-ben",
	}); err != nil {
		t.Fatalf("VoteForTimeSlot: %v", err)
	}

	cancelled, err := env.scheduling.CancelMatch(ctx, CancelMatchInput{
		MatchID: m.ID,
		UserID:  "user-aisyah",
	})
	if err != nil {
		t.Fatalf("CancelMatch: %v", err)
	}
	if cancelled.IsLateCancellation {
		t.Fatal("early cancellation flagged as late")
	}
	if audits, _ := env.audits.ListByMatch(ctx, m.ID); len(audits) != 0 {
		t.Fatalf("audits = %+v, want none for an early cancellation", audits)
	}
}

func TestEditMatchRebuildsRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.createSinglesMatch(t)
	inv, _, _ := env.invitations.GetByMatchAndInvitee(ctx, m.ID, "user-ben")
	if err := env.scheduling.RespondToInvitation(ctx, RespondToInvitationInput{
		InvitationID: inv.ID,
		UserID:       "user-ben",
		Accept:       false,
	}); err != nil {
		t.Fatalf("RespondToInvitation: %v", err)
	}

	edited, err := env.scheduling.EditMatch(ctx, EditMatchInput{
		MatchID:       m.ID,
		ActorID:       "user-aisyah",
		OpponentID:    "user-chen",
		ProposedTimes: []time.Time{env.clock.Now().Add(96 * time.Hour)},
		Location:      "Court 1",
	})
	if err != nil {
		t.Fatalf("EditMatch: %v", err)
	}
	if edited.Status != match.StatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED", edited.Status)
	}

	parts, _ := env.parts.ListByMatch(ctx, m.ID)
	if len(parts) != 2 {
		t.Fatalf("participants = %d, want 2", len(parts))
	}
	for _, p := range parts {
		if p.UserID == "user-ben" {
			t.Fatal("declined opponent still on roster after edit")
		}
	}

	if _, found, _ := env.invitations.GetByMatchAndInvitee(ctx, m.ID, "user-chen"); !found {
		t.Fatal("no invitation for the new opponent")
	}
}

func TestEditMatchOnlyWhileDraft(t *testing.T) {
	env := newTestEnv(t)

	m := env.createSinglesMatch(t)
	_, err := env.scheduling.EditMatch(context.Background(), EditMatchInput{
		MatchID:    m.ID,
		ActorID:    "user-aisyah",
		OpponentID: "user-chen",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict for a SCHEDULED match", err)
	}
}
