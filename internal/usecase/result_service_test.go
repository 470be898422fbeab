package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/penalty"
	"github.com/NxTech4021/dl-backend-sub000/internal/infrastructure/repository/memory"
)

func TestSubmitResultAwaitsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.readySinglesMatch(t)
	got, err := env.result.SubmitResult(ctx, SubmitResultInput{
		MatchID:     m.ID,
		SubmitterID: "user-aisyah",
		Sets:        []SetInput{{GamesA: 6, GamesB: 4}, {GamesA: 6, GamesB: 3}},
	})
	if err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}
	if got.Status != match.StatusOngoing {
		t.Fatalf("status = %s, want ONGOING while awaiting confirmation", got.Status)
	}
	if got.SubmittedBy != "user-aisyah" || got.WinnerSide != match.SideA {
		t.Fatalf("submitted_by=%s winner=%s", got.SubmittedBy, got.WinnerSide)
	}

	scores, err := env.matches.ListSetScores(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListSetScores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("set scores = %d, want 2", len(scores))
	}

	// No ratings yet: the match has not completed.
	if hist, _ := env.ratings.ListHistoryByMatch(ctx, m.ID); len(hist) != 0 {
		t.Fatalf("rating history = %d before completion", len(hist))
	}

	notes := env.notifier.byKind(event.KindResultSubmitted)
	if len(notes) != 1 || len(notes[0].userIDs) != 1 || notes[0].userIDs[0] != "user-ben" {
		t.Fatalf("submission notice = %+v, want only user-ben", notes)
	}
}

func TestSubmitResultCompletesDirectlyWithoutConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	off := false
	m, err := env.scheduling.CreateMatch(ctx, CreateMatchInput{
		CreatorID:            "user-aisyah",
		DivisionID:           memory.DivisionIDSingles,
		SeasonID:             memory.SeasonID2026Q1,
		OpponentID:           "user-ben",
		RequiresConfirmation: &off,
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	env.acceptInvite(t, m.ID, "user-ben")

	got, err := env.result.SubmitResult(ctx, SubmitResultInput{
		MatchID:     m.ID,
		SubmitterID: "user-aisyah",
		Sets:        []SetInput{{GamesA: 6, GamesB: 2}, {GamesA: 6, GamesB: 2}},
	})
	if err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}
	if got.Status != match.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}

	hist, _ := env.ratings.ListHistoryByMatch(ctx, m.ID)
	if len(hist) != 2 {
		t.Fatalf("rating history = %d, want one entry per player", len(hist))
	}
	winner, found, _ := env.ratings.GetRating(ctx, "user-aisyah", memory.SeasonID2026Q1)
	if !found || winner.Rating <= 1500 {
		t.Fatalf("winner rating = %+v, want above 1500", winner)
	}
}

func TestConfirmResultCompletesMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.completedSinglesMatch(t)
	if m.Status != match.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", m.Status)
	}
	if m.ConfirmedBy != "user-ben" || m.WinnerSide != match.SideA {
		t.Fatalf("confirmed_by=%s winner=%s", m.ConfirmedBy, m.WinnerSide)
	}

	loser, found, _ := env.ratings.GetRating(ctx, "user-ben", memory.SeasonID2026Q1)
	if !found || loser.Rating >= 1500 {
		t.Fatalf("loser rating = %+v, want below 1500", loser)
	}
	if loser.MatchesPlayed != 1 {
		t.Fatalf("matches played = %d, want 1", loser.MatchesPlayed)
	}

	rows, err := env.tables.ListByDivision(ctx, memory.DivisionIDSingles, memory.SeasonID2026Q1)
	if err != nil {
		t.Fatalf("ListByDivision: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("standings rows = %d, want 2", len(rows))
	}
	if rows[0].PlayerID != "user-aisyah" || rows[0].Points != 3 {
		t.Fatalf("leader = %+v, want user-aisyah on 3 points", rows[0])
	}

	if notes := env.notifier.byKind(event.KindResultConfirmed); len(notes) != 1 {
		t.Fatalf("confirmation notifications = %d, want 1", len(notes))
	}
}

func TestConfirmResultRejectsSubmitterAndSameSide(t *testing.T) {
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

	_, err := env.result.ConfirmResult(ctx, ConfirmResultInput{
		MatchID:     m.ID,
		ConfirmerID: "user-aisyah",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized for the submitter", err)
	}
}

func TestSubmitResultRejectsInvalidScore(t *testing.T) {
	env := newTestEnv(t)
	m := env.readySinglesMatch(t)

	cases := map[string][]SetInput{
		"tied set":         {{GamesA: 6, GamesB: 6}},
		"even set count":   {{GamesA: 6, GamesB: 4}, {GamesB: 6, GamesA: 4}},
		"missing tiebreak": {{GamesA: 7, GamesB: 6}, {GamesA: 6, GamesB: 1}},
		"bad game count":   {{GamesA: 6, GamesB: 5}},
	}
	for name, sets := range cases {
		_, err := env.result.SubmitResult(context.Background(), SubmitResultInput{
			MatchID:     m.ID,
			SubmitterID: "user-aisyah",
			Sets:        sets,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestDisputePendingResultClearsScores(t *testing.T) {
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

	d, err := env.result.DisputeResult(ctx, DisputeResultInput{
		MatchID:    m.ID,
		DisputerID: "user-ben",
		Category:   dispute.CategoryWrongScore,
		Reason:     "second set was 6-4 to me",
	})
	if err != nil {
		t.Fatalf("DisputeResult: %v", err)
	}
	if d.Status != dispute.StatusOpen {
		t.Fatalf("dispute status = %s, want OPEN", d.Status)
	}

	got := env.match(t, m.ID)
	if got.Status != match.StatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED after disputing a pending result", got.Status)
	}
	if got.SetsWonA != 0 || got.WinnerSide != "" || got.SubmittedBy != "" {
		t.Fatalf("pending result not cleared: %+v", got)
	}
	if !got.IsDisputed || !got.NeedsAdminReview {
		t.Fatalf("dispute flags = %v/%v, want true/true", got.IsDisputed, got.NeedsAdminReview)
	}
	if scores, _ := env.matches.ListSetScores(ctx, m.ID); len(scores) != 0 {
		t.Fatalf("set scores = %d, want 0", len(scores))
	}
}

func TestDisputeCompletedResultKeepsScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.completedSinglesMatch(t)
	if _, err := env.result.DisputeResult(ctx, DisputeResultInput{
		MatchID:    m.ID,
		DisputerID: "user-ben",
		Category:   dispute.CategoryWrongScore,
		Reason:     "score entered backwards",
	}); err != nil {
		t.Fatalf("DisputeResult: %v", err)
	}

	got := env.match(t, m.ID)
	if got.Status != match.StatusCompleted || got.WinnerSide != match.SideA {
		t.Fatalf("recorded result changed: status=%s winner=%s", got.Status, got.WinnerSide)
	}
	if !got.IsDisputed {
		t.Fatal("match not flagged as disputed")
	}
}

func TestSecondDisputeRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.completedSinglesMatch(t)
	if _, err := env.result.DisputeResult(ctx, DisputeResultInput{
		MatchID:    m.ID,
		DisputerID: "user-ben",
		Category:   dispute.CategoryWrongScore,
		Reason:     "wrong",
	}); err != nil {
		t.Fatalf("first DisputeResult: %v", err)
	}

	_, err := env.result.DisputeResult(ctx, DisputeResultInput{
		MatchID:    m.ID,
		DisputerID: "user-ben",
		Category:   dispute.CategoryOther,
		Reason:     "still wrong",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict for a second open dispute", err)
	}
}

func TestSubmitWalkoverNoShow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.readySinglesMatch(t)
	got, err := env.result.SubmitWalkover(ctx, SubmitWalkoverInput{
		MatchID:          m.ID,
		ReporterID:       "user-aisyah",
		DefaultingUserID: "user-ben",
		Reason:           match.WalkoverNoShow,
	})
	if err != nil {
		t.Fatalf("SubmitWalkover: %v", err)
	}
	if got.Status != match.StatusCompleted || !got.IsWalkover {
		t.Fatalf("status=%s walkover=%v", got.Status, got.IsWalkover)
	}
	if got.WinnerSide != match.SideA || got.FinalScore != "2-0" {
		t.Fatalf("winner=%s score=%q, want side A 2-0", got.WinnerSide, got.FinalScore)
	}

	scores, _ := env.matches.ListSetScores(ctx, m.ID)
	if len(scores) != 2 || scores[0].GamesA != 6 || scores[0].GamesB != 0 {
		t.Fatalf("walkover sets = %+v, want two 6-0 sets", scores)
	}

	if _, found, _ := env.matches.GetWalkoverByMatch(ctx, m.ID); !found {
		t.Fatal("walkover record missing")
	}

	// A NO_SHOW queues an automatic warning against the defaulter.
	sanctions, err := env.penalties.ListByUser(ctx, "user-ben")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(sanctions) != 1 || sanctions[0].Type != penalty.TypeWarning {
		t.Fatalf("sanctions = %+v, want one WARNING", sanctions)
	}

	if notes := env.notifier.byKind(event.KindWalkoverRecorded); len(notes) != 1 {
		t.Fatalf("walkover notifications = %d, want 1", len(notes))
	}
}

func TestSubmitWalkoverRequiresOpposingDefaulter(t *testing.T) {
	env := newTestEnv(t)

	m := env.readySinglesMatch(t)
	_, err := env.result.SubmitWalkover(context.Background(), SubmitWalkoverInput{
		MatchID:          m.ID,
		ReporterID:       "user-aisyah",
		DefaultingUserID: "user-aisyah",
		Reason:           match.WalkoverInjury,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCompletionNeedsFullDoublesRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	off := false
	m, err := env.scheduling.CreateMatch(ctx, CreateMatchInput{
		CreatorID:            "user-aisyah",
		DivisionID:           memory.DivisionIDMixedA,
		SeasonID:             memory.SeasonID2026Q1,
		MatchType:            match.TypeDoubles,
		PartnerID:            "user-ben",
		OpponentID:           "user-chen",
		OpponentPartnerID:    "user-dina",
		RequiresConfirmation: &off,
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	env.acceptInvite(t, m.ID, "user-ben")
	env.acceptInvite(t, m.ID, "user-chen")

	// Only three of four accepted; completion must refuse.
	_, err = env.result.SubmitResult(ctx, SubmitResultInput{
		MatchID:     m.ID,
		SubmitterID: "user-aisyah",
		Sets:        []SetInput{{GamesA: 6, GamesB: 4}, {GamesA: 6, GamesB: 4}},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict with a partial roster", err)
	}

	env.acceptInvite(t, m.ID, "user-dina")
	got, err := env.result.SubmitResult(ctx, SubmitResultInput{
		MatchID:     m.ID,
		SubmitterID: "user-aisyah",
		Sets:        []SetInput{{GamesA: 6, GamesB: 4}, {GamesA: 6, GamesB: 4}},
	})
	if err != nil {
		t.Fatalf("SubmitResult with full roster: %v", err)
	}
	if got.Status != match.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	if hist, _ := env.ratings.ListHistoryByMatch(ctx, m.ID); len(hist) != 4 {
		t.Fatalf("rating history = %d, want 4 entries", len(hist))
	}
}
