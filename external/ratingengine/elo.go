package ratingengine

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
)

const (
	kFactor        = 32.0
	spread         = 400.0
	deviationDecay = 0.95
	deviationFloor = 60.0
)

// Elo implements the engine core's RatingEngine port with the standard Elo
// update. Doubles rate each player against the opposing pair's average. The
// update is deterministic, so reversal from recorded before-values followed
// by re-application reproduces identical numbers.
type Elo struct{}

func New() Elo { return Elo{} }

func (Elo) ApplyMatchResult(
	_ context.Context,
	m match.Match,
	participants []participant.Participant,
	current map[string]rating.PlayerRating,
) ([]rating.History, error) {
	if m.WinnerSide != match.SideA && m.WinnerSide != match.SideB {
		return nil, errors.Newf("match %s has no winner side", m.ID)
	}

	sides := map[string][]participant.Participant{}
	for _, p := range participants {
		if p.Side != match.SideA && p.Side != match.SideB {
			return nil, errors.Newf("participant %s of match %s has no side", p.UserID, m.ID)
		}
		sides[p.Side] = append(sides[p.Side], p)
	}
	if len(sides[match.SideA]) == 0 || len(sides[match.SideB]) == 0 {
		return nil, errors.Newf("match %s is missing a side", m.ID)
	}

	avg := map[string]float64{
		match.SideA: sideAverage(sides[match.SideA], current),
		match.SideB: sideAverage(sides[match.SideB], current),
	}

	entries := make([]rating.History, 0, len(participants))
	for _, p := range participants {
		before, ok := current[p.UserID]
		if !ok {
			return nil, errors.Newf("no current rating for player %s", p.UserID)
		}

		opponentAvg := avg[match.OpposingSide(p.Side)]
		expected := 1.0 / (1.0 + math.Pow(10, (opponentAvg-before.Rating)/spread))
		actual := 0.0
		if p.Side == m.WinnerSide {
			actual = 1.0
		}
		delta := math.Round(kFactor * (actual - expected))

		after := before.Rating + delta
		deviationAfter := math.Max(before.Deviation*deviationDecay, deviationFloor)

		entries = append(entries, rating.History{
			PlayerID:        p.UserID,
			MatchID:         m.ID,
			RatingBefore:    before.Rating,
			RatingAfter:     after,
			DeviationBefore: before.Deviation,
			DeviationAfter:  deviationAfter,
		})
	}

	return entries, nil
}

func sideAverage(side []participant.Participant, current map[string]rating.PlayerRating) float64 {
	total := 0.0
	for _, p := range side {
		total += current[p.UserID].Rating
	}
	return total / float64(len(side))
}
