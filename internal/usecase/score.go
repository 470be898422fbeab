package usecase

import (
	"fmt"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
)

// SetInput is one set of a submitted result, side A first.
type SetInput struct {
	GamesA    int  `validate:"gte=0,lte=7"`
	GamesB    int  `validate:"gte=0,lte=7"`
	TiebreakA *int `validate:"omitempty,gte=0"`
	TiebreakB *int `validate:"omitempty,gte=0"`
}

const (
	setWinningGames  = 6
	setMaxGames      = 7
	tiebreakWinScore = 7
)

// walkoverSets is the fixed "full" score written for the winning side of a
// walkover.
func walkoverSets(winnerSide string) []SetInput {
	sets := []SetInput{{GamesA: 6}, {GamesA: 6}}
	if winnerSide == match.SideB {
		sets = []SetInput{{GamesB: 6}, {GamesB: 6}}
	}
	return sets
}

// validateSetScores checks a submitted score against the scoring grammar:
// the set winner reaches 6 games with a margin of two, wins 7-5, or wins 7-6
// with tiebreak detail supplied. A match needs an odd set count with one side
// winning strictly more sets.
func validateSetScores(sets []SetInput) error {
	if len(sets) == 0 {
		return fmt.Errorf("%w: at least one set is required", ErrInvalidInput)
	}
	if len(sets) > 5 {
		return fmt.Errorf("%w: more than five sets", ErrInvalidInput)
	}

	setsA, setsB := 0, 0
	for i, set := range sets {
		winner, err := setWinner(set)
		if err != nil {
			return fmt.Errorf("%w: set %d: %v", ErrInvalidInput, i+1, err)
		}
		if winner == match.SideA {
			setsA++
		} else {
			setsB++
		}
	}

	if setsA == setsB {
		return fmt.Errorf("%w: no side won more sets", ErrInvalidInput)
	}

	return nil
}

func setWinner(set SetInput) (string, error) {
	high, low := set.GamesA, set.GamesB
	winner := match.SideA
	if set.GamesB > set.GamesA {
		high, low = set.GamesB, set.GamesA
		winner = match.SideB
	}

	switch {
	case high == low:
		return "", fmt.Errorf("set cannot be tied at %d-%d", set.GamesA, set.GamesB)
	case high == setWinningGames && low <= setWinningGames-2:
		return winner, nil
	case high == setMaxGames && low == setMaxGames-2:
		return winner, nil
	case high == setMaxGames && low == setMaxGames-1:
		if err := validateTiebreak(set, winner); err != nil {
			return "", err
		}
		return winner, nil
	default:
		return "", fmt.Errorf("invalid game count %d-%d", set.GamesA, set.GamesB)
	}
}

func validateTiebreak(set SetInput, winner string) error {
	if set.TiebreakA == nil || set.TiebreakB == nil {
		return fmt.Errorf("tiebreak detail is required at %d-%d", set.GamesA, set.GamesB)
	}

	winPts, losePts := *set.TiebreakA, *set.TiebreakB
	if winner == match.SideB {
		winPts, losePts = *set.TiebreakB, *set.TiebreakA
	}

	if winPts <= losePts {
		return fmt.Errorf("tiebreak winner must outscore loser")
	}
	if winPts < tiebreakWinScore {
		return fmt.Errorf("tiebreak winner must reach %d points", tiebreakWinScore)
	}
	if winPts > tiebreakWinScore && winPts-losePts != 2 {
		return fmt.Errorf("tiebreak past %d points must end on a two point margin", tiebreakWinScore)
	}

	return nil
}

// buildSetScores converts validated input into ordered score rows. Callers
// replace the match's rows wholesale with the returned slice.
func buildSetScores(matchID string, sets []SetInput) []match.SetScore {
	out := make([]match.SetScore, 0, len(sets))
	for i, set := range sets {
		winner, _ := setWinner(set)
		out = append(out, match.SetScore{
			MatchID:    matchID,
			SetNumber:  i + 1,
			GamesA:     set.GamesA,
			GamesB:     set.GamesB,
			TiebreakA:  set.TiebreakA,
			TiebreakB:  set.TiebreakB,
			WinnerSide: winner,
		})
	}
	return out
}

// summarizeSets derives the aggregate outcome from score rows.
func summarizeSets(scores []match.SetScore) (setsA, setsB int, winnerSide, finalScore string) {
	for _, row := range scores {
		if row.WinnerSide == match.SideA {
			setsA++
		} else {
			setsB++
		}
	}

	winnerSide = match.SideA
	if setsB > setsA {
		winnerSide = match.SideB
	}
	finalScore = fmt.Sprintf("%d-%d", setsA, setsB)
	return setsA, setsB, winnerSide, finalScore
}
