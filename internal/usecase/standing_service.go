package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/standing"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

const (
	pointsPerWin  = 3
	pointsPerLoss = 1
	bestNResults  = 8
)

// StandingService rebuilds a division table from its COMPLETED matches.
// Tables are replaced wholesale, never patched, so a recomputation after any
// rewrite converges on the same rows.
type StandingService struct {
	matchRepo    match.Repository
	partRepo     participant.Repository
	standingRepo standing.Repository
	logger       *logging.Logger
	now          func() time.Time
}

func NewStandingService(
	matchRepo match.Repository,
	partRepo participant.Repository,
	standingRepo standing.Repository,
	logger *logging.Logger,
) *StandingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StandingService{
		matchRepo:    matchRepo,
		partRepo:     partRepo,
		standingRepo: standingRepo,
		logger:       logger,
		now:          time.Now,
	}
}

type playerTally struct {
	played, won, lost   int
	setsWon, setsLost   int
	gamesWon, gamesLost int
	points              []int
}

// RecomputeDivision rebuilds the whole table for one division and season.
func (s *StandingService) RecomputeDivision(ctx context.Context, divisionID, seasonID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.RecomputeDivision")
	defer span.End()

	tallies, err := s.tallyDivision(ctx, divisionID, seasonID)
	if err != nil {
		return err
	}

	now := s.now()
	rows := make([]standing.Standing, 0, len(tallies))
	for playerID, t := range tallies {
		rows = append(rows, standing.Standing{
			DivisionID:  divisionID,
			SeasonID:    seasonID,
			PlayerID:    playerID,
			Played:      t.played,
			Won:         t.won,
			Lost:        t.lost,
			SetsWon:     t.setsWon,
			SetsLost:    t.setsLost,
			GamesWon:    t.gamesWon,
			GamesLost:   t.gamesLost,
			Points:      sum(t.points),
			BestNPoints: sumBestN(t.points, bestNResults),
			UpdatedAt:   now,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		setDiffI := rows[i].SetsWon - rows[i].SetsLost
		setDiffJ := rows[j].SetsWon - rows[j].SetsLost
		if setDiffI != setDiffJ {
			return setDiffI > setDiffJ
		}
		gameDiffI := rows[i].GamesWon - rows[i].GamesLost
		gameDiffJ := rows[j].GamesWon - rows[j].GamesLost
		if gameDiffI != gameDiffJ {
			return gameDiffI > gameDiffJ
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	for i := range rows {
		rows[i].Position = i + 1
	}

	if err := s.standingRepo.ReplaceByDivision(ctx, divisionID, seasonID, rows); err != nil {
		return fmt.Errorf("replace standings: %w", err)
	}
	return nil
}

// RecomputeBestN recomputes only the best-N aggregate column. The repository
// stores whole rows, so this runs the same rebuild; the separate entry exists
// because the cascade treats the aggregate as an independent repair step.
func (s *StandingService) RecomputeBestN(ctx context.Context, divisionID, seasonID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.RecomputeBestN")
	defer span.End()

	return s.RecomputeDivision(ctx, divisionID, seasonID)
}

func (s *StandingService) tallyDivision(ctx context.Context, divisionID, seasonID string) (map[string]*playerTally, error) {
	matches, err := s.matchRepo.ListByDivision(ctx, divisionID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list division matches: %w", err)
	}

	tallies := make(map[string]*playerTally)
	get := func(playerID string) *playerTally {
		t, ok := tallies[playerID]
		if !ok {
			t = &playerTally{}
			tallies[playerID] = t
		}
		return t
	}

	for _, m := range matches {
		if m.Status != match.StatusCompleted || m.WinnerSide == "" {
			continue
		}

		parts, err := s.partRepo.ListByMatch(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("list participants: %w", err)
		}
		scores, err := s.matchRepo.ListSetScores(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("list set scores: %w", err)
		}

		gamesA, gamesB := 0, 0
		for _, row := range scores {
			gamesA += row.GamesA
			gamesB += row.GamesB
		}

		for _, p := range parts {
			if p.InviteState != participant.InviteAccepted {
				continue
			}
			t := get(p.UserID)
			t.played++

			won := p.Side == m.WinnerSide
			setsFor, setsAgainst := m.SetsWonA, m.SetsWonB
			gamesFor, gamesAgainst := gamesA, gamesB
			if p.Side == match.SideB {
				setsFor, setsAgainst = m.SetsWonB, m.SetsWonA
				gamesFor, gamesAgainst = gamesB, gamesA
			}

			t.setsWon += setsFor
			t.setsLost += setsAgainst
			t.gamesWon += gamesFor
			t.gamesLost += gamesAgainst
			if won {
				t.won++
				t.points = append(t.points, pointsPerWin)
			} else {
				t.lost++
				t.points = append(t.points, pointsPerLoss)
			}
		}
	}

	return tallies, nil
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// sumBestN totals the n highest entries.
func sumBestN(values []int, n int) int {
	if len(values) <= n {
		return sum(values)
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	return sum(sorted[:n])
}
