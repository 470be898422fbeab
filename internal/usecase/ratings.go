package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
	idgen "github.com/NxTech4021/dl-backend-sub000/internal/platform/id"
)

const (
	defaultRating    = 1500
	defaultDeviation = 350
)

// ratingApplier persists the engine's ledger entries for one completed match
// and restores them on reversal. Rating, deviation and match counts round
// trip exactly through Apply then Reverse; peak and trough are monotone and
// settle on recalculation instead.
type ratingApplier struct {
	engine     RatingEngine
	ratingRepo rating.Repository
	ids        idgen.Generator
	now        func() time.Time
}

// Apply runs the rating engine for a completed match and persists both the
// history entries and the resulting rating rows. Callers must hold the match
// lock and run inside the completing transaction.
func (a *ratingApplier) Apply(ctx context.Context, m match.Match, parts []participant.Participant) ([]rating.History, error) {
	if a.engine == nil {
		return nil, nil
	}

	accepted := make([]participant.Participant, 0, len(parts))
	for _, p := range parts {
		if p.InviteState == participant.InviteAccepted {
			accepted = append(accepted, p)
		}
	}

	current := make(map[string]rating.PlayerRating, len(accepted))
	for _, p := range accepted {
		r, found, err := a.ratingRepo.GetRating(ctx, p.UserID, m.SeasonID)
		if err != nil {
			return nil, fmt.Errorf("get rating for player %s: %w", p.UserID, err)
		}
		if !found {
			r = rating.PlayerRating{
				PlayerID:   p.UserID,
				SeasonID:   m.SeasonID,
				DivisionID: m.DivisionID,
				Rating:     defaultRating,
				Deviation:  defaultDeviation,
				Peak:       defaultRating,
				Trough:     defaultRating,
			}
		}
		current[p.UserID] = r
	}

	entries, err := a.engine.ApplyMatchResult(ctx, m, accepted, current)
	if err != nil {
		return nil, fmt.Errorf("rating engine: %w", err)
	}

	now := a.now()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = a.ids.NewID()
		}
		entries[i].MatchID = m.ID
		entries[i].SeasonID = m.SeasonID
		entries[i].DivisionID = m.DivisionID
		entries[i].CreatedAt = now
	}
	if err := a.ratingRepo.AppendHistory(ctx, entries); err != nil {
		return nil, fmt.Errorf("append rating history: %w", err)
	}

	for _, entry := range entries {
		r := current[entry.PlayerID]
		r.Rating = entry.RatingAfter
		r.Deviation = entry.DeviationAfter
		r.MatchesPlayed++
		if r.Rating > r.Peak {
			r.Peak = r.Rating
		}
		if r.Rating < r.Trough {
			r.Trough = r.Rating
		}
		r.UpdatedAt = now
		if err := a.ratingRepo.UpsertRating(ctx, r); err != nil {
			return nil, fmt.Errorf("upsert rating for player %s: %w", entry.PlayerID, err)
		}
	}

	return entries, nil
}

// Reverse restores the before-values captured in the match's history entries
// and deletes the entries. It returns the reversed entries so the caller can
// trigger recalculation of later matches. Reversing a match with no history
// is a no-op.
func (a *ratingApplier) Reverse(ctx context.Context, matchID string) ([]rating.History, error) {
	entries, err := a.ratingRepo.ListHistoryByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list rating history: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	now := a.now()
	for _, entry := range entries {
		r, found, err := a.ratingRepo.GetRating(ctx, entry.PlayerID, entry.SeasonID)
		if err != nil {
			return nil, fmt.Errorf("get rating for player %s: %w", entry.PlayerID, err)
		}
		if !found {
			continue
		}
		r.Rating = entry.RatingBefore
		r.Deviation = entry.DeviationBefore
		if r.MatchesPlayed > 0 {
			r.MatchesPlayed--
		}
		r.UpdatedAt = now
		if err := a.ratingRepo.UpsertRating(ctx, r); err != nil {
			return nil, fmt.Errorf("restore rating for player %s: %w", entry.PlayerID, err)
		}
	}

	if err := a.ratingRepo.DeleteHistoryByMatch(ctx, matchID); err != nil {
		return nil, fmt.Errorf("delete rating history: %w", err)
	}

	return entries, nil
}
