package usecase

import (
	"context"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
)

// MembershipOracle answers whether a user is an active member of a division.
// Membership administration itself lives outside the engine.
type MembershipOracle interface {
	IsActiveMember(ctx context.Context, userID, divisionID string) (bool, error)
}

// RatingEngine computes post-match skill estimates. The engine core never
// does rating math itself; it persists whatever ledger entries the engine
// returns and restores them verbatim on reversal.
type RatingEngine interface {
	ApplyMatchResult(
		ctx context.Context,
		m match.Match,
		participants []participant.Participant,
		current map[string]rating.PlayerRating,
	) ([]rating.History, error)
}

// Notifier is the fire-and-forget notification sink. Delivery failures are
// logged by the dispatcher and never surfaced as operation failures.
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, kind string, payload map[string]any) error
}

// TxRunner runs fn inside one storage transaction. Repositories called with
// the ctx it passes down join that transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTxRunner executes fn directly. The memory repositories are atomic per
// call, so tests and the dev profile run without transactional storage.
type NopTxRunner struct{}

func (NopTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
