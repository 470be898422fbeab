package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/invitation"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type InvitationRepository struct {
	db *sqlx.DB
}

func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) GetByID(ctx context.Context, id string) (invitation.Invitation, bool, error) {
	query, args, err := qb.Select("*").From("invitations").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return invitation.Invitation{}, false, fmt.Errorf("build get invitation query: %w", err)
	}

	return r.getInvitation(ctx, query, args)
}

func (r *InvitationRepository) GetByMatchAndInvitee(ctx context.Context, matchID, inviteeID string) (invitation.Invitation, bool, error) {
	query, args, err := qb.Select("*").From("invitations").
		Where(qb.Eq("match_id", matchID), qb.Eq("invitee_id", inviteeID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return invitation.Invitation{}, false, fmt.Errorf("build get invitation by invitee query: %w", err)
	}

	return r.getInvitation(ctx, query, args)
}

func (r *InvitationRepository) getInvitation(ctx context.Context, query string, args []any) (invitation.Invitation, bool, error) {
	var row invitationTableModel
	if err := queryerFor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return invitation.Invitation{}, false, nil
		}
		return invitation.Invitation{}, false, fmt.Errorf("get invitation: %w", err)
	}
	return invitationFromRow(row), true, nil
}

func (r *InvitationRepository) ListByMatch(ctx context.Context, matchID string) ([]invitation.Invitation, error) {
	query, args, err := qb.Select("*").From("invitations").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list invitations by match query: %w", err)
	}

	return r.selectInvitations(ctx, query, args)
}

func (r *InvitationRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]invitation.Invitation, error) {
	query, args, err := qb.Select("*").From("invitations").
		Where(qb.Eq("status", invitation.StatusPending), qb.Lt("expires_at", cutoff)).
		OrderBy("expires_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pending invitations query: %w", err)
	}

	return r.selectInvitations(ctx, query, args)
}

func (r *InvitationRepository) selectInvitations(ctx context.Context, query string, args []any) ([]invitation.Invitation, error) {
	var rows []invitationTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select invitations: %w", err)
	}

	out := make([]invitation.Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, invitationFromRow(row))
	}
	return out, nil
}

func (r *InvitationRepository) Create(ctx context.Context, inv invitation.Invitation) error {
	query, args, err := qb.InsertInto("invitations").
		Columns("id", "match_id", "inviter_id", "invitee_id", "status", "expires_at", "responded_at", "created_at").
		Values(inv.ID, inv.MatchID, inv.InviterID, inv.InviteeID, inv.Status, inv.ExpiresAt, toNullTime(inv.RespondedAt), inv.CreatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert invitation query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepository) Update(ctx context.Context, inv invitation.Invitation) error {
	query, args, err := qb.Update("invitations").
		Set("status", inv.Status).
		Set("expires_at", inv.ExpiresAt).
		Set("responded_at", toNullTime(inv.RespondedAt)).
		Where(qb.Eq("id", inv.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update invitation query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	query, args, err := qb.DeleteFrom("invitations").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete invitations query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete invitations: %w", err)
	}
	return nil
}
