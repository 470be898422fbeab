package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

type ParticipantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) ListByMatch(ctx context.Context, matchID string) ([]participant.Participant, error) {
	query, args, err := qb.Select("*").From("participants").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants by match query: %w", err)
	}

	return r.selectParticipants(ctx, query, args)
}

func (r *ParticipantRepository) ListByUser(ctx context.Context, userID string) ([]participant.Participant, error) {
	query, args, err := qb.Select("*").From("participants").
		Where(qb.Eq("user_id", userID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants by user query: %w", err)
	}

	return r.selectParticipants(ctx, query, args)
}

func (r *ParticipantRepository) selectParticipants(ctx context.Context, query string, args []any) ([]participant.Participant, error) {
	var rows []participantTableModel
	if err := queryerFor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}

	out := make([]participant.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, participantFromRow(row))
	}
	return out, nil
}

func (r *ParticipantRepository) Create(ctx context.Context, p participant.Participant) error {
	query, args, err := qb.InsertInto("participants").
		Columns("id", "match_id", "user_id", "role", "side", "invite_state", "created_at", "updated_at").
		Values(p.ID, p.MatchID, p.UserID, p.Role, p.Side, p.InviteState, p.CreatedAt, p.UpdatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert participant query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) Update(ctx context.Context, p participant.Participant) error {
	query, args, err := qb.Update("participants").
		Set("role", p.Role).
		Set("side", p.Side).
		Set("invite_state", p.InviteState).
		Set("updated_at", p.UpdatedAt).
		Where(qb.Eq("id", p.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update participant query: %w", err)
	}

	if _, err := queryerFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) ReplaceByMatch(ctx context.Context, matchID string, items []participant.Participant) error {
	q := queryerFor(ctx, r.db)

	query, args, err := qb.DeleteFrom("participants").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete participants query: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}

	for _, p := range items {
		query, args, err := qb.InsertInto("participants").
			Columns("id", "match_id", "user_id", "role", "side", "invite_state", "created_at", "updated_at").
			Values(p.ID, p.MatchID, p.UserID, p.Role, p.Side, p.InviteState, p.CreatedAt, p.UpdatedAt).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert participant query: %w", err)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return nil
}
