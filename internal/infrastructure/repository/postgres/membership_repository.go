package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	qb "github.com/NxTech4021/dl-backend-sub000/internal/platform/querybuilder"
)

// MembershipRepository answers division membership questions against the
// division_members table owned by the league management service.
type MembershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) IsActiveMember(ctx context.Context, userID, divisionID string) (bool, error) {
	query, args, err := qb.Select("1").From("division_members").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("division_id", divisionID),
			qb.Eq("status", "ACTIVE"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build membership query: %w", err)
	}

	var one int
	if err := queryerFor(ctx, r.db).GetContext(ctx, &one, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get membership: %w", err)
	}
	return true, nil
}
