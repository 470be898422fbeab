package postgres

import (
	"database/sql"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/invitation"
)

type invitationTableModel struct {
	ID          string       `db:"id"`
	MatchID     string       `db:"match_id"`
	InviterID   string       `db:"inviter_id"`
	InviteeID   string       `db:"invitee_id"`
	Status      string       `db:"status"`
	ExpiresAt   time.Time    `db:"expires_at"`
	RespondedAt sql.NullTime `db:"responded_at"`
	CreatedAt   time.Time    `db:"created_at"`
}

func invitationFromRow(row invitationTableModel) invitation.Invitation {
	return invitation.Invitation{
		ID:          row.ID,
		MatchID:     row.MatchID,
		InviterID:   row.InviterID,
		InviteeID:   row.InviteeID,
		Status:      row.Status,
		ExpiresAt:   row.ExpiresAt,
		RespondedAt: nullTimePtr(row.RespondedAt),
		CreatedAt:   row.CreatedAt,
	}
}
