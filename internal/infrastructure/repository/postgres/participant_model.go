package postgres

import (
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
)

type participantTableModel struct {
	ID          string    `db:"id"`
	MatchID     string    `db:"match_id"`
	UserID      string    `db:"user_id"`
	Role        string    `db:"role"`
	Side        string    `db:"side"`
	InviteState string    `db:"invite_state"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func participantFromRow(row participantTableModel) participant.Participant {
	return participant.Participant{
		ID:          row.ID,
		MatchID:     row.MatchID,
		UserID:      row.UserID,
		Role:        row.Role,
		Side:        row.Side,
		InviteState: row.InviteState,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
