package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/timeslot"
)

type timeSlotTableModel struct {
	ID        string         `db:"id"`
	MatchID   string         `db:"match_id"`
	StartsAt  time.Time      `db:"starts_at"`
	Location  string         `db:"location"`
	Status    string         `db:"status"`
	VoterIDs  pq.StringArray `db:"voter_ids"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func timeSlotFromRow(row timeSlotTableModel) timeslot.TimeSlot {
	return timeslot.TimeSlot{
		ID:        row.ID,
		MatchID:   row.MatchID,
		StartsAt:  row.StartsAt,
		Location:  row.Location,
		Status:    row.Status,
		VoterIDs:  []string(row.VoterIDs),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
