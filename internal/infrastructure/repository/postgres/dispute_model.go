package postgres

import (
	"database/sql"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
)

type disputeTableModel struct {
	ID               string       `db:"id"`
	MatchID          string       `db:"match_id"`
	RaisedBy         string       `db:"raised_by"`
	Category         string       `db:"category"`
	Status           string       `db:"status"`
	Reason           string       `db:"reason"`
	CounterScore     string       `db:"counter_score"`
	ClaimedBy        string       `db:"claimed_by"`
	ClaimedAt        sql.NullTime `db:"claimed_at"`
	ResolvedBy       string       `db:"resolved_by"`
	ResolvedAt       sql.NullTime `db:"resolved_at"`
	ResolutionAction string       `db:"resolution_action"`
	ResolutionNotes  string       `db:"resolution_notes"`
	CreatedAt        time.Time    `db:"created_at"`
}

func disputeFromRow(row disputeTableModel) dispute.Dispute {
	return dispute.Dispute{
		ID:               row.ID,
		MatchID:          row.MatchID,
		RaisedBy:         row.RaisedBy,
		Category:         row.Category,
		Status:           row.Status,
		Reason:           row.Reason,
		CounterScore:     row.CounterScore,
		ClaimedBy:        row.ClaimedBy,
		ClaimedAt:        nullTimePtr(row.ClaimedAt),
		ResolvedBy:       row.ResolvedBy,
		ResolvedAt:       nullTimePtr(row.ResolvedAt),
		ResolutionAction: row.ResolutionAction,
		ResolutionNotes:  row.ResolutionNotes,
		CreatedAt:        row.CreatedAt,
	}
}
