package postgres

import (
	"database/sql"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/penalty"
)

type penaltyTableModel struct {
	ID             string       `db:"id"`
	UserID         string       `db:"user_id"`
	PenaltyType    string       `db:"penalty_type"`
	Severity       string       `db:"severity"`
	Points         int          `db:"points"`
	SuspensionDays int          `db:"suspension_days"`
	Status         string       `db:"status"`
	MatchID        string       `db:"match_id"`
	DisputeID      string       `db:"dispute_id"`
	Reason         string       `db:"reason"`
	ExpiresAt      sql.NullTime `db:"expires_at"`

	AppealSubmittedAt sql.NullTime `db:"appeal_submitted_at"`
	AppealReason      string       `db:"appeal_reason"`
	AppealOutcome     string       `db:"appeal_outcome"`
	AppealResolvedBy  string       `db:"appeal_resolved_by"`
	AppealResolvedAt  sql.NullTime `db:"appeal_resolved_at"`
	AppealNotes       string       `db:"appeal_notes"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func penaltyFromRow(row penaltyTableModel) penalty.Penalty {
	return penalty.Penalty{
		ID:             row.ID,
		UserID:         row.UserID,
		Type:           row.PenaltyType,
		Severity:       row.Severity,
		Points:         row.Points,
		SuspensionDays: row.SuspensionDays,
		Status:         row.Status,
		MatchID:        row.MatchID,
		DisputeID:      row.DisputeID,
		Reason:         row.Reason,
		ExpiresAt:      nullTimePtr(row.ExpiresAt),

		AppealSubmittedAt: nullTimePtr(row.AppealSubmittedAt),
		AppealReason:      row.AppealReason,
		AppealOutcome:     row.AppealOutcome,
		AppealResolvedBy:  row.AppealResolvedBy,
		AppealResolvedAt:  nullTimePtr(row.AppealResolvedAt),
		AppealNotes:       row.AppealNotes,

		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
