package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// GrantRepo manages per-event staff permissions.  A grant row is the
// unit of access control for non-admin staff: no row, no access.
type GrantRepo struct{ DB *sql.DB }

func NewGrantRepo(db *sql.DB) *GrantRepo { return &GrantRepo{DB: db} }

// Upsert creates or replaces the grant for (staff, event).
func (r *GrantRepo) Upsert(ctx context.Context, g *model.StaffEventGrant) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO staff_event_grants (staff_id, event_id, can_checkin, can_revoke)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE can_checkin = VALUES(can_checkin), can_revoke = VALUES(can_revoke)`,
		g.StaffID, g.EventID, g.CanCheckin, g.CanRevoke)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		g.ID = uint64(id)
	}
	return nil
}

// Get returns the grant for (staff, event), or (nil, nil) when none
// exists.
func (r *GrantRepo) Get(ctx context.Context, staffID, eventID uint64) (*model.StaffEventGrant, error) {
	var g model.StaffEventGrant
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, staff_id, event_id, can_checkin, can_revoke, created_at
		 FROM staff_event_grants WHERE staff_id = ? AND event_id = ? LIMIT 1`,
		staffID, eventID).
		Scan(&g.ID, &g.StaffID, &g.EventID, &g.CanCheckin, &g.CanRevoke, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListByStaff returns all grants of one staff member.
func (r *GrantRepo) ListByStaff(ctx context.Context, staffID uint64) ([]model.StaffEventGrant, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, staff_id, event_id, can_checkin, can_revoke, created_at
		 FROM staff_event_grants WHERE staff_id = ? ORDER BY event_id`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StaffEventGrant, 0)
	for rows.Next() {
		var g model.StaffEventGrant
		if err := rows.Scan(&g.ID, &g.StaffID, &g.EventID, &g.CanCheckin, &g.CanRevoke, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Delete removes the grant for (staff, event).
func (r *GrantRepo) Delete(ctx context.Context, staffID, eventID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM staff_event_grants WHERE staff_id = ? AND event_id = ?`, staffID, eventID)
	return err
}
