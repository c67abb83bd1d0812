package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// AdvanceCycle moves a group one cycle forward.
//
// Full groups start at cycle 1. For Active groups the current cycle is closed:
// members without a payment for it get an Overdue record, the member whose payout
// month it was is marked paid out, and the group moves to the next cycle or to
// Completed after its last one. Other states are returned unchanged.
func (s *SQLiteStore) AdvanceCycle(ctx context.Context, groupID string) (*models.RemoteGroup, error) {
	var updated *models.RemoteGroup

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		group, err := getGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}

		switch models.GroupStatus(group.Status) {
		case models.GroupFull:
			group.Status = string(models.GroupActive)
			group.CurrentCycle = 1
		case models.GroupActive:
			if err := closeCycle(ctx, tx, group); err != nil {
				return err
			}
			if group.CurrentCycle >= group.DurationCycles {
				group.Status = string(models.GroupCompleted)
			} else {
				group.CurrentCycle++
			}
		default:
			updated = group
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE groups SET status = ?, current_cycle = ? WHERE id = ?",
			group.Status, group.CurrentCycle, group.ID,
		); err != nil {
			return fmt.Errorf("failed to advance group: %w", err)
		}
		updated = group
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func closeCycle(ctx context.Context, tx *sql.Tx, group *models.RemoteGroup) error {
	cycle := group.CurrentCycle
	now := time.Now().Unix()

	rows, err := tx.QueryContext(ctx,
		`SELECT m.user_id FROM memberships m
		 WHERE m.group_id = ? AND NOT EXISTS (
		     SELECT 1 FROM cycle_payments p
		     WHERE p.group_id = m.group_id AND p.user_id = m.user_id AND p.cycle_number = ?)`,
		group.ID, cycle,
	)
	if err != nil {
		return fmt.Errorf("failed to find unpaid members: %w", err)
	}
	var unpaid []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan unpaid member: %w", err)
		}
		unpaid = append(unpaid, userID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate unpaid members: %w", err)
	}
	rows.Close()

	for _, userID := range unpaid {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cycle_payments (id, group_id, user_id, cycle_number, amount, status, paid_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, NULL, ?)`,
			uuid.New().String(), group.ID, userID, cycle, group.MonthlyAmount,
			string(models.PaymentOverdue), now,
		); err != nil {
			return fmt.Errorf("failed to record overdue payment: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE memberships SET has_received_payout = 1 WHERE group_id = ? AND payout_month = ?",
		group.ID, cycle,
	); err != nil {
		return fmt.Errorf("failed to mark payout: %w", err)
	}
	return nil
}
