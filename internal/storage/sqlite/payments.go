package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
	"github.com/AbdoViper23/halaqa-Save/internal/storage"
)

// CreatePayment records a paid contribution.
//
// The amount is always the group's monthly amount. An Overdue or Pending record for
// the same cycle is settled in place; a second Paid record is rejected.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.CyclePayment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		group, err := getGroup(ctx, tx, payment.GroupID)
		if err != nil {
			return err
		}
		if payment.CycleNumber < 1 || payment.CycleNumber > group.DurationCycles {
			return fmt.Errorf("%w: %d not in 1..%d", storage.ErrInvalidCycle, payment.CycleNumber, group.DurationCycles)
		}

		var members int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM memberships WHERE group_id = ? AND user_id = ?",
			payment.GroupID, payment.UserID,
		).Scan(&members); err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if members == 0 {
			return storage.ErrNotMember
		}

		now := time.Now().Unix()
		payment.Amount = group.MonthlyAmount
		payment.Status = models.PaymentPaid
		payment.PaidAt = now

		var existingID, existingStatus string
		var createdAt int64
		err = tx.QueryRowContext(ctx,
			`SELECT id, status, created_at FROM cycle_payments
			 WHERE group_id = ? AND user_id = ? AND cycle_number = ?`,
			payment.GroupID, payment.UserID, payment.CycleNumber,
		).Scan(&existingID, &existingStatus, &createdAt)
		switch {
		case err == sql.ErrNoRows:
			if payment.ID == "" {
				payment.ID = uuid.New().String()
			}
			payment.CreatedAt = now
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cycle_payments (id, group_id, user_id, cycle_number, amount, status, paid_at, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				payment.ID, payment.GroupID, payment.UserID, payment.CycleNumber,
				payment.Amount, string(payment.Status), payment.PaidAt, payment.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert payment: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to check existing payment: %w", err)
		}

		if existingStatus == string(models.PaymentPaid) {
			return storage.ErrDuplicatePayment
		}
		payment.ID = existingID
		payment.CreatedAt = createdAt
		if _, err := tx.ExecContext(ctx,
			"UPDATE cycle_payments SET amount = ?, status = ?, paid_at = ? WHERE id = ?",
			payment.Amount, string(payment.Status), payment.PaidAt, payment.ID,
		); err != nil {
			return fmt.Errorf("failed to settle payment: %w", err)
		}
		return nil
	})
}

// ListPayments retrieves a member's payments in a group.
func (s *SQLiteStore) ListPayments(ctx context.Context, groupID, userID string) ([]*models.CyclePayment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, user_id, cycle_number, amount, status, paid_at, created_at
		 FROM cycle_payments WHERE group_id = ? AND user_id = ? ORDER BY cycle_number`,
		groupID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.CyclePayment
	for rows.Next() {
		p := &models.CyclePayment{}
		var status string
		var paidAt sql.NullInt64

		if err := rows.Scan(&p.ID, &p.GroupID, &p.UserID, &p.CycleNumber, &p.Amount,
			&status, &paidAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		p.Status = models.PaymentStatus(status)
		if paidAt.Valid {
			p.PaidAt = paidAt.Int64
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}
