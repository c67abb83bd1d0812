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

const (
	groupColumns = `id, name, description, monthly_amount, duration_cycles, total_members,
	status, created_by, current_cycle, payout_order, created_at`
	groupColumnsJoined = `g.id, g.name, g.description, g.monthly_amount, g.duration_cycles, g.total_members,
	g.status, g.created_by, g.current_cycle, g.payout_order, g.created_at`
)

// CreateGroup persists a new group with every slot free.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.RemoteGroup) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.PayoutOrder == "" {
		group.PayoutOrder = models.PayoutAuto
	}
	group.Status = string(models.GroupPending)
	group.CurrentCycle = 0
	group.CurrentMembers = 0

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.MonthlyAmount, group.DurationCycles,
		group.TotalMembers, group.Status, group.CreatedBy, group.CurrentCycle,
		string(group.PayoutOrder), group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	group.AvailableSlots = make([]int, group.TotalMembers)
	for i := range group.AvailableSlots {
		group.AvailableSlots[i] = i + 1
	}
	return nil
}

// GetGroup retrieves a group by ID with its free slots.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.RemoteGroup, error) {
	return getGroup(ctx, s.db, groupID)
}

// ListAvailableGroups returns Pending groups that still have free slots.
func (s *SQLiteStore) ListAvailableGroups(ctx context.Context) ([]*models.RemoteGroup, error) {
	groups, err := listGroups(ctx, s.db,
		`SELECT `+groupColumns+` FROM groups WHERE status = ? ORDER BY created_at DESC, id`,
		string(models.GroupPending),
	)
	if err != nil {
		return nil, err
	}

	available := groups[:0]
	for _, g := range groups {
		if g.CurrentMembers < g.TotalMembers {
			available = append(available, g)
		}
	}
	return available, nil
}

// ListGroupsByStatus returns every group in the given state.
func (s *SQLiteStore) ListGroupsByStatus(ctx context.Context, status models.GroupStatus) ([]*models.RemoteGroup, error) {
	return listGroups(ctx, s.db,
		`SELECT `+groupColumns+` FROM groups WHERE status = ? ORDER BY created_at, id`,
		string(status),
	)
}

// ListUserGroups returns the groups the user holds a slot in.
func (s *SQLiteStore) ListUserGroups(ctx context.Context, userID string) ([]*models.RemoteGroup, error) {
	return listGroups(ctx, s.db,
		`SELECT `+groupColumnsJoined+`
		 FROM groups g JOIN memberships m ON m.group_id = g.id
		 WHERE m.user_id = ? ORDER BY m.joined_at, g.id`,
		userID,
	)
}

// JoinGroup assigns a slot to the user inside a single transaction.
//
// Payout month is ((slot-1) % duration)+1 for Auto groups and the slot number for
// Manual groups. The join that takes the last slot moves the group to Full.
func (s *SQLiteStore) JoinGroup(ctx context.Context, groupID, userID string, preferredSlot *int) (*models.Membership, error) {
	var membership *models.Membership

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		group, err := getGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}

		var existing int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM memberships WHERE group_id = ? AND user_id = ?",
			groupID, userID,
		).Scan(&existing); err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing > 0 {
			return storage.ErrAlreadyMember
		}

		if group.CurrentMembers >= group.TotalMembers {
			return storage.ErrGroupFull
		}
		if group.Status != string(models.GroupPending) {
			return storage.ErrGroupNotOpen
		}

		slot, err := chooseSlot(group.AvailableSlots, preferredSlot)
		if err != nil {
			return err
		}

		payoutMonth := slot
		if group.PayoutOrder == models.PayoutAuto {
			payoutMonth = ((slot - 1) % group.DurationCycles) + 1
		}

		membership = &models.Membership{
			ID:          uuid.New().String(),
			UserID:      userID,
			GroupID:     groupID,
			SlotNumber:  slot,
			PayoutMonth: payoutMonth,
			Status:      models.MembershipActive,
			JoinedAt:    time.Now().Unix(),
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memberships (id, user_id, group_id, slot_number, payout_month, status, joined_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			membership.ID, membership.UserID, membership.GroupID, membership.SlotNumber,
			membership.PayoutMonth, string(membership.Status), membership.JoinedAt,
		); err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}

		if group.CurrentMembers+1 == group.TotalMembers {
			if _, err := tx.ExecContext(ctx,
				"UPDATE groups SET status = ? WHERE id = ?",
				string(models.GroupFull), groupID,
			); err != nil {
				return fmt.Errorf("failed to mark group full: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// ListMemberships returns the memberships of a group ordered by slot.
func (s *SQLiteStore) ListMemberships(ctx context.Context, groupID string) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.user_id, m.group_id, m.slot_number, m.payout_month, m.status, m.joined_at,
		        m.has_received_payout,
		        COALESCE((SELECT SUM(p.amount) FROM cycle_payments p
		                  WHERE p.group_id = m.group_id AND p.user_id = m.user_id AND p.status = ?), 0)
		 FROM memberships m WHERE m.group_id = ? ORDER BY m.slot_number`,
		string(models.PaymentPaid), groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		var status string
		var received int
		if err := rows.Scan(&m.ID, &m.UserID, &m.GroupID, &m.SlotNumber, &m.PayoutMonth,
			&status, &m.JoinedAt, &received, &m.TotalPaid); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.Status = models.MembershipStatus(status)
		m.HasReceivedPayout = received == 1
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return memberships, nil
}

// chooseSlot picks the preferred slot if it is free, or the lowest free slot.
func chooseSlot(available []int, preferred *int) (int, error) {
	if preferred != nil {
		for _, n := range available {
			if n == *preferred {
				return n, nil
			}
		}
		return 0, storage.ErrSlotTaken
	}
	if len(available) == 0 {
		return 0, storage.ErrGroupFull
	}
	return available[0], nil
}

func getGroup(ctx context.Context, q queryer, groupID string) (*models.RemoteGroup, error) {
	group, err := scanGroup(q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`, groupID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if err := loadSlots(ctx, q, group); err != nil {
		return nil, err
	}
	return group, nil
}

func listGroups(ctx context.Context, q queryer, query string, args ...any) ([]*models.RemoteGroup, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.RemoteGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	// Slots are loaded after the cursor is closed: the pool has a single connection.
	for _, g := range groups {
		if err := loadSlots(ctx, q, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.RemoteGroup, error) {
	g := &models.RemoteGroup{}
	var payoutOrder string
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.MonthlyAmount, &g.DurationCycles,
		&g.TotalMembers, &g.Status, &g.CreatedBy, &g.CurrentCycle, &payoutOrder, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.PayoutOrder = models.PayoutOrder(payoutOrder)
	return g, nil
}

// loadSlots fills CurrentMembers and AvailableSlots from the memberships table.
func loadSlots(ctx context.Context, q queryer, group *models.RemoteGroup) error {
	rows, err := q.QueryContext(ctx,
		"SELECT slot_number FROM memberships WHERE group_id = ?", group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get taken slots: %w", err)
	}
	defer rows.Close()

	taken := make(map[int]bool)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return fmt.Errorf("failed to scan slot: %w", err)
		}
		taken[n] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate slots: %w", err)
	}

	group.CurrentMembers = len(taken)
	group.AvailableSlots = group.AvailableSlots[:0]
	for i := 1; i <= group.TotalMembers; i++ {
		if !taken[i] {
			group.AvailableSlots = append(group.AvailableSlots, i)
		}
	}
	return nil
}
