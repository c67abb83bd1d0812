package allocation

import (
	"fmt"
	"math/rand/v2"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// Rand is the random source used for payout months past the group duration.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// PlaceholderOccupant is the occupant ID used for a taken slot whose holder the
// ledger did not report.
func PlaceholderOccupant(slotNumber int) string {
	return fmt.Sprintf("member-%d", slotNumber)
}

// BuildSlots materializes the slot table from the ledger's free slot list.
//
// Slot i gets payout month i while i <= durationCycles. Slots past the duration get
// a random month in 1..durationCycles, so two slots may share a payout month when
// capacity exceeds duration. Free slot numbers outside 1..totalCapacity are ignored.
// A nil rng uses the package-level source.
func BuildSlots(totalCapacity, durationCycles int, available []int, rng Rand) ([]models.Slot, error) {
	if totalCapacity <= 0 || durationCycles <= 0 {
		return nil, fmt.Errorf("%w: capacity=%d duration=%d", ErrInvalidGroupDimensions, totalCapacity, durationCycles)
	}
	if rng == nil {
		rng = globalRand{}
	}

	free := make(map[int]bool, len(available))
	for _, n := range available {
		free[n] = true
	}

	slots := make([]models.Slot, totalCapacity)
	for i := 1; i <= totalCapacity; i++ {
		month := i
		if i > durationCycles {
			month = rng.IntN(durationCycles) + 1
		}
		slot := models.Slot{SlotNumber: i, PayoutMonth: month}
		if !free[i] {
			slot.OccupantID = PlaceholderOccupant(i)
		}
		slots[i-1] = slot
	}
	return slots, nil
}

// ResolveOccupants replaces placeholder occupants with the members the ledger
// reported holding each slot. Memberships for unknown slots are ignored.
func ResolveOccupants(slots []models.Slot, memberships []models.Membership) {
	bySlot := make(map[int]string, len(memberships))
	for _, m := range memberships {
		if m.Status == models.MembershipActive || m.Status == "" {
			bySlot[m.SlotNumber] = m.UserID
		}
	}
	for i := range slots {
		if slots[i].Available() {
			continue
		}
		if id, ok := bySlot[slots[i].SlotNumber]; ok {
			slots[i].OccupantID = id
		}
	}
}

// Project converts a ledger record into its display form.
//
// An unrecognized lifecycle flag still yields a usable Group with status Pending;
// the ErrUnknownLifecycleState is returned alongside it so the caller can warn.
// ErrInvalidGroupDimensions is returned with a nil Group.
func Project(rg *models.RemoteGroup, rng Rand) (*models.Group, error) {
	slots, err := BuildSlots(rg.TotalMembers, rg.DurationCycles, rg.AvailableSlots, rng)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", rg.ID, err)
	}

	g := &models.Group{
		ID:             rg.ID,
		Name:           rg.Name,
		Description:    rg.Description,
		MonthlyAmount:  rg.MonthlyAmount,
		DurationCycles: rg.DurationCycles,
		TotalCapacity:  rg.TotalMembers,
		CurrentCycle:   rg.CurrentCycle,
		PayoutOrder:    rg.PayoutOrder,
		CreatedBy:      rg.CreatedBy,
		CreatedAt:      rg.CreatedAt,
		Slots:          slots,
	}

	status, err := DeriveStatus(rg.Status)
	g.Status = status
	if err != nil {
		return g, fmt.Errorf("group %s: %w", rg.ID, err)
	}
	return g, nil
}
