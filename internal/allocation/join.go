package allocation

import (
	"fmt"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// Joinable reports whether g accepts a new member: status Pending and at least
// one free slot.
func Joinable(g *models.Group) bool {
	return g.Status == models.GroupPending && g.AvailableCount() > 0
}

// IsMember reports whether memberID holds a slot in g.
func IsMember(g *models.Group, memberID string) bool {
	for _, s := range g.Slots {
		if s.OccupantID == memberID {
			return true
		}
	}
	return false
}

// PickSlot chooses the slot for a join. A nil requested slot selects the lowest
// free slot number.
func PickSlot(g *models.Group, requested *int) (int, error) {
	if requested == nil {
		for _, s := range g.Slots {
			if s.Available() {
				return s.SlotNumber, nil
			}
		}
		return 0, ErrGroupNotJoinable
	}
	for _, s := range g.Slots {
		if s.SlotNumber != *requested {
			continue
		}
		if !s.Available() {
			return 0, fmt.Errorf("%w: slot %d is taken", ErrSlotUnavailable, *requested)
		}
		return s.SlotNumber, nil
	}
	return 0, fmt.Errorf("%w: slot %d does not exist", ErrSlotUnavailable, *requested)
}

// Apply returns a copy of g with memberID placed in a slot, and the slot number.
//
// Membership is checked first so that repeating a successful join reports
// ErrAlreadyMember even once the group has filled up. When the join takes the
// last free slot the copy's status is forced to Full. g is never modified.
func Apply(g *models.Group, memberID string, requested *int) (*models.Group, int, error) {
	if memberID == "" {
		return nil, 0, fmt.Errorf("%w: missing member", ErrGroupNotJoinable)
	}
	if IsMember(g, memberID) {
		return nil, 0, ErrAlreadyMember
	}
	if !Joinable(g) {
		return nil, 0, fmt.Errorf("%w: status=%s available=%d", ErrGroupNotJoinable, g.Status, g.AvailableCount())
	}

	slotNumber, err := PickSlot(g, requested)
	if err != nil {
		return nil, 0, err
	}

	next := g.Clone()
	for i := range next.Slots {
		if next.Slots[i].SlotNumber == slotNumber {
			next.Slots[i].OccupantID = memberID
			break
		}
	}
	if next.AvailableCount() == 0 {
		next.Status = models.GroupFull
	}
	return next, slotNumber, nil
}
