package models

// GroupStatus is the lifecycle state of a savings group.
type GroupStatus string

const (
	// GroupPending accepts new members.
	GroupPending GroupStatus = "Pending"
	// GroupActive is running its payout cycles.
	GroupActive GroupStatus = "Active"
	// GroupFull has every slot taken and waits for its first cycle.
	GroupFull GroupStatus = "Full"
	// GroupCompleted finished all of its cycles.
	GroupCompleted GroupStatus = "Completed"
	// GroupCancelled was cancelled before completion.
	GroupCancelled GroupStatus = "Cancelled"
)

// PayoutOrder decides how a joining member gets a slot.
type PayoutOrder string

const (
	// PayoutAuto assigns the lowest free slot.
	PayoutAuto PayoutOrder = "Auto"
	// PayoutManual lets the member pick a slot.
	PayoutManual PayoutOrder = "Manual"
)

// RemoteGroup is a group as reported by the ledger.
// It exposes which slot numbers are free but not who holds the others.
type RemoteGroup struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Family Circle").
	Name string

	// Description is free text shown when browsing groups.
	Description string

	// MonthlyAmount is the contribution each member pays per cycle.
	MonthlyAmount float64

	// DurationCycles is the total number of payout cycles.
	DurationCycles int

	// TotalMembers is the member capacity; one slot per member.
	TotalMembers int

	// CurrentMembers is the number of slots already taken.
	CurrentMembers int

	// Status is the raw lifecycle flag. It is kept as a string so that a
	// newer ledger can report states this client does not know yet.
	Status string

	// CreatedBy is the user ID of the group creator.
	CreatedBy string

	// CurrentCycle is the cycle in progress, 0 before the group starts.
	CurrentCycle int

	// PayoutOrder is how slots are assigned on join.
	PayoutOrder PayoutOrder

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// AvailableSlots lists the free slot numbers in ascending order.
	AvailableSlots []int
}

// Slot is one payout position within a Group.
type Slot struct {
	// SlotNumber is unique within the group, 1..TotalCapacity.
	SlotNumber int

	// PayoutMonth is the cycle in which the holder receives the pool.
	PayoutMonth int

	// OccupantID is the member holding the slot. Empty means available.
	OccupantID string
}

// Available reports whether nobody holds the slot.
func (s Slot) Available() bool {
	return s.OccupantID == ""
}

// Group is the display projection of a RemoteGroup.
type Group struct {
	ID             string
	Name           string
	Description    string
	MonthlyAmount  float64
	DurationCycles int
	TotalCapacity  int
	CurrentCycle   int
	Status         GroupStatus
	PayoutOrder    PayoutOrder
	CreatedBy      string
	CreatedAt      int64

	// Slots has exactly TotalCapacity entries ordered by SlotNumber.
	Slots []Slot
}

// AvailableCount returns the number of free slots.
func (g *Group) AvailableCount() int {
	n := 0
	for _, s := range g.Slots {
		if s.Available() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so callers can modify slots without touching g.
func (g *Group) Clone() *Group {
	c := *g
	c.Slots = make([]Slot, len(g.Slots))
	copy(c.Slots, g.Slots)
	return &c
}

// GroupSpec holds the fields needed to create a group.
type GroupSpec struct {
	Name           string
	Description    string
	MonthlyAmount  float64
	DurationCycles int
	TotalMembers   int
	PayoutOrder    PayoutOrder
}
