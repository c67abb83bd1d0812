package models

// MembershipStatus is the state of a member within a group.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "Active"
	MembershipInactive MembershipStatus = "Inactive"
	MembershipExpelled MembershipStatus = "Expelled"
	MembershipLeft     MembershipStatus = "Left"
)

// Membership binds a user to one slot of one group.
// It is created by a successful join and never shared across groups.
type Membership struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string

	// UserID is the member.
	UserID string

	// GroupID is the group the slot belongs to.
	GroupID string

	// SlotNumber is the slot held by the member.
	SlotNumber int

	// PayoutMonth is the cycle in which the member receives the pool.
	PayoutMonth int

	// Status is the membership state.
	Status MembershipStatus

	// JoinedAt is the Unix timestamp of the join.
	JoinedAt int64

	// TotalPaid is the sum of the member's paid contributions.
	TotalPaid float64

	// HasReceivedPayout is true once the member's payout cycle has closed.
	HasReceivedPayout bool
}
