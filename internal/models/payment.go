package models

// PaymentStatus is the state of one cycle contribution.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentOverdue PaymentStatus = "Overdue"
	PaymentFailed  PaymentStatus = "Failed"
)

// CyclePayment represents one member's contribution for one cycle of a group.
type CyclePayment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment belongs to.
	GroupID string

	// UserID is the paying member.
	UserID string

	// CycleNumber is the cycle being paid for, 1..DurationCycles.
	CycleNumber int

	// Amount is the contribution; always the group's monthly amount.
	Amount float64

	// Status is the payment state.
	Status PaymentStatus

	// PaidAt is the Unix timestamp of the payment. Zero when unpaid.
	PaidAt int64

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64
}
