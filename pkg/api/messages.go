// Package api defines the wire messages exchanged with the Halaqa ledger.
//
// Messages are plain structs carried over Connect with the JSON codec in
// codec.go. Field names follow the snake_case convention of the ledger.
package api

// User is a registered member.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	DisplayName  string   `json:"display_name"`
	IsActive     bool     `json:"is_active"`
	CreatedAt    int64    `json:"created_at"`
	JoinedGroups []string `json:"joined_groups,omitempty"`
}

// Group is the authoritative group record. The ledger reports free slot
// numbers only, never who holds the taken ones.
type Group struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	MonthlyAmount  float64 `json:"monthly_amount"`
	DurationCycles int     `json:"duration_cycles"`
	TotalMembers   int     `json:"total_members"`
	CurrentMembers int     `json:"current_members"`
	Status         string  `json:"status"`
	CreatedBy      string  `json:"created_by"`
	CurrentCycle   int     `json:"current_cycle"`
	PayoutOrder    string  `json:"payout_order"`
	CreatedAt      int64   `json:"created_at"`
	AvailableSlots []int   `json:"available_slots"`
}

type Membership struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	GroupID           string  `json:"group_id"`
	SlotNumber        int     `json:"slot_number"`
	PayoutMonth       int     `json:"payout_month"`
	Status            string  `json:"status"`
	JoinedAt          int64   `json:"joined_at"`
	TotalPaid         float64 `json:"total_paid"`
	HasReceivedPayout bool    `json:"has_received_payout"`
}

type Payment struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"group_id"`
	UserID      string  `json:"user_id"`
	CycleNumber int     `json:"cycle_number"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	PaidAt      int64   `json:"paid_at,omitempty"`
	CreatedAt   int64   `json:"created_at"`
}

// Standing is a member's financial position in one group.
type Standing struct {
	UserID            string  `json:"user_id"`
	GroupID           string  `json:"group_id"`
	SlotNumber        int     `json:"slot_number"`
	TotalCommitment   float64 `json:"total_commitment"`
	PayoutAmount      float64 `json:"payout_amount"`
	Contributed       float64 `json:"contributed"`
	Expected          float64 `json:"expected"`
	Outstanding       float64 `json:"outstanding"`
	OverdueCycles     []int   `json:"overdue_cycles,omitempty"`
	PayoutMonth       int     `json:"payout_month"`
	PayoutReceived    bool    `json:"payout_received"`
	CyclesUntilPayout int     `json:"cycles_until_payout"`
	NetPosition       float64 `json:"net_position"`
}

// Auth

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=64"`
	Password    string `json:"password" validate:"required"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Groups

type CreateGroupRequest struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Description    string  `json:"description" validate:"max=1000"`
	MonthlyAmount  float64 `json:"monthly_amount" validate:"gt=0"`
	DurationCycles int     `json:"duration_cycles" validate:"gt=0,lte=120"`
	TotalMembers   int     `json:"total_members" validate:"gt=0,lte=100"`
	PayoutOrder    string  `json:"payout_order" validate:"omitempty,oneof=Auto Manual"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListAvailableGroupsRequest struct{}

type ListAvailableGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type JoinGroupRequest struct {
	GroupID       string `json:"group_id" validate:"required"`
	PreferredSlot *int   `json:"preferred_slot,omitempty" validate:"omitempty,gt=0"`
}

type JoinGroupResponse struct {
	Membership *Membership `json:"membership"`
}

type GetGroupMembershipsRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetGroupMembershipsResponse struct {
	Memberships []*Membership `json:"memberships"`
}

type GetUserGroupsRequest struct{}

type GetUserGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// Payments

type MakePaymentRequest struct {
	GroupID     string `json:"group_id" validate:"required"`
	CycleNumber int    `json:"cycle_number" validate:"gt=0"`
}

type MakePaymentResponse struct {
	Payment *Payment `json:"payment"`
}

type GetUserPaymentsRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetUserPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

// GetMemberStandingRequest asks for a member's standing. An empty UserID
// means the caller.
type GetMemberStandingRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	UserID  string `json:"user_id,omitempty"`
}

type GetMemberStandingResponse struct {
	Standing *Standing `json:"standing"`
}
