package api

import "github.com/AbdoViper23/halaqa-Save/internal/models"

func FromUser(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		JoinedGroups: u.JoinedGroups,
	}
}

func (u *User) Model() *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		JoinedGroups: u.JoinedGroups,
	}
}

func FromGroup(g *models.RemoteGroup) *Group {
	slots := g.AvailableSlots
	if slots == nil {
		slots = []int{}
	}
	return &Group{
		ID:             g.ID,
		Name:           g.Name,
		Description:    g.Description,
		MonthlyAmount:  g.MonthlyAmount,
		DurationCycles: g.DurationCycles,
		TotalMembers:   g.TotalMembers,
		CurrentMembers: g.CurrentMembers,
		Status:         g.Status,
		CreatedBy:      g.CreatedBy,
		CurrentCycle:   g.CurrentCycle,
		PayoutOrder:    string(g.PayoutOrder),
		CreatedAt:      g.CreatedAt,
		AvailableSlots: slots,
	}
}

func FromGroups(groups []*models.RemoteGroup) []*Group {
	out := make([]*Group, len(groups))
	for i, g := range groups {
		out[i] = FromGroup(g)
	}
	return out
}

// Model converts the wire group back to a ledger record. Status stays a raw
// string; interpreting it is up to the caller.
func (g *Group) Model() *models.RemoteGroup {
	return &models.RemoteGroup{
		ID:             g.ID,
		Name:           g.Name,
		Description:    g.Description,
		MonthlyAmount:  g.MonthlyAmount,
		DurationCycles: g.DurationCycles,
		TotalMembers:   g.TotalMembers,
		CurrentMembers: g.CurrentMembers,
		Status:         g.Status,
		CreatedBy:      g.CreatedBy,
		CurrentCycle:   g.CurrentCycle,
		PayoutOrder:    models.PayoutOrder(g.PayoutOrder),
		CreatedAt:      g.CreatedAt,
		AvailableSlots: g.AvailableSlots,
	}
}

func FromMembership(m *models.Membership) *Membership {
	return &Membership{
		ID:                m.ID,
		UserID:            m.UserID,
		GroupID:           m.GroupID,
		SlotNumber:        m.SlotNumber,
		PayoutMonth:       m.PayoutMonth,
		Status:            string(m.Status),
		JoinedAt:          m.JoinedAt,
		TotalPaid:         m.TotalPaid,
		HasReceivedPayout: m.HasReceivedPayout,
	}
}

func (m *Membership) Model() *models.Membership {
	return &models.Membership{
		ID:                m.ID,
		UserID:            m.UserID,
		GroupID:           m.GroupID,
		SlotNumber:        m.SlotNumber,
		PayoutMonth:       m.PayoutMonth,
		Status:            models.MembershipStatus(m.Status),
		JoinedAt:          m.JoinedAt,
		TotalPaid:         m.TotalPaid,
		HasReceivedPayout: m.HasReceivedPayout,
	}
}

func FromPayment(p *models.CyclePayment) *Payment {
	return &Payment{
		ID:          p.ID,
		GroupID:     p.GroupID,
		UserID:      p.UserID,
		CycleNumber: p.CycleNumber,
		Amount:      p.Amount,
		Status:      string(p.Status),
		PaidAt:      p.PaidAt,
		CreatedAt:   p.CreatedAt,
	}
}

func (p *Payment) Model() *models.CyclePayment {
	return &models.CyclePayment{
		ID:          p.ID,
		GroupID:     p.GroupID,
		UserID:      p.UserID,
		CycleNumber: p.CycleNumber,
		Amount:      p.Amount,
		Status:      models.PaymentStatus(p.Status),
		PaidAt:      p.PaidAt,
		CreatedAt:   p.CreatedAt,
	}
}
