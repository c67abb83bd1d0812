package groups

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AbdoViper23/halaqa-Save/internal/allocation"
	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// fakeLedger is an in-memory ledger with the same join rules as the server.
type fakeLedger struct {
	mu      sync.Mutex
	groups  map[string]*models.RemoteGroup
	order   []string
	members map[string][]models.Membership
	calls   map[string]int

	// failures injected per operation
	failList error
	failGet  error
	failJoin error

	// beforeJoin runs inside JoinGroup before the slot is claimed, without the lock.
	beforeJoin func(ctx context.Context) error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		groups:  make(map[string]*models.RemoteGroup),
		members: make(map[string][]models.Membership),
		calls:   make(map[string]int),
	}
}

// add stores a group. Slots missing from available are held by placeholder members.
func (l *fakeLedger) add(g models.RemoteGroup) {
	l.mu.Lock()
	defer l.mu.Unlock()

	free := make(map[int]bool)
	for _, n := range g.AvailableSlots {
		free[n] = true
	}
	for i := 1; i <= g.TotalMembers; i++ {
		if !free[i] {
			l.members[g.ID] = append(l.members[g.ID], models.Membership{
				ID: uuid.New().String(), UserID: fmt.Sprintf("holder-%d", i), GroupID: g.ID,
				SlotNumber: i, Status: models.MembershipActive,
			})
		}
	}
	g.CurrentMembers = g.TotalMembers - len(g.AvailableSlots)
	l.groups[g.ID] = &g
	l.order = append(l.order, g.ID)
}

func (l *fakeLedger) count(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

// as returns the ledger seen by one signed-in member.
func (l *fakeLedger) as(memberID string) *memberView {
	return &memberView{ledger: l, member: memberID}
}

type memberView struct {
	ledger *fakeLedger
	member string
}

var _ Repository = (*memberView)(nil)

func (v *memberView) ListAvailableGroups(ctx context.Context) ([]models.RemoteGroup, error) {
	l := v.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["list"]++
	if l.failList != nil {
		return nil, l.failList
	}

	var out []models.RemoteGroup
	for _, id := range l.order {
		g := l.groups[id]
		if g.Status == string(models.GroupPending) && g.CurrentMembers < g.TotalMembers {
			out = append(out, copyGroup(g))
		}
	}
	return out, nil
}

func (v *memberView) GetGroup(ctx context.Context, groupID string) (*models.RemoteGroup, error) {
	l := v.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["get"]++
	if l.failGet != nil {
		return nil, l.failGet
	}
	g, ok := l.groups[groupID]
	if !ok {
		return nil, allocation.ErrGroupNotFound
	}
	c := copyGroup(g)
	return &c, nil
}

func (v *memberView) GroupMemberships(ctx context.Context, groupID string) ([]models.Membership, error) {
	l := v.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["memberships"]++
	if l.failGet != nil {
		return nil, l.failGet
	}
	return append([]models.Membership(nil), l.members[groupID]...), nil
}

func (v *memberView) CreateGroup(ctx context.Context, spec models.GroupSpec) (*models.RemoteGroup, error) {
	if spec.Name == "" {
		return nil, &CreationError{Reason: "name is required"}
	}
	order := spec.PayoutOrder
	if order == "" {
		order = models.PayoutAuto
	}
	g := models.RemoteGroup{
		ID:             uuid.New().String(),
		Name:           spec.Name,
		Description:    spec.Description,
		MonthlyAmount:  spec.MonthlyAmount,
		DurationCycles: spec.DurationCycles,
		TotalMembers:   spec.TotalMembers,
		Status:         string(models.GroupPending),
		CreatedBy:      v.member,
		PayoutOrder:    order,
	}
	for i := 1; i <= spec.TotalMembers; i++ {
		g.AvailableSlots = append(g.AvailableSlots, i)
	}
	v.ledger.add(g)
	return &g, nil
}

func (v *memberView) JoinGroup(ctx context.Context, groupID string, preferredSlot *int) (*models.Membership, error) {
	l := v.ledger
	l.mu.Lock()
	l.calls["join"]++
	hook, fail := l.beforeJoin, l.failJoin
	l.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}
	if fail != nil {
		return nil, fail
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.groups[groupID]
	if !ok {
		return nil, &allocation.JoinError{Reason: "Group not found", Err: allocation.ErrGroupNotFound}
	}
	for _, m := range l.members[groupID] {
		if m.UserID == v.member {
			return nil, &allocation.JoinError{Reason: "Already a member of this group", Err: allocation.ErrAlreadyMember}
		}
	}
	if g.Status != string(models.GroupPending) || len(g.AvailableSlots) == 0 {
		return nil, &allocation.JoinError{Reason: "Group is full", Err: allocation.ErrGroupNotJoinable}
	}

	slot := g.AvailableSlots[0]
	idx := 0
	if preferredSlot != nil {
		idx = sort.SearchInts(g.AvailableSlots, *preferredSlot)
		if idx == len(g.AvailableSlots) || g.AvailableSlots[idx] != *preferredSlot {
			return nil, &allocation.JoinError{Reason: "Preferred slot not available", Err: allocation.ErrSlotUnavailable}
		}
		slot = *preferredSlot
	}
	g.AvailableSlots = append(g.AvailableSlots[:idx:idx], g.AvailableSlots[idx+1:]...)
	g.CurrentMembers++
	if g.CurrentMembers == g.TotalMembers {
		g.Status = string(models.GroupFull)
	}

	m := models.Membership{
		ID: uuid.New().String(), UserID: v.member, GroupID: groupID,
		SlotNumber: slot, PayoutMonth: slot, Status: models.MembershipActive,
	}
	l.members[groupID] = append(l.members[groupID], m)
	return &m, nil
}

func (v *memberView) CurrentUser(ctx context.Context) (*models.User, error) {
	l := v.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	u := &models.User{ID: v.member, IsActive: true}
	for _, id := range l.order {
		for _, m := range l.members[id] {
			if m.UserID == v.member {
				u.JoinedGroups = append(u.JoinedGroups, id)
			}
		}
	}
	return u, nil
}

func copyGroup(g *models.RemoteGroup) models.RemoteGroup {
	c := *g
	c.AvailableSlots = append([]int(nil), g.AvailableSlots...)
	return c
}

func slots(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func pending(id string, capacity, duration int, available []int) models.RemoteGroup {
	return models.RemoteGroup{
		ID:             id,
		Name:           "Group " + id,
		MonthlyAmount:  100,
		DurationCycles: duration,
		TotalMembers:   capacity,
		Status:         string(models.GroupPending),
		PayoutOrder:    models.PayoutManual,
		AvailableSlots: available,
	}
}
