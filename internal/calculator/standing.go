// Package calculator computes contribution and payout figures for savings groups.
package calculator

import (
	"fmt"
	"sort"
)

// GroupTerms is the minimal group information needed for standing calculations.
type GroupTerms struct {
	MonthlyAmount  float64
	DurationCycles int
	TotalMembers   int
	CurrentCycle   int
	Started        bool // Active or Completed
	Completed      bool
}

// Contribution is one paid cycle.
type Contribution struct {
	Cycle  int
	Amount float64
}

// MemberPosition is what the calculator needs to know about one member.
type MemberPosition struct {
	MemberID       string
	SlotNumber     int
	PayoutMonth    int
	PayoutReceived bool
	Contributions  []Contribution
}

// Standing is one member's financial position in a group.
type Standing struct {
	MemberID          string
	SlotNumber        int
	TotalCommitment   float64 // MonthlyAmount × DurationCycles
	PayoutAmount      float64 // MonthlyAmount × TotalMembers
	Contributed       float64 // Sum of paid contributions
	Expected          float64 // What should have been paid by the current cycle
	Outstanding       float64 // Expected - Contributed, never negative
	OverdueCycles     []int   // Elapsed cycles without a paid contribution
	PayoutMonth       int
	PayoutReceived    bool
	CyclesUntilPayout int     // 0 when the payout cycle is current or past
	NetPosition       float64 // Received payout minus contributions
}

// ElapsedCycles returns how many cycles are due for payment.
// The current cycle counts as due once the group has started.
func (t GroupTerms) ElapsedCycles() int {
	switch {
	case t.Completed:
		return t.DurationCycles
	case t.Started:
		if t.CurrentCycle > t.DurationCycles {
			return t.DurationCycles
		}
		return t.CurrentCycle
	default:
		return 0
	}
}

// CalculateStanding computes a member's position.
//
// Algorithm:
// - commitment = monthly × duration; payout = monthly × members
// - expected = monthly × elapsed cycles
// - overdue cycles = elapsed cycles with no contribution
// - net = payout (if received) - contributed
func CalculateStanding(terms GroupTerms, member MemberPosition) (*Standing, error) {
	if terms.MonthlyAmount <= 0 {
		return nil, fmt.Errorf("monthly amount must be positive")
	}
	if terms.DurationCycles <= 0 || terms.TotalMembers <= 0 {
		return nil, fmt.Errorf("duration and members must be positive")
	}

	st := &Standing{
		MemberID:        member.MemberID,
		SlotNumber:      member.SlotNumber,
		TotalCommitment: terms.MonthlyAmount * float64(terms.DurationCycles),
		PayoutAmount:    terms.MonthlyAmount * float64(terms.TotalMembers),
		PayoutMonth:     member.PayoutMonth,
		PayoutReceived:  member.PayoutReceived,
	}

	paid := make(map[int]bool, len(member.Contributions))
	for _, c := range member.Contributions {
		st.Contributed += c.Amount
		paid[c.Cycle] = true
	}

	elapsed := terms.ElapsedCycles()
	st.Expected = terms.MonthlyAmount * float64(elapsed)
	if st.Expected-st.Contributed > 0.01 { // Avoid floating point noise
		st.Outstanding = st.Expected - st.Contributed
	}
	for cycle := 1; cycle <= elapsed; cycle++ {
		if !paid[cycle] {
			st.OverdueCycles = append(st.OverdueCycles, cycle)
		}
	}

	current := terms.CurrentCycle
	if !terms.Started {
		current = 0
	}
	if member.PayoutMonth > current && !terms.Completed {
		st.CyclesUntilPayout = member.PayoutMonth - current
	}

	if member.PayoutReceived {
		st.NetPosition = st.PayoutAmount
	}
	st.NetPosition -= st.Contributed

	return st, nil
}

// CalculateGroupStandings computes every member's standing ordered by slot number.
func CalculateGroupStandings(terms GroupTerms, members []MemberPosition) ([]Standing, error) {
	standings := make([]Standing, 0, len(members))
	for _, m := range members {
		st, err := CalculateStanding(terms, m)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate standing for %s: %w", m.MemberID, err)
		}
		standings = append(standings, *st)
	}
	sort.Slice(standings, func(i, j int) bool {
		return standings[i].SlotNumber < standings[j].SlotNumber
	})
	return standings, nil
}
