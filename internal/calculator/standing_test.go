package calculator

import (
	"math"
	"testing"
)

func TestCalculateStanding(t *testing.T) {
	tests := []struct {
		name         string
		terms        GroupTerms
		member       MemberPosition
		wantErr      bool
		validateFunc func(t *testing.T, st *Standing)
	}{
		{
			name:  "pending group owes nothing yet",
			terms: GroupTerms{MonthlyAmount: 500, DurationCycles: 12, TotalMembers: 12},
			member: MemberPosition{
				MemberID: "alice", SlotNumber: 3, PayoutMonth: 3,
			},
			validateFunc: func(t *testing.T, st *Standing) {
				if st.TotalCommitment != 6000 {
					t.Errorf("commitment = %v, want 6000", st.TotalCommitment)
				}
				if st.PayoutAmount != 6000 {
					t.Errorf("payout = %v, want 6000", st.PayoutAmount)
				}
				if st.Expected != 0 || st.Outstanding != 0 || len(st.OverdueCycles) != 0 {
					t.Errorf("expected nothing due, got %+v", st)
				}
				if st.CyclesUntilPayout != 3 {
					t.Errorf("cycles until payout = %d, want 3", st.CyclesUntilPayout)
				}
			},
		},
		{
			name:  "active group with a missed cycle",
			terms: GroupTerms{MonthlyAmount: 100, DurationCycles: 5, TotalMembers: 5, CurrentCycle: 3, Started: true},
			member: MemberPosition{
				MemberID: "bob", SlotNumber: 1, PayoutMonth: 1, PayoutReceived: true,
				Contributions: []Contribution{{Cycle: 1, Amount: 100}, {Cycle: 3, Amount: 100}},
			},
			validateFunc: func(t *testing.T, st *Standing) {
				if math.Abs(st.Expected-300) > 0.01 {
					t.Errorf("expected = %v, want 300", st.Expected)
				}
				if math.Abs(st.Outstanding-100) > 0.01 {
					t.Errorf("outstanding = %v, want 100", st.Outstanding)
				}
				if len(st.OverdueCycles) != 1 || st.OverdueCycles[0] != 2 {
					t.Errorf("overdue = %v, want [2]", st.OverdueCycles)
				}
				// Received 500, paid 200.
				if math.Abs(st.NetPosition-300) > 0.01 {
					t.Errorf("net = %v, want 300", st.NetPosition)
				}
				if st.CyclesUntilPayout != 0 {
					t.Errorf("cycles until payout = %d, want 0", st.CyclesUntilPayout)
				}
			},
		},
		{
			name:  "completed group counts every cycle",
			terms: GroupTerms{MonthlyAmount: 50, DurationCycles: 2, TotalMembers: 2, CurrentCycle: 2, Started: true, Completed: true},
			member: MemberPosition{
				MemberID: "carol", SlotNumber: 2, PayoutMonth: 2, PayoutReceived: true,
				Contributions: []Contribution{{Cycle: 1, Amount: 50}, {Cycle: 2, Amount: 50}},
			},
			validateFunc: func(t *testing.T, st *Standing) {
				if st.Outstanding != 0 || len(st.OverdueCycles) != 0 {
					t.Errorf("expected fully paid, got %+v", st)
				}
				if st.NetPosition != 0 {
					t.Errorf("net = %v, want 0", st.NetPosition)
				}
			},
		},
		{
			name:    "zero monthly amount should error",
			terms:   GroupTerms{MonthlyAmount: 0, DurationCycles: 2, TotalMembers: 2},
			member:  MemberPosition{MemberID: "x"},
			wantErr: true,
		},
		{
			name:    "zero duration should error",
			terms:   GroupTerms{MonthlyAmount: 10, DurationCycles: 0, TotalMembers: 2},
			member:  MemberPosition{MemberID: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := CalculateStanding(tt.terms, tt.member)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CalculateStanding() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, st)
			}
		})
	}
}

func TestCalculateGroupStandings_OrderedBySlot(t *testing.T) {
	terms := GroupTerms{MonthlyAmount: 10, DurationCycles: 3, TotalMembers: 3}
	standings, err := CalculateGroupStandings(terms, []MemberPosition{
		{MemberID: "c", SlotNumber: 3, PayoutMonth: 3},
		{MemberID: "a", SlotNumber: 1, PayoutMonth: 1},
		{MemberID: "b", SlotNumber: 2, PayoutMonth: 2},
	})
	if err != nil {
		t.Fatalf("CalculateGroupStandings() error = %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if standings[i].MemberID != want {
			t.Errorf("standings[%d] = %s, want %s", i, standings[i].MemberID, want)
		}
	}
}
