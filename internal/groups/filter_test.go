package groups

import (
	"testing"
	"time"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

func displayGroup(name string, amount float64, duration, free int, created time.Time) models.Group {
	g := models.Group{
		ID:             name,
		Name:           name,
		Description:    "save together",
		MonthlyAmount:  amount,
		DurationCycles: duration,
		TotalCapacity:  duration,
		Status:         models.GroupPending,
		CreatedAt:      created.Unix(),
	}
	for i := 1; i <= duration; i++ {
		s := models.Slot{SlotNumber: i, PayoutMonth: i}
		if i > free {
			s.OccupantID = "m"
		}
		g.Slots = append(g.Slots, s)
	}
	return g
}

func TestFilter(t *testing.T) {
	jan := time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	all := []models.Group{
		displayGroup("Family", 100, 4, 1, jan),
		displayGroup("Office", 500, 10, 4, mar),
		displayGroup("Neighbours", 1500, 24, 12, mar),
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"zero value matches all", Criteria{}, []string{"Family", "Office", "Neighbours"}},
		{"search name", Criteria{Search: "fam"}, []string{"Family"}},
		{"search description", Criteria{Search: "TOGETHER"}, []string{"Family", "Office", "Neighbours"}},
		{"amount range", Criteria{MinAmount: 200, MaxAmount: 1000}, []string{"Office"}},
		{"min only", Criteria{MinAmount: 1000}, []string{"Neighbours"}},
		{"short duration", Criteria{Duration: ShortDuration}, []string{"Family"}},
		{"mid duration", Criteria{Duration: MidDuration}, []string{"Office"}},
		{"long duration", Criteria{Duration: LongDuration}, []string{"Neighbours"}},
		{"few slots", Criteria{Slots: FewSlots}, []string{"Family"}},
		{"some slots", Criteria{Slots: SomeSlots}, []string{"Office"}},
		{"many slots", Criteria{Slots: ManySlots}, []string{"Neighbours"}},
		{"created since same day", Criteria{CreatedSince: time.Date(2026, 1, 10, 23, 0, 0, 0, time.UTC)}, []string{"Family", "Office", "Neighbours"}},
		{"created since later", Criteria{CreatedSince: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}, []string{"Office", "Neighbours"}},
		{"combined", Criteria{Search: "o", Duration: MidDuration, MaxAmount: 600}, []string{"Office"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.criteria.Validate(); err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			got := Filter(all, tt.criteria)
			var names []string
			for _, g := range got {
				names = append(names, g.Name)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("Filter() = %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("Filter()[%d] = %s, want %s", i, names[i], tt.want[i])
				}
			}
		})
	}
}

func TestCriteriaValidate(t *testing.T) {
	bad := []Criteria{
		{Duration: "1-2"},
		{Slots: "10+"},
		{MinAmount: -1},
		{MinAmount: 500, MaxAmount: 100},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", c)
		}
	}
}
