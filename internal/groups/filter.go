package groups

import (
	"fmt"
	"strings"
	"time"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// DurationBucket selects groups by number of cycles.
type DurationBucket string

const (
	AnyDuration   DurationBucket = ""
	ShortDuration DurationBucket = "3-6"  // 3..6 cycles
	MidDuration   DurationBucket = "6-12" // 7..12 cycles
	LongDuration  DurationBucket = "12+"  // more than 12 cycles
)

// SlotBucket selects groups by number of free slots.
type SlotBucket string

const (
	AnySlots  SlotBucket = ""
	FewSlots  SlotBucket = "1-2"
	SomeSlots SlotBucket = "3-5"
	ManySlots SlotBucket = "5+"
)

// Criteria narrows down a group listing. The zero value matches everything.
type Criteria struct {
	// Search matches name or description, case-insensitively.
	Search string

	// MinAmount and MaxAmount bound the monthly amount. A zero MaxAmount is unbounded.
	MinAmount float64
	MaxAmount float64

	Duration DurationBucket
	Slots    SlotBucket

	// CreatedSince keeps groups created on or after this day.
	CreatedSince time.Time
}

// Validate rejects unknown buckets and inverted amount ranges.
func (c Criteria) Validate() error {
	switch c.Duration {
	case AnyDuration, ShortDuration, MidDuration, LongDuration:
	default:
		return fmt.Errorf("unknown duration bucket %q", c.Duration)
	}
	switch c.Slots {
	case AnySlots, FewSlots, SomeSlots, ManySlots:
	default:
		return fmt.Errorf("unknown slot bucket %q", c.Slots)
	}
	if c.MinAmount < 0 || (c.MaxAmount > 0 && c.MaxAmount < c.MinAmount) {
		return fmt.Errorf("invalid amount range %.2f-%.2f", c.MinAmount, c.MaxAmount)
	}
	return nil
}

// Matches reports whether g satisfies every criterion.
func (c Criteria) Matches(g *models.Group) bool {
	if c.Search != "" {
		term := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(g.Name), term) &&
			!strings.Contains(strings.ToLower(g.Description), term) {
			return false
		}
	}

	if g.MonthlyAmount < c.MinAmount || (c.MaxAmount > 0 && g.MonthlyAmount > c.MaxAmount) {
		return false
	}

	d := g.DurationCycles
	switch c.Duration {
	case ShortDuration:
		if d < 3 || d > 6 {
			return false
		}
	case MidDuration:
		if d <= 6 || d > 12 {
			return false
		}
	case LongDuration:
		if d <= 12 {
			return false
		}
	}

	free := g.AvailableCount()
	switch c.Slots {
	case FewSlots:
		if free < 1 || free > 2 {
			return false
		}
	case SomeSlots:
		if free < 3 || free > 5 {
			return false
		}
	case ManySlots:
		if free < 5 {
			return false
		}
	}

	if !c.CreatedSince.IsZero() {
		created := day(time.Unix(g.CreatedAt, 0))
		if created.Before(day(c.CreatedSince)) {
			return false
		}
	}
	return true
}

// Filter returns the groups matching c, in order.
func Filter(groups []models.Group, c Criteria) []models.Group {
	out := make([]models.Group, 0, len(groups))
	for i := range groups {
		if c.Matches(&groups[i]) {
			out = append(out, groups[i])
		}
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
