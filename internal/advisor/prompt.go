package advisor

import (
	"fmt"
	"strings"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// FormatGroups renders the groups as the model sees them.
func FormatGroups(groups []models.Group) string {
	blocks := make([]string, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		payout := "Auto assignment"
		if g.PayoutOrder == models.PayoutManual {
			payout = "Manual slot selection"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Group: %q\n", g.Name)
		fmt.Fprintf(&b, "- Description: %s\n", g.Description)
		fmt.Fprintf(&b, "- Monthly Amount: $%s\n", money(g.MonthlyAmount))
		fmt.Fprintf(&b, "- Duration: %d months\n", g.DurationCycles)
		fmt.Fprintf(&b, "- Available Spots: %d/%d\n", g.AvailableCount(), g.TotalCapacity)
		fmt.Fprintf(&b, "- Payout Method: %s\n", payout)
		fmt.Fprintf(&b, "- Status: %s\n", g.Status)
		fmt.Fprintf(&b, "- Total Investment: $%s\n", money(g.MonthlyAmount*float64(g.DurationCycles)))
		fmt.Fprintf(&b, "- Monthly Pool: $%s", money(g.MonthlyAmount*float64(g.TotalCapacity)))
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt assembles the single advisory prompt.
func BuildPrompt(userText string, groups []models.Group) string {
	listing := FormatGroups(groups)
	if listing == "" {
		listing = "(no groups are currently accepting members)"
	}

	return fmt.Sprintf(`You are a savings advisor for Halaqa Save, a platform for monthly savings circles (rotating savings and credit associations).

Ask follow-up questions to understand the member's needs before recommending a group.

Available Savings Groups:
%s

How the circles work:
- Members join a group and contribute every month
- Each month one member receives the whole pool
- Manual groups: the member chooses their payout month
- Auto groups: the member gets the next free slot
- A member pays monthly amount x duration in total
- A member receives monthly amount x members when their turn comes

Member's message: %q

Guidelines:
1. On a first or general message, ask about the savings goal, the comfortable monthly budget, when the money is needed and whether they want to pick their payout month.
2. When the member gave specific details, recommend the most suitable group(s) and explain why.
3. Stay conversational and keep the answer to 2-4 sentences.
4. When recommending a group, mention its monthly amount, duration and payout method.

Response:`, listing, userText)
}

func money(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
