package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AbdoViper23/halaqa-Save/internal/groups"
	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// groupsCmd is the parent command for browsing and joining circles
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Browse, create and join savings circles",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List circles that accept members",
	Long: `List circles that accept members, optionally filtered.

Duration buckets: 3-6, 6-12, 12+
Free slot buckets: 1-2, 3-5, 5+`,
	Args: cobra.NoArgs,
	RunE: runGroupsList,
}

var groupsShowCmd = &cobra.Command{
	Use:   "show <group-id>",
	Short: "Show a circle and its slot table",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsShow,
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a circle",
	Args:  cobra.NoArgs,
	RunE:  runGroupsCreate,
}

var groupsJoinCmd = &cobra.Command{
	Use:   "join <group-id>",
	Short: "Take a slot in a circle",
	Long: `Take a slot in a circle.

Auto circles assign the next free slot. Manual circles accept --slot to pick
the payout position; without it the lowest free slot is taken.`,
	Args: cobra.ExactArgs(1),
	RunE: runGroupsJoin,
}

var groupsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the circles you hold a slot in",
	Args:  cobra.NoArgs,
	RunE:  runGroupsMine,
}

var (
	listCriteria groups.Criteria
	listDuration string
	listSlots    string
	listSince    string

	createSpec  models.GroupSpec
	createOrder string

	joinSlot int
)

func init() {
	f := groupsListCmd.Flags()
	f.StringVar(&listCriteria.Search, "search", "", "Match name or description")
	f.Float64Var(&listCriteria.MinAmount, "min", 0, "Minimum monthly amount")
	f.Float64Var(&listCriteria.MaxAmount, "max", 0, "Maximum monthly amount (0 for no limit)")
	f.StringVar(&listDuration, "duration", "", "Duration bucket")
	f.StringVar(&listSlots, "slots", "", "Free slot bucket")
	f.StringVar(&listSince, "since", "", "Created on or after this date (YYYY-MM-DD)")

	f = groupsCreateCmd.Flags()
	f.StringVar(&createSpec.Name, "name", "", "Circle name (required)")
	f.StringVar(&createSpec.Description, "description", "", "Circle description")
	f.Float64Var(&createSpec.MonthlyAmount, "amount", 0, "Monthly contribution (required)")
	f.IntVar(&createSpec.TotalMembers, "members", 0, "Number of members (required)")
	f.IntVar(&createSpec.DurationCycles, "cycles", 0, "Number of monthly cycles (defaults to members)")
	f.StringVar(&createOrder, "order", string(models.PayoutAuto), "Payout order: Auto or Manual")
	groupsCreateCmd.MarkFlagRequired("name")
	groupsCreateCmd.MarkFlagRequired("amount")
	groupsCreateCmd.MarkFlagRequired("members")

	groupsJoinCmd.Flags().IntVar(&joinSlot, "slot", 0, "Preferred slot number")

	groupsCmd.AddCommand(groupsListCmd)
	groupsCmd.AddCommand(groupsShowCmd)
	groupsCmd.AddCommand(groupsCreateCmd)
	groupsCmd.AddCommand(groupsJoinCmd)
	groupsCmd.AddCommand(groupsMineCmd)
}

func runGroupsList(cmd *cobra.Command, args []string) error {
	c := listCriteria
	c.Duration = groups.DurationBucket(listDuration)
	c.Slots = groups.SlotBucket(listSlots)
	if listSince != "" {
		since, err := time.ParseInLocation(time.DateOnly, listSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since date: %w", err)
		}
		c.CreatedSince = since
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	found, err := s.store.Filter(ctx, c)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No circles match.")
		return nil
	}
	printGroups(cmd.OutOrStdout(), found)
	return nil
}

func runGroupsShow(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	g, err := s.store.GetGroupByID(ctx, args[0])
	if err != nil {
		return err
	}
	if g == nil {
		return fmt.Errorf("group %s not found", args[0])
	}

	// Best effort; anonymous sessions just don't see "you".
	var me string
	if user, err := s.client.CurrentUser(ctx); err == nil && user != nil {
		me = user.ID
	}
	printGroup(cmd.OutOrStdout(), g, me)
	return nil
}

func runGroupsCreate(cmd *cobra.Command, args []string) error {
	spec := createSpec
	spec.PayoutOrder = models.PayoutOrder(createOrder)
	if spec.DurationCycles == 0 {
		spec.DurationCycles = spec.TotalMembers
	}
	if spec.PayoutOrder != models.PayoutAuto && spec.PayoutOrder != models.PayoutManual {
		return fmt.Errorf("unknown payout order %q", createOrder)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	g, err := s.store.Create(ctx, spec)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", g.Name, g.ID)
	return nil
}

func runGroupsJoin(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("sign in first with 'halaqa login'")
	}

	var preferred *int
	if joinSlot > 0 {
		preferred = &joinSlot
	}
	g, err := s.store.Join(ctx, args[0], user.ID, preferred)
	if err != nil {
		return err
	}

	for _, slot := range g.Slots {
		if slot.OccupantID == user.ID {
			fmt.Fprintf(cmd.OutOrStdout(), "Joined %q in slot %d, payout in month %d.\n", g.Name, slot.SlotNumber, slot.PayoutMonth)
			return nil
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Joined %q.\n", g.Name)
	return nil
}

func runGroupsMine(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("sign in first with 'halaqa login'")
	}
	mine, err := s.store.UserGroups(ctx, user.JoinedGroups)
	if err != nil {
		return err
	}
	if len(mine) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "You have not joined any circle yet.")
		return nil
	}
	printGroups(cmd.OutOrStdout(), mine)
	return nil
}

func printGroups(out io.Writer, list []models.Group) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMONTHLY\tCYCLES\tSPOTS\tPAYOUT\tSTATUS")
	for i := range list {
		g := &list[i]
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%d/%d\t%s\t%s\n",
			g.ID, g.Name, g.MonthlyAmount, g.DurationCycles,
			g.AvailableCount(), g.TotalCapacity, g.PayoutOrder, g.Status)
	}
	w.Flush()
}

func printGroup(out io.Writer, g *models.Group, me string) {
	fmt.Fprintf(out, "%s (%s)\n", g.Name, g.ID)
	if g.Description != "" {
		fmt.Fprintln(out, g.Description)
	}
	fmt.Fprintf(out, "Status: %s, cycle %d of %d\n", g.Status, g.CurrentCycle, g.DurationCycles)
	fmt.Fprintf(out, "Monthly: %.2f, pool: %.2f, payout: %s\n\n",
		g.MonthlyAmount, g.MonthlyAmount*float64(g.TotalCapacity), g.PayoutOrder)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tMONTH\tHOLDER")
	for _, slot := range g.Slots {
		holder := "free"
		switch {
		case slot.Available():
		case slot.OccupantID == me:
			holder = "you"
		default:
			holder = "taken"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", slot.SlotNumber, slot.PayoutMonth, holder)
	}
	w.Flush()
}
