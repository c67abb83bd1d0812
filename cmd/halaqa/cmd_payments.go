package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var payCmd = &cobra.Command{
	Use:   "pay <group-id> <cycle>",
	Short: "Pay your contribution for a cycle",
	Args:  cobra.ExactArgs(2),
	RunE:  runPay,
}

var paymentsCmd = &cobra.Command{
	Use:   "payments <group-id>",
	Short: "List your payments in a circle",
	Args:  cobra.ExactArgs(1),
	RunE:  runPayments,
}

var standingCmd = &cobra.Command{
	Use:   "standing <group-id>",
	Short: "Show contributions and payout position in a circle",
	Args:  cobra.ExactArgs(1),
	RunE:  runStanding,
}

var standingUser string

func init() {
	standingCmd.Flags().StringVar(&standingUser, "user", "", "Member ID (defaults to you)")
}

func runPay(cmd *cobra.Command, args []string) error {
	cycle, err := strconv.Atoi(args[1])
	if err != nil || cycle <= 0 {
		return fmt.Errorf("cycle must be a positive number, got %q", args[1])
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	p, err := s.client.MakePayment(ctx, args[0], cycle)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Paid %.2f for cycle %d.\n", p.Amount, p.CycleNumber)
	return nil
}

func runPayments(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list, err := s.client.Payments(ctx, args[0])
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No payments yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CYCLE\tAMOUNT\tSTATUS\tPAID")
	for _, p := range list {
		paid := "-"
		if p.PaidAt > 0 {
			paid = time.Unix(p.PaidAt, 0).Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\n", p.CycleNumber, p.Amount, p.Status, paid)
	}
	return w.Flush()
}

func runStanding(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := s.client.Standing(ctx, args[0], standingUser)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Slot %d, payout in month %d", st.SlotNumber, st.PayoutMonth)
	switch {
	case st.PayoutReceived:
		fmt.Fprintln(out, " (received)")
	case st.CyclesUntilPayout > 0:
		fmt.Fprintf(out, " (%d cycle(s) away)\n", st.CyclesUntilPayout)
	default:
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Contributed %.2f of %.2f expected so far, %.2f outstanding\n", st.Contributed, st.Expected, st.Outstanding)
	fmt.Fprintf(out, "Commitment %.2f, payout %.2f, net %.2f\n", st.TotalCommitment, st.PayoutAmount, st.NetPosition)
	if len(st.OverdueCycles) > 0 {
		fmt.Fprintf(out, "Overdue cycles: %v\n", st.OverdueCycles)
	}
	return nil
}
