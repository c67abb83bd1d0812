package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <email> <display-name>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in to the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.Remove(tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var password string

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&password, "password", "p", "", "Account password (or set HALAQA_PASSWORD env)")
	}
}

func passwordArg() (string, error) {
	if password != "" {
		return password, nil
	}
	if p := os.Getenv("HALAQA_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errors.New("a password is required: use --password or HALAQA_PASSWORD")
}

func runRegister(cmd *cobra.Command, args []string) error {
	pw, err := passwordArg()
	if err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	user, err := s.client.Register(ctx, args[0], args[1], pw)
	if err != nil {
		return err
	}
	if err := saveToken(s.client.Token()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! You are signed in as %s.\n", user.DisplayName, user.Email)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	pw, err := passwordArg()
	if err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	user, err := s.client.Login(ctx, args[0], pw)
	if err != nil {
		return err
	}
	if err := saveToken(s.client.Token()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", user.Email)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
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
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>, member of %d group(s)\n", user.DisplayName, user.Email, len(user.JoinedGroups))
	return nil
}
