package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AbdoViper23/halaqa-Save/internal/allocation"
	"github.com/AbdoViper23/halaqa-Save/internal/config"
	"github.com/AbdoViper23/halaqa-Save/internal/groups"
	"github.com/AbdoViper23/halaqa-Save/internal/ledgerclient"
	"github.com/AbdoViper23/halaqa-Save/pkg/logging"
)

var (
	// Global flags
	configPath string
	ledgerURL  string
	tokenFile  string
	verbose    bool
	timeout    time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "halaqa",
	Short: "Halaqa Save - monthly savings circles from the terminal",
	Long: `halaqa browses, creates and joins savings circles on a Halaqa ledger.

Sign in with 'halaqa login' or 'halaqa register'; the session token is kept in
~/.halaqa/token unless LEDGER_TOKEN is set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "halaqa.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&ledgerURL, "ledger", "", "Ledger URL (or set LEDGER_URL env)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", defaultTokenFile(), "Where the session token is stored")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(paymentsCmd)
	rootCmd.AddCommand(standingCmd)
	rootCmd.AddCommand(adviseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// session is one CLI invocation's view of the ledger.
type session struct {
	cfg    *config.Config
	client *ledgerclient.Client
	store  *groups.Store
	logger *slog.Logger
}

func openSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stderr, level)

	url := ledgerURL
	if url == "" {
		url = cfg.Client.LedgerURL
	}
	token := cfg.Client.LedgerToken
	if token == "" {
		token = readToken()
	}

	client := ledgerclient.New(&http.Client{Timeout: timeout}, strings.TrimRight(url, "/"), token)
	return &session{
		cfg:    cfg,
		client: client,
		store:  groups.NewStore(client, nil, logger),
		logger: logger,
	}, nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".halaqa-token"
	}
	return filepath.Join(home, ".halaqa", "token")
}

func readToken() string {
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(tokenFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var ce *groups.CreationError
	if errors.As(err, &ce) {
		return "Error: " + ce.Reason
	}
	var je *allocation.JoinError
	switch {
	case errors.As(err, &je),
		errors.Is(err, allocation.ErrAlreadyMember),
		errors.Is(err, allocation.ErrSlotUnavailable),
		errors.Is(err, allocation.ErrGroupNotJoinable),
		errors.Is(err, allocation.ErrJoinInFlight),
		errors.Is(err, allocation.ErrGroupNotFound),
		errors.Is(err, allocation.ErrRepositoryUnavailable):
		return "Error: " + allocation.Message(err)
	}
	return "Error: " + err.Error()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}
