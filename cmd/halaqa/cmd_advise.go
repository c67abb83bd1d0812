package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbdoViper23/halaqa-Save/internal/advisor"
)

var adviseCmd = &cobra.Command{
	Use:   "advise <message...>",
	Short: "Ask the savings advisor which circle fits you",
	Long: `Ask the savings advisor which circle fits you.

The advisor sees the circles currently accepting members. Configure it with
ADVISOR_PROVIDER (gemini or openai) and the matching API key.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdvise,
}

func runAdvise(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	adv, err := advisor.New(ctx, advisor.Config{
		Provider:     s.cfg.Advisor.Provider,
		GeminiAPIKey: s.cfg.Advisor.GeminiAPIKey,
		GeminiModel:  s.cfg.Advisor.GeminiModel,
		OpenAIAPIKey: s.cfg.Advisor.OpenAIAPIKey,
		OpenAIModel:  s.cfg.Advisor.OpenAIModel,
		PerMinute:    s.cfg.Advisor.PerMinute,

		OpenAIBaseURL: s.cfg.Advisor.OpenAIURL,
	}, s.logger)
	if err != nil {
		return err
	}

	available, err := s.store.GetAvailableGroups(ctx)
	if err != nil {
		return err
	}
	reply, err := adv.Recommend(ctx, strings.Join(args, " "), available)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
