package cmd

import (
	"errors"
	"fmt"
	"strings"

	"topic-crawler/internal/ai"
	"topic-crawler/internal/report"

	"github.com/spf13/cobra"
)

var agentMaxSteps int

// agentCmd lets the model load, summarize and title the stored records itself.
var agentCmd = &cobra.Command{
	Use:   "agent <prompt>",
	Short: "Ask the analysis agent about the stored bilibili records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg.OpenAI.APIKey == "" {
			return errors.New("agent: openai.api_key (OPENAI_API_KEY) is not set")
		}
		ts, err := newTitleSuggester(cfg)
		if err != nil {
			return err
		}
		a, err := ai.NewAgent(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL},
			report.Tools(cfg.Output.DataRoot, ts))
		if err != nil {
			return err
		}
		a.MaxSteps = agentMaxSteps
		out, err := a.Run(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	agentCmd.Flags().IntVar(&agentMaxSteps, "max-steps", ai.DefaultMaxSteps, "maximum model round trips")
	rootCmd.AddCommand(agentCmd)
}
