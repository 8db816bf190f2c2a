package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"topic-crawler/internal/report"

	"github.com/spf13/cobra"
)

var (
	reportDate string
	reportSave bool
)

// reportCmd renders a markdown report for a topic from the stored search snapshot.
var reportCmd = &cobra.Command{
	Use:   "report <topic>",
	Short: "Summarize stored bilibili records into a markdown report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		topic := args[0]

		records, err := report.LoadTopicItems(cfg.Output.DataRoot, reportDate)
		if err != nil {
			return err
		}
		summary := report.Summarize(records)

		titles := []string{}
		ts, err := newTitleSuggester(cfg)
		if err != nil {
			return err
		}
		if ts != nil {
			if got, err := ts.SuggestTitles(cmd.Context(), topic, "热搜选题"); err != nil {
				slog.Warn("report: title suggestions failed", "err", err)
			} else {
				titles = got
			}
		}

		now := time.Now()
		md, err := report.Render(topic, summary, titles, now)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		if reportSave {
			path, err := report.Save(reportDir(), topic, md, now)
			if err != nil {
				return err
			}
			slog.Info("report: saved", "path", path)
		}
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := report.List(reportDir())
		if err != nil {
			return err
		}
		for _, s := range saved {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\n", s.Meta.GeneratedAt, s.Meta.Topic, s.Meta.Count, s.Path)
		}
		return nil
	},
}

func reportDir() string {
	return filepath.Join(GetConfig().Output.Dir, "reports")
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "snapshot date (YYYY-MM-DD), latest when empty")
	reportCmd.Flags().BoolVar(&reportSave, "save", false, "also write the report under <output.dir>/reports")
	reportCmd.AddCommand(reportListCmd)
	rootCmd.AddCommand(reportCmd)
}
