package cmd

import (
	"strings"
	"time"

	"topic-crawler/internal/bilibili"
	"topic-crawler/internal/model"
	"topic-crawler/internal/snapshot"
	"topic-crawler/worker"

	"github.com/spf13/cobra"
)

var (
	biliLimit       int
	biliCompact     bool
	biliPer         int
	biliConcurrency int
)

// biliCmd groups the bilibili subcommands.
var biliCmd = &cobra.Command{
	Use:   "bili",
	Short: "Fetch topics from bilibili",
}

var biliSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search videos for a keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		client, err := newBilibili(cfg)
		if err != nil {
			return err
		}
		items, err := client.FetchHotTopics(cmd.Context(), strings.Join(args, " "), biliLimit)
		if err != nil {
			return err
		}
		return writeBili(cmd, model.PlatformBilibili, items)
	},
}

var biliHotSearchCmd = &cobra.Command{
	Use:   "hotsearch",
	Short: "List the hot search keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		client, err := newBilibili(cfg)
		if err != nil {
			return err
		}
		items, err := client.FetchHotSearch(cmd.Context(), biliLimit)
		if err != nil {
			return err
		}
		// keyword-only records; the search snapshot for the day stays intact
		return writeBili(cmd, worker.SourceBiliHotword, items)
	},
}

var biliHotCmd = &cobra.Command{
	Use:   "hot",
	Short: "Fetch the hot ranking, optionally enriched with search stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		client, err := newBilibili(cfg)
		if err != nil {
			return err
		}
		items, err := client.FetchRankingHotTopics(cmd.Context(), biliLimit)
		if err != nil {
			return err
		}
		items = bilibili.EnrichHotTopicsWithStats(cmd.Context(), client, items, biliPer, biliConcurrency)
		return writeBili(cmd, worker.SourceBiliHot, items)
	},
}

// writeBili prints payload and stores it under the dated data_root path.
func writeBili(cmd *cobra.Command, source string, payload any) error {
	cfg := GetConfig()
	at := time.Now().UTC()
	if err := snapshot.Write(cmd.OutOrStdout(), snapshot.DatedPath(cfg.Output.DataRoot, source, at), payload, biliCompact); err != nil {
		return err
	}
	store, closeStore := openStore(cfg)
	defer closeStore()
	mirror(cmd.Context(), store, source, at, snapshot.Strip(payload))
	return nil
}

func init() {
	biliCmd.PersistentFlags().IntVar(&biliLimit, "limit", 20, "maximum number of results")
	biliCmd.PersistentFlags().BoolVar(&biliCompact, "compact", false, "omit raw upstream payloads")
	biliHotCmd.Flags().IntVar(&biliPer, "per", 0, "search page size used to enrich each topic (0 disables)")
	biliHotCmd.Flags().IntVar(&biliConcurrency, "concurrency", 5, "concurrent enrichment searches")

	biliCmd.AddCommand(biliSearchCmd, biliHotSearchCmd, biliHotCmd)
	rootCmd.AddCommand(biliCmd)
}
